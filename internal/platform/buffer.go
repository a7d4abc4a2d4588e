package platform

import "sync"

const (
	// MinBufferSize is the floor for transfer buffers and the size used
	// when block sizes cannot be determined.
	MinBufferSize = 16 << 10
	// MaxBufferSize bounds buffers for filesystems reporting huge blocks.
	MaxBufferSize = 8 << 20
)

// BufferSize picks the transfer buffer size for copying src to dst: the least
// common multiple of both filesystems' block sizes, scaled up to at least
// MinBufferSize. Any failure to query a block size yields MinBufferSize.
func BufferSize(d Dispatcher, src, dst string) int {
	sb, err := d.BlockSize(src)
	if err != nil || sb <= 0 {
		return MinBufferSize
	}
	db, err := d.BlockSize(dst)
	if err != nil || db <= 0 {
		return MinBufferSize
	}
	return sizeFor(sb, db)
}

func sizeFor(a, b int64) int {
	size := lcm(a, b)
	if size > MaxBufferSize {
		size = max(a, b)
		if size > MaxBufferSize {
			return MaxBufferSize
		}
	}
	if size < MinBufferSize {
		size = (MinBufferSize + size - 1) / size * size
	}
	return int(size)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int64) int64 {
	if a == b {
		return a
	}
	return a / gcd(a, b) * b
}

// BufferPool hands out transfer buffers keyed by size. Buffers are pooled
// per size so concurrent copies with different block geometry do not
// thrash each other.
type BufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.Mutex
}

// NewBufferPool returns an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{pools: make(map[int]*sync.Pool)}
}

// Get returns a buffer of exactly size bytes.
func (p *BufferPool) Get(size int) *[]byte {
	return p.pool(size).Get().(*[]byte) //nolint:forcetypeassert // pool only holds *[]byte
}

// Put returns buf to the pool. The caller must not touch it afterwards.
func (p *BufferPool) Put(buf *[]byte) {
	if buf == nil || len(*buf) == 0 {
		return
	}
	p.pool(len(*buf)).Put(buf)
}

func (p *BufferPool) pool(size int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.pools[size]
	if !ok {
		sp = &sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		}
		p.pools[size] = sp
	}
	return sp
}
