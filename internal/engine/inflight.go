package engine

import (
	"sync"

	"github.com/bamsammich/ferry/internal/attr"
	"github.com/bamsammich/ferry/internal/platform"
)

// inflight tracks entities created by copies that have not yet completed,
// so Close can remove them if the process is torn down mid-operation.
type inflight struct {
	mu    sync.Mutex
	paths map[string]attr.Kind
}

func (r *inflight) register(path string, kind attr.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]attr.Kind)
	}
	r.paths[path] = kind
}

func (r *inflight) deregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

func (r *inflight) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// cleanup removes every registered entity, ignoring errors.
func (r *inflight) cleanup(d platform.Dispatcher) {
	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.mu.Unlock()

	for p, kind := range paths {
		if kind == attr.Directory {
			_ = d.Rmdir(p)
		} else {
			_ = d.Unlink(p)
		}
	}
}
