package attr

import (
	"testing"

	"github.com/bamsammich/ferry/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// memXattrs keeps extended attributes per descriptor in memory.
type memXattrs struct {
	platform.Unix
	attrs   map[int]map[string][]byte
	listErr error
	vanish  string
}

func (m *memXattrs) Flistxattr(fd int) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var names []string
	for k := range m.attrs[fd] {
		names = append(names, k)
	}
	if m.vanish != "" {
		names = append(names, m.vanish)
	}
	return names, nil
}

func (m *memXattrs) Fgetxattr(fd int, name string) ([]byte, error) {
	v, ok := m.attrs[fd][name]
	if !ok {
		return nil, &platform.Error{Op: "fgetxattr", Path: name, Errno: errNoAttr}
	}
	return v, nil
}

func (m *memXattrs) Fsetxattr(fd int, name string, value []byte) error {
	if m.attrs[fd] == nil {
		m.attrs[fd] = map[string][]byte{}
	}
	m.attrs[fd][name] = value
	return nil
}

func TestXattrsCopy(t *testing.T) {
	m := &memXattrs{attrs: map[int]map[string][]byte{
		3: {"user.a": []byte("1"), "user.b": []byte("22")},
	}}
	require.NoError(t, Xattrs{}.CopyFD(m, 3, 4))
	assert.Equal(t, m.attrs[3], m.attrs[4])
}

func TestXattrsVanishedDuringCopy(t *testing.T) {
	m := &memXattrs{
		attrs:  map[int]map[string][]byte{3: {"user.a": []byte("1")}},
		vanish: "user.gone",
	}
	require.NoError(t, Xattrs{}.CopyFD(m, 3, 4))
	assert.Equal(t, []byte("1"), m.attrs[4]["user.a"])
	assert.NotContains(t, m.attrs[4], "user.gone")
}

func TestXattrsUnsupportedFilesystem(t *testing.T) {
	m := &memXattrs{listErr: &platform.Error{Op: "flistxattr", Errno: unix.EOPNOTSUPP}}
	assert.NoError(t, Xattrs{}.CopyFD(m, 3, 4))

	m.listErr = &platform.Error{Op: "flistxattr", Errno: unix.EIO}
	assert.Error(t, Xattrs{}.CopyFD(m, 3, 4))
}

func TestNoneCopier(t *testing.T) {
	assert.NoError(t, None{}.CopyFD(nil, 3, 4))
}
