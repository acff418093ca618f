package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type MemoryObject struct {
	Content     []byte
	ContentType string
}

// MemoryBucket keeps objects in memory. It backs tests and local runs
// without object storage credentials.
type MemoryBucket struct {
	mu      sync.Mutex
	base    string
	name    string
	objects map[string]MemoryObject

	// FailUpload and FailRemove force errors for the matching paths.
	FailUpload func(path string) bool
	FailRemove func(path string) bool
}

func NewMemoryBucket(base string, name string) *MemoryBucket {
	return &MemoryBucket{base: base, name: name, objects: map[string]MemoryObject{}}
}

func (m *MemoryBucket) Upload(_ context.Context, path string, content []byte, contentType string) error {
	if m.FailUpload != nil && m.FailUpload(path) {
		return fmt.Errorf("upload of %s refused", path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[path] = MemoryObject{Content: append([]byte(nil), content...), ContentType: contentType}

	return nil
}

func (m *MemoryBucket) Remove(_ context.Context, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range paths {
		if m.FailRemove != nil && m.FailRemove(p) {
			return fmt.Errorf("removal of %s refused", p)
		}

		delete(m.objects, p)
	}

	return nil
}

func (m *MemoryBucket) PublicURL(path string) string {
	return PublicURL(m.base, m.name, path)
}

func (m *MemoryBucket) Object(path string) (MemoryObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.objects[path]

	return o, ok
}

func (m *MemoryBucket) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.objects))
	for p := range m.objects {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}
