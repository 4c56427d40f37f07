package storage

import (
	"bytes"
	"context"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// MemoryStore is an ObjectStore held in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryObject
	now     func() time.Time
}

// NewMemoryStore returns an empty store. now stamps modification times and
// defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{objects: map[string]memoryObject{}, now: now}
}

func (m *MemoryStore) info(key string, o memoryObject) *ObjectInfo {
	return &ObjectInfo{Key: key, Size: uint64(len(o.data)), ContentType: o.contentType, ModTime: o.modTime}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (*ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := memoryObject{data: bytes.Clone(data), contentType: contentType, modTime: m.now()}
	m.objects[key] = o
	return m.info(key, o), nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, *ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, nil, ErrObjectNotFound
	}
	return bytes.Clone(o.data), m.info(key, o), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ObjectInfo, 0, len(m.objects))
	for k, o := range m.objects {
		out = append(out, m.info(k, o))
	}
	return out, nil
}

func (m *MemoryStore) Stat(_ context.Context, key string) (*ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return m.info(key, o), nil
}
