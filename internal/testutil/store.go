package testutil

import (
	"context"
	"io"
	"sort"
	"sync"

	"labelhub/internal/storage"
)

// MemoryStore 内存存储，PutErr 不为nil时写入失败
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	PutErr error
}

var _ storage.Store = (*MemoryStore)(nil)

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Name 后端名称
func (s *MemoryStore) Name() string {
	return "memory"
}

// URL 返回对象地址
func (s *MemoryStore) URL(key string) string {
	return "http://media.test/" + key
}

// Put 写入对象
func (s *MemoryStore) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

// Delete 删除对象
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

// Get 读取对象
func (s *MemoryStore) Get(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, s.types[key], ok
}

// Keys 返回全部对象key
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
