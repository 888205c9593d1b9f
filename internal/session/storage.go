package session

import (
	"context"
	"sync"
)

// Persisted keys. They are always written and removed together.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Storage is one browser session's persisted state.
type Storage interface {
	// Load returns the stored token and serialized user; missing keys come
	// back empty.
	Load(ctx context.Context) (token string, user []byte, err error)
	// Save writes both keys.
	Save(ctx context.Context, token string, user []byte) error
	// Clear removes both keys.
	Clear(ctx context.Context) error
}

// Store hands out the Storage of a browser session by its id.
type Store interface {
	Session(id string) Storage
}

// MemoryStore keeps sessions in process memory. It is used in tests and
// when Redis is not configured.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]map[string]string)}
}

// Session returns the storage for id.
func (m *MemoryStore) Session(id string) Storage { return memorySession{m: m, id: id} }

type memorySession struct {
	m  *MemoryStore
	id string
}

func (s memorySession) Load(ctx context.Context) (string, []byte, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	kv := s.m.items[s.id]
	if kv == nil {
		return "", nil, nil
	}
	var user []byte
	if u, ok := kv[KeyUser]; ok {
		user = []byte(u)
	}
	return kv[KeyToken], user, nil
}

func (s memorySession) Save(ctx context.Context, token string, user []byte) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.items[s.id] = map[string]string{KeyToken: token, KeyUser: string(user)}
	return nil
}

func (s memorySession) Clear(ctx context.Context) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.items, s.id)
	return nil
}
