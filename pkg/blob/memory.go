package blob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	blob      Blob
	expiresAt time.Time
}

// MemoryStore はプロセス内のマップにメディアを保持します。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore は ttl で期限切れになる MemoryStore を作成します。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put はメディアを保存し、新しい ID を返します。
func (s *MemoryStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("空のメディアは保存できません")
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.entries[id] = memoryEntry{
		blob:      Blob{Data: append([]byte(nil), data...), MimeType: mimeType},
		expiresAt: s.now().Add(s.ttl),
	}
	return id, nil
}

// Get は ID に対応するメディアを返します。
func (s *MemoryStore) Get(ctx context.Context, id string) (Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Blob{}, ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, id)
		return Blob{}, ErrNotFound
	}
	return e.blob, nil
}

// Len は期限内のエントリ数を返します。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
