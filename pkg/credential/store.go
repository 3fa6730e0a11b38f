package credential

import (
	"context"
	"strings"
	"sync"
)

// Store はメモリ上に API キーを保持するホスト実装です。
// サーバーではクライアントから送られたキーを Set し、Select で選択済みにします。
type Store struct {
	mu       sync.RWMutex
	key      string
	pending  string
	selected bool
}

var (
	_ Source     = (*Store)(nil)
	_ Selector   = (*Store)(nil)
	_ Deselector = (*Store)(nil)
)

// NewStore は初期キー付きの Store を作成します。空なら未選択の状態です。
func NewStore(initial string) *Store {
	initial = strings.TrimSpace(initial)
	return &Store{key: initial, selected: initial != ""}
}

// Offer は次の Select で採用するキーを受け取ります。
func (s *Store) Offer(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = strings.TrimSpace(key)
}

// APIKey は現在のキーを返します。
func (s *Store) APIKey(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == "" {
		return "", ErrNoCredential
	}
	return s.key, nil
}

// HasSelected はキーが選択済みかどうかを返します。
func (s *Store) HasSelected(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected && s.key != "", nil
}

// Select は Offer されたキーを採用します。Offer がなければ現在のキーを維持します。
func (s *Store) Select(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != "" {
		s.key, s.pending = s.pending, ""
	}
	s.selected = s.key != ""
	return nil
}

// Deselect は選択済みの状態を取り消します。キーは次の Select まで残ります。
func (s *Store) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = false
}
