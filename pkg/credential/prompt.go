package credential

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// PromptSelector は端末でユーザーに API キーの入力を促すホスト実装です。
// 入力が空のまま終わっても Select はエラーを返しません。
type PromptSelector struct {
	mu      sync.Mutex
	in      *bufio.Reader
	out     io.Writer
	store   *Store
	message string
}

var (
	_ Source     = (*PromptSelector)(nil)
	_ Selector   = (*PromptSelector)(nil)
	_ Deselector = (*PromptSelector)(nil)
)

// NewPromptSelector は in から入力を読み、out にプロンプトを表示する PromptSelector を返します。
// fallback は事前に設定されたキー（環境変数など）で、空でもかまいません。
func NewPromptSelector(in io.Reader, out io.Writer, fallback string) *PromptSelector {
	return &PromptSelector{
		in:      bufio.NewReader(in),
		out:     out,
		store:   NewStore(fallback),
		message: "The Veo model requires an API key with billing enabled. Enter your key: ",
	}
}

// APIKey は現在のキーを返します。
func (p *PromptSelector) APIKey(ctx context.Context) (string, error) {
	return p.store.APIKey(ctx)
}

// HasSelected はキーが選択済みかどうかを返します。
func (p *PromptSelector) HasSelected(ctx context.Context) (bool, error) {
	return p.store.HasSelected(ctx)
}

// Select はキーの入力を 1 行読み取ります。
func (p *PromptSelector) Select(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprint(p.out, p.message); err != nil {
		return err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("APIキーの読み取りに失敗しました: %w", err)
	}
	if key := strings.TrimSpace(line); key != "" {
		p.store.Offer(key)
	}
	return p.store.Select(ctx)
}

// Deselect は選択済みの状態を取り消します。
func (p *PromptSelector) Deselect() {
	p.store.Deselect()
}
