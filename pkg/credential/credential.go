package credential

import (
	"context"
	"errors"
)

var (
	// ErrSelectionUnavailable はホスト環境に資格情報の選択機能がないことを表します。
	ErrSelectionUnavailable = errors.New("credential selection is not available in this environment")
	// ErrNoCredential は資格情報がまだ選択されていないことを表します。
	ErrNoCredential = errors.New("no credential selected")
)

// Source は API キーを返します。呼び出し側はリクエストごとに読み直し、結果を保持しません。
type Source interface {
	APIKey(ctx context.Context) (string, error)
}

// Selector はホスト環境が提供する資格情報の選択機能です。
type Selector interface {
	// HasSelected は資格情報が選択済みかどうかを返します。
	HasSelected(ctx context.Context) (bool, error)
	// Select はユーザーに選択を促し、操作が終わった時点で戻ります。
	// 選択の成否は保証されません。
	Select(ctx context.Context) error
}

// Deselector は選択済みの状態を取り消せる Selector です。
// サービスがキーを受け付けなかったときに使います。
type Deselector interface {
	Deselect()
}

// SelectorOf は src が選択機能も持っていればそれを返します。
func SelectorOf(src Source) (Selector, bool) {
	if src == nil {
		return nil, false
	}
	sel, ok := src.(Selector)
	return sel, ok
}
