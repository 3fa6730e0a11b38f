package blob

import (
	"context"
	"errors"
	"strings"
	"time"
)

// URIPrefix はスタジオが生成メディアを配信するパスの接頭辞です。
const URIPrefix = "/blob/"

// DefaultTTL はセッション内でメディアを保持する既定の期間です。
const DefaultTTL = time.Hour

// ErrNotFound は ID に対応するメディアがない、もしくは期限切れであることを表します。
var ErrNotFound = errors.New("blob not found")

// Blob は保存されたメディア本体です。
type Blob struct {
	Data     []byte
	MimeType string
}

// Store はセッション内でだけ有効な生成メディアの置き場です。
// 永続化はせず、すべてのエントリは TTL で消えます。
type Store interface {
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	Get(ctx context.Context, id string) (Blob, error)
}

// URI は ID から配信用の URI を組み立てます。
func URI(id string) string {
	return URIPrefix + id
}

// IDFromURI は URI から ID を取り出します。
func IDFromURI(uri string) (string, bool) {
	id, ok := strings.CutPrefix(uri, URIPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
