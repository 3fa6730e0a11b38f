package domain

import (
	"fmt"
	"strings"
)

// MediaKind は生成結果の種類です。
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaResult は生成結果への参照です。
// URI は data URI もしくはセッション内でのみ有効な blob URI です。
type MediaResult struct {
	Kind     MediaKind `json:"kind"`
	URI      string    `json:"uri"`
	MimeType string    `json:"mime_type"`
}

// ParseDataURI は base64 形式の data URI を MIME タイプとペイロードに分解します。
func ParseDataURI(uri string) (EncodedImage, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return EncodedImage{}, fmt.Errorf("data URI ではありません: %q", truncate(uri, 32))
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return EncodedImage{}, fmt.Errorf("data URI にペイロードがありません")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return EncodedImage{}, fmt.Errorf("base64 以外の data URI には対応していません")
	}
	return EncodedImage{Payload: payload, MimeType: mimeType}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
