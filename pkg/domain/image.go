package domain

import (
	"encoding/base64"
	"fmt"
)

// EncodedImage は送信可能な形に変換済みの画像です。
// Payload は base64 文字列で、生成後は変更しません。
type EncodedImage struct {
	Payload  string
	MimeType string
}

// NewEncodedImage はバイト列から EncodedImage を作成します。
func NewEncodedImage(data []byte, mimeType string) EncodedImage {
	return EncodedImage{
		Payload:  base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}
}

// Bytes は Payload をデコードした生データを返します。
func (e EncodedImage) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(e.Payload)
}

// IsZero は画像がまだ読み込まれていない状態かどうかを返します。
func (e EncodedImage) IsZero() bool {
	return e.Payload == ""
}

// DataURI は描画面でそのまま使える data URI を返します。
func (e EncodedImage) DataURI() string {
	return DataURI(e.MimeType, e.Payload)
}

// DataURI は MIME タイプと base64 ペイロードから data URI を組み立てます。
func DataURI(mimeType, payload string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, payload)
}

// EditRequest は画像編集の要求です。
type EditRequest struct {
	Prompt string
	Image  EncodedImage
}

// ImageRequest はテキストからの画像生成要求です。
type ImageRequest struct {
	Prompt string
}

// VideoRequest は画像とテキストからの動画生成要求です。
type VideoRequest struct {
	Prompt string
	Image  EncodedImage
}
