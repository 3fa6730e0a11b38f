package imgutil

import (
	"mime"
	"net/http"
	"strings"
)

// DetectImageMIME はバイト列の先頭から MIME タイプを推定し、画像かどうかを返します。
func DetectImageMIME(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	mimeType := http.DetectContentType(data)
	return mimeType, strings.HasPrefix(mimeType, "image/")
}

// ImageMediaType は宣言された Content-Type からパラメータを除いたメディアタイプを返します。
// "image/png; charset=binary" は "image/png" になります。画像でなければ false です。
func ImageMediaType(contentType string) (string, bool) {
	if strings.TrimSpace(contentType) == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	return mediaType, strings.HasPrefix(mediaType, "image/")
}
