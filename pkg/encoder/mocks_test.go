package encoder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"testing"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// mockHTTPClient は HTTPClient のテスト用モックなのだ。
// doFunc がなければ 200 と body を返し、IsSafeURL は httpkit の検証をそのまま使うのだ。
type mockHTTPClient struct {
	calls       int
	body        []byte
	contentType string
	doFunc      func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.calls++
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return response(http.StatusOK, m.contentType, m.body), nil
}

func (m *mockHTTPClient) IsSafeURL(urlStr string) (bool, error) {
	return httpkit.New(0).IsSafeURL(urlStr)
}

func response(status int, contentType string, body []byte) *http.Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// mockReader は remoteio.InputReader のテスト用モックなのだ。
type mockReader struct {
	openFunc func(ctx context.Context, uri string) (io.ReadCloser, error)
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if m.openFunc != nil {
		return m.openFunc(ctx, uri)
	}
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	return nil
}

// pngBytes は size x size の単色 PNG を作るヘルパーなのだ。
func pngBytes(t testing.TB, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}
