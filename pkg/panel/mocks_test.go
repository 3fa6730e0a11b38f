package panel

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/shouni/gemini-media-studio/pkg/video"
)

// --- Mocks ---

type mockEditor struct {
	calls    atomic.Int32
	editFunc func(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error)
}

func (m *mockEditor) EditImage(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error) {
	m.calls.Add(1)
	return m.editFunc(ctx, req)
}

type mockImageGenerator struct {
	calls        atomic.Int32
	generateFunc func(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error)
}

func (m *mockImageGenerator) GenerateImage(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error) {
	m.calls.Add(1)
	return m.generateFunc(ctx, req)
}

type mockVideoGenerator struct {
	calls        atomic.Int32
	generateFunc func(ctx context.Context, req domain.VideoRequest, onProgress video.ProgressFunc) (domain.MediaResult, error)
}

func (m *mockVideoGenerator) GenerateVideo(ctx context.Context, req domain.VideoRequest, onProgress video.ProgressFunc) (domain.MediaResult, error) {
	m.calls.Add(1)
	return m.generateFunc(ctx, req, onProgress)
}

// mockImageSource は読み込み元ごとに固定の結果を返すのだ。
type mockImageSource struct {
	image domain.EncodedImage
	err   error
}

func (m *mockImageSource) FromFile(ctx context.Context, path string) (domain.EncodedImage, error) {
	return m.image, m.err
}

func (m *mockImageSource) FromReader(ctx context.Context, r io.Reader, declaredType string) (domain.EncodedImage, error) {
	if _, err := io.ReadAll(r); err != nil {
		return domain.EncodedImage{}, err
	}
	return m.image, m.err
}

func (m *mockImageSource) FromURL(ctx context.Context, rawURL string) (domain.EncodedImage, error) {
	return m.image, m.err
}

type mockSelector struct {
	selected    bool
	hasErr      error
	selectErr   error
	selectCalls int
	deselected  bool
}

func (m *mockSelector) HasSelected(ctx context.Context) (bool, error) {
	if m.hasErr != nil {
		return false, m.hasErr
	}
	return m.selected, nil
}

func (m *mockSelector) Select(ctx context.Context) error {
	m.selectCalls++
	if m.selectErr != nil {
		return m.selectErr
	}
	m.selected = true
	return nil
}

func (m *mockSelector) Deselect() {
	m.deselected = true
	m.selected = false
}

var (
	testImage   = domain.NewEncodedImage([]byte("\x89PNG\r\n\x1a\nimage"), "image/png")
	errService  = errors.New("service unavailable")
	errNotImage = errors.New("not an image")
)
