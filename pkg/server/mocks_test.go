package server

import (
	"context"
	"io"

	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/shouni/gemini-media-studio/pkg/video"
)

// --- Mocks ---

type mockGenerator struct {
	editFunc  func(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error)
	imageFunc func(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error)
	videoFunc func(ctx context.Context, req domain.VideoRequest, onProgress video.ProgressFunc) (domain.MediaResult, error)
}

func (m *mockGenerator) EditImage(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error) {
	return m.editFunc(ctx, req)
}

func (m *mockGenerator) GenerateImage(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error) {
	return m.imageFunc(ctx, req)
}

func (m *mockGenerator) GenerateVideo(ctx context.Context, req domain.VideoRequest, onProgress video.ProgressFunc) (domain.MediaResult, error) {
	return m.videoFunc(ctx, req, onProgress)
}

type mockImageSource struct {
	image domain.EncodedImage
	err   error
}

func (m *mockImageSource) FromFile(ctx context.Context, path string) (domain.EncodedImage, error) {
	return m.image, m.err
}

func (m *mockImageSource) FromReader(ctx context.Context, r io.Reader, declaredType string) (domain.EncodedImage, error) {
	if m.err != nil {
		return domain.EncodedImage{}, m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.EncodedImage{}, err
	}
	return domain.NewEncodedImage(data, declaredType), nil
}

func (m *mockImageSource) FromURL(ctx context.Context, rawURL string) (domain.EncodedImage, error) {
	return m.image, m.err
}
