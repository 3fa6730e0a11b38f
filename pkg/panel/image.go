package panel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-media-studio/pkg/domain"
)

// ImageGenerator はテキストから画像を生成する処理です。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error)
}

// ImagePanel はプロンプトから画像を生成するパネルです。
type ImagePanel struct {
	base
	generator ImageGenerator
}

// NewImagePanel は ImagePanel を初期化します。
func NewImagePanel(generator ImageGenerator) (*ImagePanel, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &ImagePanel{generator: generator}, nil
}

// Submit はプロンプトから画像を 1 枚生成します。
// プロンプトが空ならサービスには問い合わせません。
func (p *ImagePanel) Submit(ctx context.Context, prompt string) error {
	if err := p.acquire(); err != nil {
		return err
	}
	defer p.release()

	if blank(prompt) {
		p.update(func(s *State) {
			s.Prompt = prompt
			s.Error = MsgImageMissingPrompt
		})
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}

	p.update(func(s *State) {
		s.Prompt = prompt
		s.Error = ""
		s.Loading = true
		s.ResultURI, s.ResultMimeType = "", ""
	})

	res, err := p.generator.GenerateImage(ctx, domain.ImageRequest{Prompt: prompt})

	p.update(func(s *State) {
		s.Loading = false
		if err != nil {
			s.Error = MsgImageFailed
			return
		}
		s.ResultURI, s.ResultMimeType = res.URI, res.MimeType
	})
	if err != nil {
		slog.ErrorContext(ctx, "画像の生成に失敗しました", "error", err)
		return fmt.Errorf("画像生成に失敗しました: %w", err)
	}
	return nil
}
