package panel

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/gemini-media-studio/pkg/domain"
)

// ImageEditor は画像編集を行う生成処理です。
type ImageEditor interface {
	EditImage(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error)
}

// EditPanel は読み込んだ画像をプロンプトで編集するパネルです。
type EditPanel struct {
	base
	editor ImageEditor
	source ImageSource
}

// NewEditPanel は EditPanel を初期化します。
func NewEditPanel(editor ImageEditor, source ImageSource) (*EditPanel, error) {
	if editor == nil {
		return nil, fmt.Errorf("editor is required")
	}
	if source == nil {
		return nil, fmt.Errorf("image source is required")
	}
	return &EditPanel{editor: editor, source: source}, nil
}

// LoadURL は URL の画像を編集元として読み込みます。初期画像の読み込みにも使います。
func (p *EditPanel) LoadURL(ctx context.Context, rawURL string) error {
	return p.loadURL(ctx, p.source, rawURL, MsgEditInitialLoad)
}

// LoadFile はローカルファイルを編集元として読み込み、前回の結果を消します。
func (p *EditPanel) LoadFile(ctx context.Context, path string) error {
	return p.loadData(ctx, func() (domain.EncodedImage, error) {
		return p.source.FromFile(ctx, path)
	}, true)
}

// LoadReader はアップロードされた画像を編集元として読み込み、前回の結果を消します。
func (p *EditPanel) LoadReader(ctx context.Context, r io.Reader, declaredType string) error {
	return p.loadData(ctx, func() (domain.EncodedImage, error) {
		return p.source.FromReader(ctx, r, declaredType)
	}, true)
}

// Submit は読み込み済みの画像をプロンプトで編集します。
// 失敗は状態の Error に利用者向けのメッセージとして残ります。
func (p *EditPanel) Submit(ctx context.Context, prompt string) error {
	if err := p.acquire(); err != nil {
		return err
	}
	defer p.release()

	img := p.loadedImage()
	if blank(prompt) || img.IsZero() {
		p.update(func(s *State) {
			s.Prompt = prompt
			s.Error = MsgEditMissingInput
		})
		return fmt.Errorf("%w: prompt and image are required", ErrInvalidInput)
	}

	p.update(func(s *State) {
		s.Prompt = prompt
		s.Error = ""
		s.Loading = true
	})

	res, err := p.editor.EditImage(ctx, domain.EditRequest{Prompt: prompt, Image: img})

	p.update(func(s *State) {
		s.Loading = false
		if err != nil {
			s.Error = MsgEditFailed
			return
		}
		s.ResultURI, s.ResultMimeType = res.URI, res.MimeType
	})
	if err != nil {
		slog.ErrorContext(ctx, "画像の編集に失敗しました", "error", err)
		return fmt.Errorf("画像編集に失敗しました: %w", err)
	}
	return nil
}
