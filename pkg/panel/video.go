package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shouni/gemini-media-studio/pkg/credential"
	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/shouni/gemini-media-studio/pkg/generator"
	"github.com/shouni/gemini-media-studio/pkg/video"
)

// VideoGenerator は画像とテキストから動画を生成する処理です。
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, req domain.VideoRequest, onProgress video.ProgressFunc) (domain.MediaResult, error)
}

// VideoPanel は画像とプロンプトから動画を生成するパネルです。
// 生成には資格情報の選択が必要で、実行中のジョブは Cancel で止められます。
type VideoPanel struct {
	base
	generator VideoGenerator
	source    ImageSource
	selector  credential.Selector

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// NewVideoPanel は VideoPanel を初期化します。
// selector が nil の環境では資格情報を選択できません。
func NewVideoPanel(generator VideoGenerator, source ImageSource, selector credential.Selector) (*VideoPanel, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if source == nil {
		return nil, fmt.Errorf("image source is required")
	}
	return &VideoPanel{generator: generator, source: source, selector: selector}, nil
}

// CheckCredential はホストに資格情報が選択済みかを問い合わせ、状態に反映します。
func (p *VideoPanel) CheckCredential(ctx context.Context) bool {
	if p.selector == nil {
		return p.State().CredentialSelected
	}
	ok, err := p.selector.HasSelected(ctx)
	if err != nil {
		slog.WarnContext(ctx, "APIキーの選択状態を確認できませんでした", "error", err)
		ok = false
	}
	p.update(func(s *State) { s.CredentialSelected = ok })
	return ok
}

// SelectCredential はホストの選択機能を開きます。
// 選択の成否は確認せず、操作が終わった時点で選択済みとして扱います。
func (p *VideoPanel) SelectCredential(ctx context.Context) error {
	if p.selector == nil {
		p.update(func(s *State) { s.Error = MsgSelectionUnavailable })
		return credential.ErrSelectionUnavailable
	}
	if err := p.selector.Select(ctx); err != nil {
		slog.ErrorContext(ctx, "APIキーの選択を開けませんでした", "error", err)
		p.update(func(s *State) { s.Error = MsgSelectionDialog })
		return fmt.Errorf("APIキーの選択に失敗しました: %w", err)
	}
	p.update(func(s *State) { s.CredentialSelected = true })
	return nil
}

// LoadURL は URL の画像を動画の元画像として読み込みます。
func (p *VideoPanel) LoadURL(ctx context.Context, rawURL string) error {
	return p.loadURL(ctx, p.source, rawURL, MsgVideoInitialLoad)
}

// LoadFile はローカルファイルを元画像として読み込みます。
func (p *VideoPanel) LoadFile(ctx context.Context, path string) error {
	return p.loadData(ctx, func() (domain.EncodedImage, error) {
		return p.source.FromFile(ctx, path)
	}, false)
}

// LoadReader はアップロードされた画像を元画像として読み込みます。
func (p *VideoPanel) LoadReader(ctx context.Context, r io.Reader, declaredType string) error {
	return p.loadData(ctx, func() (domain.EncodedImage, error) {
		return p.source.FromReader(ctx, r, declaredType)
	}, false)
}

// Submit は動画を生成し、完了するまで戻りません。
func (p *VideoPanel) Submit(ctx context.Context, prompt string) error {
	if err := p.acquire(); err != nil {
		return err
	}
	defer p.release()

	req, err := p.prepare(ctx, prompt)
	if err != nil {
		return err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	p.setCancel(cancel)
	defer func() {
		p.setCancel(nil)
		cancel()
	}()
	return p.run(jobCtx, req)
}

// Start は入力を検証したうえで、動画生成をバックグラウンドで開始します。
// 返されるチャネルは生成が終わると閉じられます。ジョブの寿命は ctx に従います。
func (p *VideoPanel) Start(ctx context.Context, prompt string) (<-chan struct{}, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	req, err := p.prepare(ctx, prompt)
	if err != nil {
		p.release()
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	p.setCancel(cancel)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer p.release()
		defer func() {
			p.setCancel(nil)
			cancel()
		}()
		_ = p.run(jobCtx, req)
	}()
	return done, nil
}

// Cancel は実行中の動画生成を止めます。止めるものがなければ false を返します。
func (p *VideoPanel) Cancel() bool {
	p.cancelMu.Lock()
	defer p.cancelMu.Unlock()
	if p.cancel == nil {
		return false
	}
	p.cancel()
	return true
}

func (p *VideoPanel) setCancel(cancel context.CancelFunc) {
	p.cancelMu.Lock()
	defer p.cancelMu.Unlock()
	p.cancel = cancel
}

func (p *VideoPanel) prepare(ctx context.Context, prompt string) (domain.VideoRequest, error) {
	if !p.CheckCredential(ctx) {
		p.update(func(s *State) {
			s.Prompt = prompt
			s.Error = MsgVideoSelectKey
		})
		return domain.VideoRequest{}, fmt.Errorf("%w: %w", ErrInvalidInput, credential.ErrNoCredential)
	}
	img := p.loadedImage()
	if blank(prompt) || img.IsZero() {
		p.update(func(s *State) {
			s.Prompt = prompt
			s.Error = MsgVideoMissingInput
		})
		return domain.VideoRequest{}, fmt.Errorf("%w: prompt and image are required", ErrInvalidInput)
	}
	return domain.VideoRequest{Prompt: prompt, Image: img}, nil
}

func (p *VideoPanel) run(ctx context.Context, req domain.VideoRequest) error {
	p.update(func(s *State) {
		s.Prompt = req.Prompt
		s.Error = ""
		s.Loading = true
		s.Progress = ""
		s.ResultURI, s.ResultMimeType = "", ""
	})

	res, err := p.generator.GenerateVideo(ctx, req, func(msg string) {
		p.update(func(s *State) { s.Progress = msg })
	})

	p.update(func(s *State) {
		s.Loading = false
		s.Progress = ""
		switch {
		case err == nil:
			s.ResultURI, s.ResultMimeType = res.URI, res.MimeType
		case errors.Is(err, generator.ErrInvalidCredential):
			s.Error = MsgVideoInvalidKey
			s.CredentialSelected = false
		case errors.Is(err, context.Canceled):
			s.Error = MsgVideoCancelled
		default:
			s.Error = MsgVideoFailed
		}
	})
	if err != nil && errors.Is(err, generator.ErrInvalidCredential) {
		if d, ok := p.selector.(credential.Deselector); ok {
			d.Deselect()
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "動画の生成に失敗しました", "error", err)
		return fmt.Errorf("動画生成に失敗しました: %w", err)
	}
	return nil
}
