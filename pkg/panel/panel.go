package panel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shouni/gemini-media-studio/pkg/domain"
)

var (
	// ErrBusy はパネルで別のリクエストが実行中であることを表します。
	ErrBusy = errors.New("a request is already in progress")
	// ErrInvalidInput は入力不足でリクエストを送らなかったことを表します。
	ErrInvalidInput = errors.New("invalid input")
)

// 利用者に表示するメッセージ。
const (
	MsgEditMissingInput     = "Please enter a prompt and make sure an image is loaded."
	MsgEditFailed           = "Failed to edit image. Please try again."
	MsgEditInitialLoad      = "Failed to load initial image. Please try uploading one."
	MsgImageFileFailed      = "Failed to process image file."
	MsgImageMissingPrompt   = "Please enter a prompt to generate an image."
	MsgImageFailed          = "Failed to generate image. Please try again."
	MsgVideoSelectKey       = "Please select an API key to generate videos."
	MsgVideoMissingInput    = "Please enter a prompt and select an image."
	MsgVideoFailed          = "Failed to generate video. Please try again."
	MsgVideoInvalidKey      = "Your API Key is invalid. Please select a valid key and try again."
	MsgVideoCancelled       = "Video generation was cancelled."
	MsgSelectionUnavailable = "API key selection is not available in this environment."
	MsgSelectionDialog      = "Could not open the API key selection dialog."
	MsgVideoInitialLoad     = "Failed to load initial image."
)

// ImageSource は画像を送信可能な形に読み込みます。encoder.Encoder がこれを満たします。
type ImageSource interface {
	FromFile(ctx context.Context, path string) (domain.EncodedImage, error)
	FromReader(ctx context.Context, r io.Reader, declaredType string) (domain.EncodedImage, error)
	FromURL(ctx context.Context, rawURL string) (domain.EncodedImage, error)
}

// State はパネルの表示状態のスナップショットです。
type State struct {
	Prompt             string `json:"prompt"`
	SourceURI          string `json:"source_uri,omitempty"`
	ResultURI          string `json:"result_uri,omitempty"`
	ResultMimeType     string `json:"result_mime_type,omitempty"`
	Loading            bool   `json:"loading"`
	Error              string `json:"error,omitempty"`
	Progress           string `json:"progress,omitempty"`
	CredentialSelected bool   `json:"credential_selected"`
}

// base は各パネル共通の実行中フラグと状態を持ちます。
// busy は同時に 1 リクエストだけを通すためのもので、状態の読み書きは mu で守ります。
type base struct {
	busy  atomic.Bool
	mu    sync.Mutex
	state State
	image domain.EncodedImage
}

func (b *base) acquire() error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (b *base) release() {
	b.busy.Store(false)
}

// State は現在の表示状態を返します。
func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Busy はリクエストが実行中かどうかを返します。
func (b *base) Busy() bool {
	return b.busy.Load()
}

func (b *base) update(fn func(s *State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.state)
}

func (b *base) loadedImage() domain.EncodedImage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.image
}

// load は画像の読み込みを実行中フラグの下で行い、結果を状態に反映します。
func (b *base) load(fn func() (domain.EncodedImage, string, error), failMsg string, clearResult bool) error {
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()

	b.update(func(s *State) {
		s.Error = ""
		s.Loading = true
		if clearResult {
			s.ResultURI, s.ResultMimeType = "", ""
		}
	})

	img, sourceURI, err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Loading = false
	if err != nil {
		b.state.Error = failMsg
		return err
	}
	b.image = img
	b.state.SourceURI = sourceURI
	return nil
}

func (b *base) loadURL(ctx context.Context, source ImageSource, rawURL, failMsg string) error {
	err := b.load(func() (domain.EncodedImage, string, error) {
		img, err := source.FromURL(ctx, rawURL)
		return img, rawURL, err
	}, failMsg, false)
	if err != nil {
		slog.WarnContext(ctx, "画像の読み込みに失敗しました", "url", rawURL, "error", err)
	}
	return err
}

// loadData はファイルやアップロードから読み込んだ画像を data URI として表示します。
func (b *base) loadData(ctx context.Context, read func() (domain.EncodedImage, error), clearResult bool) error {
	err := b.load(func() (domain.EncodedImage, string, error) {
		img, err := read()
		if err != nil {
			return img, "", err
		}
		return img, img.DataURI(), nil
	}, MsgImageFileFailed, clearResult)
	if err != nil {
		slog.WarnContext(ctx, "画像ファイルの処理に失敗しました", "error", err)
	}
	return err
}

func blank(prompt string) bool {
	return strings.TrimSpace(prompt) == ""
}
