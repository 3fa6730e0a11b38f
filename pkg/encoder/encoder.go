package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/shouni/gemini-media-studio/pkg/imgutil"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

var (
	// ErrFetch はリモート画像の取得（HTTP ステータス異常や通信失敗）に失敗したことを表します。
	ErrFetch = errors.New("failed to fetch image")
	// ErrDecode は読み込んだデータを画像として解釈できなかったことを表します。
	ErrDecode = errors.New("failed to decode image")
)

const defaultJPEGQuality = 75

// HTTPClient は画像を 1 回のリクエストで取得するためのクライアントです。
// go-http-kit の httpkit.Client がこれを満たします。Do はリトライしません。
type HTTPClient interface {
	httpkit.Doer
	IsSafeURL(urlStr string) (bool, error)
}

// Encoder はローカルファイルやリモート URL を EncodedImage に変換します。
// リトライもキャッシュも行わず、呼び出しごとに必ず読み直します。
type Encoder struct {
	httpClient    HTTPClient
	reader        remoteio.InputReader
	allowPrivate  bool
	compressAbove int
	quality       int
}

// Option は Encoder の挙動を調整します。
type Option func(*Encoder)

// WithPrivateHosts は取得前の URL 検証を省きます（ローカル開発・テスト用）。
// 接続時の検証は HTTPClient 側の設定に従います。
func WithPrivateHosts() Option {
	return func(e *Encoder) { e.allowPrivate = true }
}

// WithCompression は threshold バイトを超える画像を JPEG に再圧縮します。
// threshold が 0 以下なら圧縮しません。
func WithCompression(threshold, quality int) Option {
	return func(e *Encoder) {
		e.compressAbove = threshold
		if quality > 0 {
			e.quality = quality
		}
	}
}

// New は依存関係を注入して Encoder を初期化します。
func New(httpClient HTTPClient, reader remoteio.InputReader, opts ...Option) (*Encoder, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}

	e := &Encoder{
		httpClient: httpClient,
		reader:     reader,
		quality:    defaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// FromFile はファイルを読み込んで EncodedImage に変換します。
func (e *Encoder) FromFile(ctx context.Context, path string) (domain.EncodedImage, error) {
	data, err := e.readAll(ctx, path)
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("%w: ファイルを読み込めませんでした: %v", ErrDecode, err)
	}
	return e.encode(ctx, data, "")
}

// FromReader はアップロードされたデータを EncodedImage に変換します。
// declaredType が画像の MIME タイプであればパラメータを除いて採用し、そうでなければ内容から推定します。
func (e *Encoder) FromReader(ctx context.Context, r io.Reader, declaredType string) (domain.EncodedImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return e.encode(ctx, data, declaredType)
}

// FromURL はリモートの画像を 1 回だけ取得して EncodedImage に変換します。
// MIME タイプはレスポンスの Content-Type を優先し、画像でなければ内容から推定します。
// gs:// や file:// は InputReader 経由で読み込みます。
func (e *Encoder) FromURL(ctx context.Context, rawURL string) (domain.EncodedImage, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("%w: URLパース失敗: %v", ErrFetch, err)
	}

	switch parsed.Scheme {
	case "gs", "file":
		data, err := e.readAll(ctx, rawURL)
		if err != nil {
			return domain.EncodedImage{}, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		return e.encode(ctx, data, "")
	case "http", "https":
		if !e.allowPrivate {
			if safe, serr := e.httpClient.IsSafeURL(rawURL); !safe || serr != nil {
				slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", rawURL, "error", serr)
				return domain.EncodedImage{}, fmt.Errorf("%w: 安全ではないURLが指定されました: %v", ErrFetch, serr)
			}
		}
		data, contentType, err := e.fetch(ctx, rawURL)
		if err != nil {
			return domain.EncodedImage{}, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		return e.encode(ctx, data, contentType)
	default:
		return domain.EncodedImage{}, fmt.Errorf("%w: 不許可スキーム: %s", ErrFetch, parsed.Scheme)
	}
}

// fetch は 1 回だけ GET し、本文と宣言された Content-Type を返します。
func (e *Encoder) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	data, err := httpkit.HandleResponse(resp)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

func (e *Encoder) readAll(ctx context.Context, uri string) ([]byte, error) {
	rc, err := e.reader.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (e *Encoder) encode(ctx context.Context, data []byte, declaredType string) (domain.EncodedImage, error) {
	detected, ok := imgutil.DetectImageMIME(data)
	if !ok {
		return domain.EncodedImage{}, fmt.Errorf("%w: 画像データではありません (detected: %s)", ErrDecode, detected)
	}

	mimeType := detected
	if declared, ok := imgutil.ImageMediaType(declaredType); ok {
		mimeType = declared
	}

	if e.compressAbove > 0 && len(data) > e.compressAbove {
		compressed, err := imgutil.CompressToJPEG(data, e.quality)
		if err != nil {
			// 圧縮できない形式（webp 等）は元データのまま送る
			slog.WarnContext(ctx, "画像の再圧縮に失敗したため元データを使用します", "mime_type", mimeType, "error", err)
		} else {
			slog.DebugContext(ctx, "画像をJPEGに再圧縮しました", "before", len(data), "after", len(compressed))
			data, mimeType = compressed, "image/jpeg"
		}
	}

	return domain.NewEncodedImage(data, mimeType), nil
}
