package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-media-studio/pkg/blob"
	"github.com/shouni/gemini-media-studio/pkg/credential"
	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/shouni/gemini-media-studio/pkg/video"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Config は生成に使うモデルと固定パラメータです。
type Config struct {
	EditModel        string
	ImageModel       string
	VideoModel       string
	ImageAspectRatio string
	ImageMimeType    string
	VideoResolution  string
	VideoAspectRatio string

	// RequestsPerSecond はジョブ投入の上限です。0 以下なら制限しません。
	RequestsPerSecond float64
}

// DefaultConfig は既定のモデルとパラメータを返します。
func DefaultConfig() Config {
	return Config{
		EditModel:        "gemini-2.5-flash-image",
		ImageModel:       "imagen-4.0-generate-001",
		VideoModel:       "veo-3.1-fast-generate-preview",
		ImageAspectRatio: "1:1",
		ImageMimeType:    "image/jpeg",
		VideoResolution:  "720p",
		VideoAspectRatio: "16:9",
	}
}

// Client は画像編集・画像生成・動画生成をまとめた窓口です。
// 状態を持たず、API キーは呼び出しのたびに Source から読み直します。
type Client struct {
	source  credential.Source
	factory ServiceFactory
	poller  *video.Poller
	blobs   blob.Store
	limiter *rate.Limiter
	metrics *Metrics
	cfg     Config
}

var _ MediaGenerator = (*Client)(nil)

// Option は Client の任意設定です。
type Option func(*Client)

// WithMetrics は計測先を設定します。
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New は依存関係を注入して Client を初期化します。
func New(source credential.Source, factory ServiceFactory, poller *video.Poller, blobs blob.Store, cfg Config, opts ...Option) (*Client, error) {
	if source == nil {
		return nil, fmt.Errorf("credential source is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("service factory is required")
	}
	if poller == nil {
		return nil, fmt.Errorf("poller is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	def := DefaultConfig()
	if cfg.EditModel == "" {
		cfg.EditModel = def.EditModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = def.ImageModel
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = def.VideoModel
	}
	if cfg.ImageAspectRatio == "" {
		cfg.ImageAspectRatio = def.ImageAspectRatio
	}
	if cfg.ImageMimeType == "" {
		cfg.ImageMimeType = def.ImageMimeType
	}
	if cfg.VideoResolution == "" {
		cfg.VideoResolution = def.VideoResolution
	}
	if cfg.VideoAspectRatio == "" {
		cfg.VideoAspectRatio = def.VideoAspectRatio
	}

	c := &Client{
		source:  source,
		factory: factory,
		poller:  poller,
		blobs:   blobs,
		limiter: rate.NewLimiter(rate.Inf, 1),
		cfg:     cfg,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// connect は最新の API キーで Service を生成します。
func (c *Client) connect(ctx context.Context) (Service, string, error) {
	apiKey, err := c.source.APIKey(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("APIキーの取得に失敗しました: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}
	svc, err := c.factory(ctx, apiKey)
	if err != nil {
		return nil, "", fmt.Errorf("サービスの初期化に失敗しました: %w", err)
	}
	return svc, apiKey, nil
}

// EditImage は画像とプロンプトを送り、編集後の画像を data URI で返します。
func (c *Client) EditImage(ctx context.Context, req domain.EditRequest) (res domain.MediaResult, err error) {
	started := time.Now()
	defer func() { c.metrics.record(opEdit, started, err) }()

	data, err := req.Image.Bytes()
	if err != nil {
		return domain.MediaResult{}, fmt.Errorf("入力画像のデコードに失敗しました: %w", err)
	}
	svc, _, err := c.connect(ctx)
	if err != nil {
		return domain.MediaResult{}, err
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: req.Image.MimeType, Data: data}},
		{Text: req.Prompt},
	}
	resp, err := svc.GenerateWithParts(ctx, c.cfg.EditModel, parts, gemini.GenerateOptions{})
	if err != nil {
		return domain.MediaResult{}, fmt.Errorf("Gemini画像編集エラー: %w", classify(err))
	}

	out, err := parseToImage(resp)
	if err != nil {
		return domain.MediaResult{}, err
	}
	slog.InfoContext(ctx, "画像を編集しました", "model", c.cfg.EditModel, "mime_type", out.MimeType, "bytes", len(out.Data))
	img := domain.NewEncodedImage(out.Data, out.MimeType)
	return domain.MediaResult{Kind: domain.MediaImage, URI: img.DataURI(), MimeType: out.MimeType}, nil
}

// GenerateImage はプロンプトから画像を 1 枚生成し、data URI で返します。
func (c *Client) GenerateImage(ctx context.Context, req domain.ImageRequest) (res domain.MediaResult, err error) {
	started := time.Now()
	defer func() { c.metrics.record(opImage, started, err) }()

	svc, _, err := c.connect(ctx)
	if err != nil {
		return domain.MediaResult{}, err
	}

	resp, err := svc.GenerateImages(ctx, c.cfg.ImageModel, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    c.cfg.ImageAspectRatio,
		OutputMIMEType: c.cfg.ImageMimeType,
	})
	if err != nil {
		return domain.MediaResult{}, fmt.Errorf("Imagen画像生成エラー: %w", classify(err))
	}

	image, err := firstGeneratedImage(resp)
	if err != nil {
		return domain.MediaResult{}, err
	}
	mimeType := image.MIMEType
	if mimeType == "" {
		mimeType = c.cfg.ImageMimeType
	}
	slog.InfoContext(ctx, "画像を生成しました", "model", c.cfg.ImageModel, "mime_type", mimeType, "bytes", len(image.ImageBytes))
	img := domain.NewEncodedImage(image.ImageBytes, mimeType)
	return domain.MediaResult{Kind: domain.MediaImage, URI: img.DataURI(), MimeType: mimeType}, nil
}

// GenerateVideo は画像とプロンプトから動画を生成し、セッション内の blob URI で返します。
// 完了まで数分かかることがあり、その間 onProgress に進捗を通知します。
func (c *Client) GenerateVideo(ctx context.Context, req domain.VideoRequest, onProgress video.ProgressFunc) (res domain.MediaResult, err error) {
	started := time.Now()
	defer func() { c.metrics.record(opVideo, started, err) }()

	data, err := req.Image.Bytes()
	if err != nil {
		return domain.MediaResult{}, fmt.Errorf("入力画像のデコードに失敗しました: %w", err)
	}
	svc, apiKey, err := c.connect(ctx)
	if err != nil {
		return domain.MediaResult{}, err
	}

	v, err := c.poller.Run(ctx, svc, video.Submission{
		Model:  c.cfg.VideoModel,
		Prompt: req.Prompt,
		Image:  &genai.Image{ImageBytes: data, MIMEType: req.Image.MimeType},
		Config: &genai.GenerateVideosConfig{
			NumberOfVideos: 1,
			Resolution:     c.cfg.VideoResolution,
			AspectRatio:    c.cfg.VideoAspectRatio,
		},
		APIKey: apiKey,
	}, onProgress)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.MediaResult{}, err
		}
		return domain.MediaResult{}, fmt.Errorf("Veo動画生成エラー: %w", classify(err))
	}

	id, err := c.blobs.Put(ctx, v.Data, v.MimeType)
	if err != nil {
		return domain.MediaResult{}, fmt.Errorf("生成した動画の保存に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "動画を生成しました", "model", c.cfg.VideoModel, "operation", v.OperationName, "blob_id", id, "bytes", len(v.Data))
	return domain.MediaResult{Kind: domain.MediaVideo, URI: blob.URI(id), MimeType: v.MimeType}, nil
}
