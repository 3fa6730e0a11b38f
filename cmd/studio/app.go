package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/gemini-media-studio/pkg/adapters"
	"github.com/shouni/gemini-media-studio/pkg/blob"
	"github.com/shouni/gemini-media-studio/pkg/config"
	"github.com/shouni/gemini-media-studio/pkg/credential"
	"github.com/shouni/gemini-media-studio/pkg/encoder"
	"github.com/shouni/gemini-media-studio/pkg/generator"
	"github.com/shouni/gemini-media-studio/pkg/panel"
	"github.com/shouni/gemini-media-studio/pkg/video"
)

const metricsNamespace = "studio"

// app はコマンド間で共有する組み立て済みのコンポーネントです。
type app struct {
	cfg      *config.Config
	blobs    blob.Store
	registry *prometheus.Registry
	client   *generator.Client
	encoder  *encoder.Encoder
	closers  []func() error
}

// newApp は設定から依存関係を組み立てます。
// source は API キーの読み込み元で、呼び出しのたびに参照されます。
func newApp(ctx context.Context, cfg *config.Config, source credential.Source) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	enc, err := newEncoder(cfg)
	if err != nil {
		return nil, err
	}
	a.encoder = enc

	blobs, err := a.newBlobStore(ctx)
	if err != nil {
		return nil, err
	}
	a.blobs = blobs

	metrics := generator.NewMetrics(metricsNamespace, a.registry)
	poller, err := video.New(httpkit.New(cfg.HTTP.Timeout),
		video.WithInterval(cfg.Video.PollInterval),
		video.WithMaxWait(cfg.Video.MaxWait),
		video.WithObserver(metrics),
	)
	if err != nil {
		return nil, err
	}

	apiHTTPClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	factory := func(ctx context.Context, apiKey string) (generator.Service, error) {
		return adapters.NewGenAIService(ctx, apiKey, adapters.WithHTTPClient(apiHTTPClient))
	}

	client, err := generator.New(source, factory, poller, blobs, generator.Config{
		EditModel:         cfg.Models.Edit,
		ImageModel:        cfg.Models.Image,
		VideoModel:        cfg.Models.Video,
		ImageAspectRatio:  cfg.Image.AspectRatio,
		ImageMimeType:     cfg.Image.MimeType,
		VideoResolution:   cfg.Video.Resolution,
		VideoAspectRatio:  cfg.Video.AspectRatio,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, generator.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	a.client = client
	return a, nil
}

// newEncoder は画像取得用のエンコーダーを作ります。
// allow_private_hosts は事前の URL 検証と接続時の検証の両方を外します。
func newEncoder(cfg *config.Config) (*encoder.Encoder, error) {
	httpClient := httpkit.New(cfg.HTTP.Timeout, httpkit.WithSkipNetworkValidation(cfg.Encoder.AllowPrivateHosts))
	opts := []encoder.Option{encoder.WithCompression(cfg.Encoder.CompressThreshold, cfg.Encoder.Quality)}
	if cfg.Encoder.AllowPrivateHosts {
		opts = append(opts, encoder.WithPrivateHosts())
	}
	return encoder.New(httpClient, encoder.NewLocalReader(), opts...)
}

func (a *app) newBlobStore(ctx context.Context) (blob.Store, error) {
	switch a.cfg.Blob.Backend {
	case "redis":
		rc := a.cfg.Blob.Redis
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		store, err := blob.NewRedisStore(ctx, client, rc.KeyPrefix, a.cfg.Blob.TTL)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return blob.NewMemoryStore(a.cfg.Blob.TTL), nil
	}
}

// panels は 3 つのパネルを作成します。videoProgress が nil でなければ進捗をそこにも書き出します。
func (a *app) panels(selector credential.Selector, videoProgress io.Writer) (*panel.EditPanel, *panel.ImagePanel, *panel.VideoPanel, error) {
	edit, err := panel.NewEditPanel(a.client, a.encoder)
	if err != nil {
		return nil, nil, nil, err
	}
	image, err := panel.NewImagePanel(a.client)
	if err != nil {
		return nil, nil, nil, err
	}
	var videoGen panel.VideoGenerator = a.client
	if videoProgress != nil {
		videoGen = progressPrinter{inner: a.client, out: videoProgress}
	}
	vp, err := panel.NewVideoPanel(videoGen, a.encoder, selector)
	if err != nil {
		return nil, nil, nil, err
	}
	return edit, image, vp, nil
}

func (a *app) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// cliSource は端末向けの資格情報を返します。選択機能が有効なら入力を促せる PromptSelector です。
func cliSource(cfg *config.Config) credential.Source {
	if cfg.Credential.Selector {
		return credential.NewPromptSelector(os.Stdin, os.Stderr, os.Getenv(cfg.Credential.EnvKey))
	}
	return credential.NewEnvSource(cfg.Credential.EnvKey)
}

// selectorFor は設定で選択機能が無効なら nil を返します。
func selectorFor(cfg *config.Config, src credential.Source) credential.Selector {
	if !cfg.Credential.Selector {
		return nil
	}
	sel, ok := credential.SelectorOf(src)
	if !ok {
		return nil
	}
	return sel
}

// requireSelected は未選択ならホストの選択機能を開きます。選択機能がなければ何もしません。
func requireSelected(ctx context.Context, sel credential.Selector) error {
	if sel == nil {
		return nil
	}
	ok, err := sel.HasSelected(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := sel.Select(ctx); err != nil {
		return fmt.Errorf("APIキーの選択に失敗しました: %w", err)
	}
	return nil
}
