package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/gemini-media-studio/pkg/blob"
	"github.com/shouni/gemini-media-studio/pkg/credential"
	"github.com/shouni/gemini-media-studio/pkg/panel"
)

// Deps はサーバーが公開するパネルと周辺の依存関係です。
type Deps struct {
	Edit  *panel.EditPanel
	Image *panel.ImagePanel
	Video *panel.VideoPanel
	// Credentials はクライアントから送られた API キーを受け取ります。nil なら受け付けません。
	Credentials *credential.Store
	Blobs       blob.Store
	Gatherer    prometheus.Gatherer
}

// Server は 3 つのパネルを JSON API として公開するスタジオサーバーです。
type Server struct {
	engine  *gin.Engine
	deps    Deps
	baseCtx context.Context
}

// New はルーティングを組み立てて Server を返します。
func New(deps Deps) (*Server, error) {
	if deps.Edit == nil || deps.Image == nil || deps.Video == nil {
		return nil, fmt.Errorf("edit, image and video panels are required")
	}
	if deps.Blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{deps: deps, baseCtx: context.Background()}
	s.engine = gin.New()
	s.engine.Use(requestID(), requestLogger(), gin.Recovery())
	s.setRoutes()
	return s, nil
}

// Handler は http.Handler としてのサーバーを返します。
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/edit", s.getEdit)
		api.POST("/edit", s.submitEdit)
		api.POST("/edit/image", s.uploadEditImage)
		api.POST("/edit/image-url", s.loadEditImageURL)

		api.GET("/generate", s.getGenerate)
		api.POST("/generate", s.submitGenerate)

		api.GET("/video", s.getVideo)
		api.POST("/video", s.startVideo)
		api.DELETE("/video", s.cancelVideo)
		api.POST("/video/credential", s.selectCredential)
		api.POST("/video/image", s.uploadVideoImage)
		api.POST("/video/image-url", s.loadVideoImageURL)
	}

	s.engine.GET("/blob/:id", s.getBlob)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
}

// Run は addr で待ち受け、ctx が終わると実行中の動画生成を止めてから終了します。
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	s.baseCtx = jobCtx

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("スタジオサーバーを起動しました", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーの起動に失敗しました: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("スタジオサーバーを停止します")
		cancelJobs()
		s.deps.Video.Cancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("サーバーの停止に失敗しました: %w", err)
		}
		return nil
	})
	return g.Wait()
}
