package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-media-studio/pkg/credential"
	"github.com/shouni/gemini-media-studio/pkg/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "スタジオの HTTP サーバーを起動する",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			cfg := opts.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			creds := credential.NewStore(os.Getenv(cfg.Credential.EnvKey))
			a, err := newApp(ctx, cfg, creds)
			if err != nil {
				return err
			}
			defer a.Close()

			edit, image, vp, err := a.panels(selectorFor(cfg, creds), nil)
			if err != nil {
				return err
			}
			if cfg.InitialImageURL != "" {
				preload(ctx, cfg.InitialImageURL, edit.LoadURL, vp.LoadURL)
			}
			vp.CheckCredential(ctx)

			srv, err := server.New(server.Deps{
				Edit:        edit,
				Image:       image,
				Video:       vp,
				Credentials: creds,
				Blobs:       a.blobs,
				Gatherer:    a.registry,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "待ち受けアドレス（設定ファイルより優先）")
	return cmd
}

// preload は初期画像を各パネルに読み込みます。失敗はパネルの状態に残り、起動は続けます。
func preload(ctx context.Context, url string, loaders ...func(context.Context, string) error) {
	for _, load := range loaders {
		if err := load(ctx, url); err != nil {
			slog.WarnContext(ctx, "初期画像を読み込めませんでした", "url", url, "error", err)
		}
	}
}
