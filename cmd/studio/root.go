package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/gemini-media-studio/pkg/config"
	"github.com/shouni/gemini-media-studio/pkg/credential"
)

// rootOptions はすべてのサブコマンドで共有するフラグです。
type rootOptions struct {
	configPath string
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "studio",
		Short:         "Gemini で画像の編集・生成と動画生成を行うスタジオ",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "studio.yaml", "設定ファイルのパス")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "開発向けのログ出力にする")

	cmd.AddCommand(
		newServeCmd(opts),
		newEditCmd(opts),
		newImageCmd(opts),
		newVideoCmd(opts),
	)
	return cmd
}

// setup は .env、設定、ロガーの順に初期化します。
func (o *rootOptions) setup() error {
	if err := credential.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf(".env の読み込みに失敗しました: %w", err)
	}
	cfg, err := config.NewLoader().WithConfigPath(o.configPath).Load()
	if err != nil {
		return err
	}
	if len(cfg.Credential.DotEnv) > 0 {
		if err := credential.LoadDotEnv(cfg.Credential.DotEnv...); err != nil {
			return fmt.Errorf(".env の読み込みに失敗しました: %w", err)
		}
	}

	logger, err := newLogger(cfg.Log, o.debug)
	if err != nil {
		return err
	}
	installLogger(logger)

	o.cfg = cfg
	o.logger = logger
	return nil
}

// signalContext は SIGINT / SIGTERM で終わるコンテキストを返します。
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
