package main

import (
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/shouni/gemini-media-studio/pkg/config"
)

// newLogger は設定に従って zap のロガーを作ります。
// debug なら開発向けのコンソール出力です。
func newLogger(cfg config.LogConfig, debug bool) (*zap.Logger, error) {
	var zcfg zap.Config
	if debug || cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}

	if !debug && cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("ログレベルが不正です: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("ロガーの初期化に失敗しました: %w", err)
	}
	return logger, nil
}

// installLogger はライブラリが使う slog の出力先を zap に差し替えます。
func installLogger(logger *zap.Logger) {
	slog.SetDefault(slog.New(zapslog.NewHandler(logger.Core(), zapslog.WithCaller(true))))
}
