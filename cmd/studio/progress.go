package main

import (
	"context"
	"fmt"
	"io"

	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/shouni/gemini-media-studio/pkg/panel"
	"github.com/shouni/gemini-media-studio/pkg/video"
)

// progressPrinter は動画生成の進捗を端末にも 1 行ずつ書き出します。
type progressPrinter struct {
	inner panel.VideoGenerator
	out   io.Writer
}

func (p progressPrinter) GenerateVideo(ctx context.Context, req domain.VideoRequest, onProgress video.ProgressFunc) (domain.MediaResult, error) {
	return p.inner.GenerateVideo(ctx, req, func(msg string) {
		fmt.Fprintln(p.out, msg)
		if onProgress != nil {
			onProgress(msg)
		}
	})
}
