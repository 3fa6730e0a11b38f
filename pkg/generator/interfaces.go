package generator

import (
	"context"

	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/shouni/gemini-media-studio/pkg/video"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// Service は生成 AI サービスへの 1 回分の接続です。
// 画像編集・画像生成・動画生成・オペレーション照会を提供します。
type Service interface {
	video.Service
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ServiceFactory は API キーから Service を生成します。
// 最新のキーを使うため、呼び出しごとに新しい Service を作ります。
type ServiceFactory func(ctx context.Context, apiKey string) (Service, error)

// MediaGenerator はパネルが利用する生成処理の統合窓口です。
type MediaGenerator interface {
	EditImage(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error)
	GenerateImage(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error)
	GenerateVideo(ctx context.Context, req domain.VideoRequest, onProgress video.ProgressFunc) (domain.MediaResult, error)
}
