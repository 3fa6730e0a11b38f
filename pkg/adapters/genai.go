package adapters

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// responseModalityImage は画像のみを返させるためのレスポンスモダリティです。
const responseModalityImage = "IMAGE"

// GenAIService は genai.Client を包み、編集・画像生成・動画生成・オペレーション照会を提供します。
// API キーごとに作り直す前提で、長期間保持しません。
type GenAIService struct {
	client *genai.Client
}

// ServiceOption は GenAIService の接続設定を調整します。
type ServiceOption func(*genai.ClientConfig)

// WithBaseURL は API のエンドポイントを差し替えます（プロキシやテスト用）。
func WithBaseURL(baseURL string) ServiceOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
	}
}

// WithHTTPClient は通信に使う http.Client を指定します。
func WithHTTPClient(c *http.Client) ServiceOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = c
	}
}

// NewGenAIService は apiKey を使って Gemini API 向けのクライアントを生成します。
func NewGenAIService(ctx context.Context, apiKey string, opts ...ServiceOption) (*GenAIService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}
	return &GenAIService{client: client}, nil
}

// GenerateWithParts はテキストと画像のパーツを 1 リクエストにまとめ、画像のみの応答を要求します。
func (s *GenAIService) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{responseModalityImage},
	}
	if opts.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := s.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// GenerateImages はテキストから画像を生成します。
func (s *GenAIService) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	return s.client.Models.GenerateImages(ctx, model, prompt, config)
}

// GenerateVideos は画像とテキストから動画生成ジョブを投入し、オペレーションを返します。
func (s *GenAIService) GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return s.client.Models.GenerateVideos(ctx, model, prompt, image, config)
}

// GetVideosOperation はオペレーションの状態を照会します。
func (s *GenAIService) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return s.client.Operations.GetVideosOperation(ctx, op, nil)
}
