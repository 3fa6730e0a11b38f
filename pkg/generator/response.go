package generator

import (
	"fmt"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// imageOutput は応答から取り出した画像です。
type imageOutput struct {
	Data     []byte
	MimeType string
}

// parseToImage は最初の候補のパーツから最初のインライン画像を取り出します。
func parseToImage(resp *gemini.Response) (*imageOutput, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("%w: 候補がありません", ErrNoImageInResponse)
	}
	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &imageOutput{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType}, nil
			}
		}
	}
	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w (finish reason: %s)", ErrNoImageInResponse, candidate.FinishReason)
	}
	return nil, ErrNoImageInResponse
}

// firstGeneratedImage は画像生成の応答から 1 枚目を取り出します。
func firstGeneratedImage(resp *genai.GenerateImagesResponse) (*genai.Image, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, ErrGenerationFailed
	}
	gen := resp.GeneratedImages[0]
	if gen == nil || gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
		if gen != nil && gen.RAIFilteredReason != "" {
			return nil, fmt.Errorf("%w: filtered: %s", ErrGenerationFailed, gen.RAIFilteredReason)
		}
		return nil, ErrGenerationFailed
	}
	return gen.Image, nil
}
