package generator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrNoImageInResponse は編集結果に画像が含まれていなかったことを表します。
	ErrNoImageInResponse = errors.New("no image found in response")
	// ErrGenerationFailed は画像生成で 1 枚も得られなかったことを表します。
	ErrGenerationFailed = errors.New("image generation failed")
	// ErrInvalidCredential はサービスが API キーを受け付けなかったことを表します。
	ErrInvalidCredential = errors.New("invalid credential")
)

// notFoundMessage は API キーに紐づくプロジェクトが見つからないときの文言です。
// モデル名の誤りなど他の 404 ("models/x is not found ...") とはこれで区別します。
const notFoundMessage = "requested entity was not found"

// classify はサービスのエラーのうち資格情報の問題を ErrInvalidCredential に寄せます。
func classify(err error) error {
	if err == nil || errors.Is(err, ErrInvalidCredential) {
		return err
	}
	if isInvalidCredential(err) {
		return fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	return err
}

func isInvalidCredential(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		if (apiErr.Code == http.StatusNotFound || apiErr.Status == "NOT_FOUND") && isEntityNotFound(apiErr.Message) {
			return true
		}
		// 不正なキーは 400 で返る
		if apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "API key not valid") {
			return true
		}
		return false
	}
	return isEntityNotFound(err.Error())
}

func isEntityNotFound(msg string) bool {
	return strings.Contains(strings.ToLower(msg), notFoundMessage)
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}
