package credential

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvKey は API キーを読む環境変数名です。
const DefaultEnvKey = "GEMINI_API_KEY"

// EnvSource は呼び出しのたびに環境変数から API キーを読みます。
// 選択機能は持たないため、SelectorOf は false を返します。
type EnvSource struct {
	Name string
}

// NewEnvSource は name の環境変数を読む EnvSource を返します。
func NewEnvSource(name string) *EnvSource {
	if name == "" {
		name = DefaultEnvKey
	}
	return &EnvSource{Name: name}
}

// APIKey は環境変数の現在値を返します。
func (e *EnvSource) APIKey(ctx context.Context) (string, error) {
	key := strings.TrimSpace(os.Getenv(e.Name))
	if key == "" {
		return "", ErrNoCredential
	}
	return key, nil
}

// LoadDotEnv は .env ファイルを読み込みます。ファイルが存在しない場合は何もしません。
// 既に設定されている環境変数は上書きしません。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}
