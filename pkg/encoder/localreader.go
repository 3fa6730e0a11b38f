package encoder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// LocalReader はローカルファイルシステムを remoteio.InputReader として扱うリーダーです。
// "file://" 付きのパスとそのままのパスの両方を受け付けます。
type LocalReader struct{}

var _ remoteio.InputReader = (*LocalReader)(nil)

// NewLocalReader は LocalReader を返します。
func NewLocalReader() *LocalReader {
	return &LocalReader{}
}

// Open はファイルを開きます。
func (r *LocalReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := localPath(uri)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// List はディレクトリ直下のファイルパスを順に fn へ渡します。
func (r *LocalReader) List(ctx context.Context, uri string, fn func(string) error) error {
	dir, err := localPath(uri)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		if err := fn(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func localPath(uri string) (string, error) {
	if strings.Contains(uri, "://") && !strings.HasPrefix(uri, "file://") {
		return "", fmt.Errorf("ローカルリーダーでは扱えないURIです: %s", uri)
	}
	return strings.TrimPrefix(uri, "file://"), nil
}
