package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodedImage(t *testing.T) {
	t.Run("Bytes でペイロードを元のバイト列に戻せるのだ", func(t *testing.T) {
		raw := []byte{0x89, 'P', 'N', 'G', 0x00, 0xFF}
		img := NewEncodedImage(raw, "image/png")

		got, err := img.Bytes()
		require.NoError(t, err)
		assert.Equal(t, raw, got)
		assert.False(t, img.IsZero())
	})

	t.Run("DataURI は MIME タイプを埋め込むのだ", func(t *testing.T) {
		img := NewEncodedImage([]byte("jpeg"), "image/jpeg")
		uri := img.DataURI()

		assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	})

	t.Run("ゼロ値は未読み込み扱いなのだ", func(t *testing.T) {
		assert.True(t, EncodedImage{}.IsZero())
	})
}

func TestParseDataURI(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		wantMime string
		wantErr  bool
	}{
		{"正常な PNG", "data:image/png;base64,AAEC", "image/png", false},
		{"data スキームでない", "https://example.com/a.png", "", true},
		{"カンマがない", "data:image/png;base64", "", true},
		{"base64 指定がない", "data:text/plain,hello", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDataURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, got.MimeType)
			assert.Equal(t, tt.uri, got.DataURI())
		})
	}
}
