package credential

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("初期キーが空なら未選択なのだ", func(t *testing.T) {
		s := NewStore("")
		ok, err := s.HasSelected(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.APIKey(ctx)
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("Offer したキーは Select で採用されるのだ", func(t *testing.T) {
		s := NewStore("")
		s.Offer("  key-123 ")
		require.NoError(t, s.Select(ctx))

		ok, _ := s.HasSelected(ctx)
		assert.True(t, ok)
		key, err := s.APIKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, "key-123", key)
	})

	t.Run("Offer なしの Select は現在のキーを維持するのだ", func(t *testing.T) {
		s := NewStore("initial")
		require.NoError(t, s.Select(ctx))
		key, _ := s.APIKey(ctx)
		assert.Equal(t, "initial", key)
	})

	t.Run("Deselect すると未選択に戻り、再度 Select できるのだ", func(t *testing.T) {
		s := NewStore("key")
		s.Deselect()
		ok, _ := s.HasSelected(ctx)
		assert.False(t, ok)

		require.NoError(t, s.Select(ctx))
		ok, _ = s.HasSelected(ctx)
		assert.True(t, ok)
	})

	t.Run("キャンセル済みのコンテキストでは選択しないのだ", func(t *testing.T) {
		s := NewStore("")
		s.Offer("key")
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, s.Select(cctx), context.Canceled)
	})
}

func TestSelectorOf(t *testing.T) {
	_, ok := SelectorOf(NewEnvSource(""))
	assert.False(t, ok, "EnvSource は選択機能を持たないのだ")

	_, ok = SelectorOf(NewStore(""))
	assert.True(t, ok)

	_, ok = SelectorOf(nil)
	assert.False(t, ok)
}

func TestEnvSource(t *testing.T) {
	ctx := context.Background()
	src := NewEnvSource("STUDIO_TEST_API_KEY")

	t.Setenv("STUDIO_TEST_API_KEY", "")
	_, err := src.APIKey(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)

	// 呼び出しごとに読み直すので、変更が即座に反映されるのだ
	t.Setenv("STUDIO_TEST_API_KEY", "first")
	key, _ := src.APIKey(ctx)
	assert.Equal(t, "first", key)

	t.Setenv("STUDIO_TEST_API_KEY", "second")
	key, _ = src.APIKey(ctx)
	assert.Equal(t, "second", key)
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("存在しないファイルは無視するのだ", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(t.TempDir()+"/missing.env"))
	})
}

func TestPromptSelector(t *testing.T) {
	ctx := context.Background()

	t.Run("入力されたキーが選択されるのだ", func(t *testing.T) {
		out := new(bytes.Buffer)
		p := NewPromptSelector(strings.NewReader("typed-key\n"), out, "")

		require.NoError(t, p.Select(ctx))
		ok, _ := p.HasSelected(ctx)
		assert.True(t, ok)
		key, _ := p.APIKey(ctx)
		assert.Equal(t, "typed-key", key)
		assert.Contains(t, out.String(), "API key")
	})

	t.Run("空入力でもエラーにはならないのだ", func(t *testing.T) {
		p := NewPromptSelector(strings.NewReader(""), new(bytes.Buffer), "")

		require.NoError(t, p.Select(ctx))
		ok, _ := p.HasSelected(ctx)
		assert.False(t, ok)
	})
}
