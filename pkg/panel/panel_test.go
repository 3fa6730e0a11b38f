package panel

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shouni/gemini-media-studio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	_, err := NewEditPanel(nil, &mockImageSource{})
	assert.Error(t, err)
	_, err = NewEditPanel(&mockEditor{}, nil)
	assert.Error(t, err)
	_, err = NewImagePanel(nil)
	assert.Error(t, err)
	_, err = NewVideoPanel(nil, &mockImageSource{}, nil)
	assert.Error(t, err)
	_, err = NewVideoPanel(&mockVideoGenerator{}, nil, nil)
	assert.Error(t, err)
}

func TestEditPanel(t *testing.T) {
	ctx := context.Background()

	t.Run("帽子を追加すると結果が data:image/ になりエラーが空なのだ", func(t *testing.T) {
		editor := &mockEditor{editFunc: func(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error) {
			assert.Equal(t, "add a hat", req.Prompt)
			assert.Equal(t, testImage, req.Image)
			return domain.MediaResult{Kind: domain.MediaImage, URI: "data:image/png;base64,AAAA", MimeType: "image/png"}, nil
		}}
		p, err := NewEditPanel(editor, &mockImageSource{image: testImage})
		require.NoError(t, err)

		require.NoError(t, p.LoadURL(ctx, "https://example.com/initial.jpeg"))
		assert.Equal(t, "https://example.com/initial.jpeg", p.State().SourceURI)

		require.NoError(t, p.Submit(ctx, "add a hat"))
		st := p.State()
		assert.True(t, strings.HasPrefix(st.ResultURI, "data:image/"))
		assert.Empty(t, st.Error)
		assert.False(t, st.Loading)
		assert.False(t, p.Busy())
	})

	t.Run("画像がなければ送らずにメッセージを出すのだ", func(t *testing.T) {
		editor := &mockEditor{}
		p, _ := NewEditPanel(editor, &mockImageSource{})

		err := p.Submit(ctx, "add a hat")
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, MsgEditMissingInput, p.State().Error)
		assert.Zero(t, editor.calls.Load())
	})

	t.Run("初期画像の読み込みに失敗したらアップロードを促すのだ", func(t *testing.T) {
		p, _ := NewEditPanel(&mockEditor{}, &mockImageSource{err: errNotImage})
		assert.Error(t, p.LoadURL(ctx, "https://example.com/broken"))
		assert.Equal(t, MsgEditInitialLoad, p.State().Error)
		assert.False(t, p.State().Loading)
	})

	t.Run("ファイルを読み込むと前の結果が消えるのだ", func(t *testing.T) {
		editor := &mockEditor{editFunc: func(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error) {
			return domain.MediaResult{URI: "data:image/png;base64,AAAA", MimeType: "image/png"}, nil
		}}
		p, _ := NewEditPanel(editor, &mockImageSource{image: testImage})
		require.NoError(t, p.LoadURL(ctx, "https://example.com/a.png"))
		require.NoError(t, p.Submit(ctx, "p"))

		require.NoError(t, p.LoadReader(ctx, strings.NewReader("data"), "image/png"))
		st := p.State()
		assert.Empty(t, st.ResultURI)
		assert.Equal(t, testImage.DataURI(), st.SourceURI)
	})

	t.Run("ファイルが画像でなければ処理失敗のメッセージなのだ", func(t *testing.T) {
		p, _ := NewEditPanel(&mockEditor{}, &mockImageSource{err: errNotImage})
		assert.Error(t, p.LoadFile(ctx, "/tmp/notes.txt"))
		assert.Equal(t, MsgImageFileFailed, p.State().Error)
	})

	t.Run("サービスが失敗したら編集失敗のメッセージなのだ", func(t *testing.T) {
		editor := &mockEditor{editFunc: func(ctx context.Context, req domain.EditRequest) (domain.MediaResult, error) {
			return domain.MediaResult{}, errService
		}}
		p, _ := NewEditPanel(editor, &mockImageSource{image: testImage})
		require.NoError(t, p.LoadURL(ctx, "https://example.com/a.png"))

		err := p.Submit(ctx, "p")
		assert.ErrorIs(t, err, errService)
		assert.Equal(t, MsgEditFailed, p.State().Error)
		assert.False(t, p.Busy())
	})
}

func TestImagePanel(t *testing.T) {
	ctx := context.Background()

	t.Run("空のプロンプトはサービスに問い合わせないのだ", func(t *testing.T) {
		gen := &mockImageGenerator{}
		p, _ := NewImagePanel(gen)

		for _, prompt := range []string{"", "   "} {
			err := p.Submit(ctx, prompt)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, MsgImageMissingPrompt, p.State().Error)
		}
		assert.Zero(t, gen.calls.Load())
	})

	t.Run("成功すると結果を表示するのだ", func(t *testing.T) {
		gen := &mockImageGenerator{generateFunc: func(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error) {
			return domain.MediaResult{Kind: domain.MediaImage, URI: "data:image/jpeg;base64,AAAA", MimeType: "image/jpeg"}, nil
		}}
		p, _ := NewImagePanel(gen)

		require.NoError(t, p.Submit(ctx, "a futuristic city"))
		st := p.State()
		assert.Equal(t, "data:image/jpeg;base64,AAAA", st.ResultURI)
		assert.Equal(t, "a futuristic city", st.Prompt)
		assert.Empty(t, st.Error)
	})

	t.Run("失敗すると前の結果は消えて失敗メッセージなのだ", func(t *testing.T) {
		fail := false
		gen := &mockImageGenerator{generateFunc: func(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error) {
			if fail {
				return domain.MediaResult{}, errService
			}
			return domain.MediaResult{URI: "data:image/jpeg;base64,AAAA"}, nil
		}}
		p, _ := NewImagePanel(gen)
		require.NoError(t, p.Submit(ctx, "first"))

		fail = true
		assert.Error(t, p.Submit(ctx, "second"))
		st := p.State()
		assert.Empty(t, st.ResultURI)
		assert.Equal(t, MsgImageFailed, st.Error)
	})

	t.Run("実行中は ErrBusy で 2 つ目を弾くのだ", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		gen := &mockImageGenerator{generateFunc: func(ctx context.Context, req domain.ImageRequest) (domain.MediaResult, error) {
			close(entered)
			<-release
			return domain.MediaResult{URI: "data:image/jpeg;base64,AAAA"}, nil
		}}
		p, _ := NewImagePanel(gen)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Submit(ctx, "slow"))
		}()
		<-entered

		assert.True(t, p.State().Loading)
		assert.ErrorIs(t, p.Submit(ctx, "again"), ErrBusy)

		close(release)
		wg.Wait()
		assert.EqualValues(t, 1, gen.calls.Load())
		assert.False(t, p.Busy())
	})
}
