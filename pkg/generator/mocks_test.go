package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shouni/gemini-media-studio/pkg/blob"
	"github.com/shouni/gemini-media-studio/pkg/video"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockService struct {
	generateWithPartsFunc func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
	generateImagesFunc    func(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	generateVideosFunc    func(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	getVideosOpFunc       func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

func (m *mockService) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	if m.generateWithPartsFunc == nil {
		return nil, errors.New("unexpected GenerateWithParts")
	}
	return m.generateWithPartsFunc(ctx, model, parts, opts)
}

func (m *mockService) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	if m.generateImagesFunc == nil {
		return nil, errors.New("unexpected GenerateImages")
	}
	return m.generateImagesFunc(ctx, model, prompt, config)
}

func (m *mockService) GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	if m.generateVideosFunc == nil {
		return nil, errors.New("unexpected GenerateVideos")
	}
	return m.generateVideosFunc(ctx, model, prompt, image, config)
}

func (m *mockService) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	if m.getVideosOpFunc == nil {
		return op, nil
	}
	return m.getVideosOpFunc(ctx, op)
}

// mockSource は呼び出しごとに keys を順に返すのだ。
type mockSource struct {
	mu    sync.Mutex
	keys  []string
	err   error
	calls int
}

func (m *mockSource) APIKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.keys) == 0 {
		return "test-key", nil
	}
	k := m.keys[0]
	if len(m.keys) > 1 {
		m.keys = m.keys[1:]
	}
	return k, nil
}

// recordingFactory は渡された API キーを記録して svc を返すのだ。
type recordingFactory struct {
	svc  Service
	keys []string
	err  error
}

func (f *recordingFactory) create(ctx context.Context, apiKey string) (Service, error) {
	f.keys = append(f.keys, apiKey)
	if f.err != nil {
		return nil, f.err
	}
	return f.svc, nil
}

// mockDownloader は Downloader のテスト用モックなのだ。
// status が 0 なら 200 を返すのだ。
type mockDownloader struct {
	calls   int
	lastURL string
	data    []byte
	status  int
	err     error
}

func (m *mockDownloader) Do(req *http.Request) (*http.Response, error) {
	m.calls++
	m.lastURL = req.URL.String()
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(m.data)),
	}, nil
}

type mockBlobStore struct {
	data     map[string][]byte
	mimes    map[string]string
	err      error
	sequence int
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{data: map[string][]byte{}, mimes: map[string]string{}}
}

func (m *mockBlobStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sequence++
	id := fmt.Sprintf("blob-%d", m.sequence)
	m.data[id] = data
	m.mimes[id] = mimeType
	return id, nil
}

func (m *mockBlobStore) Get(ctx context.Context, id string) (blob.Blob, error) {
	d, ok := m.data[id]
	if !ok {
		return blob.Blob{}, blob.ErrNotFound
	}
	return blob.Blob{Data: d, MimeType: m.mimes[id]}, nil
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func newTestPoller(dl video.Downloader, opts ...video.Option) *video.Poller {
	p, err := video.New(dl, append([]video.Option{video.WithSleep(noSleep)}, opts...)...)
	if err != nil {
		panic(err)
	}
	return p
}

func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "here you go"},
						{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
					},
				},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}
}
