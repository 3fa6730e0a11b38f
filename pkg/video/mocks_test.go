package video

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// pollResult は照会 1 回分の応答なのだ。
type pollResult struct {
	op  *genai.GenerateVideosOperation
	err error
}

// mockService は Service のテスト用モックなのだ。
// results を先頭から順に返すのだ。
type mockService struct {
	submitErr  error
	submitOp   *genai.GenerateVideosOperation
	results    []pollResult
	queries    int
	submits    int
	lastPrompt string
	onQuery    func(n int)
}

func (m *mockService) GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	m.submits++
	m.lastPrompt = prompt
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if m.submitOp != nil {
		return m.submitOp, nil
	}
	return &genai.GenerateVideosOperation{Name: "operations/test"}, nil
}

func (m *mockService) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	m.queries++
	if m.onQuery != nil {
		m.onQuery(m.queries)
	}
	if len(m.results) == 0 {
		return &genai.GenerateVideosOperation{Name: op.Name}, nil
	}
	r := m.results[0]
	m.results = m.results[1:]
	return r.op, r.err
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

var _ Service = (*mockService)(nil)

// fakeSleep は実際には待たずに回数と合計時間だけ記録するのだ。
type fakeSleep struct {
	calls int
	total time.Duration
}

func (f *fakeSleep) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.calls++
	f.total += d
	return nil
}

type mockObserver struct {
	outcomes []string
}

func (m *mockObserver) ObservePoll(outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

func pending() pollResult {
	return pollResult{op: &genai.GenerateVideosOperation{Name: "operations/test"}}
}

func doneWithURI(uri string) pollResult {
	return pollResult{op: &genai.GenerateVideosOperation{
		Name: "operations/test",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: uri}}},
		},
	}}
}

func doneWithoutLink() pollResult {
	return pollResult{op: &genai.GenerateVideosOperation{
		Name:     "operations/test",
		Done:     true,
		Response: &genai.GenerateVideosResponse{},
	}}
}
