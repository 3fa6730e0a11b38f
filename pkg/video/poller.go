package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"
)

// 進捗メッセージ。呼び出し側はこの順でライブ表示に使います。
const (
	MsgStarting       = "Starting video generation... This can take a few minutes."
	MsgProcessing     = "Your request is being processed. Hang tight!"
	MsgStillWorking   = "Still working on it... Great things take time!"
	MsgCheckingStatus = "Checking status... Please wait."
	MsgFinalizing     = "Finalizing video... Almost there!"
)

const (
	// DefaultInterval はオペレーション照会の間隔です。
	DefaultInterval = 10 * time.Second
	defaultMimeType = "video/mp4"
)

var (
	// ErrNoDownloadLink は完了したオペレーションにダウンロード URI がなかったことを表します。
	ErrNoDownloadLink = errors.New("video generation completed, but no download link was found")
	// ErrVideoDownloadFailed は生成済み動画の取得に失敗したことを表します。
	ErrVideoDownloadFailed = errors.New("failed to download the generated video")
	// ErrPollTimeout は MaxWait を設定した場合に、待機上限に達したことを表します。
	ErrPollTimeout = errors.New("video generation did not complete in time")
)

// Service は動画生成ジョブの投入と照会を行うリモートサービスです。
type Service interface {
	GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

// Downloader は署名付き URI から動画本体を取得します。
// リトライを挟まない httpkit.Client.Do がこれを満たします。
type Downloader = httpkit.Doer

// Observer はポーリングの結果を計測側へ通知します。
type Observer interface {
	ObservePoll(outcome string)
}

// ProgressFunc は人が読める進捗メッセージを受け取ります。
type ProgressFunc func(message string)

// Submission は 1 回の動画生成ジョブの入力です。
type Submission struct {
	Model  string
	Prompt string
	Image  *genai.Image
	Config *genai.GenerateVideosConfig
	// APIKey はダウンロード URI に付与する資格情報です。
	APIKey string
}

// Video は取得した動画本体です。
type Video struct {
	Data          []byte
	MimeType      string
	OperationName string
}

// Poller は動画生成ジョブを投入し、完了まで照会し、結果を取得する状態機械です。
// 照会は常に逐次で、同時に複数の照会が走ることはありません。
type Poller struct {
	downloader Downloader
	interval   time.Duration
	maxWait    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	observer   Observer
}

// Option は Poller の挙動を調整します。
type Option func(*Poller)

// WithInterval は照会間隔を変更します。
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxWait は照会の待機上限を設定します。0 は無制限です。
func WithMaxWait(d time.Duration) Option {
	return func(p *Poller) { p.maxWait = d }
}

// WithSleep は待機処理を差し替えます。
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// WithObserver はポーリング結果の通知先を設定します。
func WithObserver(o Observer) Option {
	return func(p *Poller) { p.observer = o }
}

// New は Poller を初期化します。
func New(downloader Downloader, opts ...Option) (*Poller, error) {
	if downloader == nil {
		return nil, fmt.Errorf("downloader is required")
	}
	p := &Poller{
		downloader: downloader,
		interval:   DefaultInterval,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run はジョブの投入から動画の取得までを行います。
// ctx がキャンセルされるとポーリングを止め、ctx.Err() を返します。
func (p *Poller) Run(ctx context.Context, svc Service, s Submission, onProgress ProgressFunc) (*Video, error) {
	progress := func(msg string) {
		if onProgress != nil {
			onProgress(msg)
		}
	}

	progress(MsgStarting)
	op, err := svc.GenerateVideos(ctx, s.Model, s.Prompt, s.Image, s.Config)
	if err != nil {
		return nil, fmt.Errorf("動画生成ジョブの投入に失敗しました: %w", err)
	}
	if op == nil {
		return nil, fmt.Errorf("動画生成ジョブの投入に失敗しました: empty operation")
	}
	slog.InfoContext(ctx, "動画生成ジョブを投入しました", "operation", op.Name, "model", s.Model)
	progress(MsgProcessing)

	op, err = p.Wait(ctx, svc, op, progress)
	if err != nil {
		return nil, err
	}

	progress(MsgFinalizing)
	link, mimeType, err := DownloadLink(op)
	if err != nil {
		return nil, err
	}

	data, err := p.download(ctx, link, s.APIKey)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	return &Video{Data: data, MimeType: mimeType, OperationName: op.Name}, nil
}

// Wait は op.Done になるまで一定間隔で照会を繰り返します。
// 照会の失敗は一時的なものとして扱い、ループを止めません。
func (p *Poller) Wait(ctx context.Context, svc Service, op *genai.GenerateVideosOperation, onProgress ProgressFunc) (*genai.GenerateVideosOperation, error) {
	var waited time.Duration
	attempt := 0
	for !op.Done {
		if p.maxWait > 0 && waited >= p.maxWait {
			p.observe("timeout")
			return nil, fmt.Errorf("%w (operation: %s, waited: %s)", ErrPollTimeout, op.Name, waited)
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
		waited += p.interval
		attempt++

		next, err := svc.GetVideosOperation(ctx, op)
		if err == nil && next == nil {
			err = errors.New("empty operation")
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// 作成直後は照会先に反映されていないことがあるため、待って再照会する
			slog.WarnContext(ctx, "オペレーションの照会に失敗しました。再試行します", "operation", op.Name, "attempt", attempt, "error", err)
			p.observe("transient_error")
			if onProgress != nil {
				onProgress(MsgCheckingStatus)
			}
			continue
		}

		op = next
		p.observe("ok")
		if onProgress != nil {
			onProgress(MsgStillWorking)
		}
	}

	slog.InfoContext(ctx, "動画生成ジョブが完了しました", "operation", op.Name, "attempts", attempt)
	return op, nil
}

// DownloadLink は完了したオペレーションから動画の URI と MIME タイプを取り出します。
func DownloadLink(op *genai.GenerateVideosOperation) (string, string, error) {
	if op == nil {
		return "", "", ErrNoDownloadLink
	}
	if op.Error != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNoDownloadLink, op.Error["message"])
	}
	resp := op.Response
	if resp == nil || len(resp.GeneratedVideos) == 0 {
		if resp != nil && len(resp.RAIMediaFilteredReasons) > 0 {
			return "", "", fmt.Errorf("%w: filtered: %v", ErrNoDownloadLink, resp.RAIMediaFilteredReasons)
		}
		return "", "", ErrNoDownloadLink
	}
	video := resp.GeneratedVideos[0].Video
	if video == nil || video.URI == "" {
		return "", "", ErrNoDownloadLink
	}
	return video.URI, video.MIMEType, nil
}

func (p *Poller) download(ctx context.Context, link, apiKey string) ([]byte, error) {
	target, err := withKey(link, apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoDownloadFailed, redact(err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoDownloadFailed, redact(err))
	}

	resp, err := p.downloader.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrVideoDownloadFailed, redact(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrVideoDownloadFailed, resp.StatusCode)
	}
	data, err := httpkit.HandleResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoDownloadFailed, redact(err))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrVideoDownloadFailed)
	}
	return data, nil
}

// redact はエラーに含まれる URL からクエリを取り除きます。クエリには API キーが入ります。
func redact(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: stripQuery(ue.URL), Err: ue.Err}
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func (p *Poller) observe(outcome string) {
	if p.observer != nil {
		p.observer.ObservePoll(outcome)
	}
}

// withKey はダウンロード URI に資格情報のクエリパラメータを付与します。
func withKey(link, apiKey string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
