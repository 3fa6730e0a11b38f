package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultInitialImageURL は編集・動画パネルが最初に読み込む画像です。
const DefaultInitialImageURL = "https://storage.googleapis.com/generative-ai-pro-isv-tools/e6a575a5-481b-4107-883a-493bb35081df.jpeg"

// Config はスタジオ全体の設定です。
type Config struct {
	Server     ServerConfig     `yaml:"server" env:"SERVER"`
	Credential CredentialConfig `yaml:"credential" env:"CREDENTIAL"`
	Models     ModelsConfig     `yaml:"models" env:"MODELS"`
	Image      ImageConfig      `yaml:"image" env:"IMAGE"`
	Video      VideoConfig      `yaml:"video" env:"VIDEO"`
	HTTP       HTTPConfig       `yaml:"http" env:"HTTP"`
	Blob       BlobConfig       `yaml:"blob" env:"BLOB"`
	Encoder    EncoderConfig    `yaml:"encoder" env:"ENCODER"`
	Log        LogConfig        `yaml:"log" env:"LOG"`

	// InitialImageURL は起動時に編集・動画パネルへ読み込む画像です。空なら読み込みません。
	InitialImageURL string `yaml:"initial_image_url" env:"INITIAL_IMAGE_URL"`

	// RequestsPerSecond は生成ジョブ投入の上限です。0 なら制限しません。
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
}

// ServerConfig は HTTP サーバーの設定です。
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// CredentialConfig は API キーの読み込み元です。
type CredentialConfig struct {
	EnvKey   string   `yaml:"env_key" env:"ENV_KEY"`
	DotEnv   []string `yaml:"dotenv" env:"DOTENV"`
	Selector bool     `yaml:"selector" env:"SELECTOR"`
}

// ModelsConfig は操作ごとのモデル名です。
type ModelsConfig struct {
	Edit  string `yaml:"edit" env:"EDIT"`
	Image string `yaml:"image" env:"IMAGE"`
	Video string `yaml:"video" env:"VIDEO"`
}

// ImageConfig は画像生成の固定パラメータです。
type ImageConfig struct {
	AspectRatio string `yaml:"aspect_ratio" env:"ASPECT_RATIO"`
	MimeType    string `yaml:"mime_type" env:"MIME_TYPE"`
}

// VideoConfig は動画生成とポーリングの設定です。
type VideoConfig struct {
	Resolution   string        `yaml:"resolution" env:"RESOLUTION"`
	AspectRatio  string        `yaml:"aspect_ratio" env:"ASPECT_RATIO"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`

	// MaxWait はポーリングの待機上限です。0 なら完了まで待ち続けます。
	MaxWait time.Duration `yaml:"max_wait" env:"MAX_WAIT"`
}

// HTTPConfig は外部取得に使う HTTP クライアントの設定です。
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// BlobConfig は生成メディアの置き場の設定です。
type BlobConfig struct {
	// Backend は memory か redis です。
	Backend string        `yaml:"backend" env:"BACKEND"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
	Redis   RedisConfig   `yaml:"redis" env:"REDIS"`
}

// RedisConfig は Redis の接続設定です。
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	Password  string `yaml:"password" env:"PASSWORD"`
	DB        int    `yaml:"db" env:"DB"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// EncoderConfig は画像読み込みの設定です。
type EncoderConfig struct {
	AllowPrivateHosts bool `yaml:"allow_private_hosts" env:"ALLOW_PRIVATE_HOSTS"`

	// CompressThreshold を超える画像は JPEG に再圧縮します。0 なら圧縮しません。
	CompressThreshold int `yaml:"compress_threshold" env:"COMPRESS_THRESHOLD"`
	Quality           int `yaml:"quality" env:"QUALITY"`
}

// LogConfig はログ出力の設定です。
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default は既定値を返します。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Credential: CredentialConfig{
			EnvKey:   "GEMINI_API_KEY",
			DotEnv:   []string{".env"},
			Selector: true,
		},
		Models: ModelsConfig{
			Edit:  "gemini-2.5-flash-image",
			Image: "imagen-4.0-generate-001",
			Video: "veo-3.1-fast-generate-preview",
		},
		Image: ImageConfig{
			AspectRatio: "1:1",
			MimeType:    "image/jpeg",
		},
		Video: VideoConfig{
			Resolution:   "720p",
			AspectRatio:  "16:9",
			PollInterval: 10 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout: 60 * time.Second,
		},
		Blob: BlobConfig{
			Backend: "memory",
			TTL:     time.Hour,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "studio:",
			},
		},
		Encoder: EncoderConfig{
			Quality: 75,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		InitialImageURL: DefaultInitialImageURL,
	}
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, "server.addr must not be empty")
	}
	if c.Models.Edit == "" || c.Models.Image == "" || c.Models.Video == "" {
		errs = append(errs, "models.edit, models.image and models.video are required")
	}
	if !strings.HasPrefix(c.Image.MimeType, "image/") {
		errs = append(errs, fmt.Sprintf("image.mime_type must be an image type: %q", c.Image.MimeType))
	}
	if c.Video.PollInterval <= 0 {
		errs = append(errs, "video.poll_interval must be positive")
	}
	if c.Video.MaxWait < 0 {
		errs = append(errs, "video.max_wait must not be negative")
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, "http.timeout must be positive")
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, "requests_per_second must not be negative")
	}
	switch c.Blob.Backend {
	case "memory":
	case "redis":
		if c.Blob.Redis.Addr == "" {
			errs = append(errs, "blob.redis.addr is required for the redis backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("blob.backend must be memory or redis: %q", c.Blob.Backend))
	}
	if c.Blob.TTL <= 0 {
		errs = append(errs, "blob.ttl must be positive")
	}
	if c.Encoder.CompressThreshold < 0 {
		errs = append(errs, "encoder.compress_threshold must not be negative")
	}
	if c.Encoder.Quality < 1 || c.Encoder.Quality > 100 {
		errs = append(errs, "encoder.quality must be between 1 and 100")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed: " + strings.Join(errs, "; "))
	}
	return nil
}
