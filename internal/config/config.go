// Package config holds the tamperfy CLI configuration: learned backend
// locations, download limits, scan concurrency and the flag threshold.
package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/anatolykoptev/go-tamperfy"
	"github.com/anatolykoptev/go-tamperfy/internal/cache"
)

// Default configuration values.
const (
	// DefaultConcurrency is the number of posts scanned at once by `tamperfy scan`.
	DefaultConcurrency = 4

	// DefaultFlagThreshold matches the reference moderation threshold: a post
	// is flagged when either score is strictly above it.
	DefaultFlagThreshold = tamperfy.FlagThreshold

	// DefaultInferenceTimeout bounds a single learned-backend request.
	DefaultInferenceTimeout = 10 * time.Second

	// DefaultMaxDownloadBytes caps remote image downloads.
	DefaultMaxDownloadBytes = 10 << 20 // 10MB

	// DefaultServerAddr is the listen address of `tamperfy serve`.
	DefaultServerAddr = ":8080"

	// DefaultMaxUploadBytes caps a single upload accepted by `tamperfy serve`.
	DefaultMaxUploadBytes = 16 << 20 // 16MB

	// AppName is the application name used for XDG directory paths.
	AppName = "tamperfy"

	// DefaultTextModelID names the sentiment classifier used as a manipulation proxy.
	DefaultTextModelID = "distilbert-base-uncased-finetuned-sst-2-english"
)

// ImageModel locates the learned image classifier.
type ImageModel struct {
	Artifact string        `yaml:"artifact,omitempty"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// TextModel locates the learned text classifier. The bearer token is read
// from the environment variable named by TokenEnv, never from the file.
type TextModel struct {
	Model    string        `yaml:"model,omitempty"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	TokenEnv string        `yaml:"token_env,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// Download configures DetectImageURL.
type Download struct {
	MaxBytes  int64  `yaml:"max_bytes,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

// Cache configures the shared result cache used for URL detections.
type Cache struct {
	RedisURL string        `yaml:"redis_url,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// Server configures `tamperfy serve`.
type Server struct {
	Addr           string `yaml:"addr,omitempty"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes,omitempty"`
}

// Scan configures batch directory scans.
type Scan struct {
	Concurrency int `yaml:"concurrency,omitempty"`
}

// Config is the contents of a .tamperfy.yaml file.
type Config struct {
	ImageModel    ImageModel `yaml:"image_model,omitempty"`
	TextModel     TextModel  `yaml:"text_model,omitempty"`
	Download      Download   `yaml:"download,omitempty"`
	Cache         Cache      `yaml:"cache,omitempty"`
	Server        Server     `yaml:"server,omitempty"`
	Scan          Scan       `yaml:"scan,omitempty"`
	FlagThreshold float64    `yaml:"flag_threshold,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		ImageModel: ImageModel{Timeout: DefaultInferenceTimeout},
		TextModel: TextModel{
			Model:   DefaultTextModelID,
			Timeout: DefaultInferenceTimeout,
		},
		Download:      Download{MaxBytes: DefaultMaxDownloadBytes},
		Cache:         Cache{TTL: cache.DefaultTTL},
		Server:        Server{Addr: DefaultServerAddr, MaxUploadBytes: DefaultMaxUploadBytes},
		Scan:          Scan{Concurrency: DefaultConcurrency},
		FlagThreshold: DefaultFlagThreshold,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.FlagThreshold < 0 || c.FlagThreshold > 1 {
		return ErrInvalidThreshold
	}
	if c.Scan.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.ImageModel.Timeout < 0 || c.TextModel.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Download.MaxBytes < 0 || c.Server.MaxUploadBytes < 0 {
		return ErrInvalidMaxBytes
	}
	if c.Cache.TTL < 0 {
		return ErrInvalidTTL
	}
	if c.ImageModel.Endpoint != "" && c.ImageModel.Artifact == "" {
		return ErrEndpointWithoutArtifact
	}
	return nil
}

// Detector builds the tamperfy.Config described by c. Learned backends are
// resolved here, once; an unconfigured backend selects heuristic fusion.
func (c *Config) Detector(getenv func(string) string) tamperfy.Config {
	var token string
	if c.TextModel.TokenEnv != "" && getenv != nil {
		token = getenv(c.TextModel.TokenEnv)
	}

	return tamperfy.Config{
		ImageModel: tamperfy.LoadImageModel(tamperfy.ImageModelOptions{
			ArtifactPath: c.ImageModel.Artifact,
			Endpoint:     c.ImageModel.Endpoint,
			Timeout:      c.ImageModel.Timeout,
		}),
		TextModel: tamperfy.LoadTextModel(tamperfy.TextModelOptions{
			ModelID:  c.TextModel.Model,
			Endpoint: c.TextModel.Endpoint,
			Token:    token,
			Timeout:  c.TextModel.Timeout,
		}),
		UserAgent:        c.Download.UserAgent,
		MaxDownloadBytes: c.Download.MaxBytes,
	}
}

// NewCache opens the configured result cache. It returns nil when no cache
// is configured.
func (c *Config) NewCache() (*cache.Redis, error) {
	if c.Cache.RedisURL == "" {
		return nil, nil
	}
	return cache.NewRedis(c.Cache.RedisURL, c.Cache.TTL)
}

// XDGConfigDir returns the XDG config directory for tamperfy.
// On Linux: ~/.config/tamperfy
// On macOS: ~/Library/Application Support/tamperfy
// On Windows: %APPDATA%\tamperfy
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
