package tamperfy

import (
	"context"
	"net/http"
)

// Cache abstracts key-value caching (Redis, sync.Map, etc.)
type Cache interface {
	Key(prefix, value string) string
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
}

// ImageModel abstracts a learned binary tamper classifier.
// Predict receives a cnnInputSize×cnnInputSize RGB tensor normalized to [0,1]
// and returns class probabilities; index 1 is the tampered class.
type ImageModel interface {
	Predict(ctx context.Context, input Tensor) ([]float64, error)
}

// TextModel abstracts a text classification backend (sentiment or
// manipulation classifier) returning its top label.
type TextModel interface {
	Classify(ctx context.Context, text string) (TextPrediction, error)
}

// TextPrediction is the top label reported by a TextModel.
type TextPrediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Config holds all dependencies injected by the consumer.
type Config struct {
	ImageModel    ImageModel   // optional: nil = heuristic-only image fusion
	TextModel     TextModel    // optional: nil = heuristic-only text fusion
	Cache         Cache        // optional: caches DetectImageURL results (nil = no caching)
	StealthClient *http.Client // optional: TLS-fingerprinted client for downloads
	HTTPClient    *http.Client // optional: default http client (nil = http.DefaultClient)
	UserAgent     string       // default: "Mozilla/5.0 (compatible; go-tamperfy/1.0)"

	// MaxDownloadBytes caps remote image downloads (default: 10MB).
	MaxDownloadBytes int64

	// Optional callbacks for metrics/logging.
	OnPanic     func(tag string, r any)
	OnDetection func(DetectionEvent) // optional: audit log for every detection result
}

// DetectionEvent is emitted through Config.OnDetection after every detection call.
type DetectionEvent struct {
	Kind   string // "image" or "text"
	Source string // file path, URL, or "bytes"/"text"
	Score  float64
	Label  Label
	Cached bool // served from Config.Cache
}

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; go-tamperfy/1.0)"
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.MaxDownloadBytes <= 0 {
		c.MaxDownloadBytes = defaultMaxDownloadBytes
	}
}

// Backend is a learned-classifier capability resolved once at startup:
// either Available(model) or Unavailable. Fusion weights key off the variant.
type Backend[M any] struct {
	model M
	ok    bool
}

// Available wraps a loaded model.
func Available[M any](model M) Backend[M] {
	return Backend[M]{model: model, ok: true}
}

// Unavailable is the variant used when no model could be loaded.
func Unavailable[M any]() Backend[M] {
	return Backend[M]{}
}

// Model returns the wrapped model and whether the backend is available.
func (b Backend[M]) Model() (M, bool) {
	return b.model, b.ok
}

// Detector runs the image and text pipelines. It is immutable after New and
// safe for concurrent use.
type Detector struct {
	cfg   Config
	image Backend[ImageModel]
	text  Backend[TextModel]
}

// New builds a Detector. Learned backends are resolved here, once; a nil model
// selects the heuristic-only weight set for that pipeline.
func New(cfg Config) *Detector {
	cfg.defaults()

	d := &Detector{
		cfg:   cfg,
		image: Unavailable[ImageModel](),
		text:  Unavailable[TextModel](),
	}
	if cfg.ImageModel != nil {
		d.image = Available(cfg.ImageModel)
	}
	if cfg.TextModel != nil {
		d.text = Available(cfg.TextModel)
	}
	return d
}

// HasImageModel reports whether image fusion includes the learned classifier.
func (d *Detector) HasImageModel() bool {
	_, ok := d.image.Model()
	return ok
}

// HasTextModel reports whether text fusion includes the learned classifier.
func (d *Detector) HasTextModel() bool {
	_, ok := d.text.Model()
	return ok
}

func (d *Detector) emit(ev DetectionEvent) {
	if d.cfg.OnDetection != nil {
		d.cfg.OnDetection(ev)
	}
}
