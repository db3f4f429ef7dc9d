package tamperfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	defaultInferenceTimeout = 10 * time.Second
	maxInferenceResponse    = 1 << 20
)

// ImageModelOptions locates a learned image classifier.
type ImageModelOptions struct {
	ArtifactPath string        // trained model file; must exist for the backend to load
	Endpoint     string        // predict URL of the serving process hosting the artifact
	HTTPClient   *http.Client  // default: http.DefaultClient
	Timeout      time.Duration // per-request timeout (default: 10s)
}

// TextModelOptions locates a text classification backend.
type TextModelOptions struct {
	ModelID    string        // informational, logged at startup
	Endpoint   string        // inference URL
	Token      string        // optional bearer token
	HTTPClient *http.Client  // default: http.DefaultClient
	Timeout    time.Duration // per-request timeout (default: 10s)
}

// ServingImageModel calls a TensorFlow-Serving style REST predict endpoint:
// {"instances":[tensor]} → {"predictions":[[p0,p1]]}.
type ServingImageModel struct {
	Endpoint   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// InferenceTextModel calls a Hugging-Face style text-classification endpoint:
// {"inputs": text} → [[{"label","score"},...]] or [{"label","score"},...].
type InferenceTextModel struct {
	Endpoint   string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// LoadImageModel checks once whether the learned image classifier can be used.
// Returns nil (heuristic-only fusion) when the artifact or endpoint is missing;
// absence is logged, never returned as an error.
func LoadImageModel(opts ImageModelOptions) ImageModel {
	if opts.ArtifactPath == "" {
		slog.Warn("tamperfy: image model not configured, using heuristic pipeline")
		return nil
	}
	if _, err := os.Stat(opts.ArtifactPath); err != nil {
		slog.Warn("tamperfy: image model not found, using heuristic pipeline", "path", opts.ArtifactPath)
		return nil
	}
	if opts.Endpoint == "" {
		slog.Warn("tamperfy: image model has no serving endpoint, using heuristic pipeline", "path", opts.ArtifactPath)
		return nil
	}
	slog.Info("tamperfy: image model loaded", "path", opts.ArtifactPath, "endpoint", opts.Endpoint)
	return &ServingImageModel{Endpoint: opts.Endpoint, HTTPClient: opts.HTTPClient, Timeout: opts.Timeout}
}

// LoadTextModel checks once whether a text classification backend is configured.
// Returns nil (heuristic-only fusion) when it is not.
func LoadTextModel(opts TextModelOptions) TextModel {
	if opts.Endpoint == "" {
		slog.Warn("tamperfy: text model not configured, rule-based pipeline active", "model", opts.ModelID)
		return nil
	}
	slog.Info("tamperfy: text model loaded", "model", opts.ModelID, "endpoint", opts.Endpoint)
	return &InferenceTextModel{
		Endpoint:   opts.Endpoint,
		Token:      opts.Token,
		HTTPClient: opts.HTTPClient,
		Timeout:    opts.Timeout,
	}
}

// Predict implements ImageModel.
func (m *ServingImageModel) Predict(ctx context.Context, input Tensor) ([]float64, error) {
	var out struct {
		Predictions [][]float64 `json:"predictions"`
	}
	body := map[string]any{"instances": []Tensor{input}}
	if err := postJSON(ctx, m.HTTPClient, m.Timeout, m.Endpoint, "", body, &out); err != nil {
		return nil, err
	}
	if len(out.Predictions) == 0 {
		return nil, ErrEmptyPrediction
	}
	return out.Predictions[0], nil
}

// Classify implements TextModel. The highest-scoring label wins.
func (m *InferenceTextModel) Classify(ctx context.Context, text string) (TextPrediction, error) {
	var raw json.RawMessage
	body := map[string]any{"inputs": text}
	if err := postJSON(ctx, m.HTTPClient, m.Timeout, m.Endpoint, m.Token, body, &raw); err != nil {
		return TextPrediction{}, err
	}
	return parseTextPredictions(raw)
}

// parseTextPredictions accepts both the nested and the flat response shape.
func parseTextPredictions(raw json.RawMessage) (TextPrediction, error) {
	var preds []TextPrediction
	var nested [][]TextPrediction
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) > 0 {
			preds = nested[0]
		}
	} else if err := json.Unmarshal(raw, &preds); err != nil {
		return TextPrediction{}, fmt.Errorf("decode predictions: %w", err)
	}

	if len(preds) == 0 {
		return TextPrediction{}, ErrEmptyPrediction
	}
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, nil
}

func postJSON(ctx context.Context, client *http.Client, timeout time.Duration, url, token string, in, out any) error {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultInferenceTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req) //nolint:gosec // G704: endpoint is operator-configured
	if err != nil {
		return fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInferenceResponse))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
