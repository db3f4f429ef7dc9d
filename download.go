package tamperfy

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxDownloadBytes = 10 << 20 // 10MB
	defaultTimeout          = 10 * time.Second
)

// DownloadResult holds downloaded image data.
type DownloadResult struct {
	Data     []byte
	MIMEType string
}

// DetectImageURL downloads the image at url and scores it like DetectImageBytes.
// A failed download yields LabelCannotOpen. Results that reached fusion are
// cached through Config.Cache when set; failures are retried on the next call.
func (d *Detector) DetectImageURL(ctx context.Context, url string) Result {
	if strings.TrimSpace(url) == "" {
		return sentinel(LabelNoImage)
	}

	if d.cfg.Cache != nil {
		cacheKey := d.cfg.Cache.Key("tamper_img", url)
		var cached Result
		if d.cfg.Cache.Get(ctx, cacheKey, &cached) {
			d.emit(DetectionEvent{Kind: "image", Source: url, Score: cached.Score, Label: cached.Label, Cached: true})
			return cached
		}
		res := d.detectURL(ctx, url)
		if res.fused() {
			d.cfg.Cache.Set(ctx, cacheKey, res)
		}
		return res
	}

	return d.detectURL(ctx, url)
}

func (d *Detector) detectURL(ctx context.Context, url string) Result {
	dl := d.Download(ctx, url)
	if dl == nil {
		res := sentinel(LabelCannotOpen)
		d.emit(DetectionEvent{Kind: "image", Source: url, Label: res.Label})
		return res
	}
	res := d.detectImageData(ctx, dl.Data)
	d.emit(DetectionEvent{Kind: "image", Source: url, Score: res.Score, Label: res.Label})
	return res
}

// Download fetches an image from url. Tries cfg.StealthClient first (if set),
// falls back to cfg.HTTPClient.
// Returns nil on any failure (404, non-image, oversize) for graceful degradation.
func (d *Detector) Download(ctx context.Context, url string) *DownloadResult {
	if d.cfg.StealthClient != nil {
		if r := d.fetchImageData(ctx, d.cfg.StealthClient, url); r != nil {
			return r
		}
	}
	return d.fetchImageData(ctx, d.cfg.HTTPClient, url)
}

func (d *Detector) fetchImageData(ctx context.Context, client *http.Client, imageURL string) *DownloadResult {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := client.Do(req) //nolint:gosec // G704: URL is caller-supplied
	if err != nil {
		slog.Debug("tamperfy: download failed", "url", imageURL, "error", err.Error())
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	ct := resp.Header.Get("Content-Type")
	// Strip MIME parameters: "image/jpeg; charset=utf-8" → "image/jpeg"
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if !strings.HasPrefix(ct, "image/") {
		return nil
	}

	// Read one byte past the cap so oversize bodies are rejected, not truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.cfg.MaxDownloadBytes+1))
	if err != nil || len(data) == 0 || int64(len(data)) > d.cfg.MaxDownloadBytes {
		return nil
	}

	return &DownloadResult{Data: data, MIMEType: ct}
}
