// Package server exposes the detection pipelines over a small JSON HTTP API
// for upload handlers that run in another process.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go-tamperfy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// multipartMemory is the in-memory part of a parsed multipart upload; the
// rest spills to temporary files.
const multipartMemory = 8 << 20

// Options configures a Server.
type Options struct {
	// FlagThreshold decides PostResponse.Flagged; nil selects
	// tamperfy.FlagThreshold. Zero is honoured and flags any nonzero score.
	FlagThreshold *float64
	// MaxUploadBytes caps a request body (default: 16MB).
	MaxUploadBytes int64
}

// Server answers detection requests with a shared Detector.
type Server struct {
	detector  *tamperfy.Detector
	threshold float64
	maxUpload int64
}

// New creates a Server.
func New(d *tamperfy.Detector, opts Options) *Server {
	threshold := tamperfy.FlagThreshold
	if opts.FlagThreshold != nil {
		threshold = *opts.FlagThreshold
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	return &Server{detector: d, threshold: threshold, maxUpload: opts.MaxUploadBytes}
}

// TextRequest is the body of POST /v1/text.
type TextRequest struct {
	Text string `json:"text"`
}

// ImageURLRequest is the JSON body of POST /v1/image.
type ImageURLRequest struct {
	URL string `json:"url"`
}

// PostResponse is the verdict for an image upload with its caption.
type PostResponse struct {
	Image   tamperfy.Result `json:"image"`
	Text    tamperfy.Result `json:"text"`
	Flagged bool            `json:"flagged"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Routes builds the HTTP handler.
//
//	GET  /ping      liveness
//	POST /v1/image  multipart "image" file, raw image body, or JSON {"url"}
//	POST /v1/text   JSON {"text"}
//	POST /v1/post   multipart "image" file and "caption" field
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/v1", func(api chi.Router) {
		api.Post("/image", s.handleImage)
		api.Post("/text", s.handleText)
		api.Post("/post", s.handlePost)
	})
	return r
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	ctx := r.Context()

	switch mediaType(r) {
	case "application/json":
		var req ImageURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.badRequest(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.detector.DetectImageURL(ctx, req.URL))
	case "multipart/form-data":
		data, err := formFile(r, "image")
		if err != nil {
			s.badRequest(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.detector.DetectImageBytes(ctx, data))
	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			s.badRequest(w, err)
			return
		}
		if len(data) == 0 {
			data = nil // no body: no image supplied
		}
		writeJSON(w, http.StatusOK, s.detector.DetectImageBytes(ctx, data))
	}
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.detector.DetectText(r.Context(), req.Text))
}

// handlePost scores an upload the way a posting form would: the image and
// its caption side by side, flagged when either crosses the threshold.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if mediaType(r) != "multipart/form-data" {
		s.badRequest(w, errors.New("expected multipart/form-data"))
		return
	}
	data, err := formFile(r, "image")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	caption := r.FormValue("caption")
	ctx := r.Context()

	var img tamperfy.Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		img = s.detector.DetectImageBytes(ctx, data)
	}()
	txt := s.detector.DetectText(ctx, caption)
	<-done

	writeJSON(w, http.StatusOK, PostResponse{
		Image:   img,
		Text:    txt,
		Flagged: tamperfy.FlagsAt(s.threshold, img, txt),
	})
}

// formFile reads the named multipart file. A missing file yields nil data,
// which the image pipeline reports as LabelNoImage; an empty file part is
// reported as LabelCannotOpen.
func formFile(r *http.Request, field string) ([]byte, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	slog.Debug("server: rejected request", "status", status, "error", err.Error())
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("server: write response failed", "error", err.Error())
	}
}
