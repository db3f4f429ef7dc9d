package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anatolykoptev/go-tamperfy"
)

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// multipartBody builds a form with an optional "image" file and "caption" field.
func multipartBody(t *testing.T, img []byte, caption string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if img != nil {
		fw, err := mw.CreateFormFile("image", "upload.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(img); err != nil {
			t.Fatal(err)
		}
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(tamperfy.New(tamperfy.Config{}), opts).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestPing(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})
	resp, err := http.Post(srv.URL+"/v1/text", "application/json",
		strings.NewReader(`{"text":"Click here for a free gift"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	res := decode[tamperfy.Result](t, resp)
	if len(res.Findings) != 1 || res.Findings[0].Rule != "Spam / Promotional Pattern" {
		t.Errorf("findings = %+v", res.Findings)
	}
}

func TestText_BadJSON(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})
	resp, err := http.Post(srv.URL+"/v1/text", "application/json", strings.NewReader(`{"text":`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if e := decode[errorResponse](t, resp); e.Error == "" {
		t.Error("empty error message")
	}
}

func TestImage_Bodies(t *testing.T) {
	t.Parallel()

	jpg := testJPEG(t)
	form, formType := multipartBody(t, jpg, "")
	emptyForm, emptyType := multipartBody(t, []byte{}, "")

	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        func(tamperfy.Result) bool
	}{
		{
			name:        "raw body",
			contentType: "image/jpeg",
			body:        jpg,
			want:        func(r tamperfy.Result) bool { return r.Fingerprint != "" && len(r.Signals) == 3 },
		},
		{
			name:        "multipart",
			contentType: formType,
			body:        form.Bytes(),
			want:        func(r tamperfy.Result) bool { return r.Fingerprint != "" && len(r.Signals) == 3 },
		},
		{
			name:        "empty raw body",
			contentType: "application/octet-stream",
			body:        nil,
			want:        func(r tamperfy.Result) bool { return r.Label == tamperfy.LabelNoImage },
		},
		{
			name:        "empty multipart file",
			contentType: emptyType,
			body:        emptyForm.Bytes(),
			want:        func(r tamperfy.Result) bool { return r.Label == tamperfy.LabelCannotOpen },
		},
		{
			name:        "blank url",
			contentType: "application/json",
			body:        []byte(`{"url":""}`),
			want:        func(r tamperfy.Result) bool { return r.Label == tamperfy.LabelNoImage },
		},
	}

	srv := newTestServer(t, Options{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp, err := http.Post(srv.URL+"/v1/image", tc.contentType, bytes.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if res := decode[tamperfy.Result](t, resp); !tc.want(res) {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestImage_URL(t *testing.T) {
	t.Parallel()

	jpg := testJPEG(t)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(jpg)
	}))
	defer origin.Close()

	srv := newTestServer(t, Options{})
	body, _ := json.Marshal(ImageURLRequest{URL: origin.URL + "/a.jpg"})
	resp, err := http.Post(srv.URL+"/v1/image", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if res := decode[tamperfy.Result](t, resp); res.Fingerprint == "" {
		t.Errorf("result = %+v", res)
	}
}

func TestImage_TooLarge(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{MaxUploadBytes: 64})
	resp, err := http.Post(srv.URL+"/v1/image", "image/jpeg", bytes.NewReader(testJPEG(t)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestPost(t *testing.T) {
	t.Parallel()

	body, contentType := multipartBody(t, testJPEG(t), "Click here for a free gift")

	zero := 0.0
	srv := newTestServer(t, Options{FlagThreshold: &zero})
	resp, err := http.Post(srv.URL+"/v1/post", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[PostResponse](t, resp)
	if got.Image.Fingerprint == "" {
		t.Errorf("image = %+v", got.Image)
	}
	if len(got.Text.Findings) != 1 {
		t.Errorf("text findings = %+v", got.Text.Findings)
	}
	if !got.Flagged {
		t.Error("Flagged = false at a zero threshold")
	}
}

func TestPost_DefaultThreshold(t *testing.T) {
	t.Parallel()

	body, contentType := multipartBody(t, nil, "Sunset over the harbour with friends.")

	srv := newTestServer(t, Options{})
	resp, err := http.Post(srv.URL+"/v1/post", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	got := decode[PostResponse](t, resp)
	if got.Image.Label != tamperfy.LabelNoImage {
		t.Errorf("image label = %q, want %q", got.Image.Label, tamperfy.LabelNoImage)
	}
	if got.Flagged != tamperfy.ShouldFlag(got.Image, got.Text) {
		t.Errorf("Flagged = %v disagrees with ShouldFlag", got.Flagged)
	}
}

func TestPost_RequiresMultipart(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})
	resp, err := http.Post(srv.URL+"/v1/post", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestNew_FlagThreshold(t *testing.T) {
	t.Parallel()

	d := tamperfy.New(tamperfy.Config{})
	if got := New(d, Options{}).threshold; got != tamperfy.FlagThreshold {
		t.Errorf("default threshold = %v, want %v", got, tamperfy.FlagThreshold)
	}
	zero := 0.0
	if got := New(d, Options{FlagThreshold: &zero}).threshold; got != 0 {
		t.Errorf("zero threshold replaced with %v", got)
	}
}
