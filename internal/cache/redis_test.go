package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go-tamperfy"
)

func TestNewRedis_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedis("http://not-redis", time.Minute); err == nil {
		t.Error("expected error for a non-redis URL")
	}
}

func TestRedis_Key(t *testing.T) {
	t.Parallel()

	c, err := NewRedis("redis://127.0.0.1:6379/0", 0)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer c.Close()

	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}

	a := c.Key("tamper_img", "https://example.com/a.jpg")
	b := c.Key("tamper_img", "https://example.com/b.jpg")
	if a == b {
		t.Error("different values produced the same key")
	}
	if a != c.Key("tamper_img", "https://example.com/a.jpg") {
		t.Error("key is not deterministic")
	}
	if !strings.HasPrefix(a, "tamperfy:tamper_img:") {
		t.Errorf("key = %q", a)
	}
	if len(a) != len("tamperfy:tamper_img:")+32 {
		t.Errorf("key length = %d", len(a))
	}
}

func TestRedis_UnreachableMisses(t *testing.T) {
	t.Parallel()

	c, err := NewRedis("redis://127.0.0.1:1/0", time.Minute)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Set must not panic or block past the context.
	c.Set(ctx, "k", tamperfy.Result{Score: 0.5})

	var got tamperfy.Result
	if c.Get(ctx, "k", &got) {
		t.Error("Get reported a hit against an unreachable server")
	}
	if err := c.Ping(ctx); err == nil {
		t.Error("Ping succeeded against an unreachable server")
	}
}

var _ tamperfy.Cache = (*Redis)(nil)
