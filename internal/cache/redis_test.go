package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/goliatone/go-resource-cms/internal/cache"
)

func TestRedisProviderModelCache(t *testing.T) {
	url := os.Getenv("CMS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CMS_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	provider, err := cache.NewRedisProvider(ctx, cache.RedisOptions{
		URL:        url,
		Prefix:     "cms-test:" + t.Name() + ":",
		DefaultTTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = provider.Clear(ctx)
		_ = provider.Close()
	})

	mc := cache.NewModelCache(provider, pageModel)
	p := page{ID: "1", URIPath: "/", Title: "Home"}
	if err := mc.SetByAttribute(ctx, p, "uri_path"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := mc.GetByAttribute(ctx, "uri_path", "/")
	if !ok || got != p {
		t.Fatalf("expected %+v, got %+v (%v)", p, got, ok)
	}

	if err := mc.Clear(ctx, p); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if added, _ := mc.Add(ctx, p); added {
		t.Fatal("add must not replace a tombstone")
	}
	if _, ok := mc.Get(ctx, "1"); ok {
		t.Fatal("expected tombstone miss")
	}
}
