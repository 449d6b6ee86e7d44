package config

import (
	"testing"
	"time"
)

func TestLoad_MemoryStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("HIDE_UNVERIFIED", "yes")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("PUBLIC_BASE_URL", "https://agri.example.lk/")

	cfg := Load()
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("driver = %q", cfg.StoreDriver)
	}
	if !cfg.HideUnverified || cfg.StoreTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.PublicBaseURL != "https://agri.example.lk" {
		t.Fatalf("base url = %q", cfg.PublicBaseURL)
	}
	if cfg.MaxImages != 5 || cfg.MaxImageBytes != 10<<20 || cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "20")
	t.Setenv("RATE_LIMIT_SUBMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 20 || cfg.SubmitCapacity != 1 {
		t.Fatalf("capacity = %d, submit = %d", cfg.Capacity, cfg.SubmitCapacity)
	}
	if cfg.RefillTokens != 1 || cfg.RefillInterval != 2*time.Second {
		t.Fatalf("refill = %d per %s", cfg.RefillTokens, cfg.RefillInterval)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("ttl = %s, want at least five refill intervals", cfg.TTL)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
		t.Fatalf("methods = %v", cfg.Methods)
	}
	if cfg.Prefix != "agri:cache" || cfg.KeyStrategy != "path_query" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestEnvHelpersFallBackOnBadValues(t *testing.T) {
	t.Setenv("AGRI_TEST_BOOL", "On")
	t.Setenv("AGRI_TEST_INT", "ten")
	t.Setenv("AGRI_TEST_DUR", "soon")
	if !envBool("AGRI_TEST_BOOL", false) {
		t.Error("On should parse as true")
	}
	if envInt("AGRI_TEST_INT", 7) != 7 || envDur("AGRI_TEST_DUR", time.Minute) != time.Minute {
		t.Error("unparsable values should yield the default")
	}
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")
	opts, err := redisOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Addr != "cache.internal:6380" || opts.TLSConfig == nil {
		t.Errorf("redis options = %s tls=%v", opts.Addr, opts.TLSConfig != nil)
	}
}
