package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("BACKEND_URL", "http://backend:5000/api")
	for _, k := range []string{"APP_ENV", "BACKEND_TIMEOUT", "SESSION_COOKIE", "COOKIE_SECURE", "DB_HOST"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Env != "dev" || cfg.BackendTimeout != 30*time.Second || cfg.SessionCookie != "portal_session" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.CookieSecure {
		t.Fatal("cookie should not be Secure outside prod by default")
	}
	if cfg.DB.Enabled {
		t.Fatal("audit store enabled without DB_HOST")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("BACKEND_URL", "https://api.example.com/api")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("DB_HOST", "mysql")
	t.Setenv("DB_USER", "portal")
	t.Setenv("DB_NAME", "portal_audit")
	t.Setenv("EVENTS_ENABLED", "yes")

	cfg := Load()
	if !cfg.CookieSecure || cfg.BackendTimeout != 5*time.Second || !cfg.EventsEnabled {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.DB.Enabled || cfg.DB.Port != "3306" || cfg.DB.Name != "portal_audit" {
		t.Fatalf("unexpected db config %+v", cfg.DB)
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	if rl.Capacity != 1 {
		t.Errorf("capacity = %d, want 1", rl.Capacity)
	}
	if rl.TTL != 10*time.Second {
		t.Errorf("ttl = %s, want 10s", rl.TTL)
	}
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cc := LoadCacheConfig()
	if !cc.Methods["GET"] || !cc.Methods["HEAD"] || len(cc.Methods) != 2 {
		t.Fatalf("unexpected methods %v", cc.Methods)
	}
}
