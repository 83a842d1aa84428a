package config

import (
	"strings"
	"testing"
	"time"

	"github.com/web3-frozen/l2-showdown/internal/dune"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr empty key = %q, want %q", got, "default")
	}

	t.Setenv("TEST_ENVOR_KEY", "custom")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}
}

func TestEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Hour},
		{"30m", 30 * time.Minute},
		{"0s", 0},
		{"soon", time.Hour},
		{"-5m", time.Hour},
	}
	for _, tt := range tests {
		t.Setenv("TEST_ENV_DURATION", tt.value)
		if got := envDuration("TEST_ENV_DURATION", time.Hour); got != tt.want {
			t.Errorf("envDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "FRONTEND_ORIGIN", "REDIS_URL", "REDIS_PASSWORD", "DUNE_API_KEY",
		"DUNE_BASE_URL", "DUNE_POLL_INTERVAL", "DUNE_MAX_WAIT", "LLAMA_BASE_URL", "CACHE_TTL", "WARM_INTERVAL",
		"ARBITRUM_QUERY_ID", "OPTIMISM_QUERY_ID", "INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.FrontendOrigin != "*" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "*")
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.WarmInterval != 0 {
		t.Errorf("WarmInterval = %v, want disabled", cfg.WarmInterval)
	}
	if cfg.LlamaBaseURL != "https://api.llama.fi" {
		t.Errorf("LlamaBaseURL = %q", cfg.LlamaBaseURL)
	}
	if cfg.DuneAPIKey != "" || cfg.RedisURL != "" {
		t.Errorf("secrets should be empty: key=%q redis=%q", cfg.DuneAPIKey, cfg.RedisURL)
	}
	if len(cfg.Chains) != 2 || cfg.Chains[0].Slug != "arbitrum" || cfg.Chains[1].Slug != "optimism" {
		t.Fatalf("Chains = %+v", cfg.Chains)
	}
	if cfg.HasAllQueryIDs() {
		t.Error("HasAllQueryIDs should be false without ids")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DUNE_API_KEY", "key")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("WARM_INTERVAL", "30m")
	t.Setenv("ARBITRUM_QUERY_ID", "12345")
	t.Setenv("OPTIMISM_QUERY_ID", "67890")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DuneAPIKey != "key" {
		t.Errorf("DuneAPIKey = %q, want %q", cfg.DuneAPIKey, "key")
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %v, want 15m", cfg.CacheTTL)
	}
	if cfg.WarmInterval != 30*time.Minute {
		t.Errorf("WarmInterval = %v, want 30m", cfg.WarmInterval)
	}
	if !cfg.HasAllQueryIDs() {
		t.Error("HasAllQueryIDs should be true")
	}
	id, ok, err := cfg.Chains[1].QueryID()
	if err != nil || !ok || id != 67890 {
		t.Errorf("optimism QueryID = %d, %v, %v", id, ok, err)
	}
}

func TestChainQueryIDEnv(t *testing.T) {
	for _, ch := range []Chain{{Slug: "arbitrum"}, {Slug: "optimism"}} {
		if got, want := ch.QueryIDEnv(), dune.QueryIDEnv(ch.Slug); got != want {
			t.Errorf("QueryIDEnv(%s) = %q, want %q", ch.Slug, got, want)
		}
	}
	if got := (Chain{Slug: "arbitrum"}).QueryIDEnv(); got != "ARBITRUM_QUERY_ID" {
		t.Errorf("QueryIDEnv = %q, want ARBITRUM_QUERY_ID", got)
	}
}

func TestChainQueryID(t *testing.T) {
	tests := []struct {
		raw     string
		wantID  int64
		wantOK  bool
		wantErr bool
	}{
		{"", 0, false, false},
		{"  ", 0, false, false},
		{"42", 42, true, false},
		{" 42 ", 42, true, false},
		{"abc", 0, false, true},
		{"-1", 0, false, true},
		{"0", 0, false, true},
	}
	for _, tt := range tests {
		c := Chain{Name: "Arbitrum", Slug: "arbitrum", QueryIDRaw: tt.raw}
		id, ok, err := c.QueryID()
		if id != tt.wantID || ok != tt.wantOK || (err != nil) != tt.wantErr {
			t.Errorf("QueryID(%q) = %d, %v, %v", tt.raw, id, ok, err)
		}
		if err != nil && !strings.Contains(err.Error(), "ARBITRUM_QUERY_ID") {
			t.Errorf("error %q should name the variable", err)
		}
	}
}
