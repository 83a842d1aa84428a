package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	infisical "github.com/infisical/go-sdk"
	"github.com/joho/godotenv"

	"github.com/web3-frozen/l2-showdown/internal/dune"
)

// Chain is one network on the dashboard.
type Chain struct {
	Name string // display name, e.g. "Arbitrum"
	Slug string // DefiLlama slug and Dune schema, e.g. "arbitrum"

	// QueryIDRaw is the raw <SLUG>_QUERY_ID value; empty when unset.
	QueryIDRaw string
}

// QueryIDEnv is the environment variable holding the chain's saved query id.
func (c Chain) QueryIDEnv() string {
	return dune.QueryIDEnv(c.Slug)
}

// QueryID parses the configured saved query id. ok is false when none is set.
func (c Chain) QueryID() (id int64, ok bool, err error) {
	raw := strings.TrimSpace(c.QueryIDRaw)
	if raw == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("invalid %s: %s. Must be a number", c.QueryIDEnv(), c.QueryIDRaw)
	}
	return id, true, nil
}

type Config struct {
	Port           string
	FrontendOrigin string
	RedisURL       string
	RedisPassword  string

	DuneAPIKey       string
	DuneBaseURL      string
	DunePollInterval time.Duration
	DuneMaxWait      time.Duration
	LlamaBaseURL     string

	CacheTTL     time.Duration
	WarmInterval time.Duration // 0 disables background refresh
	Chains       []Chain
}

// HasAllQueryIDs reports whether every chain has a saved query id set.
func (c Config) HasAllQueryIDs() bool {
	for _, ch := range c.Chains {
		if strings.TrimSpace(ch.QueryIDRaw) == "" {
			return false
		}
	}
	return true
}

func Load() Config {
	// Optional local env files; missing files are fine.
	_ = godotenv.Load(".env", ".env.local")

	cfg := Config{
		Port:             envOr("PORT", "8080"),
		FrontendOrigin:   envOr("FRONTEND_ORIGIN", "*"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		DuneAPIKey:       os.Getenv("DUNE_API_KEY"),
		DuneBaseURL:      envOr("DUNE_BASE_URL", "https://api.dune.com"),
		DunePollInterval: envDuration("DUNE_POLL_INTERVAL", 2*time.Second),
		DuneMaxWait:      envDuration("DUNE_MAX_WAIT", 2*time.Minute),
		LlamaBaseURL:     envOr("LLAMA_BASE_URL", "https://api.llama.fi"),
		CacheTTL:         envDuration("CACHE_TTL", time.Hour),
		WarmInterval:     envDuration("WARM_INTERVAL", 0),
		Chains: []Chain{
			{Name: "Arbitrum", Slug: "arbitrum", QueryIDRaw: os.Getenv("ARBITRUM_QUERY_ID")},
			{Name: "Optimism", Slug: "optimism", QueryIDRaw: os.Getenv("OPTIMISM_QUERY_ID")},
		},
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL", "https://app.infisical.com")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"DUNE_API_KEY":   &cfg.DuneAPIKey,
		"REDIS_PASSWORD": &cfg.RedisPassword,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback.String())
		return fallback
	}
	return d
}
