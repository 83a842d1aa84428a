package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/l2-showdown/internal/config"
	"github.com/web3-frozen/l2-showdown/internal/dashboard"
	"github.com/web3-frozen/l2-showdown/internal/dune"
	"github.com/web3-frozen/l2-showdown/internal/series"
)

type staticTVL map[string][]series.TVLRecord

func (s staticTVL) FetchTVL(_ context.Context, slug string) []series.TVLRecord { return s[slug] }

type staticRunner []series.AnalyticsRecord

func (s staticRunner) Run(context.Context, string, dune.QueryRef) dune.Result {
	if len(s) == 0 {
		return dune.Result{Status: dune.StatusEmpty}
	}
	return dune.Result{Status: dune.StatusRows, Rows: s}
}

var testChains = []config.Chain{
	{Name: "Arbitrum", Slug: "arbitrum", QueryIDRaw: "1"},
	{Name: "Optimism", Slug: "optimism", QueryIDRaw: "2"},
}

func newPipeline(days int, withAnalytics bool) *dashboard.Pipeline {
	tvl := staticTVL{}
	var rows staticRunner
	for i := 0; i < days; i++ {
		d := series.DayFromUnix(1700000000 + int64(i)*86400)
		fee := 0.1 * float64(i+1)
		for _, ch := range testChains {
			tvl[ch.Slug] = append(tvl[ch.Slug], series.TVLRecord{Date: d, LockedValueUSD: 1e9})
		}
		if withAnalytics {
			rows = append(rows, series.AnalyticsRecord{Date: d, ActiveUsers: 10, TransactionCount: int64(i + 1), AvgGasFeeUSD: &fee})
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return dashboard.NewPipeline(testChains, tvl, rows, logger, time.Hour)
}

func router(b Builder) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/dashboard", Dashboard(b))
	r.Get("/api/chains/{chain}", ChainSeries(b))
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDashboardHandler(t *testing.T) {
	rec := get(t, router(newPipeline(3, true)), "/api/dashboard")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var d dashboard.Dashboard
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Blocked {
		t.Fatalf("blocked: %+v", d.Notices)
	}
	if len(d.Charts) != 4 {
		t.Errorf("len(charts) = %d, want 4", len(d.Charts))
	}
	if len(d.Correlations) != 2 || d.Correlations[0].Display != "1.00" {
		t.Errorf("correlations = %+v", d.Correlations)
	}
}

func TestDashboardHandlerBlocked(t *testing.T) {
	rec := get(t, router(newPipeline(3, false)), "/api/dashboard")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var d dashboard.Dashboard
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !d.Blocked {
		t.Error("expected blocked dashboard")
	}
	if len(d.Tiles) != 0 {
		t.Errorf("len(tiles) = %d, want 0", len(d.Tiles))
	}
}

func TestChainSeriesHandler(t *testing.T) {
	h := router(newPipeline(8, true))

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantRows int
	}{
		{"full series", "/api/chains/arbitrum", http.StatusOK, 8},
		{"tail", "/api/chains/optimism?tail=3", http.StatusOK, 3},
		{"tail zero", "/api/chains/optimism?tail=0", http.StatusOK, 0},
		{"tail longer than series", "/api/chains/arbitrum?tail=50", http.StatusOK, 8},
		{"unknown chain", "/api/chains/base", http.StatusNotFound, -1},
		{"bad tail", "/api/chains/arbitrum?tail=x", http.StatusBadRequest, -1},
		{"negative tail", "/api/chains/arbitrum?tail=-1", http.StatusBadRequest, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantRows < 0 {
				return
			}
			var resp struct {
				Chain string                `json:"chain"`
				Rows  []series.MergedRecord `json:"rows"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Rows) != tt.wantRows {
				t.Errorf("len(rows) = %d, want %d", len(resp.Rows), tt.wantRows)
			}
		})
	}
}

func TestChainSeriesTailIsLatest(t *testing.T) {
	rec := get(t, router(newPipeline(8, true)), "/api/chains/arbitrum?tail=1")

	var resp struct {
		Rows []series.MergedRecord `json:"rows"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := series.DayFromUnix(1700000000 + 7*86400)
	if len(resp.Rows) != 1 || resp.Rows[0].Date != want {
		t.Errorf("rows = %+v, want last day %s", resp.Rows, want)
	}
}

func TestChainSeriesUnavailable(t *testing.T) {
	rec := get(t, router(newPipeline(3, false)), "/api/chains/arbitrum")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	var resp struct {
		Notices []dashboard.Notice `json:"notices"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Notices) == 0 {
		t.Error("expected notices explaining the failure")
	}
}

func TestSetupHandler(t *testing.T) {
	cfg := config.Config{Chains: []config.Chain{
		{Name: "Arbitrum", Slug: "arbitrum"},
		{Name: "Optimism", Slug: "optimism", QueryIDRaw: "2"},
	}}
	rec := get(t, Setup(cfg), "/api/setup")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var g dashboard.SetupGuide
	if err := json.NewDecoder(rec.Body).Decode(&g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !g.Needed {
		t.Error("expected setup to be needed")
	}
	if len(g.Queries) != 2 || g.Queries[0].EnvVar != "ARBITRUM_QUERY_ID" {
		t.Errorf("queries = %+v", g.Queries)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rec := get(t, Health(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != `{"status":"ok"}` {
		t.Errorf("body = %q", body)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name string
		p    Pinger
		want int
	}{
		{"no cache configured", nil, http.StatusOK},
		{"cache reachable", pinger{}, http.StatusOK},
		{"cache down", pinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, Ready(tt.p), "/readyz")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
