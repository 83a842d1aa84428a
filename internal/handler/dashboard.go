package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/l2-showdown/internal/config"
	"github.com/web3-frozen/l2-showdown/internal/dashboard"
	"github.com/web3-frozen/l2-showdown/internal/series"
)

// Builder produces the dashboard view model. *dashboard.Pipeline satisfies it.
type Builder interface {
	Build(ctx context.Context) *dashboard.Dashboard
	Chains() []config.Chain
}

// Dashboard serves the full view model. A blocked dashboard is still a 200;
// clients read the blocked flag and notices.
func Dashboard(b Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.Build(r.Context()))
	}
}

// ChainSeries serves the merged series of one chain, optionally limited to
// the last ?tail=N rows.
func ChainSeries(b Builder) http.HandlerFunc {
	type response struct {
		Chain   string                `json:"chain"`
		Name    string                `json:"name"`
		Rows    []series.MergedRecord `json:"rows"`
		Notices []dashboard.Notice    `json:"notices,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "chain")
		var chain *config.Chain
		for _, ch := range b.Chains() {
			if ch.Slug == slug {
				chain = &ch
				break
			}
		}
		if chain == nil {
			http.Error(w, `{"error":"unknown chain"}`, http.StatusNotFound)
			return
		}

		tail := -1
		if s := r.URL.Query().Get("tail"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, `{"error":"invalid tail"}`, http.StatusBadRequest)
				return
			}
			tail = n
		}

		d := b.Build(r.Context())
		rows, _ := d.Merged(slug)
		if d.Blocked || len(rows) == 0 {
			writeJSON(w, http.StatusServiceUnavailable, response{
				Chain: slug, Name: chain.Name, Rows: []series.MergedRecord{}, Notices: d.Notices,
			})
			return
		}
		if tail >= 0 {
			rows = series.Tail(rows, tail)
		}
		writeJSON(w, http.StatusOK, response{Chain: slug, Name: chain.Name, Rows: rows})
	}
}

// Setup serves instructions for saving the per-chain queries in Dune.
func Setup(cfg config.Config) http.HandlerFunc {
	guide := dashboard.Setup(cfg)
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, guide)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
