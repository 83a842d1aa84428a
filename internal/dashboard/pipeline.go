// Package dashboard builds the Arbitrum vs. Optimism comparison from TVL and
// analytics data.
package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/web3-frozen/l2-showdown/internal/cache"
	"github.com/web3-frozen/l2-showdown/internal/config"
	"github.com/web3-frozen/l2-showdown/internal/dune"
	"github.com/web3-frozen/l2-showdown/internal/metrics"
	"github.com/web3-frozen/l2-showdown/internal/series"
)

const (
	title   = "L2 Showdown: Arbitrum vs. Optimism"
	rawTail = 5
)

// TVLFetcher returns a chain's daily TVL history, empty on failure.
type TVLFetcher interface {
	FetchTVL(ctx context.Context, slug string) []series.TVLRecord
}

// QueryRunner executes an analytics query for a chain.
type QueryRunner interface {
	Run(ctx context.Context, chain string, ref dune.QueryRef) dune.Result
}

// Pipeline fetches, merges and renders the dashboard. Upstream calls are
// memoized for the configured TTL and merges for the process lifetime.
type Pipeline struct {
	chains []config.Chain
	tvl    TVLFetcher
	runner QueryRunner
	logger *slog.Logger
	now    func() time.Time

	tvlMemo   *cache.Memo[[]series.TVLRecord]
	queryMemo *cache.Memo[dune.Result]
	mergeMemo *cache.Memo[[]series.MergedRecord]
}

func NewPipeline(chains []config.Chain, tvl TVLFetcher, runner QueryRunner, logger *slog.Logger, ttl time.Duration, opts ...cache.Option) *Pipeline {
	return &Pipeline{
		chains:    chains,
		tvl:       tvl,
		runner:    runner,
		logger:    logger,
		now:       time.Now,
		tvlMemo:   cache.NewMemo[[]series.TVLRecord]("tvl", ttl, opts...),
		queryMemo: cache.NewMemo[dune.Result]("dune", ttl, opts...),
		mergeMemo: cache.NewMemo[[]series.MergedRecord]("merge", 0, opts...),
	}
}

// Chains returns the configured chains in display order.
func (p *Pipeline) Chains() []config.Chain { return p.chains }

// Build runs one pass: TVL for every chain, then analytics for every chain,
// then one merge per chain, then the view model. Steps run one after another.
func (p *Pipeline) Build(ctx context.Context) *Dashboard {
	start := time.Now()
	d := &Dashboard{
		Title:        title,
		GeneratedAt:  p.now().UTC(),
		Notices:      []Notice{},
		Tiles:        []Tile{},
		Charts:       []Chart{},
		Correlations: []Correlation{},
		Raw:          []RawTable{},
		merged:       make(map[string][]series.MergedRecord, len(p.chains)),
	}

	tvl := make(map[string][]series.TVLRecord, len(p.chains))
	for _, ch := range p.chains {
		tvl[ch.Slug] = p.fetchTVL(ctx, d, ch)
	}

	analytics := make(map[string][]series.AnalyticsRecord, len(p.chains))
	for _, ch := range p.chains {
		analytics[ch.Slug] = p.queryAnalytics(ctx, d, ch)
	}

	blocked := false
	for _, ch := range p.chains {
		rows := p.merge(ctx, tvl[ch.Slug], analytics[ch.Slug])
		d.merged[ch.Slug] = rows
		metrics.MergedRows.WithLabelValues(ch.Slug).Set(float64(len(rows)))
		if len(rows) == 0 {
			blocked = true
		}
	}

	if blocked {
		d.Blocked = true
		d.notice(LevelError, "", "Data merging failed. Check if all APIs returned data.")
		metrics.PipelineRuns.WithLabelValues("blocked").Inc()
		p.logger.Warn("dashboard blocked", "duration", time.Since(start).String(), "notices", len(d.Notices))
		return d
	}

	d.notice(LevelInfo, "", "All data loaded and merged successfully!")
	p.render(d)
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	p.logger.Info("dashboard built", "duration", time.Since(start).String())
	return d
}

func (p *Pipeline) fetchTVL(ctx context.Context, d *Dashboard, ch config.Chain) []series.TVLRecord {
	rows := p.tvlMemo.Do(ctx, ch.Slug, func(ctx context.Context) []series.TVLRecord {
		return p.tvl.FetchTVL(ctx, ch.Slug)
	}, nonEmpty[series.TVLRecord])
	if len(rows) == 0 {
		d.notice(LevelError, ch.Slug, fmt.Sprintf("Error fetching %s TVL data from DefiLlama", ch.Name))
	}
	return rows
}

// queryAnalytics prefers the saved query id and falls back to raw SQL, which
// needs a paid Dune plan.
func (p *Pipeline) queryAnalytics(ctx context.Context, d *Dashboard, ch config.Chain) []series.AnalyticsRecord {
	id, ok, err := ch.QueryID()
	if err != nil {
		d.notice(LevelError, ch.Slug, fmt.Sprintf("Invalid %s: %s. Must be a number.", ch.QueryIDEnv(), ch.QueryIDRaw))
		return nil
	}

	var ref dune.QueryRef
	if ok {
		ref = dune.ByID(id)
	} else {
		d.notice(LevelWarning, ch.Slug, fmt.Sprintf(
			"%s not set. Attempting to use raw SQL (requires paid Dune plan)...", ch.QueryIDEnv()))
		ref = dune.BySQL(ch.Slug, dune.ChainSQL(ch.Slug))
	}

	res := p.queryMemo.Do(ctx, ref.Key(), func(ctx context.Context) dune.Result {
		return p.runner.Run(ctx, ch.Slug, ref)
	}, func(r dune.Result) bool { return r.Status == dune.StatusRows })

	switch res.Status {
	case dune.StatusRows:
		return res.Rows
	case dune.StatusEmpty:
		d.notice(LevelWarning, ch.Slug, fmt.Sprintf(
			"%s Dune query returned no data. This may be normal if the query is still executing.", ch.Name))
	case dune.StatusCapability:
		d.notice(LevelError, ch.Slug, res.Err.Error())
	default:
		d.notice(LevelError, ch.Slug, fmt.Sprintf("Error querying Dune API for %s: %v", ch.Slug, res.Err))
	}
	return nil
}

func (p *Pipeline) merge(ctx context.Context, tvl []series.TVLRecord, analytics []series.AnalyticsRecord) []series.MergedRecord {
	if len(tvl) == 0 || len(analytics) == 0 {
		return nil
	}
	key, err := contentKey(tvl, analytics)
	if err != nil {
		return series.Merge(tvl, analytics)
	}
	return p.mergeMemo.Do(ctx, key, func(context.Context) []series.MergedRecord {
		return series.Merge(tvl, analytics)
	}, nil)
}

func contentKey(parts ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, part := range parts {
		if err := enc.Encode(part); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func nonEmpty[T any](v []T) bool { return len(v) > 0 }
