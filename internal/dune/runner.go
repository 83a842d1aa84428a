package dune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/web3-frozen/l2-showdown/internal/metrics"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxWait      = 2 * time.Minute
)

// ErrNoAPIKey is reported when no Dune API key was configured.
var ErrNoAPIKey = errors.New("DUNE_API_KEY environment variable not set")

// API is the subset of Client used by Runner.
type API interface {
	Execute(ctx context.Context, queryID int64) (string, error)
	Status(ctx context.Context, executionID string) (state, message string, err error)
	Results(ctx context.Context, executionID string) (Table, error)
	Create(ctx context.Context, name, sql string) (int64, error)
	Archive(ctx context.Context, queryID int64) error
}

// Runner executes queries and waits for their results.
type Runner struct {
	api          API
	logger       *slog.Logger
	pollInterval time.Duration
	maxWait      time.Duration
}

// NewRunner wraps api. A nil api means no key was configured and every run
// fails with ErrNoAPIKey.
func NewRunner(api API, logger *slog.Logger, pollInterval, maxWait time.Duration) *Runner {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	return &Runner{api: api, logger: logger, pollInterval: pollInterval, maxWait: maxWait}
}

// Run executes ref for chain. Saved queries are executed directly; raw SQL is
// created as a private query, executed, then archived.
func (r *Runner) Run(ctx context.Context, chain string, ref QueryRef) Result {
	start := time.Now()
	res := r.run(ctx, chain, ref)
	metrics.FetchDuration.WithLabelValues("dune").Observe(time.Since(start).Seconds())
	metrics.FetchTotal.WithLabelValues("dune", chain, res.Status.String()).Inc()

	if res.Err != nil {
		r.logger.Error("dune query failed", "chain", chain, "variant", ref.Variant(),
			"status", res.Status.String(), "error", res.Err)
	} else {
		r.logger.Info("dune query finished", "chain", chain, "variant", ref.Variant(),
			"status", res.Status.String(), "rows", len(res.Rows), "duration", time.Since(start).String())
	}
	return res
}

func (r *Runner) run(ctx context.Context, chain string, ref QueryRef) Result {
	if r.api == nil {
		return failedResult(chain, ref, ErrNoAPIKey)
	}

	queryID := ref.ID
	if !ref.IsByID() {
		id, err := r.api.Create(ctx, ref.Name, ref.SQL)
		if err != nil {
			return failedResult(chain, ref, err)
		}
		queryID = id
		defer func() {
			if err := r.api.Archive(context.WithoutCancel(ctx), id); err != nil {
				r.logger.Warn("archive dune query failed", "query_id", id, "error", err)
			}
		}()
	}

	execID, err := r.api.Execute(ctx, queryID)
	if err != nil {
		return failedResult(chain, ref, err)
	}

	done, err := r.wait(ctx, execID)
	if err != nil {
		return failedResult(chain, ref, err)
	}
	if !done {
		r.logger.Warn("dune execution still running", "chain", chain, "execution_id", execID, "waited", r.maxWait.String())
		return Result{Status: StatusEmpty}
	}

	table, err := r.api.Results(ctx, execID)
	if err != nil {
		return failedResult(chain, ref, err)
	}
	rows, err := table.Records()
	if err != nil {
		return failedResult(chain, ref, fmt.Errorf("normalize results: %w", err))
	}
	return rowsResult(rows)
}

// wait polls the execution until it reaches a terminal state. It reports
// false without error when maxWait passes first.
func (r *Runner) wait(ctx context.Context, execID string) (bool, error) {
	deadline := time.NewTimer(r.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		state, msg, err := r.api.Status(ctx, execID)
		if err != nil {
			return false, err
		}
		switch state {
		case stateCompleted, stateCompletedPartial:
			return true, nil
		case stateFailed, stateCancelled, stateExpired:
			if msg == "" {
				msg = state
			}
			return false, fmt.Errorf("execution %s: %s", execID, msg)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}
