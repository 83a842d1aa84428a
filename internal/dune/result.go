package dune

import (
	"errors"
	"fmt"

	"github.com/web3-frozen/l2-showdown/internal/series"
)

// Status tags the outcome of a query run.
type Status int

const (
	// StatusRows is a successful run with at least one row.
	StatusRows Status = iota
	// StatusEmpty is a successful run without rows, usually because the
	// execution has not finished yet.
	StatusEmpty
	// StatusCapability means the Dune plan does not allow running raw SQL.
	StatusCapability
	// StatusFailed covers every other failure.
	StatusFailed
)

var statusNames = map[Status]string{
	StatusRows:       "rows",
	StatusEmpty:      "empty",
	StatusCapability: "capability",
	StatusFailed:     "failed",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for k, v := range statusNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// ErrCapability marks rejections caused by the account tier.
var ErrCapability = errors.New("dune plan does not allow this operation")

// QueryError carries the chain and execution path of a failed run.
type QueryError struct {
	Chain   string
	Variant string
	Err     error
}

func (e *QueryError) Error() string {
	if e.capability() {
		return fmt.Sprintf("Dune API requires a paid plan to create queries programmatically. "+
			"Please create the query manually in the Dune UI and use its query ID instead. "+
			"Set the %s environment variable.", QueryIDEnv(e.Chain))
	}
	return fmt.Sprintf("dune %s query for %s: %v", e.Variant, e.Chain, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// capability reports a plan rejection of raw SQL, the one case a saved query
// id fixes. Plan errors on a saved query (credits exhausted) are generic.
func (e *QueryError) capability() bool {
	return e.Variant == variantSQL && errors.Is(e.Err, ErrCapability)
}

// Result is the outcome of Runner.Run. Rows is set only for StatusRows and
// Err only for StatusCapability and StatusFailed.
type Result struct {
	Status Status                   `json:"status"`
	Rows   []series.AnalyticsRecord `json:"rows,omitempty"`
	Err    error                    `json:"-"`
}

func rowsResult(rows []series.AnalyticsRecord) Result {
	if len(rows) == 0 {
		return Result{Status: StatusEmpty}
	}
	return Result{Status: StatusRows, Rows: rows}
}

func failedResult(chain string, ref QueryRef, err error) Result {
	qe := &QueryError{Chain: chain, Variant: ref.Variant(), Err: err}
	if qe.capability() {
		return Result{Status: StatusCapability, Err: qe}
	}
	return Result{Status: StatusFailed, Err: qe}
}

// OK reports whether the run succeeded, with or without rows.
func (r Result) OK() bool {
	return r.Status == StatusRows || r.Status == StatusEmpty
}
