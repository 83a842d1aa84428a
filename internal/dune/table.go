package dune

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/web3-frozen/l2-showdown/internal/series"
)

// Table is a result set coerced to named columns, whatever shape the API
// returned the rows in.
type Table struct {
	Columns []string
	Rows    []map[string]any
}

// newTable accepts rows as JSON objects or as arrays aligned with columns.
func newTable(columns []string, raw []json.RawMessage) (Table, error) {
	t := Table{Columns: columns, Rows: make([]map[string]any, 0, len(raw))}
	for i, r := range raw {
		dec := json.NewDecoder(bytes.NewReader(r))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return Table{}, fmt.Errorf("row %d: %w", i, err)
		}
		switch row := v.(type) {
		case map[string]any:
			t.Rows = append(t.Rows, row)
		case []any:
			if len(row) != len(columns) {
				return Table{}, fmt.Errorf("row %d: %d values for %d columns", i, len(row), len(columns))
			}
			m := make(map[string]any, len(columns))
			for j, c := range columns {
				m[c] = row[j]
			}
			t.Rows = append(t.Rows, m)
		default:
			return Table{}, fmt.Errorf("row %d: unexpected %T", i, v)
		}
	}
	if len(t.Columns) == 0 && len(t.Rows) > 0 {
		for k := range t.Rows[0] {
			t.Columns = append(t.Columns, k)
		}
	}
	return t, nil
}

var columnAliases = map[string][]string{
	"date":              {"date", "day", "block_date"},
	"active_users":      {"daily_active_users", "active_user_count", "active_users", "dau"},
	"transaction_count": {"transaction_count", "tx_count", "transactions", "txs"},
	"avg_gas_fee_usd":   {"avg_gas_fee_usd", "avg_gas_fee", "gas_fee_usd"},
}

func lookup(row map[string]any, field string) (any, bool) {
	for _, name := range columnAliases[field] {
		if v, ok := row[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Records converts the table to analytics records ordered by date.
func (t Table) Records() ([]series.AnalyticsRecord, error) {
	out := make([]series.AnalyticsRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		rawDate, ok := lookup(row, "date")
		if !ok {
			return nil, fmt.Errorf("row %d: no date column", i)
		}
		d, err := parseDay(rawDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		rec := series.AnalyticsRecord{Date: d}
		if v, ok := lookup(row, "active_users"); ok {
			if f, ok := toFloat(v); ok {
				rec.ActiveUsers = int64(math.Round(f))
			}
		}
		if v, ok := lookup(row, "transaction_count"); ok {
			if f, ok := toFloat(v); ok {
				rec.TransactionCount = int64(math.Round(f))
			}
		}
		if v, ok := lookup(row, "avg_gas_fee_usd"); ok {
			if f, ok := toFloat(v); ok && !math.IsNaN(f) {
				rec.AvgGasFeeUSD = &f
			}
		}
		out = append(out, rec)
	}
	series.SortAnalytics(out)
	return out, nil
}

var dateLayouts = []string{
	"2006-01-02 15:04:05.000 MST",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

func parseDay(v any) (series.Date, error) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return series.DayOf(t), nil
			}
		}
		return series.Date{}, fmt.Errorf("unrecognised date %q", x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return series.Date{}, fmt.Errorf("date %s: %w", x, err)
		}
		return series.DayFromUnix(n), nil
	default:
		return series.Date{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
