package series

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in UTC.
type Date struct {
	t time.Time
}

// DayOf truncates t to the UTC calendar day it falls on.
func DayOf(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// DayFromUnix converts epoch seconds to a calendar day.
func DayFromUnix(sec int64) Date { return DayOf(time.Unix(sec, 0)) }

// ParseDate parses a YYYY-MM-DD day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DayOf(t), nil
}

func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) String() string { return d.t.Format(dateLayout) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	p, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// TVLRecord is one day of locked value for a chain.
type TVLRecord struct {
	Date           Date    `json:"date"`
	LockedValueUSD float64 `json:"tvl_usd"`
}

// AnalyticsRecord is one day of on-chain activity. AvgGasFeeUSD is nil when
// the day had no priced transactions.
type AnalyticsRecord struct {
	Date             Date     `json:"date"`
	ActiveUsers      int64    `json:"daily_active_users"`
	TransactionCount int64    `json:"transaction_count"`
	AvgGasFeeUSD     *float64 `json:"avg_gas_fee_usd"`
}

// MergedRecord joins a TVLRecord and an AnalyticsRecord sharing a date.
type MergedRecord struct {
	Date             Date     `json:"date"`
	LockedValueUSD   float64  `json:"tvl_usd"`
	ActiveUsers      int64    `json:"daily_active_users"`
	TransactionCount int64    `json:"transaction_count"`
	AvgGasFeeUSD     *float64 `json:"avg_gas_fee_usd"`
}

