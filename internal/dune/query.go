package dune

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// LookbackDays is the trailing window covered by the analytics query.
const LookbackDays = 90

// chainSQL aggregates one chain's transactions per day. avg_gas_fee_usd is
// the day's total USD gas spend divided by its transaction count.
const chainSQL = `
SELECT
    DATE_TRUNC('day', block_time) AS date,
    COUNT(DISTINCT "from") AS daily_active_users,
    COUNT(hash) AS transaction_count,
    SUM(gas_used * gas_price / 1e18 * p.price) / COUNT(hash) AS avg_gas_fee_usd
FROM %[1]s.transactions t
LEFT JOIN prices.usd p ON p.minute = DATE_TRUNC('minute', t.block_time)
    AND p.symbol = 'ETH'
WHERE
    t.block_time >= NOW() - INTERVAL '%[2]d' DAY
GROUP BY 1
ORDER BY 1 DESC
`

// ChainSQL returns the daily activity query for a Dune chain schema such as
// "arbitrum" or "optimism".
func ChainSQL(schema string) string {
	return fmt.Sprintf(chainSQL, schema, LookbackDays)
}

// QueryRef identifies a Dune query either by a saved query id or by raw SQL.
type QueryRef struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	SQL  string `json:"sql,omitempty"`
}

// ByID references a query saved in the Dune UI. Works on every plan.
func ByID(id int64) QueryRef { return QueryRef{ID: id} }

// BySQL submits raw SQL as a temporary private query. Needs a paid plan.
func BySQL(name, sql string) QueryRef { return QueryRef{Name: name, SQL: sql} }

func (q QueryRef) IsByID() bool { return q.ID > 0 }

const (
	variantID  = "query_id"
	variantSQL = "raw_sql"
)

// Variant names the execution path for logs and error messages.
func (q QueryRef) Variant() string {
	if q.IsByID() {
		return variantID
	}
	return variantSQL
}

// Key is a stable memo key for the reference.
func (q QueryRef) Key() string {
	if q.IsByID() {
		return "id:" + strconv.FormatInt(q.ID, 10)
	}
	sum := sha256.Sum256([]byte(q.SQL))
	return "sql:" + q.Name + ":" + hex.EncodeToString(sum[:8])
}

// QueryIDEnv is the environment variable holding a chain's saved query id.
func QueryIDEnv(chain string) string {
	return strings.ToUpper(chain) + "_QUERY_ID"
}
