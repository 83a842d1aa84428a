// Package stats holds the statistics shown on the dashboard.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/web3-frozen/l2-showdown/internal/series"
)

// ErrUndefined is returned when a correlation cannot be computed, for example
// because one of the series is constant.
var ErrUndefined = errors.New("correlation is undefined")

// Pearson returns the Pearson correlation coefficient of x and y.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return math.NaN(), fmt.Errorf("series length mismatch: %d != %d", len(x), len(y))
	}
	if len(x) < 2 {
		return math.NaN(), fmt.Errorf("%w: need at least 2 points, have %d", ErrUndefined, len(x))
	}
	if constant(x) || constant(y) {
		return math.NaN(), fmt.Errorf("%w: a series has zero variance", ErrUndefined)
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN(), fmt.Errorf("%w: a series has zero variance", ErrUndefined)
	}
	return r, nil
}

// GasVsTransactions correlates the average gas fee with the transaction count
// over a merged series. Days without a gas fee are skipped.
func GasVsTransactions(rows []series.MergedRecord) (float64, error) {
	gas := make([]float64, 0, len(rows))
	txs := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.AvgGasFeeUSD == nil {
			continue
		}
		gas = append(gas, *r.AvgGasFeeUSD)
		txs = append(txs, float64(r.TransactionCount))
	}
	return Pearson(gas, txs)
}

func constant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
