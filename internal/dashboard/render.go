package dashboard

import (
	"fmt"

	"github.com/web3-frozen/l2-showdown/internal/metrics"
	"github.com/web3-frozen/l2-showdown/internal/series"
	"github.com/web3-frozen/l2-showdown/internal/stats"
)

type metricDef struct {
	key   string
	title string
	value func(series.MergedRecord) *float64
}

var chartMetrics = []metricDef{
	{"tvl_usd", "TVL (USD) Over Time", func(r series.MergedRecord) *float64 { return ptr(r.LockedValueUSD) }},
	{"daily_active_users", "Daily Active Users Over Time", func(r series.MergedRecord) *float64 { return ptr(float64(r.ActiveUsers)) }},
	{"transaction_count", "Daily Transactions Over Time", func(r series.MergedRecord) *float64 { return ptr(float64(r.TransactionCount)) }},
	{"avg_gas_fee_usd", "Average Gas Fee (USD) Over Time", func(r series.MergedRecord) *float64 { return r.AvgGasFeeUSD }},
}

func ptr(v float64) *float64 { return &v }

// render fills tiles, charts, correlations and raw tails. Every chain has a
// non-empty merged series at this point.
func (p *Pipeline) render(d *Dashboard) {
	latest := make(map[string]series.MergedRecord, len(p.chains))
	for _, ch := range p.chains {
		last, _ := series.Last(d.merged[ch.Slug])
		latest[ch.Slug] = last
		metrics.MetricValue.WithLabelValues(ch.Slug, "tvl_usd").Set(last.LockedValueUSD)
		metrics.MetricValue.WithLabelValues(ch.Slug, "daily_active_users").Set(float64(last.ActiveUsers))
		metrics.MetricValue.WithLabelValues(ch.Slug, "transaction_count").Set(float64(last.TransactionCount))
		if last.AvgGasFeeUSD != nil {
			metrics.MetricValue.WithLabelValues(ch.Slug, "avg_gas_fee_usd").Set(*last.AvgGasFeeUSD)
		} else {
			metrics.MetricValue.DeleteLabelValues(ch.Slug, "avg_gas_fee_usd")
		}
	}

	// One row of tiles per metric, chains side by side.
	for _, ch := range p.chains {
		r := latest[ch.Slug]
		d.Tiles = append(d.Tiles, Tile{Chain: ch.Slug, Metric: "tvl_usd", Label: ch.Name + " TVL",
			Value: formatBillions(r.LockedValueUSD), Raw: ptr(r.LockedValueUSD), Date: r.Date})
	}
	for _, ch := range p.chains {
		r := latest[ch.Slug]
		d.Tiles = append(d.Tiles, Tile{Chain: ch.Slug, Metric: "daily_active_users", Label: ch.Name + " Daily Users",
			Value: formatCount(r.ActiveUsers), Raw: ptr(float64(r.ActiveUsers)), Date: r.Date})
	}
	for _, ch := range p.chains {
		r := latest[ch.Slug]
		d.Tiles = append(d.Tiles, Tile{Chain: ch.Slug, Metric: "transaction_count", Label: ch.Name + " Daily Transactions",
			Value: formatCount(r.TransactionCount), Raw: ptr(float64(r.TransactionCount)), Date: r.Date})
	}
	for _, ch := range p.chains {
		r := latest[ch.Slug]
		d.Tiles = append(d.Tiles, Tile{Chain: ch.Slug, Metric: "avg_gas_fee_usd", Label: ch.Name + " Avg Gas Fee",
			Value: formatGas(r.AvgGasFeeUSD), Raw: r.AvgGasFeeUSD, Date: r.Date})
	}

	for _, m := range chartMetrics {
		c := Chart{Metric: m.key, Title: m.title, Lines: make([]Line, 0, len(p.chains))}
		for _, ch := range p.chains {
			rows := d.merged[ch.Slug]
			pts := make([]Point, len(rows))
			for i, r := range rows {
				pts[i] = Point{Date: r.Date, Value: m.value(r)}
			}
			c.Lines = append(c.Lines, Line{Chain: ch.Name, Points: pts})
		}
		d.Charts = append(d.Charts, c)
	}

	for _, ch := range p.chains {
		corr := Correlation{Chain: ch.Slug, Label: ch.Name + ": Gas Fee vs. Tx Count Corr.", Display: "n/a"}
		v, err := stats.GasVsTransactions(d.merged[ch.Slug])
		if err != nil {
			d.notice(LevelWarning, ch.Slug, fmt.Sprintf("Could not calculate correlation: %v", err))
			p.logger.Warn("correlation undefined", "chain", ch.Slug, "error", err)
		} else {
			corr.Value = ptr(v)
			corr.Display = formatCorrelation(v)
			metrics.GasTxCorrelation.WithLabelValues(ch.Slug).Set(v)
		}
		d.Correlations = append(d.Correlations, corr)
	}

	for _, ch := range p.chains {
		d.Raw = append(d.Raw, RawTable{Chain: ch.Slug, Rows: series.Tail(d.merged[ch.Slug], rawTail)})
	}
}
