package dashboard

import (
	"time"

	"github.com/web3-frozen/l2-showdown/internal/series"
)

// Level is the severity of a notice shown above the dashboard.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notice is a user-visible message produced while building the dashboard.
type Notice struct {
	Level   Level  `json:"level"`
	Chain   string `json:"chain,omitempty"`
	Message string `json:"message"`
}

// Tile is a latest-value summary for one chain and metric.
type Tile struct {
	Chain  string      `json:"chain"`
	Metric string      `json:"metric"`
	Label  string      `json:"label"`
	Value  string      `json:"value"`
	Raw    *float64    `json:"raw"`
	Date   series.Date `json:"date"`
}

// Point is one chart sample. Value is nil where the metric is undefined.
type Point struct {
	Date  series.Date `json:"date"`
	Value *float64    `json:"value"`
}

// Line is one chain's series on a chart.
type Line struct {
	Chain  string  `json:"chain"`
	Points []Point `json:"points"`
}

// Chart overlays every chain for one metric on a shared date axis.
type Chart struct {
	Metric string `json:"metric"`
	Title  string `json:"title"`
	Lines  []Line `json:"lines"`
}

// Correlation is the gas fee vs transaction count statistic for a chain.
// Value is nil when it could not be computed.
type Correlation struct {
	Chain   string   `json:"chain"`
	Label   string   `json:"label"`
	Value   *float64 `json:"value"`
	Display string   `json:"display"`
}

// RawTable is the trailing rows of a chain's merged series.
type RawTable struct {
	Chain string                `json:"chain"`
	Rows  []series.MergedRecord `json:"rows"`
}

// Dashboard is the full view model. When Blocked is set only Notices are
// populated.
type Dashboard struct {
	Title        string        `json:"title"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Blocked      bool          `json:"blocked"`
	Notices      []Notice      `json:"notices"`
	Tiles        []Tile        `json:"tiles"`
	Charts       []Chart       `json:"charts"`
	Correlations []Correlation `json:"correlations"`
	Raw          []RawTable    `json:"raw"`

	merged map[string][]series.MergedRecord
}

// Merged returns the merged series for a chain slug.
func (d *Dashboard) Merged(slug string) ([]series.MergedRecord, bool) {
	rows, ok := d.merged[slug]
	return rows, ok
}

func (d *Dashboard) notice(level Level, chain, msg string) {
	d.Notices = append(d.Notices, Notice{Level: level, Chain: chain, Message: msg})
}

// HasErrors reports whether any error-level notice was raised.
func (d *Dashboard) HasErrors() bool {
	for _, n := range d.Notices {
		if n.Level == LevelError {
			return true
		}
	}
	return false
}
