package dashboard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText renders the dashboard as a plain-text report.
func WriteText(w io.Writer, d *Dashboard) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n\n", d.Title, d.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	for _, n := range d.Notices {
		chain := ""
		if n.Chain != "" {
			chain = " [" + n.Chain + "]"
		}
		fmt.Fprintf(&b, "%s%s: %s\n", strings.ToUpper(string(n.Level)), chain, n.Message)
	}
	if d.Blocked {
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("\nAt-a-Glance (Latest Data)\n")
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, t := range d.Tiles {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", t.Label, t.Value, t.Date)
	}
	_ = tw.Flush()

	b.WriteString("\nCorrelation Analysis\n")
	for _, c := range d.Correlations {
		fmt.Fprintf(&b, "  %s %s\n", c.Label, c.Display)
	}

	for _, raw := range d.Raw {
		fmt.Fprintf(&b, "\n%s Raw Data\n", raw.Chain)
		tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "date\ttvl_usd\tdaily_active_users\ttransaction_count\tavg_gas_fee_usd\t")
		for _, r := range raw.Rows {
			fmt.Fprintf(tw, "%s\t%.2f\t%d\t%d\t%s\t\n",
				r.Date, r.LockedValueUSD, r.ActiveUsers, r.TransactionCount, formatGas(r.AvgGasFeeUSD))
		}
		_ = tw.Flush()
	}

	_, err := io.WriteString(w, b.String())
	return err
}
