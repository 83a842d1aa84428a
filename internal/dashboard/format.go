package dashboard

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatBillions renders a USD amount in billions, e.g. "$1.00B".
func formatBillions(v float64) string {
	return fmt.Sprintf("$%.2fB", v/1e9)
}

// formatCount renders an integer with thousands separators, e.g. "50,000".
func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

func formatGas(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.4f", *v)
}

func formatCorrelation(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
