package dashboard

import "testing"

func TestFormatBillions(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "$0.00B"},
		{1_000_000_000, "$1.00B"},
		{2_346_000_000, "$2.35B"},
		{15_500_000_000, "$15.50B"},
		{400_000_000, "$0.40B"},
	}
	for _, tt := range tests {
		if got := formatBillions(tt.input); got != tt.want {
			t.Errorf("formatBillions(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{50000, "50,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatCount(tt.input); got != tt.want {
			t.Errorf("formatCount(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatGas(t *testing.T) {
	v := 0.35
	if got := formatGas(&v); got != "$0.3500" {
		t.Errorf("formatGas(0.35) = %q", got)
	}
	if got := formatGas(nil); got != "n/a" {
		t.Errorf("formatGas(nil) = %q", got)
	}
}

func TestFormatCorrelation(t *testing.T) {
	if got := formatCorrelation(-0.456); got != "-0.46" {
		t.Errorf("formatCorrelation = %q, want -0.46", got)
	}
}
