package observer

import (
	"errors"
	"testing"
)

func TestNormalizeMargin(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10%", "10% 10% 10% 10%"},
		{"10% 10%", "10% 10% 10% 10%"},
		{"10% 10% 10% 10%", "10% 10% 10% 10%"},
		{"10% 20%", "10% 20% 10% 20%"},
		{"1px 2px 3px 4px", "1px 2px 3px 4px"},
		{"-10px", "-10px -10px -10px -10px"},
		{"10.0%", "10% 10% 10% 10%"},
		{"0.5px", "0.5px 0.5px 0.5px 0.5px"},
		{"  10%   20%  ", "10% 20% 10% 20%"},
		{"", "0px 0px 0px 0px"},
	}
	for _, tt := range tests {
		got, err := NormalizeMargin(tt.input)
		if err != nil {
			t.Errorf("NormalizeMargin(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeMargin(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeMarginRoundTrip(t *testing.T) {
	inputs := []string{"10%", "10% 10%", "10% 10% 10% 10%"}
	var forms []string
	for _, input := range inputs {
		got, err := NormalizeMargin(input)
		if err != nil {
			t.Fatalf("NormalizeMargin(%q): %v", input, err)
		}
		forms = append(forms, got)
	}
	for i := 1; i < len(forms); i++ {
		if forms[i] != forms[0] {
			t.Errorf("NormalizeMargin(%q) = %q, want %q", inputs[i], forms[i], forms[0])
		}
	}
}

func TestNormalizeMarginInvalid(t *testing.T) {
	inputs := []string{
		"10",          // missing unit
		"10em",        // unsupported unit
		"banana",      // not a number
		"px",          // no number
		"%",           // no number
		"10% 20% 30%", // three values
		"1% 2% 3% 4% 5%",
		"10 %", // unit detached from number
	}
	for _, input := range inputs {
		_, err := NormalizeMargin(input)
		if err == nil {
			t.Errorf("NormalizeMargin(%q): expected error", input)
			continue
		}
		var marginErr *MarginError
		if !errors.As(err, &marginErr) {
			t.Errorf("NormalizeMargin(%q): got %T, want *MarginError", input, err)
		}
	}
}

func TestNormalizeThresholds(t *testing.T) {
	if got := NormalizeThresholds(nil); len(got) != 1 || got[0] != 0 {
		t.Errorf("NormalizeThresholds(nil) = %v, want [0]", got)
	}
	if got := NormalizeThresholds([]float64{}); len(got) != 1 || got[0] != 0 {
		t.Errorf("NormalizeThresholds([]) = %v, want [0]", got)
	}

	in := []float64{0.25, 0.75}
	got := NormalizeThresholds(in)
	if len(got) != 2 || got[0] != 0.25 || got[1] != 0.75 {
		t.Errorf("NormalizeThresholds(%v) = %v", in, got)
	}
	got[0] = 0.9
	if in[0] != 0.25 {
		t.Error("NormalizeThresholds must copy, not alias, the input")
	}
}

func TestNormalizePropagatesMarginError(t *testing.T) {
	_, err := Normalize(Config{RootMargin: "nope"})
	var marginErr *MarginError
	if !errors.As(err, &marginErr) {
		t.Fatalf("got %T, want *MarginError", err)
	}
}

func TestEquivalent(t *testing.T) {
	root := &region{name: "root"}
	otherRoot := &region{name: "other"}

	tests := []struct {
		name string
		a, b Config
		want bool
	}{
		{"both default", Config{}, Config{}, true},
		{"same root", Config{Root: root}, Config{Root: root}, true},
		{"different root", Config{Root: root}, Config{Root: otherRoot}, false},
		{"root vs nil", Config{Root: root}, Config{}, false},
		{"same margin", Config{RootMargin: "10% 10% 10% 10%"}, Config{RootMargin: "10% 10% 10% 10%"}, true},
		{"different margin", Config{RootMargin: "10% 10% 10% 10%"}, Config{RootMargin: "20% 20% 20% 20%"}, false},
		{"default thresholds", Config{Thresholds: []float64{0}}, Config{}, true},
		{"same list", Config{Thresholds: []float64{0.25, 0.75}}, Config{Thresholds: []float64{0.25, 0.75}}, true},
		{"order matters", Config{Thresholds: []float64{0.25, 0.75}}, Config{Thresholds: []float64{0.75, 0.25}}, false},
		{"length matters", Config{Thresholds: []float64{0.25}}, Config{Thresholds: []float64{0.25, 0.75}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equivalent(tt.a, tt.b); got != tt.want {
				t.Errorf("Equivalent = %v, want %v", got, tt.want)
			}
			if got := Equivalent(tt.b, tt.a); got != tt.want {
				t.Errorf("Equivalent (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}
