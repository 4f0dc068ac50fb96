package observer

import (
	"fmt"
	"strconv"
	"strings"
)

// Config describes the configuration a watcher is created from: the root
// region visibility is measured against, a margin applied to the root's
// bounds, and the ratio thresholds at which changes are delivered.
//
// Root is compared by identity; it must be nil (the viewport) or a
// reference with identity semantics, typically a pointer to the root's
// render object. Two distinct roots are never interchangeable even if they
// occupy the same geometry.
//
// A Config is immutable once a watcher has been created from it.
type Config struct {
	Root       any
	RootMargin string
	Thresholds []float64
}

// MarginError indicates a root margin string that does not parse as CSS
// margin shorthand.
type MarginError struct {
	// Input is the full margin string that was rejected.
	Input string
	// Token is the offending token, or empty when the token count is wrong.
	Token string
}

func (e *MarginError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("invalid root margin %q: bad token %q", e.Input, e.Token)
	}
	return fmt.Sprintf("invalid root margin %q: expected 1, 2 or 4 values", e.Input)
}

// NormalizeMargin parses a CSS-style margin shorthand of 1, 2 or 4
// space-separated tokens, each a number followed by "%" or "px", and
// returns the canonical 4-value form (top, right, bottom, left). One value
// applies to all four sides; two values apply vertically and horizontally.
// An empty input normalizes to "0px 0px 0px 0px".
//
// A token that does not parse as <number><unit> yields a *MarginError.
func NormalizeMargin(input string) (string, error) {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		tokens = []string{"0px"}
	}

	parsed := make([]string, len(tokens))
	for i, token := range tokens {
		canonical, err := normalizeMarginToken(input, token)
		if err != nil {
			return "", err
		}
		parsed[i] = canonical
	}

	switch len(parsed) {
	case 1:
		t := parsed[0]
		return t + " " + t + " " + t + " " + t, nil
	case 2:
		v, h := parsed[0], parsed[1]
		return v + " " + h + " " + v + " " + h, nil
	case 4:
		return strings.Join(parsed, " "), nil
	default:
		return "", &MarginError{Input: input}
	}
}

// normalizeMarginToken validates a single <number><unit> token and re-emits
// it with the number in canonical form, so "10.0%" and "10%" compare equal.
func normalizeMarginToken(input, token string) (string, error) {
	var unit string
	switch {
	case strings.HasSuffix(token, "%"):
		unit = "%"
	case strings.HasSuffix(token, "px"):
		unit = "px"
	default:
		return "", &MarginError{Input: input, Token: token}
	}

	number := strings.TrimSuffix(token, unit)
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return "", &MarginError{Input: input, Token: token}
	}
	return strconv.FormatFloat(value, 'f', -1, 64) + unit, nil
}

// NormalizeThresholds maps an absent threshold list to the default [0].
// A non-empty list is returned as a copy, preserving order.
func NormalizeThresholds(thresholds []float64) []float64 {
	if len(thresholds) == 0 {
		return []float64{0}
	}
	out := make([]float64, len(thresholds))
	copy(out, thresholds)
	return out
}

// Normalize returns cfg with its margin in canonical 4-value form and its
// threshold list normalized. The root is passed through untouched.
func Normalize(cfg Config) (Config, error) {
	margin, err := NormalizeMargin(cfg.RootMargin)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Root:       cfg.Root,
		RootMargin: margin,
		Thresholds: NormalizeThresholds(cfg.Thresholds),
	}, nil
}

// Equivalent reports whether two normalized configurations describe the
// same watcher: identical root references, string-equal margins, and
// threshold lists equal element-wise in order and length.
//
// Threshold comparison is order-sensitive: [0.25, 0.75] and [0.75, 0.25]
// are treated as distinct configurations and will not share a watcher.
func Equivalent(a, b Config) bool {
	if a.Root != b.Root {
		return false
	}
	if a.RootMargin != b.RootMargin {
		return false
	}
	at := NormalizeThresholds(a.Thresholds)
	bt := NormalizeThresholds(b.Thresholds)
	if len(at) != len(bt) {
		return false
	}
	for i := range at {
		if at[i] != bt[i] {
			return false
		}
	}
	return true
}
