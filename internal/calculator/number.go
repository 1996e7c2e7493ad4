package calculator

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numericPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// ParseNumber reads the longest numeric prefix of s, the way a display
// string is turned back into an operand. It returns NaN when s has no
// numeric prefix and ±Inf for out-of-range magnitudes.
func ParseNumber(s string) float64 {
	m := numericPrefix.FindString(strings.TrimLeft(s, " \t\n\r\f\v"))
	if m == "" {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return v
		}
		return math.NaN()
	}
	return v
}

// FormatNumber renders v with the shortest digits that round-trip. Magnitudes
// in [1e-6, 1e21) use positional notation; others use "d.ddde±n". Negative
// zero renders as "0".
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	case v < 0:
		return "-" + FormatNumber(-v)
	}

	digits, exp := shortestDigits(v)
	k := len(digits)
	// n is the position of the decimal point relative to the digit string.
	n := exp + 1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}

	mantissa := digits[:1]
	if k > 1 {
		mantissa += "." + digits[1:]
	}
	return mantissa + exponentSuffix(n-1)
}

// formatExponential renders v in exponential notation with the given number
// of fraction digits, e.g. 1.235e+10.
func formatExponential(v float64, fractionDigits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	s := strconv.FormatFloat(v, 'e', fractionDigits, 64)
	i := strings.LastIndexByte(s, 'e')
	exp, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s
	}
	return s[:i] + exponentSuffix(exp)
}

// shortestDigits returns the significant digits of a positive finite v and
// the base-10 exponent of the first digit.
func shortestDigits(v float64) (string, int) {
	s := strconv.FormatFloat(v, 'e', -1, 64)
	i := strings.LastIndexByte(s, 'e')
	exp, _ := strconv.Atoi(s[i+1:])
	digits := strings.Replace(s[:i], ".", "", 1)
	return digits, exp
}

func exponentSuffix(exp int) string {
	if exp < 0 {
		return "e-" + strconv.Itoa(-exp)
	}
	return "e+" + strconv.Itoa(exp)
}
