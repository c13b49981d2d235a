// Package numfmt formats and parses numbers the way browser URL fragments
// are written and read, so values survive a round trip between a map
// client and the server unchanged.
package numfmt

import (
	"math"
	"strconv"
	"strings"
)

// ToFixed formats x with exactly digits decimals, rounding half away
// from zero.
func ToFixed(x float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	pow := math.Pow(10, float64(digits))
	r := math.Round(x*pow) / pow
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', digits, 64)
}

// ParseLeadingInt parses the longest leading decimal integer of s, after
// optional whitespace and sign. It reports false when s has no leading
// digits.
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseLeadingFloat parses the longest leading decimal number of s, after
// optional whitespace. "Infinity" is accepted with an optional sign. It
// reports false when s does not start with a number.
func ParseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}

	mantissa := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		mantissa++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if mantissa+frac > 0 {
			i = j
			mantissa += frac
		}
	}
	if mantissa == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		// Exponent overflow still yields a number.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
