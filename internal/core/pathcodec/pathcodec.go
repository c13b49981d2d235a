// Package pathcodec converts paths to and from the compact text form used
// in the "path" fragment key. Each coordinate is quantized to 24 bits and
// written as four base-64 digits, latitude first.
package pathcodec

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789~_"

	// Width is the number of characters per coordinate.
	Width = 4

	// Resolution is the largest quantized value, 64^4 - 1.
	Resolution = 1<<24 - 1

	pointWidth = 2 * Width
)

// ErrMalformedPath is returned by Decode for text that is not a valid
// encoded path.
var ErrMalformedPath = errors.New("malformed path")

var digits [256]int8

func init() {
	for i := range digits {
		digits[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		digits[alphabet[i]] = int8(i)
	}
}

// Encode renders a path as text. An empty path encodes to "".
// Coordinates outside [-90,90] and [-180,180] are clamped.
func Encode(path domain.Path) string {
	var b strings.Builder
	b.Grow(len(path) * pointWidth)
	for _, p := range path {
		writeNumber(&b, quantize((p.Lat+90)/180))
		writeNumber(&b, quantize((p.Lon+180)/360))
	}
	return b.String()
}

// Decode parses text produced by Encode. The empty string is an empty
// path, not an error.
func Decode(s string) (domain.Path, error) {
	if len(s)%pointWidth != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformedPath, len(s), pointWidth)
	}
	path := make(domain.Path, 0, len(s)/pointWidth)
	for i := 0; i < len(s); i += pointWidth {
		a, err := readNumber(s, i)
		if err != nil {
			return nil, err
		}
		b, err := readNumber(s, i+Width)
		if err != nil {
			return nil, err
		}
		path = append(path, domain.GeoPoint{
			Lat: float64(a)/Resolution*180 - 90,
			Lon: float64(b)/Resolution*360 - 180,
		})
	}
	return path, nil
}

// Valid reports whether s decodes without error.
func Valid(s string) bool {
	if len(s)%pointWidth != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if digits[s[i]] < 0 {
			return false
		}
	}
	return true
}

// Step returns the quantization step in degrees for latitude and longitude.
func Step() (lat, lon float64) {
	return 180.0 / Resolution, 360.0 / Resolution
}

func quantize(frac float64) int {
	v := math.Round(frac * Resolution)
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > Resolution:
		return Resolution
	}
	return int(v)
}

func writeNumber(b *strings.Builder, n int) {
	for shift := 6 * (Width - 1); shift >= 0; shift -= 6 {
		b.WriteByte(alphabet[(n>>shift)&63])
	}
}

func readNumber(s string, off int) (int, error) {
	n := 0
	for i := off; i < off+Width; i++ {
		d := digits[s[i]]
		if d < 0 {
			return 0, fmt.Errorf("%w: invalid character %q at offset %d", ErrMalformedPath, s[i], i)
		}
		n = n<<6 | int(d)
	}
	return n, nil
}
