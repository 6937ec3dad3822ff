// Package numfmt holds the number rounding and locale formatting shared by the
// calculators and the exporters.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
)

// Round rounds v to the given number of decimal places.
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// FormatID formats a float using Indonesian locale conventions:
// thousands separator as dot and decimal separator as comma.
// When the fractional part is zero after rounding, the decimal part is omitted.
// Example: 1234.5 (2 decimals) => "1.234,50"; 1000.0 => "1.000".
func FormatID(v float64, decimals int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if decimals < 0 {
		decimals = 0
	}

	factor := math.Pow(10, float64(decimals))
	scaled := int64(math.Round(v * factor))
	intPart := scaled / int64(factor)
	fracPart := scaled % int64(factor)

	s := groupThousands(strconv.FormatInt(intPart, 10), '.')

	prefix := ""
	if neg && scaled != 0 {
		prefix = "-"
	}
	if decimals == 0 || fracPart == 0 {
		return prefix + s
	}
	return fmt.Sprintf("%s%s,%0*d", prefix, s, decimals, fracPart)
}

func groupThousands(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	buf := make([]byte, 0, len(digits)+len(digits)/3)
	buf = append(buf, digits[:lead]...)
	for i := lead; i < len(digits); i += 3 {
		buf = append(buf, sep)
		buf = append(buf, digits[i:i+3]...)
	}
	return string(buf)
}
