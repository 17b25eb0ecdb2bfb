package report

import (
	"math"
	"strconv"
	"strings"
)

// RoundFloat rounds v to the given number of decimal places
func RoundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// FormatThousands prints v with a dot between thousands and a comma before the
// decimals, e.g. 11166.7 => "11.166,70" and 1000 => "1.000". A fractional part
// that rounds to zero is omitted. NaN and infinities print as "-".
func FormatThousands(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if decimals < 0 {
		decimals = 0
	}

	digits := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	whole, frac, _ := strings.Cut(digits, ".")

	var b strings.Builder
	if v < 0 && strings.Trim(digits, "0.") != "" {
		b.WriteByte('-')
	}
	lead := len(whole) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(whole[:lead])
	for i := lead; i < len(whole); i += 3 {
		b.WriteByte('.')
		b.WriteString(whole[i : i+3])
	}

	if strings.Trim(frac, "0") != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
