package exporter

import (
	"math"
	"strconv"
)

// FormatThousands rounds f to a whole number and groups digits with commas,
// matching Excel's #,##0 format.
func FormatThousands(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	n := int64(math.Round(f))
	neg := n < 0
	if neg {
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3+1)
	if neg {
		out = append(out, '-')
	}
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return string(out)
}

// FormatCurrency is FormatThousands with a dollar sign
func FormatCurrency(f float64) string {
	s := FormatThousands(f)
	if len(s) > 0 && s[0] == '-' {
		return "-$" + s[1:]
	}
	return "$" + s
}
