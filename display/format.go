package display

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	oneYear     = decimal.New(int64(365*24*time.Hour/time.Second), 0)
	maxPlainInt = decimal.New(1, 15)
)

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		if n == math.MinInt64 {
			// -math.MinInt64 overflows int64; handle by formatting
			// the positive portion after separating the sign.
			return "-9,223,372,036,854,775,808"
		}
		return "-" + FormatCount(-n)
	}
	return group(fmt.Sprintf("%d", n))
}

// FormatSpace formats a search space size. Values up to 10^15 are grouped
// like FormatCount, larger ones use scientific notation.
func FormatSpace(d decimal.Decimal) string {
	if d.LessThan(maxPlainInt) {
		return group(d.Truncate(0).String())
	}
	digits := d.Truncate(0).String()
	exp := len(digits) - 1
	mantissa := digits[:1]
	if len(digits) > 1 {
		mantissa += "." + strings.TrimRight(digits[1:3], "0")
		mantissa = strings.TrimSuffix(mantissa, ".")
	}
	return fmt.Sprintf("%se%d", mantissa, exp)
}

// FormatDuration formats d for status lines, at second resolution.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Second).String()
}

// FormatSeconds formats a number of seconds, switching to years when the
// value no longer fits in a time.Duration.
func FormatSeconds(secs decimal.Decimal) string {
	limit := decimal.New(math.MaxInt64/int64(time.Second), 0)
	if secs.GreaterThan(limit) {
		return FormatSpace(secs.Div(oneYear)) + " years"
	}
	return FormatDuration(time.Duration(secs.Mul(decimal.New(int64(time.Second), 0)).IntPart()))
}

func group(s string) string {
	if len(s) <= 3 {
		return s
	}
	out := make([]byte, 0, len(s)+(len(s)-1)/3)
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, byte(c))
	}
	return string(out)
}
