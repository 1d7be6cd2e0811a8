package render

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// OrdinalSuffix returns the English suffix for n by its last digit only,
// so 11, 12 and 13 come out as "st", "nd" and "rd". Issued documents already
// carry this numbering and it is kept as is.
func OrdinalSuffix(n int) string {
	if n < 0 {
		n = -n
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

func Ordinal(n int) string {
	return strconv.Itoa(n) + OrdinalSuffix(n)
}

// FormatLongDate renders e.g. "Friday, March 1, 2024".
func FormatLongDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// FormatLongDateTime renders e.g. "Friday, March 1, 2024 at 11:00 AM".
func FormatLongDateTime(t time.Time) string {
	return t.Format("Monday, January 2, 2006 at 3:04 PM")
}

// FormatShortDate renders e.g. "01 March 2024".
func FormatShortDate(t time.Time) string {
	return t.Format("02 January 2006")
}

// FormatSize prints an instrument size exactly as stored.
func FormatSize(d decimal.Decimal) string {
	return d.String()
}
