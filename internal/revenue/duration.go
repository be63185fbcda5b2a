package revenue

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// MaxMonths caps the month count of a single booking.
const MaxMonths = 120

// ParseMonths converts a duration label such as "3 months" or "1 year" into
// a month count. Labels mentioning "year" multiply the leading integer by
// 12; any other label uses the leading integer as is. Labels without a
// positive leading integer count as one month, and results above MaxMonths
// are clamped to it.
func ParseMonths(label string) int {
	s := strings.TrimSpace(label)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	switch {
	case errors.Is(err, strconv.ErrRange):
		return MaxMonths
	case err != nil || n <= 0:
		return 1
	case n > MaxMonths:
		return MaxMonths
	}
	if strings.Contains(strings.ToLower(s), "year") {
		n *= 12
	}
	return min(n, MaxMonths)
}
