package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrQueryTooLong     = errors.New("query too long")
	ErrQueryControlChar = errors.New("query contains control characters")
)

// ValidateQuery checks a raw search query before it reaches the ranker.
// maxLen counts runes; zero disables the length check. Empty queries are valid.
func ValidateQuery(q string, maxLen int) error {
	if maxLen > 0 && utf8.RuneCountInString(q) > maxLen {
		return fmt.Errorf("%w: more than %d characters", ErrQueryTooLong, maxLen)
	}
	if strings.IndexFunc(q, unicode.IsControl) >= 0 {
		return ErrQueryControlChar
	}
	return nil
}

// Ranks returns 1-based ranks for an already ordered list of count entries.
func Ranks(count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := range ranks {
		ranks[i] = uint16(i + 1)
	}
	return ranks
}

// FormatWithCommas formats an integer with comma separators
func FormatWithCommas(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
