package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatRupiah renders an amount with dot thousands separators, matching
// how the settlement feed and user-facing messages write rupiah values.
func FormatRupiah(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// ParseAmount parses a feed amount: digits with optional dot separators.
func ParseAmount(s string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	return strconv.ParseInt(cleaned, 10, 64)
}

// NewIntentID builds a deposit intent ID unique per user and instant.
func NewIntentID(userID int64) string {
	return fmt.Sprintf("DEP-%d-%d", userID, time.Now().UnixMilli())
}
