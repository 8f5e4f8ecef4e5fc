package repository

import (
	"strconv"
	"strings"
)

// coerceCount converts a counter of heterogeneous provenance (int, float,
// string, null have all been observed in upstream writes) to a non-negative
// int64, defaulting to 0. This is the single conversion point; nothing
// downstream of the store boundary re-coerces.
func coerceCount(raw *string) int64 {
	if raw == nil {
		return 0
	}

	s := strings.TrimSpace(*raw)
	if s == "" {
		return 0
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0
		}
		return v
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 0 {
			return 0
		}
		return int64(f)
	}

	return 0
}
