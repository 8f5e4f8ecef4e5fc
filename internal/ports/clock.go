package ports

import "time"

// Clock supplies the time for expiry and deadline comparisons so tests can
// substitute a fixed instant.
type Clock interface {
	Now() time.Time
}
