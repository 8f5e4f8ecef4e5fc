package clock

import (
	"time"

	"govcore/internal/ports"
)

// System is the wall clock used outside tests.
type System struct{}

var _ ports.Clock = System{}

func NewSystem() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now().UTC()
}
