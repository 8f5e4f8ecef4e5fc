package ports

import (
	"context"

	"govcore/internal/domain/governance"
)

// Review is immutable once merge karma has been awarded. KarmaSnapshot is
// coerced at the store boundary like agent karma.
type Review struct {
	ReviewID      uint64
	PatchID       uint64
	ReviewerID    *uint64
	IsHuman       bool
	IsMaintainer  bool
	Verdict       governance.Verdict
	KarmaSnapshot int64
}

type ReviewStore interface {
	ListReviews(ctx context.Context, patchID uint64) ([]Review, error)
}
