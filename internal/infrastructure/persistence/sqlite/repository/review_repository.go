package repository

import (
	"context"

	"gorm.io/gorm"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/infrastructure/persistence/sqlite/model"
	"govcore/internal/ports"
)

type ReviewRepository struct {
	db *gorm.DB
}

var _ ports.ReviewStore = (*ReviewRepository)(nil)

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) ListReviews(ctx context.Context, patchID uint64) ([]ports.Review, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Review
	if err := db.Where("patch_id = ?", patchID).
		Order("review_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query reviews")
	}

	reviews := make([]ports.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, ports.Review{
			ReviewID:      row.ReviewID,
			PatchID:       row.PatchID,
			ReviewerID:    row.ReviewerID,
			IsHuman:       row.IsHuman,
			IsMaintainer:  row.IsMaintainer,
			Verdict:       governance.Verdict(row.Verdict),
			KarmaSnapshot: coerceCount(row.KarmaSnapshot),
		})
	}
	return reviews, nil
}
