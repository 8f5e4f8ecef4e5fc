package repository

import (
	"context"

	"gorm.io/gorm"

	"govcore/internal/errs"
	"govcore/internal/infrastructure/persistence/sqlite/model"
	"govcore/internal/ports"
)

type ActivityRepository struct {
	db *gorm.DB
}

var _ ports.ActivityStore = (*ActivityRepository)(nil)

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) PatchActivity(ctx context.Context, repoID uint64) (ports.ActivityCounts, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ActivityCounts{}, err
	}

	var contributors, patches int64
	if err := db.Model(&model.Patch{}).
		Where("repo_id = ?", repoID).
		Distinct("author_id").
		Count(&contributors).Error; err != nil {
		return ports.ActivityCounts{}, errs.Wrap(err, "count patch contributors")
	}
	if err := db.Model(&model.Patch{}).
		Where("repo_id = ?", repoID).
		Count(&patches).Error; err != nil {
		return ports.ActivityCounts{}, errs.Wrap(err, "count patches")
	}

	return ports.ActivityCounts{
		ContributorCount: int(contributors),
		PatchCount:       int(patches),
	}, nil
}

func (r *ActivityRepository) MergeActivity(ctx context.Context, repoID uint64) (ports.ActivityCounts, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ActivityCounts{}, err
	}

	var contributors, merges int64
	if err := db.Model(&model.Merge{}).
		Where("repo_id = ?", repoID).
		Distinct("author_id").
		Count(&contributors).Error; err != nil {
		return ports.ActivityCounts{}, errs.Wrap(err, "count merge contributors")
	}
	if err := db.Model(&model.Merge{}).
		Where("repo_id = ?", repoID).
		Count(&merges).Error; err != nil {
		return ports.ActivityCounts{}, errs.Wrap(err, "count merges")
	}

	return ports.ActivityCounts{
		ContributorCount: int(contributors),
		PatchCount:       int(merges),
	}, nil
}

func (r *ActivityRepository) ContributionCount(ctx context.Context, repoID uint64, agentID uint64) (int, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Merge{}).
		Where("repo_id = ? AND author_id = ?", repoID, agentID).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count contributions")
	}
	return int(count), nil
}
