package repository

import (
	"context"

	"gorm.io/gorm"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/infrastructure/persistence/sqlite/model"
	"govcore/internal/ports"
)

type StageRepository struct {
	db *gorm.DB
}

var _ ports.StageStore = (*StageRepository)(nil)

func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{db: db}
}

func (r *StageRepository) UpdateRepoStage(ctx context.Context, repoID uint64, stage governance.Stage) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.Repo{}).
		Where("repo_id = ?", repoID).
		Update("stage", string(stage))
	if res.Error != nil {
		return errs.Wrap(res.Error, "update repo stage")
	}
	if res.RowsAffected == 0 {
		return ports.ErrRepoNotFound
	}
	return nil
}

func (r *StageRepository) AppendHistory(ctx context.Context, entry ports.StageHistoryEntry) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.StageHistory{
		RepoID:         entry.RepoID,
		FromStage:      string(entry.FromStage),
		ToStage:        string(entry.ToStage),
		TransitionedAt: entry.TransitionedAt,
		Reason:         entry.Reason,
		Forced:         entry.Forced,
	}

	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "append stage history")
	}
	return nil
}

func (r *StageRepository) ListHistory(ctx context.Context, repoID uint64) ([]ports.StageHistoryEntry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.StageHistory
	if err := db.Where("repo_id = ?", repoID).
		Order("entry_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query stage history")
	}

	entries := make([]ports.StageHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ports.StageHistoryEntry{
			EntryID:        row.EntryID,
			RepoID:         row.RepoID,
			FromStage:      governance.Stage(row.FromStage),
			ToStage:        governance.Stage(row.ToStage),
			TransitionedAt: row.TransitionedAt,
			Reason:         row.Reason,
			Forced:         row.Forced,
		})
	}
	return entries, nil
}
