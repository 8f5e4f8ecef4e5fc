package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/infrastructure/persistence/sqlite/model"
	"govcore/internal/ports"
)

type AccessRepository struct {
	db *gorm.DB
}

var _ ports.AccessStore = (*AccessRepository)(nil)

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) GetOrg(ctx context.Context, orgID uint64) (ports.Org, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Org{}, err
	}

	var row model.Org
	if err := db.Where("org_id = ?", orgID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Org{}, ports.ErrOrgNotFound
		}
		return ports.Org{}, errs.Wrap(err, "query org")
	}

	return ports.Org{
		OrgID:              row.OrgID,
		Name:               row.Name,
		IsPlatform:         row.IsPlatform,
		DefaultAgentAccess: governance.AgentAccessMode(row.DefaultAgentAccess),
		DefaultMinKarma:    coerceCount(&row.DefaultMinKarma),
	}, nil
}

func (r *AccessRepository) GetRepo(ctx context.Context, repoID uint64) (ports.Repo, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Repo{}, err
	}

	var row model.Repo
	if err := db.Where("repo_id = ?", repoID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Repo{}, ports.ErrRepoNotFound
		}
		return ports.Repo{}, errs.Wrap(err, "query repo")
	}

	return mapRepo(row), nil
}

func mapRepo(row model.Repo) ports.Repo {
	repo := ports.Repo{
		RepoID:             row.RepoID,
		OrgID:              row.OrgID,
		Name:               row.Name,
		OwnershipModel:     governance.OwnershipModel(row.OwnershipModel),
		AgentAccess:        governance.AgentAccessMode(row.AgentAccess),
		IsPrivate:          row.IsPrivate,
		ConsensusThreshold: row.ConsensusThreshold,
		MinReviews:         row.MinReviews,
		HumanReviewWeight:  row.HumanReviewWeight,
		Stage:              governance.Stage(row.Stage),
	}
	if row.MinKarma != nil {
		minKarma := coerceCount(row.MinKarma)
		repo.MinKarma = &minKarma
	}
	return repo
}

func (r *AccessRepository) UpdateRepoOwnership(ctx context.Context, repoID uint64, ownership governance.OwnershipModel) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.Repo{}).
		Where("repo_id = ?", repoID).
		Update("ownership_model", string(ownership))
	if res.Error != nil {
		return errs.Wrap(res.Error, "update repo ownership")
	}
	if res.RowsAffected == 0 {
		return ports.ErrRepoNotFound
	}
	return nil
}

func (r *AccessRepository) GetAgent(ctx context.Context, agentID uint64) (ports.Agent, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Agent{}, false, err
	}

	var row model.Agent
	if err := db.Where("agent_id = ?", agentID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Agent{}, false, nil
		}
		return ports.Agent{}, false, errs.Wrap(err, "query agent")
	}

	return ports.Agent{
		AgentID: row.AgentID,
		Handle:  row.Handle,
		IsHuman: row.IsHuman,
		Karma:   coerceCount(row.Karma),
	}, true, nil
}

func (r *AccessRepository) GetRepoAccess(ctx context.Context, repoID uint64, agentID uint64) (ports.RepoAccess, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.RepoAccess{}, false, err
	}

	var row model.RepoAccess
	if err := db.Where("repo_id = ? AND agent_id = ?", repoID, agentID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RepoAccess{}, false, nil
		}
		return ports.RepoAccess{}, false, errs.Wrap(err, "query repo access")
	}

	return ports.RepoAccess{
		RepoID:    row.RepoID,
		AgentID:   row.AgentID,
		Level:     governance.AccessLevel(row.AccessLevel),
		ExpiresAt: row.ExpiresAt,
	}, true, nil
}

func (r *AccessRepository) UpsertRepoAccess(ctx context.Context, access ports.RepoAccess) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.RepoAccess{
		RepoID:      access.RepoID,
		AgentID:     access.AgentID,
		AccessLevel: string(access.Level),
		ExpiresAt:   access.ExpiresAt,
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "repo_id"}, {Name: "agent_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"access_level": row.AccessLevel,
			"expires_at":   row.ExpiresAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert repo access")
	}
	return nil
}

func (r *AccessRepository) DeleteRepoAccess(ctx context.Context, repoID uint64, agentID uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Where("repo_id = ? AND agent_id = ?", repoID, agentID).
		Delete(&model.RepoAccess{}).Error; err != nil {
		return errs.Wrap(err, "delete repo access")
	}
	return nil
}

func (r *AccessRepository) GetMaintainer(ctx context.Context, repoID uint64, agentID uint64) (ports.Maintainer, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Maintainer{}, false, err
	}

	var row model.Maintainer
	if err := db.Where("repo_id = ? AND agent_id = ?", repoID, agentID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Maintainer{}, false, nil
		}
		return ports.Maintainer{}, false, errs.Wrap(err, "query maintainer")
	}

	return ports.Maintainer{
		RepoID:  row.RepoID,
		AgentID: row.AgentID,
		Role:    governance.MaintainerRole(row.Role),
	}, true, nil
}

func (r *AccessRepository) UpsertMaintainer(ctx context.Context, maintainer ports.Maintainer) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.Maintainer{
		RepoID:  maintainer.RepoID,
		AgentID: maintainer.AgentID,
		Role:    string(maintainer.Role),
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "repo_id"}, {Name: "agent_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"role": row.Role,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert maintainer")
	}
	return nil
}

func (r *AccessRepository) RemoveMaintainer(ctx context.Context, repoID uint64, agentID uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Where("repo_id = ? AND agent_id = ?", repoID, agentID).
		Delete(&model.Maintainer{}).Error; err != nil {
		return errs.Wrap(err, "remove maintainer")
	}
	return nil
}

func (r *AccessRepository) CountMaintainers(ctx context.Context, repoID uint64) (int, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Maintainer{}).
		Where("repo_id = ?", repoID).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count maintainers")
	}
	return int(count), nil
}

func (r *AccessRepository) ListBranchRules(ctx context.Context, repoID uint64) ([]ports.BranchRule, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.BranchRule
	if err := db.Where("repo_id = ?", repoID).
		Order("priority desc, rule_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query branch rules")
	}

	rules := make([]ports.BranchRule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, ports.BranchRule{
			RuleID:            row.RuleID,
			RepoID:            row.RepoID,
			BranchPattern:     row.BranchPattern,
			Priority:          row.Priority,
			DirectPush:        governance.DirectPushPolicy(row.DirectPush),
			RequiredApprovals: row.RequiredApprovals,
			RequireTestsPass:  row.RequireTestsPass,
		})
	}
	return rules, nil
}

func (r *AccessRepository) UpsertBranchRule(ctx context.Context, rule ports.BranchRule) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.BranchRule{
		RepoID:            rule.RepoID,
		BranchPattern:     rule.BranchPattern,
		Priority:          rule.Priority,
		DirectPush:        string(rule.DirectPush),
		RequiredApprovals: rule.RequiredApprovals,
		RequireTestsPass:  rule.RequireTestsPass,
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "repo_id"}, {Name: "branch_pattern"}},
		DoUpdates: clause.Assignments(map[string]any{
			"priority":           row.Priority,
			"direct_push":        row.DirectPush,
			"required_approvals": row.RequiredApprovals,
			"require_tests_pass": row.RequireTestsPass,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert branch rule")
	}
	return nil
}
