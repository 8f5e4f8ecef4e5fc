package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/infrastructure/persistence/sqlite/model"
	"govcore/internal/ports"
)

type CouncilRepository struct {
	db *gorm.DB
}

var _ ports.CouncilStore = (*CouncilRepository)(nil)

func NewCouncilRepository(db *gorm.DB) *CouncilRepository {
	return &CouncilRepository{db: db}
}

func mapCouncil(row model.Council) ports.Council {
	return ports.Council{
		CouncilID:        row.CouncilID,
		RepoID:           row.RepoID,
		MinKarma:         row.MinKarma,
		MinContributions: row.MinContributions,
		MinMembers:       row.MinMembers,
		MaxMembers:       row.MaxMembers,
		StandardQuorum:   row.StandardQuorum,
		CriticalQuorum:   row.CriticalQuorum,
		Status:           governance.CouncilStatus(row.Status),
	}
}

func (r *CouncilRepository) CreateCouncil(ctx context.Context, council ports.Council) (ports.Council, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Council{}, err
	}

	row := model.Council{
		RepoID:           council.RepoID,
		MinKarma:         council.MinKarma,
		MinContributions: council.MinContributions,
		MinMembers:       council.MinMembers,
		MaxMembers:       council.MaxMembers,
		StandardQuorum:   council.StandardQuorum,
		CriticalQuorum:   council.CriticalQuorum,
		Status:           string(governance.CouncilForming),
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repo_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return ports.Council{}, errs.Wrap(res.Error, "create council")
	}
	if res.RowsAffected == 0 {
		return ports.Council{}, errs.Conflictf("repo %d already has a council", council.RepoID)
	}

	return mapCouncil(row), nil
}

func (r *CouncilRepository) GetCouncil(ctx context.Context, councilID uint64) (ports.Council, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Council{}, false, err
	}

	var row model.Council
	if err := db.Where("council_id = ?", councilID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Council{}, false, nil
		}
		return ports.Council{}, false, errs.Wrap(err, "query council")
	}
	return mapCouncil(row), true, nil
}

func (r *CouncilRepository) GetCouncilByRepo(ctx context.Context, repoID uint64) (ports.Council, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Council{}, false, err
	}

	var row model.Council
	if err := db.Where("repo_id = ?", repoID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Council{}, false, nil
		}
		return ports.Council{}, false, errs.Wrap(err, "query council by repo")
	}
	return mapCouncil(row), true, nil
}

func (r *CouncilRepository) UpdateCouncilStatus(ctx context.Context, councilID uint64, status governance.CouncilStatus) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.Council{}).
		Where("council_id = ?", councilID).
		Update("status", string(status))
	if res.Error != nil {
		return errs.Wrap(res.Error, "update council status")
	}
	if res.RowsAffected == 0 {
		return ports.ErrCouncilNotFound
	}
	return nil
}

func mapMember(row model.CouncilMember) ports.CouncilMember {
	return ports.CouncilMember{
		CouncilID:     row.CouncilID,
		AgentID:       row.AgentID,
		Role:          governance.CouncilMemberRole(row.Role),
		TermExpiresAt: row.TermExpiresAt,
	}
}

func (r *CouncilRepository) ListMembers(ctx context.Context, councilID uint64) ([]ports.CouncilMember, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.CouncilMember
	if err := db.Where("council_id = ?", councilID).
		Order("member_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query council members")
	}

	members := make([]ports.CouncilMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, mapMember(row))
	}
	return members, nil
}

func (r *CouncilRepository) GetMember(ctx context.Context, councilID uint64, agentID uint64) (ports.CouncilMember, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.CouncilMember{}, false, err
	}

	var row model.CouncilMember
	if err := db.Where("council_id = ? AND agent_id = ?", councilID, agentID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CouncilMember{}, false, nil
		}
		return ports.CouncilMember{}, false, errs.Wrap(err, "query council member")
	}
	return mapMember(row), true, nil
}

func (r *CouncilRepository) CountMembers(ctx context.Context, councilID uint64) (int, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.CouncilMember{}).
		Where("council_id = ?", councilID).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count council members")
	}
	return int(count), nil
}

func (r *CouncilRepository) AddMember(ctx context.Context, member ports.CouncilMember) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.CouncilMember{
		CouncilID:     member.CouncilID,
		AgentID:       member.AgentID,
		Role:          string(member.Role),
		TermExpiresAt: member.TermExpiresAt,
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "council_id"}, {Name: "agent_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, errs.Wrap(res.Error, "add council member")
	}
	return res.RowsAffected > 0, nil
}

func (r *CouncilRepository) RemoveMember(ctx context.Context, councilID uint64, agentID uint64) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	res := db.Where("council_id = ? AND agent_id = ?", councilID, agentID).
		Delete(&model.CouncilMember{})
	if res.Error != nil {
		return false, errs.Wrap(res.Error, "remove council member")
	}
	return res.RowsAffected > 0, nil
}

func (r *CouncilRepository) ListExpiredMembers(ctx context.Context, councilID uint64, now time.Time) ([]ports.CouncilMember, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.CouncilMember
	if err := db.Where("council_id = ? AND term_expires_at IS NOT NULL AND term_expires_at < ?", councilID, now).
		Order("member_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query expired members")
	}

	members := make([]ports.CouncilMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, mapMember(row))
	}
	return members, nil
}

func mapProposal(row model.Proposal) ports.Proposal {
	return ports.Proposal{
		ProposalID:     row.ProposalID,
		CouncilID:      row.CouncilID,
		ProposerID:     row.ProposerID,
		Kind:           governance.ActionKind(row.Kind),
		ActionData:     row.ActionData,
		QuorumRequired: row.QuorumRequired,
		VotesFor:       row.VotesFor,
		VotesAgainst:   row.VotesAgainst,
		Status:         governance.ProposalStatus(row.Status),
		ExpiresAt:      row.ExpiresAt,
	}
}

func (r *CouncilRepository) CreateProposal(ctx context.Context, proposal ports.Proposal) (ports.Proposal, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Proposal{}, err
	}

	row := model.Proposal{
		CouncilID:      proposal.CouncilID,
		ProposerID:     proposal.ProposerID,
		Kind:           string(proposal.Kind),
		ActionData:     proposal.ActionData,
		QuorumRequired: proposal.QuorumRequired,
		Status:         string(governance.ProposalOpen),
		ExpiresAt:      proposal.ExpiresAt,
	}

	if err := db.Create(&row).Error; err != nil {
		return ports.Proposal{}, errs.Wrap(err, "create proposal")
	}
	return mapProposal(row), nil
}

func (r *CouncilRepository) GetProposal(ctx context.Context, proposalID uint64) (ports.Proposal, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Proposal{}, false, err
	}

	var row model.Proposal
	if err := db.Where("proposal_id = ?", proposalID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Proposal{}, false, nil
		}
		return ports.Proposal{}, false, errs.Wrap(err, "query proposal")
	}
	return mapProposal(row), true, nil
}

func (r *CouncilRepository) ListOpenProposals(ctx context.Context, councilID uint64) ([]ports.Proposal, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Proposal
	if err := db.Where("council_id = ? AND status = ?", councilID, string(governance.ProposalOpen)).
		Order("proposal_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query open proposals")
	}

	proposals := make([]ports.Proposal, 0, len(rows))
	for _, row := range rows {
		proposals = append(proposals, mapProposal(row))
	}
	return proposals, nil
}

// InsertVote relies on the (proposal_id, agent_id) unique index: two
// concurrent votes from one agent produce exactly one row.
func (r *CouncilRepository) InsertVote(ctx context.Context, vote ports.ProposalVote) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.ProposalVote{
		ProposalID: vote.ProposalID,
		AgentID:    vote.AgentID,
		Choice:     string(vote.Choice),
		Comment:    vote.Comment,
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "agent_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, errs.Wrap(res.Error, "insert proposal vote")
	}
	return res.RowsAffected > 0, nil
}

func (r *CouncilRepository) CountVotes(ctx context.Context, proposalID uint64) (int, int, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, 0, err
	}

	var votesFor, votesAgainst int64
	if err := db.Model(&model.ProposalVote{}).
		Where("proposal_id = ? AND choice = ?", proposalID, string(governance.VoteFor)).
		Count(&votesFor).Error; err != nil {
		return 0, 0, errs.Wrap(err, "count votes for")
	}
	if err := db.Model(&model.ProposalVote{}).
		Where("proposal_id = ? AND choice = ?", proposalID, string(governance.VoteAgainst)).
		Count(&votesAgainst).Error; err != nil {
		return 0, 0, errs.Wrap(err, "count votes against")
	}
	return int(votesFor), int(votesAgainst), nil
}

func (r *CouncilRepository) UpdateProposalTallies(ctx context.Context, proposalID uint64, votesFor int, votesAgainst int) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.Proposal{}).
		Where("proposal_id = ?", proposalID).
		Updates(map[string]any{
			"votes_for":     votesFor,
			"votes_against": votesAgainst,
		})
	if res.Error != nil {
		return errs.Wrap(res.Error, "update proposal tallies")
	}
	if res.RowsAffected == 0 {
		return ports.ErrProposalNotFound
	}
	return nil
}

// MarkProposalResolved is guarded on status=open so a retried resolution
// can never overwrite a terminal status or re-fire the executor.
func (r *CouncilRepository) MarkProposalResolved(ctx context.Context, proposalID uint64, status governance.ProposalStatus) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	res := db.Model(&model.Proposal{}).
		Where("proposal_id = ? AND status = ?", proposalID, string(governance.ProposalOpen)).
		Update("status", string(status))
	if res.Error != nil {
		return false, errs.Wrap(res.Error, "mark proposal resolved")
	}
	return res.RowsAffected > 0, nil
}
