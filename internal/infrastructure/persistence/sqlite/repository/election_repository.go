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

type ElectionRepository struct {
	db *gorm.DB
}

var _ ports.ElectionStore = (*ElectionRepository)(nil)

func NewElectionRepository(db *gorm.DB) *ElectionRepository {
	return &ElectionRepository{db: db}
}

func mapElection(row model.Election) ports.Election {
	return ports.Election{
		ElectionID:         row.ElectionID,
		CouncilID:          row.CouncilID,
		Status:             governance.ElectionStatus(row.Status),
		SeatsAvailable:     row.SeatsAvailable,
		NominationsCloseAt: row.NominationsCloseAt,
		VotingCloseAt:      row.VotingCloseAt,
	}
}

func (r *ElectionRepository) CreateElection(ctx context.Context, election ports.Election) (ports.Election, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Election{}, err
	}

	row := model.Election{
		CouncilID:          election.CouncilID,
		Status:             string(governance.ElectionNominations),
		SeatsAvailable:     election.SeatsAvailable,
		NominationsCloseAt: election.NominationsCloseAt,
		VotingCloseAt:      election.VotingCloseAt,
	}

	if err := db.Create(&row).Error; err != nil {
		return ports.Election{}, errs.Wrap(err, "create election")
	}
	return mapElection(row), nil
}

func (r *ElectionRepository) GetElection(ctx context.Context, electionID uint64) (ports.Election, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Election{}, false, err
	}

	var row model.Election
	if err := db.Where("election_id = ?", electionID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Election{}, false, nil
		}
		return ports.Election{}, false, errs.Wrap(err, "query election")
	}
	return mapElection(row), true, nil
}

func (r *ElectionRepository) GetOpenElection(ctx context.Context, councilID uint64) (ports.Election, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Election{}, false, err
	}

	var row model.Election
	if err := db.Where("council_id = ? AND status <> ?", councilID, string(governance.ElectionCompleted)).
		Order("election_id desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Election{}, false, nil
		}
		return ports.Election{}, false, errs.Wrap(err, "query open election")
	}
	return mapElection(row), true, nil
}

// UpdateElectionStatus is compare-and-set on the current status, which
// keeps the nominations -> voting -> completed lifecycle linear even under
// concurrent callers.
func (r *ElectionRepository) UpdateElectionStatus(ctx context.Context, electionID uint64, from governance.ElectionStatus, to governance.ElectionStatus) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	res := db.Model(&model.Election{}).
		Where("election_id = ? AND status = ?", electionID, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return false, errs.Wrap(res.Error, "update election status")
	}
	return res.RowsAffected > 0, nil
}

func mapCandidate(row model.Candidate) ports.Candidate {
	return ports.Candidate{
		CandidateID: row.CandidateID,
		ElectionID:  row.ElectionID,
		AgentID:     row.AgentID,
		NominatorID: row.NominatorID,
		Statement:   row.Statement,
		Status:      governance.CandidateStatus(row.Status),
		VoteCount:   row.VoteCount,
	}
}

func (r *ElectionRepository) CreateCandidate(ctx context.Context, candidate ports.Candidate) (ports.Candidate, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Candidate{}, false, err
	}

	row := model.Candidate{
		ElectionID:  candidate.ElectionID,
		AgentID:     candidate.AgentID,
		NominatorID: candidate.NominatorID,
		Statement:   candidate.Statement,
		Status:      string(governance.CandidateNominated),
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "election_id"}, {Name: "agent_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return ports.Candidate{}, false, errs.Wrap(res.Error, "create candidate")
	}
	if res.RowsAffected == 0 {
		return ports.Candidate{}, false, nil
	}
	return mapCandidate(row), true, nil
}

func (r *ElectionRepository) GetCandidate(ctx context.Context, electionID uint64, agentID uint64) (ports.Candidate, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Candidate{}, false, err
	}

	var row model.Candidate
	if err := db.Where("election_id = ? AND agent_id = ?", electionID, agentID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Candidate{}, false, nil
		}
		return ports.Candidate{}, false, errs.Wrap(err, "query candidate")
	}
	return mapCandidate(row), true, nil
}

func (r *ElectionRepository) ListCandidates(ctx context.Context, electionID uint64) ([]ports.Candidate, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Candidate
	if err := db.Where("election_id = ?", electionID).
		Order("candidate_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query candidates")
	}

	candidates := make([]ports.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, mapCandidate(row))
	}
	return candidates, nil
}

func (r *ElectionRepository) UpdateCandidateStatus(ctx context.Context, candidateID uint64, status governance.CandidateStatus) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.Candidate{}).
		Where("candidate_id = ?", candidateID).
		Update("status", string(status))
	if res.Error != nil {
		return errs.Wrap(res.Error, "update candidate status")
	}
	if res.RowsAffected == 0 {
		return ports.ErrCandidateNotFound
	}
	return nil
}

// InsertElectionVote relies on the (election_id, voter_id) unique index:
// a voter gets exactly one ballot no matter how many concurrent attempts.
func (r *ElectionRepository) InsertElectionVote(ctx context.Context, vote ports.ElectionVote) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.ElectionVote{
		ElectionID:  vote.ElectionID,
		VoterID:     vote.VoterID,
		CandidateID: vote.CandidateID,
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "election_id"}, {Name: "voter_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, errs.Wrap(res.Error, "insert election vote")
	}
	return res.RowsAffected > 0, nil
}

func (r *ElectionRepository) IncrementCandidateVotes(ctx context.Context, candidateID uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.Candidate{}).
		Where("candidate_id = ?", candidateID).
		Update("vote_count", gorm.Expr("vote_count + 1"))
	if res.Error != nil {
		return errs.Wrap(res.Error, "increment candidate votes")
	}
	if res.RowsAffected == 0 {
		return ports.ErrCandidateNotFound
	}
	return nil
}
