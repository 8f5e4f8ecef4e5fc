package election

import (
	"context"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "govcore/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "govcore/internal/infrastructure/persistence/sqlite/uow"
	"govcore/internal/usecase/council"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

type fixture struct {
	svc        *Service
	councilSvc *council.Service
	db         *gorm.DB
	clock      *testClock
	repoID     uint64
	councilID  uint64
	members    []uint64
}

func setupFixture(t *testing.T, memberCount int) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Org{},
		&model.Agent{},
		&model.Repo{},
		&model.Maintainer{},
		&model.RepoAccess{},
		&model.BranchRule{},
		&model.Patch{},
		&model.Merge{},
		&model.Council{},
		&model.CouncilMember{},
		&model.Election{},
		&model.Candidate{},
		&model.ElectionVote{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	uow := sqliteuow.NewUnitOfWork(db)
	councilRepo := sqliterepo.NewCouncilRepository(db)
	councilSvc := council.NewService(
		councilRepo,
		sqliterepo.NewAccessRepository(db),
		sqliterepo.NewActivityRepository(db),
		uow,
		clock,
		council.Policy{ProposalExpiresInDays: 7},
	)
	svc := NewService(
		sqliterepo.NewElectionRepository(db),
		councilRepo,
		councilSvc,
		uow,
		clock,
		Policy{NominationsDays: 3, VotingDays: 4, TermLimitMonths: 6, MinExtraCandidates: 1},
	)

	f := &fixture{svc: svc, councilSvc: councilSvc, db: db, clock: clock}

	ctx := context.Background()
	org := model.Org{Name: "org"}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	repo := model.Repo{OrgID: org.OrgID, Name: "r", OwnershipModel: "open"}
	if err := db.Create(&repo).Error; err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	f.repoID = repo.RepoID

	created, err := councilSvc.CreateCouncil(ctx, council.CreateCouncilInput{
		RepoID:         repo.RepoID,
		MinMembers:     2,
		MaxMembers:     9,
		StandardQuorum: 2,
		CriticalQuorum: 3,
	})
	if err != nil {
		t.Fatalf("CreateCouncil() error = %v", err)
	}
	f.councilID = created.CouncilID

	for i := 0; i < memberCount; i++ {
		f.members = append(f.members, f.seedMember(t, fmt.Sprintf("member-%d", i)))
	}
	return f
}

func (f *fixture) seedAgent(t *testing.T, handle string) uint64 {
	t.Helper()
	karma := "0"
	agent := model.Agent{Handle: handle, Karma: &karma}
	if err := f.db.Create(&agent).Error; err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	return agent.AgentID
}

func (f *fixture) seedMember(t *testing.T, handle string) uint64 {
	t.Helper()
	agentID := f.seedAgent(t, handle)
	if _, err := f.councilSvc.AddMember(context.Background(), council.AddMemberInput{
		CouncilID: f.councilID,
		AgentID:   agentID,
	}); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	return agentID
}

// nominateAccepted seeds an agent, nominates them and accepts the
// nomination.
func (f *fixture) nominateAccepted(t *testing.T, electionID uint64, handle string) uint64 {
	t.Helper()
	ctx := context.Background()

	agentID := f.seedAgent(t, handle)
	if _, err := f.svc.NominateCandidate(ctx, NominateInput{
		ElectionID:  electionID,
		AgentID:     agentID,
		NominatorID: f.members[0],
	}); err != nil {
		t.Fatalf("NominateCandidate(%s) error = %v", handle, err)
	}
	if err := f.svc.AcceptNomination(ctx, electionID, agentID); err != nil {
		t.Fatalf("AcceptNomination(%s) error = %v", handle, err)
	}
	return agentID
}

func TestStartElectionRejectsSecondOpenElection(t *testing.T) {
	f := setupFixture(t, 2)
	ctx := context.Background()

	if _, err := f.svc.StartElection(ctx, StartElectionInput{CouncilID: f.councilID, SeatsAvailable: 1}); err != nil {
		t.Fatalf("StartElection() error = %v", err)
	}
	_, err := f.svc.StartElection(ctx, StartElectionInput{CouncilID: f.councilID, SeatsAvailable: 1})
	if !errs.IsKind(err, errs.KindConflict) {
		t.Fatalf("second StartElection() error = %v, want conflict", err)
	}
}

func TestStartVotingNeedsContest(t *testing.T) {
	f := setupFixture(t, 2)
	ctx := context.Background()

	election, err := f.svc.StartElection(ctx, StartElectionInput{CouncilID: f.councilID, SeatsAvailable: 2})
	if err != nil {
		t.Fatalf("StartElection() error = %v", err)
	}

	f.nominateAccepted(t, election.ElectionID, "cand-a")
	f.nominateAccepted(t, election.ElectionID, "cand-b")

	// Two accepted candidates for two seats is uncontested.
	if _, err := f.svc.StartVoting(ctx, election.ElectionID); !errs.IsKind(err, errs.KindInvalidState) {
		t.Fatalf("uncontested StartVoting() error = %v, want invalid state", err)
	}

	// A nominated-but-unaccepted candidate does not count either.
	extra := f.seedAgent(t, "cand-c")
	if _, err := f.svc.NominateCandidate(ctx, NominateInput{
		ElectionID:  election.ElectionID,
		AgentID:     extra,
		NominatorID: f.members[0],
	}); err != nil {
		t.Fatalf("NominateCandidate() error = %v", err)
	}
	if _, err := f.svc.StartVoting(ctx, election.ElectionID); !errs.IsKind(err, errs.KindInvalidState) {
		t.Fatalf("StartVoting() with unaccepted third error = %v, want invalid state", err)
	}

	if err := f.svc.AcceptNomination(ctx, election.ElectionID, extra); err != nil {
		t.Fatalf("AcceptNomination() error = %v", err)
	}
	updated, err := f.svc.StartVoting(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("contested StartVoting() error = %v", err)
	}
	if updated.Status != governance.ElectionVoting {
		t.Fatalf("election status = %s, want voting", updated.Status)
	}
}

func TestNominationRules(t *testing.T) {
	f := setupFixture(t, 2)
	ctx := context.Background()

	election, err := f.svc.StartElection(ctx, StartElectionInput{CouncilID: f.councilID, SeatsAvailable: 1})
	if err != nil {
		t.Fatalf("StartElection() error = %v", err)
	}

	agentID := f.seedAgent(t, "cand")
	if _, err := f.svc.NominateCandidate(ctx, NominateInput{
		ElectionID:  election.ElectionID,
		AgentID:     agentID,
		NominatorID: f.members[0],
	}); err != nil {
		t.Fatalf("NominateCandidate() error = %v", err)
	}

	// Re-nominating the same agent is a conflict.
	_, err = f.svc.NominateCandidate(ctx, NominateInput{
		ElectionID:  election.ElectionID,
		AgentID:     agentID,
		NominatorID: f.members[1],
	})
	if !errs.IsKind(err, errs.KindConflict) {
		t.Fatalf("duplicate nomination error = %v, want conflict", err)
	}

	// Unknown agents fail eligibility.
	_, err = f.svc.NominateCandidate(ctx, NominateInput{
		ElectionID:  election.ElectionID,
		AgentID:     99999,
		NominatorID: f.members[0],
	})
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("unknown nominee error = %v, want validation", err)
	}

	// Withdraw, then withdrawing again is invalid.
	if err := f.svc.WithdrawCandidacy(ctx, election.ElectionID, agentID); err != nil {
		t.Fatalf("WithdrawCandidacy() error = %v", err)
	}
	if err := f.svc.WithdrawCandidacy(ctx, election.ElectionID, agentID); !errs.IsKind(err, errs.KindInvalidState) {
		t.Fatalf("second withdraw error = %v, want invalid state", err)
	}
}

func TestCompleteElectionSeatsWinnersWithTieBreak(t *testing.T) {
	f := setupFixture(t, 3)
	ctx := context.Background()

	election, err := f.svc.StartElection(ctx, StartElectionInput{CouncilID: f.councilID, SeatsAvailable: 2})
	if err != nil {
		t.Fatalf("StartElection() error = %v", err)
	}

	first := f.nominateAccepted(t, election.ElectionID, "cand-a")
	second := f.nominateAccepted(t, election.ElectionID, "cand-b")
	third := f.nominateAccepted(t, election.ElectionID, "cand-c")

	if _, err := f.svc.StartVoting(ctx, election.ElectionID); err != nil {
		t.Fatalf("StartVoting() error = %v", err)
	}

	candidateID := func(agentID uint64) uint64 {
		var row model.Candidate
		if err := f.db.First(&row, "election_id = ? AND agent_id = ?", election.ElectionID, agentID).Error; err != nil {
			t.Fatalf("load candidate: %v", err)
		}
		return row.CandidateID
	}

	// cand-b gets two ballots; cand-a and cand-c tie at zero, so the
	// earlier nomination (cand-a) takes the second seat.
	if err := f.svc.CastVote(ctx, CastVoteInput{ElectionID: election.ElectionID, VoterID: f.members[0], CandidateID: candidateID(second)}); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if err := f.svc.CastVote(ctx, CastVoteInput{ElectionID: election.ElectionID, VoterID: f.members[1], CandidateID: candidateID(second)}); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}

	// One ballot per voter.
	err = f.svc.CastVote(ctx, CastVoteInput{ElectionID: election.ElectionID, VoterID: f.members[0], CandidateID: candidateID(first)})
	if !errs.IsKind(err, errs.KindConflict) {
		t.Fatalf("second ballot error = %v, want conflict", err)
	}

	// Non-members cannot vote.
	outsider := f.seedAgent(t, "outsider")
	err = f.svc.CastVote(ctx, CastVoteInput{ElectionID: election.ElectionID, VoterID: outsider, CandidateID: candidateID(first)})
	if !errs.IsKind(err, errs.KindUnauthorized) {
		t.Fatalf("outsider ballot error = %v, want unauthorized", err)
	}

	result, err := f.svc.CompleteElection(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("CompleteElection() error = %v", err)
	}
	if len(result.Elected) != 2 {
		t.Fatalf("elected = %d candidates, want 2", len(result.Elected))
	}
	if result.Elected[0].AgentID != second || result.Elected[1].AgentID != first {
		t.Fatalf("elected order = [%d %d], want [%d %d]", result.Elected[0].AgentID, result.Elected[1].AgentID, second, first)
	}

	var loser model.Candidate
	if err := f.db.First(&loser, "election_id = ? AND agent_id = ?", election.ElectionID, third).Error; err != nil {
		t.Fatalf("load loser: %v", err)
	}
	if loser.Status != string(governance.CandidateNotElected) {
		t.Fatalf("loser status = %s, want not_elected", loser.Status)
	}

	// Winners joined the council with a bounded term.
	var member model.CouncilMember
	if err := f.db.First(&member, "council_id = ? AND agent_id = ?", f.councilID, second).Error; err != nil {
		t.Fatalf("load elected member: %v", err)
	}
	if member.TermExpiresAt == nil {
		t.Fatal("elected member has no term expiry")
	}
	wantExpiry := f.clock.now.AddDate(0, 6, 0)
	if !member.TermExpiresAt.Equal(wantExpiry) {
		t.Fatalf("term expires %s, want %s", member.TermExpiresAt, wantExpiry)
	}

	// Completion is terminal.
	if _, err := f.svc.CompleteElection(ctx, election.ElectionID); !errs.IsKind(err, errs.KindInvalidState) {
		t.Fatalf("second CompleteElection() error = %v, want invalid state", err)
	}
}

func TestCheckExpiredTermsRemovesLapsedMembers(t *testing.T) {
	f := setupFixture(t, 3)
	ctx := context.Background()

	// Give one member a term that has already lapsed.
	expired := f.clock.now.Add(-time.Hour)
	if err := f.db.Model(&model.CouncilMember{}).
		Where("council_id = ? AND agent_id = ?", f.councilID, f.members[2]).
		Update("term_expires_at", expired).Error; err != nil {
		t.Fatalf("set term expiry: %v", err)
	}

	removed, err := f.svc.CheckExpiredTerms(ctx, f.councilID)
	if err != nil {
		t.Fatalf("CheckExpiredTerms() error = %v", err)
	}
	if len(removed) != 1 || removed[0] != f.members[2] {
		t.Fatalf("CheckExpiredTerms() = %v, want [%d]", removed, f.members[2])
	}

	var count int64
	if err := f.db.Model(&model.CouncilMember{}).Where("council_id = ?", f.councilID).Count(&count).Error; err != nil {
		t.Fatalf("count members: %v", err)
	}
	if count != 2 {
		t.Fatalf("members after sweep = %d, want 2", count)
	}

	// Idempotent: a second sweep removes nobody.
	removed, err = f.svc.CheckExpiredTerms(ctx, f.councilID)
	if err != nil {
		t.Fatalf("CheckExpiredTerms() error = %v", err)
	}
	if len(removed) != 0 {
		t.Fatalf("second sweep = %v, want empty", removed)
	}
}
