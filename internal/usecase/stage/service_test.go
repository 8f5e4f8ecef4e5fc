package stage

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
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
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
		&model.Patch{},
		&model.Merge{},
		&model.Council{},
		&model.CouncilMember{},
		&model.StageHistory{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(
		sqliterepo.NewStageRepository(db),
		sqliterepo.NewAccessRepository(db),
		sqliterepo.NewActivityRepository(db),
		sqliterepo.NewCouncilRepository(db),
		sqliteuow.NewUnitOfWork(db),
		clock,
	)
	return svc, db
}

func seedStageRepo(t *testing.T, db *gorm.DB, stage string) uint64 {
	t.Helper()
	org := model.Org{Name: "org"}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	repo := model.Repo{OrgID: org.OrgID, Name: "r", OwnershipModel: "open", Stage: stage}
	if err := db.Create(&repo).Error; err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	return repo.RepoID
}

func seedActivity(t *testing.T, db *gorm.DB, repoID uint64, patchAuthors int, patchesEach int, mergeAuthors int, mergesEach int) {
	t.Helper()
	now := time.Now().UTC()
	for a := 0; a < patchAuthors; a++ {
		for p := 0; p < patchesEach; p++ {
			patch := model.Patch{RepoID: repoID, AuthorID: uint64(100 + a), Status: "open", CreatedAt: now}
			if err := db.Create(&patch).Error; err != nil {
				t.Fatalf("seed patch: %v", err)
			}
		}
	}
	for a := 0; a < mergeAuthors; a++ {
		for m := 0; m < mergesEach; m++ {
			merge := model.Merge{RepoID: repoID, PatchID: uint64(1000 + a*100 + m), AuthorID: uint64(200 + a), MergedAt: now}
			if err := db.Create(&merge).Error; err != nil {
				t.Fatalf("seed merge: %v", err)
			}
		}
	}
}

func TestMetricsTakeMaxOfSources(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedStageRepo(t, db, "seed")
	// 2 patch authors with 3 patches each, 4 merge authors with 1 merge each.
	seedActivity(t, db, repoID, 2, 3, 4, 1)

	metrics, err := svc.Metrics(ctx, repoID)
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if metrics.ContributorCount != 4 {
		t.Fatalf("contributors = %d, want 4 (merge side)", metrics.ContributorCount)
	}
	if metrics.PatchCount != 6 {
		t.Fatalf("patches = %d, want 6 (patch side)", metrics.PatchCount)
	}
}

func TestCheckAdvancementListsEveryUnmetRequirement(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedStageRepo(t, db, "growth")
	seedActivity(t, db, repoID, 2, 2, 0, 0)

	check, err := svc.CheckAdvancement(ctx, repoID)
	if err != nil {
		t.Fatalf("CheckAdvancement() error = %v", err)
	}
	if check.Eligible {
		t.Fatalf("CheckAdvancement() = %+v, want ineligible", check)
	}
	if check.NextStage != governance.StageEstablished {
		t.Fatalf("next stage = %s, want established", check.NextStage)
	}
	// Established needs 5 contributors, 25 patches and 2 maintainers; all
	// three shortfalls are reported at once.
	if len(check.Unmet) != 3 {
		t.Fatalf("unmet = %v, want 3 entries", check.Unmet)
	}
}

func TestAdvanceStageRequirementsMet(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedStageRepo(t, db, "seed")
	// Growth needs 2 contributors and 5 patches.
	seedActivity(t, db, repoID, 2, 3, 0, 0)

	transition, err := svc.AdvanceStage(ctx, repoID, false)
	if err != nil {
		t.Fatalf("AdvanceStage() error = %v", err)
	}
	if !transition.Success || transition.ToStage != governance.StageGrowth || transition.Forced {
		t.Fatalf("AdvanceStage() = %+v, want unforced seed->growth", transition)
	}

	var repo model.Repo
	if err := db.First(&repo, "repo_id = ?", repoID).Error; err != nil {
		t.Fatalf("load repo: %v", err)
	}
	if repo.Stage != "growth" {
		t.Fatalf("repo stage = %s, want growth", repo.Stage)
	}

	history, err := svc.History(ctx, repoID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].ToStage != governance.StageGrowth || history[0].Forced {
		t.Fatalf("history = %+v, want one unforced entry", history)
	}
}

func TestAdvanceStageBlockedUnlessForced(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedStageRepo(t, db, "seed")

	transition, err := svc.AdvanceStage(ctx, repoID, false)
	if err != nil {
		t.Fatalf("AdvanceStage() error = %v", err)
	}
	if transition.Success {
		t.Fatalf("AdvanceStage() = %+v, want blocked", transition)
	}
	if len(transition.Unmet) == 0 {
		t.Fatal("blocked transition reports no unmet requirements")
	}

	transition, err = svc.AdvanceStage(ctx, repoID, true)
	if err != nil {
		t.Fatalf("forced AdvanceStage() error = %v", err)
	}
	if !transition.Success || !transition.Forced {
		t.Fatalf("forced AdvanceStage() = %+v, want forced success", transition)
	}

	history, err := svc.History(ctx, repoID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || !history[0].Forced || history[0].Reason != "forced" {
		t.Fatalf("history = %+v, want one forced entry", history)
	}
}

func TestAdvanceStageAtMax(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedStageRepo(t, db, "mature")

	transition, err := svc.AdvanceStage(ctx, repoID, true)
	if err != nil {
		t.Fatalf("AdvanceStage() error = %v", err)
	}
	if transition.Success || transition.Reason != "already_at_max_stage" {
		t.Fatalf("AdvanceStage(mature) = %+v, want already_at_max_stage", transition)
	}
}

func TestSetStage(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedStageRepo(t, db, "established")

	if _, err := svc.SetStage(ctx, repoID, "galactic"); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("SetStage(invalid) error = %v, want validation", err)
	}

	// Setting the current stage is a no-op without a history entry.
	transition, err := svc.SetStage(ctx, repoID, "established")
	if err != nil {
		t.Fatalf("SetStage(same) error = %v", err)
	}
	if transition.Success || transition.Reason != "already_at_stage" {
		t.Fatalf("SetStage(same) = %+v, want already_at_stage", transition)
	}
	history, err := svc.History(ctx, repoID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history after no-op = %+v, want empty", history)
	}

	// Downgrades are allowed.
	transition, err = svc.SetStage(ctx, repoID, "seed")
	if err != nil {
		t.Fatalf("SetStage(seed) error = %v", err)
	}
	if !transition.Success || transition.ToStage != governance.StageSeed {
		t.Fatalf("SetStage(seed) = %+v, want established->seed", transition)
	}

	history, err = svc.History(ctx, repoID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].FromStage != governance.StageEstablished || history[0].Reason != "manual" {
		t.Fatalf("history = %+v, want one manual entry", history)
	}
}

func TestCheckAdvancementMatureNeedsActiveCouncil(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedStageRepo(t, db, "established")
	// Mature: 10 contributors, 100 patches, 3 maintainers, active council.
	seedActivity(t, db, repoID, 10, 10, 0, 0)
	for i := 0; i < 3; i++ {
		m := model.Maintainer{RepoID: repoID, AgentID: uint64(300 + i), Role: "maintainer"}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed maintainer: %v", err)
		}
	}

	check, err := svc.CheckAdvancement(ctx, repoID)
	if err != nil {
		t.Fatalf("CheckAdvancement() error = %v", err)
	}
	if check.Eligible {
		t.Fatalf("CheckAdvancement() = %+v, want blocked on council", check)
	}
	if len(check.Unmet) != 1 || check.Unmet[0] != "active council required" {
		t.Fatalf("unmet = %v, want only the council requirement", check.Unmet)
	}

	c := model.Council{RepoID: repoID, MinMembers: 1, MaxMembers: 3, StandardQuorum: 1, CriticalQuorum: 1, Status: "active"}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed council: %v", err)
	}

	check, err = svc.CheckAdvancement(ctx, repoID)
	if err != nil {
		t.Fatalf("CheckAdvancement() error = %v", err)
	}
	if !check.Eligible {
		t.Fatalf("CheckAdvancement() with council = %+v, want eligible", check)
	}
}
