package consensus

import (
	"context"
	"fmt"
	"math"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"govcore/internal/domain/governance"
	"govcore/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "govcore/internal/infrastructure/persistence/sqlite/repository"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Org{},
		&model.Repo{},
		&model.Review{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	svc := NewService(sqliterepo.NewAccessRepository(db), sqliterepo.NewReviewRepository(db))
	return svc, db
}

func seedPolicyRepo(t *testing.T, db *gorm.DB, repo model.Repo) uint64 {
	t.Helper()
	org := model.Org{Name: "org"}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	repo.OrgID = org.OrgID
	if err := db.Create(&repo).Error; err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	return repo.RepoID
}

func seedReview(t *testing.T, db *gorm.DB, patchID uint64, verdict string, maintainer bool, human bool, karma string) {
	t.Helper()
	review := model.Review{
		PatchID:      patchID,
		IsHuman:      human,
		IsMaintainer: maintainer,
		Verdict:      verdict,
	}
	if karma != "" {
		review.KarmaSnapshot = &karma
	}
	if err := db.Create(&review).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
}

func TestCheckSoloNeedsMaintainerApproval(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedPolicyRepo(t, db, model.Repo{Name: "r", OwnershipModel: "solo", MinReviews: 1})

	// Non-maintainer approvals never satisfy a solo repo.
	seedReview(t, db, 1, "approve", false, false, "900")
	seedReview(t, db, 1, "approve", false, true, "")

	result, err := svc.Check(ctx, 1, repoID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Reached || result.Reason != governance.ConsensusAwaitingOwner {
		t.Fatalf("Check() = %+v, want awaiting_owner", result)
	}

	seedReview(t, db, 1, "approve", true, true, "")

	result, err = svc.Check(ctx, 1, repoID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !result.Reached || result.Reason != governance.ConsensusOwnerApproved {
		t.Fatalf("Check() = %+v, want owner_approved", result)
	}
}

func TestCheckGuildCountsMaintainersEqually(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedPolicyRepo(t, db, model.Repo{
		Name:               "r",
		OwnershipModel:     "guild",
		ConsensusThreshold: 0.66,
		MinReviews:         3,
	})

	seedReview(t, db, 1, "approve", true, false, "10")
	seedReview(t, db, 1, "approve", true, false, "9000")

	result, err := svc.Check(ctx, 1, repoID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Reached || result.Reason != governance.ConsensusInsufficientReviews {
		t.Fatalf("Check() with 2 maintainer reviews = %+v, want insufficient", result)
	}

	// A non-maintainer rejection changes nothing for a guild repo.
	seedReview(t, db, 1, "request_changes", false, false, "500")

	result, err = svc.Check(ctx, 1, repoID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Reached {
		t.Fatalf("Check() = %+v, outsider review must not unlock the gate", result)
	}

	seedReview(t, db, 1, "request_changes", true, false, "")

	result, err = svc.Check(ctx, 1, repoID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	// 2 approvals / 3 votes = 0.666..., just over the 0.66 threshold.
	if !result.Reached || result.Reason != governance.ConsensusThresholdMet {
		t.Fatalf("Check() = %+v, want threshold_met", result)
	}
	if math.Abs(result.Ratio-2.0/3.0) > 1e-9 {
		t.Fatalf("Check() ratio = %f, want 2/3", result.Ratio)
	}
}

func TestCheckOpenWeightsReviews(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedPolicyRepo(t, db, model.Repo{
		Name:               "r",
		OwnershipModel:     "open",
		ConsensusThreshold: 0.6,
		MinReviews:         2,
		HumanReviewWeight:  2,
	})

	// Human approve at weight 2, agent with karma 99 rejects at weight 10.
	seedReview(t, db, 1, "approve", false, true, "")
	seedReview(t, db, 1, "request_changes", false, false, "99")

	result, err := svc.Check(ctx, 1, repoID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Reached {
		t.Fatalf("Check() = %+v, want not reached (2 vs 10)", result)
	}
	if math.Abs(result.TotalWeight-12) > 1e-9 {
		t.Fatalf("Check() total weight = %f, want 12", result.TotalWeight)
	}

	// A high-karma agent approval flips it: 2 + sqrt(9999+1) = 102 of 112.
	seedReview(t, db, 1, "approve", false, false, "9999")

	result, err = svc.Check(ctx, 1, repoID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !result.Reached {
		t.Fatalf("Check() = %+v, want reached", result)
	}
	if math.Abs(result.ApprovalWeight-102) > 1e-9 {
		t.Fatalf("Check() approval weight = %f, want 102", result.ApprovalWeight)
	}
}

func TestCheckOpenCommentsAreNeutral(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	repoID := seedPolicyRepo(t, db, model.Repo{
		Name:               "r",
		OwnershipModel:     "open",
		ConsensusThreshold: 0.5,
		MinReviews:         2,
		HumanReviewWeight:  1,
	})

	seedReview(t, db, 1, "approve", false, true, "")
	seedReview(t, db, 1, "comment", false, false, "400")

	result, err := svc.Check(ctx, 1, repoID)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	// Comments count toward the review gate but carry no weight.
	if !result.Reached {
		t.Fatalf("Check() = %+v, want reached on 1/1 weighted", result)
	}
	if math.Abs(result.TotalWeight-1) > 1e-9 {
		t.Fatalf("Check() total weight = %f, want 1", result.TotalWeight)
	}
}

func TestCheckMissingRepo(t *testing.T) {
	svc, _ := setupService(t)

	if _, err := svc.Check(context.Background(), 1, 424242); err == nil {
		t.Fatal("Check() on missing repo: want error")
	}
}
