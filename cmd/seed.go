package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"govcore/internal/bootstrap"
	"govcore/internal/bootstrap/logging"
	"govcore/internal/errs"
	"govcore/internal/infrastructure/persistence/sqlite/model"
)

// seedCmd loads a small demo dataset: one platform org, a few agents with
// mixed karma, a solo repo, an open repo with reviews, and branch rules.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo governance data into the database",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start seed")

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		db := app.DB.WithContext(ctx)

		org := model.Org{
			Name:               "platform",
			IsPlatform:         true,
			DefaultAgentAccess: "karma_threshold",
			DefaultMinKarma:    "50",
		}
		if err := db.Create(&org).Error; err != nil {
			return errs.Wrap(err, "seed org")
		}

		karma := func(v string) *string { return &v }
		agents := []model.Agent{
			{Handle: "ada", IsHuman: true, Karma: karma("0")},
			{Handle: "crawler-7", IsHuman: false, Karma: karma("120")},
			{Handle: "prover-2", IsHuman: false, Karma: karma("35")},
			{Handle: "scribe-1", IsHuman: false, Karma: karma("900")},
		}
		for i := range agents {
			if err := db.Create(&agents[i]).Error; err != nil {
				return errs.Wrap(err, "seed agents")
			}
		}

		soloRepo := model.Repo{
			OrgID:          org.OrgID,
			Name:           "tooling",
			OwnershipModel: "solo",
			MinReviews:     1,
		}
		openRepo := model.Repo{
			OrgID:              org.OrgID,
			Name:               "atlas",
			OwnershipModel:     "open",
			ConsensusThreshold: 0.66,
			MinReviews:         2,
			HumanReviewWeight:  2,
			Stage:              "growth",
		}
		for _, repo := range []*model.Repo{&soloRepo, &openRepo} {
			if err := db.Create(repo).Error; err != nil {
				return errs.Wrap(err, "seed repos")
			}
		}

		maintainers := []model.Maintainer{
			{RepoID: soloRepo.RepoID, AgentID: agents[0].AgentID, Role: "owner"},
			{RepoID: openRepo.RepoID, AgentID: agents[0].AgentID, Role: "owner"},
			{RepoID: openRepo.RepoID, AgentID: agents[3].AgentID, Role: "maintainer"},
		}
		for i := range maintainers {
			if err := db.Create(&maintainers[i]).Error; err != nil {
				return errs.Wrap(err, "seed maintainers")
			}
		}

		rules := []model.BranchRule{
			{RepoID: openRepo.RepoID, BranchPattern: "main", Priority: 10, DirectPush: "none", RequiredApprovals: 2, RequireTestsPass: true},
			{RepoID: openRepo.RepoID, BranchPattern: "release-*", Priority: 5, DirectPush: "maintainers", RequiredApprovals: 1},
			{RepoID: openRepo.RepoID, BranchPattern: "*", Priority: 0, DirectPush: "all"},
		}
		for i := range rules {
			if err := db.Create(&rules[i]).Error; err != nil {
				return errs.Wrap(err, "seed branch rules")
			}
		}

		now := time.Now().UTC()
		patch := model.Patch{RepoID: openRepo.RepoID, AuthorID: agents[1].AgentID, Status: "open", CreatedAt: now}
		if err := db.Create(&patch).Error; err != nil {
			return errs.Wrap(err, "seed patch")
		}

		reviewerA := agents[0].AgentID
		reviewerB := agents[3].AgentID
		reviews := []model.Review{
			{PatchID: patch.PatchID, ReviewerID: &reviewerA, IsHuman: true, IsMaintainer: true, Verdict: "approve"},
			{PatchID: patch.PatchID, ReviewerID: &reviewerB, IsMaintainer: true, Verdict: "approve", KarmaSnapshot: karma("900")},
		}
		for i := range reviews {
			if err := db.Create(&reviews[i]).Error; err != nil {
				return errs.Wrap(err, "seed reviews")
			}
		}

		logging.Info(ctx, "seed finished",
			slog.Uint64("org_id", org.OrgID),
			slog.Uint64("solo_repo_id", soloRepo.RepoID),
			slog.Uint64("open_repo_id", openRepo.RepoID),
		)
		_, err := fmt.Fprintf(cmd.OutOrStdout(),
			"seeded: org=%d repos=[%d %d] agents=%d patch=%d\n",
			org.OrgID, soloRepo.RepoID, openRepo.RepoID, len(agents), patch.PatchID)
		return errs.Wrap(err, "write seed output")
	}),
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
