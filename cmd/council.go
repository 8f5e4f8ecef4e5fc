package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"govcore/internal/bootstrap"
	"govcore/internal/bootstrap/logging"
	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/usecase/council"
)

var councilCmd = &cobra.Command{
	Use:   "council",
	Short: "Manage repo councils, membership and proposals",
}

var councilCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a council for a repo",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		repoID, _ := cmd.Flags().GetUint64("repo")
		minKarma, _ := cmd.Flags().GetInt64("min-karma")
		minContributions, _ := cmd.Flags().GetInt("min-contributions")
		minMembers, _ := cmd.Flags().GetInt("min-members")
		maxMembers, _ := cmd.Flags().GetInt("max-members")
		standardQuorum, _ := cmd.Flags().GetInt("standard-quorum")
		criticalQuorum, _ := cmd.Flags().GetInt("critical-quorum")

		created, err := svc.Council.CreateCouncil(ctx, council.CreateCouncilInput{
			RepoID:           repoID,
			MinKarma:         minKarma,
			MinContributions: minContributions,
			MinMembers:       minMembers,
			MaxMembers:       maxMembers,
			StandardQuorum:   standardQuorum,
			CriticalQuorum:   criticalQuorum,
		})
		if err != nil {
			logging.Error(ctx, "create council failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create council")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "created council: id=%d repo=%d status=%s\n",
			created.CouncilID, created.RepoID, created.Status)
		return errs.Wrap(err, "write create output")
	}),
}

var councilShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a council and its members",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		councilID, _ := cmd.Flags().GetUint64("council")
		detail, err := svc.Council.GetCouncil(ctx, councilID)
		if err != nil {
			logging.Error(ctx, "show council failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show council")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "council: id=%d repo=%d status=%s members=%d/%d\n",
			detail.Council.CouncilID, detail.Council.RepoID, detail.Council.Status,
			len(detail.Members), detail.Council.MaxMembers); err != nil {
			return errs.Wrap(err, "write council output")
		}
		for _, member := range detail.Members {
			term := "-"
			if member.TermExpiresAt != nil {
				term = member.TermExpiresAt.Format("2006-01-02")
			}
			if _, err := fmt.Fprintf(out, "  member: agent=%d role=%s term_expires=%s\n",
				member.AgentID, member.Role, term); err != nil {
				return errs.Wrap(err, "write member output")
			}
		}
		return nil
	}),
}

var councilAddMemberCmd = &cobra.Command{
	Use:   "add-member",
	Short: "Add an agent to a council",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		councilID, _ := cmd.Flags().GetUint64("council")
		agentID, _ := cmd.Flags().GetUint64("agent")
		role, _ := cmd.Flags().GetString("role")

		updated, err := svc.Council.AddMember(ctx, council.AddMemberInput{
			CouncilID: councilID,
			AgentID:   agentID,
			Role:      governance.CouncilMemberRole(role),
		})
		if err != nil {
			logging.Error(ctx, "add council member failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "add council member")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "added member: council=%d agent=%d status=%s\n",
			councilID, agentID, updated.Status)
		return errs.Wrap(err, "write add-member output")
	}),
}

var councilRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member",
	Short: "Remove an agent from a council",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		councilID, _ := cmd.Flags().GetUint64("council")
		agentID, _ := cmd.Flags().GetUint64("agent")

		updated, err := svc.Council.RemoveMember(ctx, councilID, agentID)
		if err != nil {
			logging.Error(ctx, "remove council member failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "remove council member")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed member: council=%d agent=%d status=%s\n",
			councilID, agentID, updated.Status)
		return errs.Wrap(err, "write remove-member output")
	}),
}

var councilEligibilityCmd = &cobra.Command{
	Use:   "eligibility",
	Short: "Check whether an agent is eligible to join a repo's council",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		repoID, _ := cmd.Flags().GetUint64("repo")
		agentID, _ := cmd.Flags().GetUint64("agent")

		eligibility, err := svc.Council.CheckEligibility(ctx, agentID, repoID)
		if err != nil {
			logging.Error(ctx, "eligibility check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "check eligibility")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "eligibility: agent=%d repo=%d eligible=%t reason=%s\n",
			agentID, repoID, eligibility.Eligible, eligibility.Reason)
		return errs.Wrap(err, "write eligibility output")
	}),
}

var councilProposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Open a proposal from a JSON action envelope",
	Long:  `The action is the JSON envelope stored on proposals, e.g. '{"kind":"add_maintainer","payload":{"agent_id":7,"role":"maintainer"}}'.`,
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		councilID, _ := cmd.Flags().GetUint64("council")
		proposerID, _ := cmd.Flags().GetUint64("proposer")
		actionData, _ := cmd.Flags().GetString("action")
		expiresInDays, _ := cmd.Flags().GetInt("expires-in-days")

		action, err := governance.DecodeAction(strings.TrimSpace(actionData))
		if err != nil {
			return errs.Wrap(err, "parse action")
		}

		proposal, err := svc.Council.CreateProposal(ctx, council.CreateProposalInput{
			CouncilID:     councilID,
			ProposerID:    proposerID,
			Action:        action,
			ExpiresInDays: expiresInDays,
		})
		if err != nil {
			logging.Error(ctx, "create proposal failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create proposal")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "created proposal: id=%d kind=%s quorum=%d expires=%s\n",
			proposal.ProposalID, proposal.Kind, proposal.QuorumRequired,
			proposal.ExpiresAt.Format("2006-01-02 15:04"))
		return errs.Wrap(err, "write propose output")
	}),
}

var councilVoteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote on an open proposal",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		proposalID, _ := cmd.Flags().GetUint64("proposal")
		agentID, _ := cmd.Flags().GetUint64("agent")
		choice, _ := cmd.Flags().GetString("choice")
		comment, _ := cmd.Flags().GetString("comment")

		outcome, err := svc.Council.Vote(ctx, council.VoteInput{
			ProposalID: proposalID,
			AgentID:    agentID,
			Choice:     governance.VoteChoice(choice),
			Comment:    comment,
		})
		if err != nil {
			logging.Error(ctx, "proposal vote failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "vote on proposal")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "voted: proposal=%d status=%s for=%d against=%d\n",
			proposalID, outcome.Proposal.Status, outcome.Proposal.VotesFor, outcome.Proposal.VotesAgainst); err != nil {
			return errs.Wrap(err, "write vote output")
		}
		if outcome.Execution != nil {
			if _, err := fmt.Fprintf(out, "executed: action=%s detail=%s\n",
				outcome.Execution.Action, outcome.Execution.Detail); err != nil {
				return errs.Wrap(err, "write execution output")
			}
		}
		return nil
	}),
}

var councilExpireCmd = &cobra.Command{
	Use:   "expire-proposals",
	Short: "Resolve open proposals whose voting window has closed",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		councilID, _ := cmd.Flags().GetUint64("council")
		expired, err := svc.Council.ExpireOpenProposals(ctx, councilID)
		if err != nil {
			logging.Error(ctx, "expire proposals failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "expire proposals")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "expired proposals: council=%d count=%d\n",
			councilID, len(expired))
		return errs.Wrap(err, "write expire output")
	}),
}

func init() {
	councilCreateCmd.Flags().Uint64("repo", 0, "Repo id")
	councilCreateCmd.Flags().Int64("min-karma", 100, "Minimum karma to join")
	councilCreateCmd.Flags().Int("min-contributions", 5, "Minimum merged contributions to join")
	councilCreateCmd.Flags().Int("min-members", 3, "Members needed for the council to activate")
	councilCreateCmd.Flags().Int("max-members", 9, "Member capacity")
	councilCreateCmd.Flags().Int("standard-quorum", 3, "Votes needed on standard proposals")
	councilCreateCmd.Flags().Int("critical-quorum", 5, "Votes needed on critical proposals")
	_ = councilCreateCmd.MarkFlagRequired("repo")

	councilShowCmd.Flags().Uint64("council", 0, "Council id")
	_ = councilShowCmd.MarkFlagRequired("council")

	councilAddMemberCmd.Flags().Uint64("council", 0, "Council id")
	councilAddMemberCmd.Flags().Uint64("agent", 0, "Agent id")
	councilAddMemberCmd.Flags().String("role", "member", "Member role: chair or member")
	_ = councilAddMemberCmd.MarkFlagRequired("council")
	_ = councilAddMemberCmd.MarkFlagRequired("agent")

	councilRemoveMemberCmd.Flags().Uint64("council", 0, "Council id")
	councilRemoveMemberCmd.Flags().Uint64("agent", 0, "Agent id")
	_ = councilRemoveMemberCmd.MarkFlagRequired("council")
	_ = councilRemoveMemberCmd.MarkFlagRequired("agent")

	councilEligibilityCmd.Flags().Uint64("repo", 0, "Repo id")
	councilEligibilityCmd.Flags().Uint64("agent", 0, "Agent id")
	_ = councilEligibilityCmd.MarkFlagRequired("repo")
	_ = councilEligibilityCmd.MarkFlagRequired("agent")

	councilProposeCmd.Flags().Uint64("council", 0, "Council id")
	councilProposeCmd.Flags().Uint64("proposer", 0, "Proposing member's agent id")
	councilProposeCmd.Flags().String("action", "", "Action envelope JSON")
	councilProposeCmd.Flags().Int("expires-in-days", 0, "Override the voting window (0 = config default)")
	_ = councilProposeCmd.MarkFlagRequired("council")
	_ = councilProposeCmd.MarkFlagRequired("proposer")
	_ = councilProposeCmd.MarkFlagRequired("action")

	councilVoteCmd.Flags().Uint64("proposal", 0, "Proposal id")
	councilVoteCmd.Flags().Uint64("agent", 0, "Voting member's agent id")
	councilVoteCmd.Flags().String("choice", "", "Vote choice: for or against")
	councilVoteCmd.Flags().String("comment", "", "Optional comment")
	_ = councilVoteCmd.MarkFlagRequired("proposal")
	_ = councilVoteCmd.MarkFlagRequired("agent")
	_ = councilVoteCmd.MarkFlagRequired("choice")

	councilExpireCmd.Flags().Uint64("council", 0, "Council id")
	_ = councilExpireCmd.MarkFlagRequired("council")

	councilCmd.AddCommand(councilCreateCmd)
	councilCmd.AddCommand(councilShowCmd)
	councilCmd.AddCommand(councilAddMemberCmd)
	councilCmd.AddCommand(councilRemoveMemberCmd)
	councilCmd.AddCommand(councilEligibilityCmd)
	councilCmd.AddCommand(councilProposeCmd)
	councilCmd.AddCommand(councilVoteCmd)
	councilCmd.AddCommand(councilExpireCmd)
	rootCmd.AddCommand(councilCmd)
}
