package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"govcore/internal/bootstrap"
	"govcore/internal/bootstrap/logging"
	"govcore/internal/errs"
	"govcore/internal/usecase/election"
)

var electionCmd = &cobra.Command{
	Use:   "election",
	Short: "Run council elections",
}

var electionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Open nominations for council seats",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		councilID, _ := cmd.Flags().GetUint64("council")
		seats, _ := cmd.Flags().GetInt("seats")

		created, err := svc.Election.StartElection(ctx, election.StartElectionInput{
			CouncilID:      councilID,
			SeatsAvailable: seats,
		})
		if err != nil {
			logging.Error(ctx, "start election failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start election")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "started election: id=%d council=%d seats=%d nominations_close=%s\n",
			created.ElectionID, created.CouncilID, created.SeatsAvailable,
			created.NominationsCloseAt.Format("2006-01-02 15:04"))
		return errs.Wrap(err, "write start output")
	}),
}

var electionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show an election and its candidates",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		electionID, _ := cmd.Flags().GetUint64("election")
		detail, err := svc.Election.GetElection(ctx, electionID)
		if err != nil {
			logging.Error(ctx, "show election failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show election")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "election: id=%d council=%d status=%s seats=%d\n",
			detail.Election.ElectionID, detail.Election.CouncilID,
			detail.Election.Status, detail.Election.SeatsAvailable); err != nil {
			return errs.Wrap(err, "write election output")
		}
		for _, candidate := range detail.Candidates {
			if _, err := fmt.Fprintf(out, "  candidate: agent=%d status=%s votes=%d\n",
				candidate.AgentID, candidate.Status, candidate.VoteCount); err != nil {
				return errs.Wrap(err, "write candidate output")
			}
		}
		return nil
	}),
}

var electionNominateCmd = &cobra.Command{
	Use:   "nominate",
	Short: "Nominate an eligible agent as a candidate",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		electionID, _ := cmd.Flags().GetUint64("election")
		agentID, _ := cmd.Flags().GetUint64("agent")
		nominatorID, _ := cmd.Flags().GetUint64("nominator")
		statement, _ := cmd.Flags().GetString("statement")

		candidate, err := svc.Election.NominateCandidate(ctx, election.NominateInput{
			ElectionID:  electionID,
			AgentID:     agentID,
			NominatorID: nominatorID,
			Statement:   statement,
		})
		if err != nil {
			logging.Error(ctx, "nominate candidate failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "nominate candidate")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "nominated: candidate=%d election=%d agent=%d\n",
			candidate.CandidateID, electionID, agentID)
		return errs.Wrap(err, "write nominate output")
	}),
}

var electionAcceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Accept a nomination",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		electionID, _ := cmd.Flags().GetUint64("election")
		agentID, _ := cmd.Flags().GetUint64("agent")

		if err := svc.Election.AcceptNomination(ctx, electionID, agentID); err != nil {
			logging.Error(ctx, "accept nomination failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "accept nomination")
		}

		_, err := fmt.Fprintf(cmd.OutOrStdout(), "accepted: election=%d agent=%d\n", electionID, agentID)
		return errs.Wrap(err, "write accept output")
	}),
}

var electionWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw a candidacy",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		electionID, _ := cmd.Flags().GetUint64("election")
		agentID, _ := cmd.Flags().GetUint64("agent")

		if err := svc.Election.WithdrawCandidacy(ctx, electionID, agentID); err != nil {
			logging.Error(ctx, "withdraw candidacy failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "withdraw candidacy")
		}

		_, err := fmt.Fprintf(cmd.OutOrStdout(), "withdrawn: election=%d agent=%d\n", electionID, agentID)
		return errs.Wrap(err, "write withdraw output")
	}),
}

var electionOpenVotingCmd = &cobra.Command{
	Use:   "open-voting",
	Short: "Close nominations and open voting",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		electionID, _ := cmd.Flags().GetUint64("election")
		updated, err := svc.Election.StartVoting(ctx, electionID)
		if err != nil {
			logging.Error(ctx, "open voting failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "open voting")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "voting open: election=%d voting_close=%s\n",
			electionID, updated.VotingCloseAt.Format("2006-01-02 15:04"))
		return errs.Wrap(err, "write open-voting output")
	}),
}

var electionVoteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast a council member's ballot",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		electionID, _ := cmd.Flags().GetUint64("election")
		voterID, _ := cmd.Flags().GetUint64("voter")
		candidateID, _ := cmd.Flags().GetUint64("candidate")

		if err := svc.Election.CastVote(ctx, election.CastVoteInput{
			ElectionID:  electionID,
			VoterID:     voterID,
			CandidateID: candidateID,
		}); err != nil {
			logging.Error(ctx, "cast ballot failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "cast ballot")
		}

		_, err := fmt.Fprintf(cmd.OutOrStdout(), "ballot cast: election=%d voter=%d candidate=%d\n",
			electionID, voterID, candidateID)
		return errs.Wrap(err, "write vote output")
	}),
}

var electionCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Tally ballots and seat the winners",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		electionID, _ := cmd.Flags().GetUint64("election")
		result, err := svc.Election.CompleteElection(ctx, electionID)
		if err != nil {
			logging.Error(ctx, "complete election failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "complete election")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "election completed: id=%d elected=%d\n",
			electionID, len(result.Elected)); err != nil {
			return errs.Wrap(err, "write complete output")
		}
		for _, candidate := range result.Elected {
			if _, err := fmt.Fprintf(out, "  elected: agent=%d votes=%d\n",
				candidate.AgentID, candidate.VoteCount); err != nil {
				return errs.Wrap(err, "write elected output")
			}
		}
		return nil
	}),
}

var electionExpireTermsCmd = &cobra.Command{
	Use:   "expire-terms",
	Short: "Remove council members whose elected term has lapsed",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		councilID, _ := cmd.Flags().GetUint64("council")
		removed, err := svc.Election.CheckExpiredTerms(ctx, councilID)
		if err != nil {
			logging.Error(ctx, "expire terms failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "expire terms")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "expired terms: council=%d removed=%d\n",
			councilID, len(removed))
		return errs.Wrap(err, "write expire-terms output")
	}),
}

func init() {
	electionStartCmd.Flags().Uint64("council", 0, "Council id")
	electionStartCmd.Flags().Int("seats", 1, "Seats to fill")
	_ = electionStartCmd.MarkFlagRequired("council")

	electionShowCmd.Flags().Uint64("election", 0, "Election id")
	_ = electionShowCmd.MarkFlagRequired("election")

	electionNominateCmd.Flags().Uint64("election", 0, "Election id")
	electionNominateCmd.Flags().Uint64("agent", 0, "Nominee agent id")
	electionNominateCmd.Flags().Uint64("nominator", 0, "Nominator agent id")
	electionNominateCmd.Flags().String("statement", "", "Candidate statement")
	_ = electionNominateCmd.MarkFlagRequired("election")
	_ = electionNominateCmd.MarkFlagRequired("agent")
	_ = electionNominateCmd.MarkFlagRequired("nominator")

	electionAcceptCmd.Flags().Uint64("election", 0, "Election id")
	electionAcceptCmd.Flags().Uint64("agent", 0, "Candidate agent id")
	_ = electionAcceptCmd.MarkFlagRequired("election")
	_ = electionAcceptCmd.MarkFlagRequired("agent")

	electionWithdrawCmd.Flags().Uint64("election", 0, "Election id")
	electionWithdrawCmd.Flags().Uint64("agent", 0, "Candidate agent id")
	_ = electionWithdrawCmd.MarkFlagRequired("election")
	_ = electionWithdrawCmd.MarkFlagRequired("agent")

	electionOpenVotingCmd.Flags().Uint64("election", 0, "Election id")
	_ = electionOpenVotingCmd.MarkFlagRequired("election")

	electionVoteCmd.Flags().Uint64("election", 0, "Election id")
	electionVoteCmd.Flags().Uint64("voter", 0, "Voting member's agent id")
	electionVoteCmd.Flags().Uint64("candidate", 0, "Candidate id")
	_ = electionVoteCmd.MarkFlagRequired("election")
	_ = electionVoteCmd.MarkFlagRequired("voter")
	_ = electionVoteCmd.MarkFlagRequired("candidate")

	electionCompleteCmd.Flags().Uint64("election", 0, "Election id")
	_ = electionCompleteCmd.MarkFlagRequired("election")

	electionExpireTermsCmd.Flags().Uint64("council", 0, "Council id")
	_ = electionExpireTermsCmd.MarkFlagRequired("council")

	electionCmd.AddCommand(electionStartCmd)
	electionCmd.AddCommand(electionShowCmd)
	electionCmd.AddCommand(electionNominateCmd)
	electionCmd.AddCommand(electionAcceptCmd)
	electionCmd.AddCommand(electionWithdrawCmd)
	electionCmd.AddCommand(electionOpenVotingCmd)
	electionCmd.AddCommand(electionVoteCmd)
	electionCmd.AddCommand(electionCompleteCmd)
	electionCmd.AddCommand(electionExpireTermsCmd)
	rootCmd.AddCommand(electionCmd)
}
