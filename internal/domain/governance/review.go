package governance

import "math"

// Verdict is a review outcome. request_changes counts against consensus,
// comment is neutral.
type Verdict string

const (
	VerdictApprove        Verdict = "approve"
	VerdictRequestChanges Verdict = "request_changes"
	VerdictComment        Verdict = "comment"
)

// AgentReviewWeight is the weight of an agent review under the open
// ownership model: sqrt(karma+1), so reputation helps with diminishing
// returns and a zero-karma agent still carries weight 1.
func AgentReviewWeight(karmaSnapshot int64) float64 {
	if karmaSnapshot < 0 {
		karmaSnapshot = 0
	}
	return math.Sqrt(float64(karmaSnapshot) + 1)
}

// ConsensusReason explains a consensus check outcome.
type ConsensusReason string

const (
	ConsensusOwnerApproved       ConsensusReason = "owner_approved"
	ConsensusAwaitingOwner       ConsensusReason = "awaiting_owner"
	ConsensusInsufficientReviews ConsensusReason = "insufficient_reviews"
	ConsensusThresholdMet        ConsensusReason = "threshold_met"
	ConsensusThresholdNotMet     ConsensusReason = "threshold_not_met"
)
