package governance

// CouncilStatus is derived, never set by clients: a council with enough
// members is active, otherwise it is forming.
type CouncilStatus string

const (
	CouncilForming CouncilStatus = "forming"
	CouncilActive  CouncilStatus = "active"
)

// DeriveCouncilStatus is the single source of truth for council status.
// Recomputed after every membership change.
func DeriveCouncilStatus(memberCount int, minMembers int) CouncilStatus {
	if memberCount >= minMembers {
		return CouncilActive
	}
	return CouncilForming
}

// CouncilMemberRole distinguishes the chair from ordinary members.
type CouncilMemberRole string

const (
	CouncilRoleChair  CouncilMemberRole = "chair"
	CouncilRoleMember CouncilMemberRole = "member"
)

// EligibilityReason is the first failing eligibility check, in order.
type EligibilityReason string

const (
	EligibilityOK                EligibilityReason = ""
	EligibilityNoCouncil         EligibilityReason = "no_council"
	EligibilityAgentNotFound     EligibilityReason = "agent_not_found"
	EligibilityKarmaTooLow       EligibilityReason = "karma_below_minimum"
	EligibilityNotEnoughActivity EligibilityReason = "contributions_below_minimum"
	EligibilityAlreadyMember     EligibilityReason = "already_member"
	EligibilityCouncilFull       EligibilityReason = "council_full"
)

// ProposalStatus lifecycle: open is the only non-terminal state.
type ProposalStatus string

const (
	ProposalOpen     ProposalStatus = "open"
	ProposalPassed   ProposalStatus = "passed"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExpired  ProposalStatus = "expired"
)

func (s ProposalStatus) Terminal() bool {
	return s != ProposalOpen
}

// VoteChoice on a proposal.
type VoteChoice string

const (
	VoteFor     VoteChoice = "for"
	VoteAgainst VoteChoice = "against"
)

func IsVoteChoice(raw string) bool {
	return VoteChoice(raw) == VoteFor || VoteChoice(raw) == VoteAgainst
}
