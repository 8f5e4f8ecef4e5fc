package governance

// ElectionStatus is a linear lifecycle with no reversal.
type ElectionStatus string

const (
	ElectionNominations ElectionStatus = "nominations"
	ElectionVoting      ElectionStatus = "voting"
	ElectionCompleted   ElectionStatus = "completed"
)

// CandidateStatus lifecycle. elected/not_elected are assigned by
// election completion, the rest by the candidate or their nominator.
type CandidateStatus string

const (
	CandidateNominated  CandidateStatus = "nominated"
	CandidateAccepted   CandidateStatus = "accepted"
	CandidateWithdrawn  CandidateStatus = "withdrawn"
	CandidateElected    CandidateStatus = "elected"
	CandidateNotElected CandidateStatus = "not_elected"
)
