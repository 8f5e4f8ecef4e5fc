package ports

import (
	"context"
	"time"

	"govcore/internal/domain/governance"
)

// ActivityCounts is one aggregate view of repo activity. Two independent
// sources exist (patch rows and completed merges); they can lag each other.
type ActivityCounts struct {
	ContributorCount int
	PatchCount       int
}

// ActivityStore reads the activity aggregates behind stage metrics and
// council eligibility. All counts are coerced non-negative at this boundary.
type ActivityStore interface {
	PatchActivity(ctx context.Context, repoID uint64) (ActivityCounts, error)
	MergeActivity(ctx context.Context, repoID uint64) (ActivityCounts, error)
	// ContributionCount is the number of completed merges authored by the
	// agent in the repo.
	ContributionCount(ctx context.Context, repoID uint64, agentID uint64) (int, error)
}

type StageHistoryEntry struct {
	EntryID        uint64
	RepoID         uint64
	FromStage      governance.Stage
	ToStage        governance.Stage
	TransitionedAt time.Time
	Reason         string
	Forced         bool
}

// StageStore persists stage transitions and the append-only audit log.
type StageStore interface {
	UpdateRepoStage(ctx context.Context, repoID uint64, stage governance.Stage) error
	AppendHistory(ctx context.Context, entry StageHistoryEntry) error
	ListHistory(ctx context.Context, repoID uint64) ([]StageHistoryEntry, error)
}
