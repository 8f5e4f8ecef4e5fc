package governance

import "fmt"

// Stage is a repo maturity tier. Ordered seed < growth < established < mature.
type Stage string

const (
	StageSeed        Stage = "seed"
	StageGrowth      Stage = "growth"
	StageEstablished Stage = "established"
	StageMature      Stage = "mature"
)

var stageOrder = []Stage{StageSeed, StageGrowth, StageEstablished, StageMature}

func ParseStage(raw string) (Stage, error) {
	for _, s := range stageOrder {
		if Stage(raw) == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid stage %q", raw)
}

// NextStage returns the stage after s, or "" when s is the top stage.
func NextStage(s Stage) Stage {
	for i, stage := range stageOrder {
		if stage == s && i+1 < len(stageOrder) {
			return stageOrder[i+1]
		}
	}
	return ""
}

// StageRequirements gate entry into a stage. Seed has none.
type StageRequirements struct {
	MinContributors int
	MinPatches      int
	MinMaintainers  int
	RequiresCouncil bool
}

var stageRequirements = map[Stage]StageRequirements{
	StageGrowth:      {MinContributors: 2, MinPatches: 5},
	StageEstablished: {MinContributors: 5, MinPatches: 25, MinMaintainers: 2},
	StageMature:      {MinContributors: 10, MinPatches: 100, MinMaintainers: 3, RequiresCouncil: true},
}

// RequirementsFor returns the entry requirements for a stage. The zero
// value (seed) has no requirements.
func RequirementsFor(s Stage) StageRequirements {
	return stageRequirements[s]
}

// StageMetrics are the observed aggregates a repo is judged against.
type StageMetrics struct {
	ContributorCount int
	PatchCount       int
	MaintainerCount  int
	CouncilActive    bool
}

// UnmetRequirements lists every requirement of target that metrics fail,
// not just the first one.
func UnmetRequirements(target Stage, m StageMetrics) []string {
	req := RequirementsFor(target)
	var unmet []string
	if m.ContributorCount < req.MinContributors {
		unmet = append(unmet, fmt.Sprintf("contributors %d/%d", m.ContributorCount, req.MinContributors))
	}
	if m.PatchCount < req.MinPatches {
		unmet = append(unmet, fmt.Sprintf("patches %d/%d", m.PatchCount, req.MinPatches))
	}
	if m.MaintainerCount < req.MinMaintainers {
		unmet = append(unmet, fmt.Sprintf("maintainers %d/%d", m.MaintainerCount, req.MinMaintainers))
	}
	if req.RequiresCouncil && !m.CouncilActive {
		unmet = append(unmet, "active council required")
	}
	return unmet
}
