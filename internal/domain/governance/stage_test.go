package governance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextStage(t *testing.T) {
	require.Equal(t, StageGrowth, NextStage(StageSeed))
	require.Equal(t, StageEstablished, NextStage(StageGrowth))
	require.Equal(t, StageMature, NextStage(StageEstablished))
	require.Equal(t, Stage(""), NextStage(StageMature))
}

func TestParseStage(t *testing.T) {
	stage, err := ParseStage("growth")
	require.NoError(t, err)
	require.Equal(t, StageGrowth, stage)

	_, err = ParseStage("galactic")
	require.Error(t, err)
}

func TestUnmetRequirementsCollectsAllFailures(t *testing.T) {
	unmet := UnmetRequirements(StageMature, StageMetrics{
		ContributorCount: 1,
		PatchCount:       1,
		MaintainerCount:  0,
		CouncilActive:    false,
	})
	require.Len(t, unmet, 4)

	unmet = UnmetRequirements(StageMature, StageMetrics{
		ContributorCount: 10,
		PatchCount:       100,
		MaintainerCount:  3,
		CouncilActive:    true,
	})
	require.Empty(t, unmet)

	// Seed has no entry requirements.
	require.Empty(t, UnmetRequirements(StageSeed, StageMetrics{}))
}

func TestDeriveCouncilStatus(t *testing.T) {
	require.Equal(t, CouncilForming, DeriveCouncilStatus(2, 3))
	require.Equal(t, CouncilActive, DeriveCouncilStatus(3, 3))
	require.Equal(t, CouncilActive, DeriveCouncilStatus(5, 3))
}
