package governance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesBranchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		branch  string
		want    bool
	}{
		{"main", "main", true},
		{"main", "main2", false},
		{"*", "anything/at/all", true},
		{"release-*", "release-1.2", true},
		{"release-*", "release-", true},
		{"release-*", "releas", false},
		{"feature/*", "feature/login", true},
		{"feature/*", "featurette", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, MatchesBranchPattern(tc.pattern, tc.branch),
			"pattern=%q branch=%q", tc.pattern, tc.branch)
	}
}
