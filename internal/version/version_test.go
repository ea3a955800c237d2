package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PlainTriple(t *testing.T) {
	v, err := Parse("8.5.0")
	require.NoError(t, err)
	assert.Equal(t, ServerVersion{Major: 8, Minor: 5, Patch: 0, Raw: "8.5.0"}, v)
}

func TestParse_SnapshotLabel(t *testing.T) {
	v, err := Parse("9.3.0-SNAPSHOT")
	require.NoError(t, err)
	assert.Equal(t, 9, v.Major)
	assert.Equal(t, 3, v.Minor)
	assert.Equal(t, 0, v.Patch)
}

func TestParse_BuildMetadata(t *testing.T) {
	v, err := Parse("9.3.0+build.42")
	require.NoError(t, err)
	assert.Equal(t, 9, v.Major)
	assert.Equal(t, 3, v.Minor)
	assert.Equal(t, 0, v.Patch)
}

func TestParse_NoNumbers(t *testing.T) {
	_, err := Parse("not-a-version")
	require.Error(t, err)
}

func TestGE(t *testing.T) {
	v920 := mustParse("9.2.0")
	v9299 := mustParse("9.2.99")
	v930 := mustParse("9.3.0")
	v817 := mustParse("8.17.3")

	assert.True(t, v9299.GE(v920))
	assert.True(t, v930.GE(v920))
	assert.False(t, v920.GE(v930))
	assert.False(t, v817.GE(v920))
}

func TestIsSupported_Gating(t *testing.T) {
	cases := []struct {
		family   Family
		version  string
		expected bool
	}{
		{FamilySpaces, "8.17.3", true},
		{FamilySavedObjects, "8.0.0", true},
		{FamilyAgents, "9.1.0", false},
		{FamilyAgents, "9.2.0", true},
		{FamilyTools, "9.2.99", true},
		{FamilyWorkflows, "9.2.99", false},
		{FamilyWorkflows, "9.3.0", true},
	}
	for _, c := range cases {
		v, err := Parse(c.version)
		require.NoError(t, err)
		assert.Equal(t, c.expected, IsSupported(c.family, v), "%s @ %s", c.family, c.version)
	}
}

func TestProfileFor(t *testing.T) {
	v921, _ := Parse("9.2.1")
	v930, _ := Parse("9.3.0")
	assert.Equal(t, ProfileTechPreview, ProfileFor(FamilyAgents, v921))
	assert.Equal(t, ProfileGA, ProfileFor(FamilyAgents, v930))
}

func TestIsPushCompatible(t *testing.T) {
	cases := []struct {
		recorded, current string
		expected          bool
	}{
		{"9.3.2", "9.2.7", false}, // S3: minor regression blocks
		{"9.2.0", "9.3.0", true},  // minor upgrade ok
		{"9.2.0", "10.0.0", false}, // major mismatch blocks
		{"9.2.5", "9.2.0", true},  // patch-only difference ok either direction
	}
	for _, c := range cases {
		r, _ := Parse(c.recorded)
		cur, _ := Parse(c.current)
		assert.Equal(t, c.expected, IsPushCompatible(r, cur), "recorded=%s current=%s", c.recorded, c.current)
	}
}

func TestUnsupportedReason_MentionsBothVersions(t *testing.T) {
	v, _ := Parse("8.5.0")
	reason := UnsupportedReason(FamilyWorkflows, v)
	assert.Contains(t, reason, "9.3.0")
	assert.Contains(t, reason, "8.5.0")
}
