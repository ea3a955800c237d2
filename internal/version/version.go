// Package version parses the Server's advertised version and answers
// per-family support and request-profile queries against a static
// capability matrix (spec §4.2).
package version

import (
	"fmt"
	"regexp"
	"strconv"
)

// ServerVersion is a defensively-parsed (major, minor, patch) triple.
// Build metadata and pre-release labels (SNAPSHOT, +build.N, ...) are
// discarded.
type ServerVersion struct {
	Major, Minor, Patch int
	Raw                 string
}

func (v ServerVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// Parse extracts the first three dot-separated numeric components from an
// arbitrary version string, ignoring anything after (SNAPSHOT labels,
// build metadata, etc).
func Parse(raw string) (ServerVersion, error) {
	m := versionPattern.FindStringSubmatch(raw)
	if m == nil {
		return ServerVersion{}, fmt.Errorf("version: no dotted numeric triple found in %q", raw)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return ServerVersion{Major: major, Minor: minor, Patch: patch, Raw: raw}, nil
}

// GE reports whether v >= other, comparing (major, minor) only — patch is
// ignored for gating per spec §4.1 ("Version comparison ignores patch for
// gating >= min_version").
func (v ServerVersion) GE(other ServerVersion) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

// Family identifies one of the managed object categories.
type Family string

const (
	FamilySavedObjects Family = "saved_objects"
	FamilySpaces       Family = "spaces"
	FamilyWorkflows    Family = "workflows"
	FamilyAgents       Family = "agents"
	FamilyTools        Family = "tools"
)

// AllFamilies lists every known family in a stable order.
var AllFamilies = []Family{FamilySavedObjects, FamilySpaces, FamilyWorkflows, FamilyAgents, FamilyTools}

// Profile distinguishes the tech-preview request shape from the
// general-availability one.
type Profile string

const (
	ProfileTechPreview Profile = "tech_preview"
	ProfileGA          Profile = "ga"
)

// Thresholds holds the minimum-supported and GA version for one family.
type Thresholds struct {
	MinVersion ServerVersion
	GAVersion  ServerVersion
}

// CapabilityMatrix is the single authoritative table of per-family version
// thresholds, consulted from exactly the helpers in this file (spec §9:
// "capability matrix as data, not code").
var CapabilityMatrix = map[Family]Thresholds{
	FamilySpaces:       {MinVersion: mustParse("8.0.0"), GAVersion: mustParse("8.0.0")},
	FamilySavedObjects: {MinVersion: mustParse("8.0.0"), GAVersion: mustParse("8.0.0")},
	FamilyAgents:       {MinVersion: mustParse("9.2.0"), GAVersion: mustParse("9.3.0")},
	FamilyTools:        {MinVersion: mustParse("9.2.0"), GAVersion: mustParse("9.3.0")},
	FamilyWorkflows:    {MinVersion: mustParse("9.3.0"), GAVersion: mustParse("9.3.0")},
}

func mustParse(raw string) ServerVersion {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// IsSupported reports whether detected meets the family's minimum version.
// An unknown family is never supported.
func IsSupported(family Family, detected ServerVersion) bool {
	t, ok := CapabilityMatrix[family]
	if !ok {
		return false
	}
	return detected.GE(t.MinVersion)
}

// ProfileFor reports which request-profile band detected falls into for
// family. Callers should check IsSupported first; ProfileFor on an
// unsupported version still returns a best-guess profile so adapters have
// something to act on under --force.
func ProfileFor(family Family, detected ServerVersion) Profile {
	t, ok := CapabilityMatrix[family]
	if !ok {
		return ProfileTechPreview
	}
	if detected.GE(t.GAVersion) {
		return ProfileGA
	}
	return ProfileTechPreview
}

// UnsupportedReason renders a human-readable explanation for a skip/warning
// summary line.
func UnsupportedReason(family Family, detected ServerVersion) string {
	t, ok := CapabilityMatrix[family]
	if !ok {
		return fmt.Sprintf("family %q is unknown to this version of ksync", family)
	}
	return fmt.Sprintf("%s requires server >= %s, detected %s", family, t.MinVersion, detected)
}

// IsPushCompatible implements the push floor (spec §4.2, §8 property 6):
// the command may proceed iff major matches and current's minor is >=
// recorded's minor. Patch differences never matter.
func IsPushCompatible(recorded, current ServerVersion) bool {
	if recorded.Major != current.Major {
		return false
	}
	return current.Minor >= recorded.Minor
}
