package orchestrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/p-blackswan/ksync/internal/version"
)

func TestSummary_ExitStatus_SuccessWhenEmpty(t *testing.T) {
	s := &Summary{Written: 3}
	assert.Equal(t, ExitSuccess, s.ExitStatus())
}

func TestSummary_ExitStatus_WarningOnSkip(t *testing.T) {
	s := &Summary{Skipped: []SkipRecord{{Space: "default", Family: version.FamilyAgents, Reason: "too old"}}}
	assert.Equal(t, ExitWarning, s.ExitStatus())
}

func TestSummary_ExitStatus_WarningOnForced(t *testing.T) {
	s := &Summary{ForcedWarnings: []ForcedWarning{{Space: "default", Message: "forced"}}}
	assert.Equal(t, ExitWarning, s.ExitStatus())
}

func TestSummary_ExitStatus_FatalBeatsWarning(t *testing.T) {
	s := &Summary{
		Skipped:    []SkipRecord{{Space: "default", Family: version.FamilyAgents, Reason: "too old"}},
		ItemErrors: []error{errors.New("boom")},
	}
	assert.Equal(t, ExitFatal, s.ExitStatus())
}

func TestSummary_String_IncludesCounts(t *testing.T) {
	s := &Summary{
		Written:        2,
		Skipped:        []SkipRecord{{Space: "default", Family: version.FamilyWorkflows, Reason: "too old"}},
		ForcedWarnings: []ForcedWarning{{Space: "default", Family: version.FamilyTools, Message: "bypassed"}},
		ItemErrors:     []error{errors.New("fetch failed")},
	}
	out := s.String()
	assert.Contains(t, out, "2 written")
	assert.Contains(t, out, "1 skipped")
	assert.Contains(t, out, "1 forced warning")
	assert.Contains(t, out, "1 item failure")
	assert.Contains(t, out, "fetch failed")
}
