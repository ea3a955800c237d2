package orchestrator

import (
	"fmt"

	"github.com/p-blackswan/ksync/internal/version"
)

// SkipRecord is one family skipped during preflight because the detected
// server version does not meet its minimum (spec §4.7: "a structured skip
// record is appended to the command summary").
type SkipRecord struct {
	Space  string
	Family version.Family
	Reason string
}

// ForcedWarning is a high-visibility warning emitted when --force bypasses
// a gate that would otherwise have skipped or aborted the command.
type ForcedWarning struct {
	Space   string
	Family  version.Family
	Message string
}

// Summary is the command-end report every orchestrator entry point
// returns: counts by outcome, skipped families, forced-bypass warnings,
// and the collected item failures (spec §7: "a command-end summary
// reports counts by outcome and the list of skipped families with their
// required-vs-detected versions").
type Summary struct {
	Written        int
	Skipped        []SkipRecord
	ForcedWarnings []ForcedWarning
	ItemErrors     []error
}

// ExitStatus implements the three-way policy of spec §4.7/§6: fatal beats
// warning beats success.
func (s *Summary) ExitStatus() ExitStatus {
	switch {
	case len(s.ItemErrors) > 0:
		return ExitFatal
	case len(s.Skipped) > 0 || len(s.ForcedWarnings) > 0:
		return ExitWarning
	default:
		return ExitSuccess
	}
}

// String renders a human-readable command-end summary line.
func (s *Summary) String() string {
	msg := fmt.Sprintf("%s: %d written, %d skipped, %d forced warning(s), %d item failure(s)",
		s.ExitStatus(), s.Written, len(s.Skipped), len(s.ForcedWarnings), len(s.ItemErrors))
	for _, sk := range s.Skipped {
		msg += fmt.Sprintf("\n  skip: space=%s family=%s: %s", sk.Space, sk.Family, sk.Reason)
	}
	for _, w := range s.ForcedWarnings {
		msg += fmt.Sprintf("\n  forced: space=%s family=%s: %s", w.Space, w.Family, w.Message)
	}
	for _, e := range s.ItemErrors {
		msg += fmt.Sprintf("\n  error: %v", e)
	}
	return msg
}
