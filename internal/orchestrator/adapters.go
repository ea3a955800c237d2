package orchestrator

import (
	"github.com/p-blackswan/ksync/internal/family"
	"github.com/p-blackswan/ksync/internal/httpclient"
	"github.com/p-blackswan/ksync/internal/version"
)

// buildAdapter returns the per-item family's Extractor/Loader pair for
// both directions (spec §4.5, §9: "trait objects for pipeline stages"),
// pairing the HTTP-backed family package implementation with the
// filesystem-backed disk implementation. Not used for saved_objects
// (bespoke bulk Export/Import) or spaces (single-record-per-space, no
// manifest list — see pullSpaceDefinition/readSpaceDefinitionFile).
func buildAdapter(root, spaceID string, fam version.Family, sp *httpclient.SpaceClient) *family.Adapter {
	disk := &diskItemExtractor{Root: root, SpaceID: spaceID, Family: fam}
	diskWriter := &diskItemLoader{Root: root, SpaceID: spaceID, Family: fam}

	switch fam {
	case version.FamilyWorkflows:
		return &family.Adapter{
			Family:        fam,
			PullExtractor: &family.WorkflowExtractor{Space: sp},
			PullLoader:    diskWriter,
			PushExtractor: disk,
			PushLoader:    &family.WorkflowLoader{Space: sp},
		}
	case version.FamilyAgents:
		return &family.Adapter{
			Family:        fam,
			PullExtractor: &family.AgentExtractor{Space: sp},
			PullLoader:    diskWriter,
			PushExtractor: disk,
			PushLoader:    &family.AgentLoader{Space: sp},
		}
	case version.FamilyTools:
		return &family.Adapter{
			Family:        fam,
			PullExtractor: &family.ToolExtractor{Space: sp},
			PullLoader:    diskWriter,
			PushExtractor: disk,
			PushLoader:    &family.ToolLoader{Space: sp},
		}
	default:
		return nil
	}
}
