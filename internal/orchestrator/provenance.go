package orchestrator

import (
	"fmt"

	"github.com/p-blackswan/ksync/internal/manifest"
)

// recordVersion writes the detected Server version into the root
// spaces.yml's kibana.version field, preserving every other entry (spec
// §4.7, §8 property 5). Called once after every pull task completes —
// never mid-pull, so a cancelled pull never records provenance for work
// it didn't finish.
func (o *Orchestrator) recordVersion() error {
	f, err := manifest.LoadSpacesFile(o.root)
	if err != nil {
		return fmt.Errorf("loading spaces.yml for version provenance: %w", err)
	}
	f.RecordVersion(o.client.Version())
	if err := manifest.SaveSpacesFile(o.root, f); err != nil {
		return fmt.Errorf("recording server version in spaces.yml: %w", err)
	}
	return nil
}
