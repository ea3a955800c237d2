package orchestrator

import (
	"context"

	"github.com/p-blackswan/ksync/internal/codec"
)

// FetchSpaceDefinitions is the core's sole contribution to migrate (spec
// §4.7: "migrate... delegates to an external collaborator; the core only
// supplies space-definition fetch"). The external migration collaborator
// drives the legacy-layout discovery and rewrite; it calls back into this
// for the one piece that requires a live connection to the Server.
func (o *Orchestrator) FetchSpaceDefinitions(ctx context.Context, spaceIDs []string) (map[string]*codec.Object, error) {
	defs := make(map[string]*codec.Object, len(spaceIDs))
	for _, id := range spaceIDs {
		sp, err := o.client.Space(id)
		if err != nil {
			return nil, err
		}
		obj, err := pullSpaceDefinition(ctx, sp)
		if err != nil {
			return nil, err
		}
		defs[id] = obj
	}
	return defs, nil
}
