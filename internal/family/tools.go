package family

import (
	"context"
	"net/http"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/httpclient"
)

const agentBuilderToolsPath = "/api/agent_builder/tools"

// ToolExtractor lists and fetches tools from the Server. Same shape as
// agents, but every request carries the internal-origin header (spec
// §4.5).
type ToolExtractor struct {
	Space *httpclient.SpaceClient
}

func (e *ToolExtractor) List(ctx context.Context) ([]string, error) {
	resp, err := e.Space.Request(ctx, http.MethodGet, agentBuilderToolsPath, nil, true)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &apperrors.HTTPError{Method: http.MethodGet, Path: agentBuilderToolsPath, Status: resp.Status, Body: string(resp.Body)}
	}
	var raw []struct {
		ID string `json:"id"`
	}
	if err := resp.JSON(&raw); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (e *ToolExtractor) Get(ctx context.Context, id string) (*codec.Object, error) {
	return getObject(ctx, e.Space, agentBuilderToolsPath+"/"+id, true)
}

// ToolLoader implements the CHECK→CREATE/UPDATE state machine for tools.
// Multi-line fields (esql/query) round-trip through the codec's triple-
// quote handling before this ever sees them; nothing tool-specific to do
// here beyond the shared readonly/schema/id stripping.
type ToolLoader struct {
	Space *httpclient.SpaceClient
}

func (l *ToolLoader) Sanitize(record *codec.Object) {
	stripFields(record, agentCreateStripFields)
}

func (l *ToolLoader) Exists(ctx context.Context, id string) (bool, error) {
	return headExists(ctx, l.Space, agentBuilderToolsPath+"/"+id, true)
}

func (l *ToolLoader) Create(ctx context.Context, id string, record *codec.Object) error {
	return createViaCollection(ctx, l.Space, agentBuilderToolsPath, record, true)
}

func (l *ToolLoader) Update(ctx context.Context, id string, record *codec.Object) error {
	forUpdate := record.Clone()
	stripFields(forUpdate, agentUpdateStripFields)
	return updateViaResource(ctx, l.Space, agentBuilderToolsPath+"/"+id, forUpdate, true)
}
