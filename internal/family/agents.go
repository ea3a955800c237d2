package family

import (
	"context"
	"net/http"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/httpclient"
)

const agentBuilderAgentsPath = "/api/agent_builder/agents"

var agentCreateStripFields = []string{"readonly", "schema"}
var agentUpdateStripFields = []string{"id", "readonly", "schema"}

// AgentExtractor lists and fetches agents from the Server.
type AgentExtractor struct {
	Space *httpclient.SpaceClient
}

func (e *AgentExtractor) List(ctx context.Context) ([]string, error) {
	resp, err := e.Space.Request(ctx, http.MethodGet, agentBuilderAgentsPath, nil, false)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &apperrors.HTTPError{Method: http.MethodGet, Path: agentBuilderAgentsPath, Status: resp.Status, Body: string(resp.Body)}
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

func (e *AgentExtractor) Get(ctx context.Context, id string) (*codec.Object, error) {
	return getObject(ctx, e.Space, agentBuilderAgentsPath+"/"+id, false)
}

// AgentLoader implements the CHECK→CREATE/UPDATE state machine for agents
// (spec §4.5). Create strips readonly/schema; update additionally strips
// id, since the id already appears in the URL.
type AgentLoader struct {
	Space *httpclient.SpaceClient
}

func (l *AgentLoader) Sanitize(record *codec.Object) {
	stripFields(record, agentCreateStripFields)
}

func (l *AgentLoader) Exists(ctx context.Context, id string) (bool, error) {
	return headExists(ctx, l.Space, agentBuilderAgentsPath+"/"+id, false)
}

func (l *AgentLoader) Create(ctx context.Context, id string, record *codec.Object) error {
	return createViaCollection(ctx, l.Space, agentBuilderAgentsPath, record, false)
}

func (l *AgentLoader) Update(ctx context.Context, id string, record *codec.Object) error {
	forUpdate := record.Clone()
	stripFields(forUpdate, agentUpdateStripFields)
	return updateViaResource(ctx, l.Space, agentBuilderAgentsPath+"/"+id, forUpdate, false)
}
