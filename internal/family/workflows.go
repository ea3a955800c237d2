package family

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/httpclient"
)

// workflowRetainedFields lists the fields kept on push after stripping the
// server-owned ones (spec §4.5: "retain id, name, description, enabled,
// yaml, definition, tags").
var workflowRetainedFields = []string{"id", "name", "description", "enabled", "yaml", "definition", "tags"}


// WorkflowExtractor lists workflows via the paginated search endpoint and
// fetches full definitions by id.
type WorkflowExtractor struct {
	Space *httpclient.SpaceClient
}

func (e *WorkflowExtractor) List(ctx context.Context) ([]string, error) {
	var ids []string
	page := 0
	const pageSize = 100
	for {
		reqBody, _ := json.Marshal(map[string]interface{}{"limit": pageSize, "offset": page * pageSize})
		resp, err := e.Space.Request(ctx, http.MethodPost, "/api/workflows/_search", reqBody, true)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, &apperrors.HTTPError{Method: http.MethodPost, Path: "/api/workflows/_search", Status: resp.Status, Body: string(resp.Body)}
		}
		var page_ struct {
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
			Total int `json:"total"`
		}
		if err := resp.JSON(&page_); err != nil {
			return nil, err
		}
		for _, r := range page_.Results {
			ids = append(ids, r.ID)
		}
		page++
		if len(ids) >= page_.Total || len(page_.Results) == 0 {
			break
		}
	}
	return ids, nil
}

func (e *WorkflowExtractor) Get(ctx context.Context, id string) (*codec.Object, error) {
	return getObject(ctx, e.Space, "/api/workflows/"+id, true)
}

// WorkflowLoader implements the CHECK→CREATE/UPDATE state machine for
// workflows (spec §4.5).
type WorkflowLoader struct {
	Space *httpclient.SpaceClient
}

func (l *WorkflowLoader) Sanitize(record *codec.Object) {
	retainOnly(record, workflowRetainedFields)
}

func (l *WorkflowLoader) Exists(ctx context.Context, id string) (bool, error) {
	return headExists(ctx, l.Space, "/api/workflows/"+id, true)
}

func (l *WorkflowLoader) Create(ctx context.Context, id string, record *codec.Object) error {
	return createViaCollection(ctx, l.Space, "/api/workflows", record, true)
}

func (l *WorkflowLoader) Update(ctx context.Context, id string, record *codec.Object) error {
	return updateViaResource(ctx, l.Space, "/api/workflows/"+id, record, true)
}
