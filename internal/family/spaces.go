package family

import (
	"context"
	"net/http"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/httpclient"
)

// SpaceExtractor lists and fetches namespace definitions from the Server
// (spec §4.5: "List via GET; per-id GET for the definition").
type SpaceExtractor struct {
	Space *httpclient.SpaceClient
}

func (e *SpaceExtractor) List(ctx context.Context) ([]string, error) {
	resp, err := e.Space.Request(ctx, http.MethodGet, "/api/spaces/space", nil, false)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &apperrors.HTTPError{Method: http.MethodGet, Path: "/api/spaces/space", Status: resp.Status, Body: string(resp.Body)}
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

func (e *SpaceExtractor) Get(ctx context.Context, id string) (*codec.Object, error) {
	return getObject(ctx, e.Space, "/api/spaces/space/"+id, false)
}

// SpaceLoader creates or updates a space on the Server. Spaces are never
// deleted by the tool (spec §4.5).
type SpaceLoader struct {
	Space *httpclient.SpaceClient
}

func (l *SpaceLoader) Sanitize(record *codec.Object) {
	// Spaces carry no server-owned volatile fields beyond what the tool
	// itself never writes; nothing to strip.
}

func (l *SpaceLoader) Exists(ctx context.Context, id string) (bool, error) {
	resp, err := l.Space.Request(ctx, http.MethodGet, "/api/spaces/space/"+id, nil, false)
	if err != nil {
		return false, err
	}
	if resp.Status == http.StatusNotFound {
		return false, nil
	}
	if !resp.OK() {
		return false, &apperrors.HTTPError{Method: http.MethodGet, Path: "/api/spaces/space/" + id, Status: resp.Status, Body: string(resp.Body)}
	}
	return true, nil
}

func (l *SpaceLoader) Create(ctx context.Context, id string, record *codec.Object) error {
	return createViaCollection(ctx, l.Space, "/api/spaces/space", record, false)
}

func (l *SpaceLoader) Update(ctx context.Context, id string, record *codec.Object) error {
	return updateViaResource(ctx, l.Space, "/api/spaces/space/"+id, record, false)
}
