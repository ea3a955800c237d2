package family

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/httpclient"
)

// getObject issues a GET and decodes the body as an ordered JSON object,
// shared by every per-item family's Extractor.Get.
func getObject(ctx context.Context, sp *httpclient.SpaceClient, path string, internal bool) (*codec.Object, error) {
	resp, err := sp.Request(ctx, http.MethodGet, path, nil, internal)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &apperrors.HTTPError{Method: http.MethodGet, Path: path, Status: resp.Status, Body: string(resp.Body)}
	}
	v, err := codec.DecodeCanonical(resp.Body)
	if err != nil {
		return nil, &apperrors.CodecError{Path: path, Err: err}
	}
	obj, ok := v.(*codec.Object)
	if !ok {
		return nil, &apperrors.ProtocolError{Context: "expected a JSON object", Err: errors.New(path)}
	}
	return obj, nil
}

// headExists implements the CHECK step of the upsert state machine: HEAD
// the resource, treating 200 as existing, 404 as absent, and 5xx/network
// failures as retriable per spec §4.5's state table (the retry itself is
// the retry package's job — this returns the raw failure for the caller
// to classify).
func headExists(ctx context.Context, sp *httpclient.SpaceClient, path string, internal bool) (bool, error) {
	resp, err := sp.Request(ctx, http.MethodHead, path, nil, internal)
	if err != nil {
		return false, err
	}
	switch {
	case resp.Status == http.StatusNotFound:
		return false, nil
	case resp.OK():
		return true, nil
	default:
		return false, &apperrors.HTTPError{Method: http.MethodHead, Path: path, Status: resp.Status, Body: string(resp.Body)}
	}
}

// createViaCollection POSTs record (with id embedded in the body) to a
// collection endpoint. A 409 is reported as a race so Upsert can fall
// through to UPDATE.
func createViaCollection(ctx context.Context, sp *httpclient.SpaceClient, path string, record *codec.Object, internal bool) error {
	body, err := json.Marshal(codec.ToPlain(record))
	if err != nil {
		return &apperrors.CodecError{Path: path, Err: err}
	}
	resp, err := sp.Request(ctx, http.MethodPost, path, body, internal)
	if err != nil {
		return err
	}
	if resp.Status == http.StatusConflict {
		return AsRace(&apperrors.HTTPError{Method: http.MethodPost, Path: path, Status: resp.Status, Body: string(resp.Body)})
	}
	if !resp.OK() {
		return &apperrors.HTTPError{Method: http.MethodPost, Path: path, Status: resp.Status, Body: string(resp.Body)}
	}
	return nil
}

// updateViaResource PUTs record to its per-id resource endpoint. A 404 is
// reported as a race so Upsert can fall through to CREATE.
func updateViaResource(ctx context.Context, sp *httpclient.SpaceClient, path string, record *codec.Object, internal bool) error {
	body, err := json.Marshal(codec.ToPlain(record))
	if err != nil {
		return &apperrors.CodecError{Path: path, Err: err}
	}
	resp, err := sp.Request(ctx, http.MethodPut, path, body, internal)
	if err != nil {
		return err
	}
	if resp.Status == http.StatusNotFound {
		return AsRace(&apperrors.HTTPError{Method: http.MethodPut, Path: path, Status: resp.Status, Body: string(resp.Body)})
	}
	if !resp.OK() {
		return &apperrors.HTTPError{Method: http.MethodPut, Path: path, Status: resp.Status, Body: string(resp.Body)}
	}
	return nil
}

// stripFields deletes each named top-level field from record.
func stripFields(record *codec.Object, fields []string) {
	for _, f := range fields {
		record.Delete(f)
	}
}

// retainOnly deletes every top-level field not named in keep.
func retainOnly(record *codec.Object, keep []string) {
	allowed := make(map[string]bool, len(keep))
	for _, k := range keep {
		allowed[k] = true
	}
	for _, k := range record.Keys() {
		if !allowed[k] {
			record.Delete(k)
		}
	}
}
