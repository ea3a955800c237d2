package family

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/httpclient"
	"github.com/p-blackswan/ksync/internal/manifest"
)

const (
	savedObjectsExportPath = "/api/saved_objects/_export"
	savedObjectsImportPath = "/api/saved_objects/_import"
)

var savedObjectPullStripFields = []string{"updated_at", "updated_by", "version", "namespaces"}

// SavedObjectsBulk is the saved-objects family's adapter. Unlike the other
// families it has no per-item CRUD surface on the wire (spec §4.5: "the
// entire manifest is assembled into one NDJSON body; individual
// create/update is not exposed by the Server"), so it exposes bulk
// Export/Import rather than satisfying the Extractor/Loader interfaces.
type SavedObjectsBulk struct {
	Space *httpclient.SpaceClient
	// StripReferences additionally drops the references array on pull
	// when set. The default (false) preserves it, per spec §4.3/§9's open
	// question resolution.
	StripReferences bool
}

// SanitizeForPull is the per-adapter-instance variant of the package-level
// SanitizeForPull, additionally honoring StripReferences.
func (s *SavedObjectsBulk) SanitizeForPull(record *codec.Object) {
	SanitizeForPull(record)
	if s.StripReferences {
		record.Delete("references")
	}
}

// Export posts the manifest as an export request and returns one parsed
// ordered object per newline-delimited record in the response.
func (s *SavedObjectsBulk) Export(ctx context.Context, m manifest.SavedObjectsManifest) ([]*codec.Object, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, &apperrors.CodecError{Path: "saved_objects.json", Err: err}
	}
	resp, err := s.Space.Request(ctx, http.MethodPost, savedObjectsExportPath, body, false)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &apperrors.HTTPError{Method: http.MethodPost, Path: savedObjectsExportPath, Status: resp.Status, Body: string(resp.Body)}
	}
	return parseNDJSON(resp.Body)
}

func parseNDJSON(body []byte) ([]*codec.Object, error) {
	var records []*codec.Object
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		v, err := codec.DecodeCanonical(line)
		if err != nil {
			return nil, &apperrors.CodecError{Path: "<ndjson line>", Err: err}
		}
		obj, ok := v.(*codec.Object)
		if !ok {
			return nil, &apperrors.ProtocolError{Context: "ndjson line is not a JSON object", Err: fmt.Errorf("got %T", v)}
		}
		records = append(records, obj)
	}
	return records, nil
}

// SanitizeForPull drops the server-owned fields the field dropper removes
// on pull (spec §4.5: "drop updated_at, version, namespaces; leave
// references intact").
func SanitizeForPull(record *codec.Object) {
	stripFields(record, savedObjectPullStripFields)
}

// Import assembles every record into one NDJSON body and posts it with
// overwrite=true as a multipart form (spec §4.5, §6).
func (s *SavedObjectsBulk) Import(ctx context.Context, records []*codec.Object) error {
	var ndjson bytes.Buffer
	for _, r := range records {
		line, err := json.Marshal(codec.ToPlain(r))
		if err != nil {
			return &apperrors.CodecError{Path: "<ndjson record>", Err: err}
		}
		ndjson.Write(line)
		ndjson.WriteByte('\n')
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", "export.ndjson")
	if err != nil {
		return fmt.Errorf("building import multipart body: %w", err)
	}
	if _, err := part.Write(ndjson.Bytes()); err != nil {
		return fmt.Errorf("writing import multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing import multipart body: %w", err)
	}

	path := savedObjectsImportPath + "?overwrite=true"
	resp, err := s.Space.RequestMultipart(ctx, http.MethodPost, path, form.Bytes(), writer.FormDataContentType(), false)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &apperrors.HTTPError{Method: http.MethodPost, Path: path, Status: resp.Status, Body: string(resp.Body)}
	}
	var result struct {
		Success bool `json:"success"`
		Errors  []struct {
			Type  string `json:"type"`
			ID    string `json:"id"`
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"errors"`
	}
	if err := resp.JSON(&result); err != nil {
		return err
	}
	if !result.Success && len(result.Errors) > 0 {
		first := result.Errors[0]
		return fmt.Errorf("importing saved objects: %s/%s: %s", first.Type, first.ID, first.Error.Message)
	}
	return nil
}
