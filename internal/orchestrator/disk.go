package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/family"
	"github.com/p-blackswan/ksync/internal/httpclient"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/version"
)

// diskItemExtractor reads per-item family records (workflows/agents/tools)
// from their on-disk object files, keyed by the per-space manifest. It is
// the push direction's Extractor and doubles as the authoritative key
// source for both pull and push, since a space's manifest file is the one
// place "what is tracked" is recorded (spec §3: "Manifest... a list of
// managed identifiers").
type diskItemExtractor struct {
	Root, SpaceID string
	Family        version.Family
}

func (d *diskItemExtractor) List(_ context.Context) ([]string, error) {
	paths := manifest.Resolve(d.Root, d.SpaceID, d.Family)
	m, err := manifest.LoadItemManifest(paths.ManifestFile)
	if err != nil {
		return nil, err
	}
	return m.IDs(), nil
}

func (d *diskItemExtractor) Get(_ context.Context, key string) (*codec.Object, error) {
	path := manifest.ItemPath(d.Root, d.SpaceID, d.Family, key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperrors.CodecError{Path: path, Err: err}
	}
	normalized, err := codec.Normalize(raw)
	if err != nil {
		return nil, &apperrors.CodecError{Path: path, Err: err}
	}
	v, err := codec.DecodeCanonical(normalized)
	if err != nil {
		return nil, &apperrors.CodecError{Path: path, Err: err}
	}
	obj, ok := v.(*codec.Object)
	if !ok {
		return nil, &apperrors.CodecError{Path: path, Err: errors.New("decoded value is not a JSON object")}
	}
	return obj, nil
}

// diskItemLoader is the pull direction's Loader: it unconditionally
// overwrites the on-disk object file. There is no CHECK→CREATE/UPDATE race
// to tolerate against the local filesystem, so Create and Update are the
// same write.
type diskItemLoader struct {
	Root, SpaceID string
	Family        version.Family
}

func (d *diskItemLoader) Sanitize(_ *codec.Object) {}

func (d *diskItemLoader) Exists(_ context.Context, key string) (bool, error) {
	path := manifest.ItemPath(d.Root, d.SpaceID, d.Family, key)
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &apperrors.CodecError{Path: path, Err: err}
	}
	return true, nil
}

func (d *diskItemLoader) Create(_ context.Context, key string, record *codec.Object) error {
	return d.write(key, record)
}

func (d *diskItemLoader) Update(_ context.Context, key string, record *codec.Object) error {
	return d.write(key, record)
}

func (d *diskItemLoader) write(key string, record *codec.Object) error {
	path := manifest.ItemPath(d.Root, d.SpaceID, d.Family, key)
	data, err := codec.EncodeCanonical(record, codec.MultilinePaths[d.Family])
	if err != nil {
		return &apperrors.CodecError{Path: path, Err: err}
	}
	paths := manifest.Resolve(d.Root, d.SpaceID, d.Family)
	if err := os.MkdirAll(paths.ObjectsDir, 0o755); err != nil {
		return &apperrors.CodecError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &apperrors.CodecError{Path: path, Err: err}
	}
	return nil
}

// pullSpaceDefinition fetches one space's definition from the Server —
// spaces have exactly one record per space (the space itself), so this
// bypasses the per-item manifest/List machinery entirely.
func pullSpaceDefinition(ctx context.Context, sp *httpclient.SpaceClient) (*codec.Object, error) {
	extractor := &family.SpaceExtractor{Space: sp}
	return extractor.Get(ctx, sp.ID())
}

// readSpaceDefinitionFile reads and decodes <root>/<space>/space.json.
func readSpaceDefinitionFile(root, spaceID string) (*codec.Object, error) {
	paths := manifest.Resolve(root, spaceID, version.FamilySpaces)
	raw, err := os.ReadFile(paths.SpaceFile)
	if err != nil {
		return nil, &apperrors.CodecError{Path: paths.SpaceFile, Err: err}
	}
	normalized, err := codec.Normalize(raw)
	if err != nil {
		return nil, &apperrors.CodecError{Path: paths.SpaceFile, Err: err}
	}
	v, err := codec.DecodeCanonical(normalized)
	if err != nil {
		return nil, &apperrors.CodecError{Path: paths.SpaceFile, Err: err}
	}
	obj, ok := v.(*codec.Object)
	if !ok {
		return nil, &apperrors.CodecError{Path: paths.SpaceFile, Err: errors.New("decoded value is not a JSON object")}
	}
	return obj, nil
}

// writeSpaceDefinitionFile encodes and overwrites <root>/<space>/space.json.
func writeSpaceDefinitionFile(root, spaceID string, record *codec.Object) error {
	paths := manifest.Resolve(root, spaceID, version.FamilySpaces)
	data, err := codec.EncodeCanonical(record, codec.MultilinePaths[version.FamilySpaces])
	if err != nil {
		return &apperrors.CodecError{Path: paths.SpaceFile, Err: err}
	}
	if err := os.MkdirAll(paths.SpaceDir, 0o755); err != nil {
		return &apperrors.CodecError{Path: paths.SpaceFile, Err: err}
	}
	if err := os.WriteFile(paths.SpaceFile, data, 0o644); err != nil {
		return &apperrors.CodecError{Path: paths.SpaceFile, Err: err}
	}
	return nil
}

// readSavedObjectFile reads and decodes a per-object saved-objects file.
func readSavedObjectFile(path string) (*codec.Object, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperrors.CodecError{Path: path, Err: err}
	}
	normalized, err := codec.Normalize(raw)
	if err != nil {
		return nil, &apperrors.CodecError{Path: path, Err: err}
	}
	v, err := codec.DecodeCanonical(normalized)
	if err != nil {
		return nil, &apperrors.CodecError{Path: path, Err: err}
	}
	obj, ok := v.(*codec.Object)
	if !ok {
		return nil, &apperrors.CodecError{Path: path, Err: errors.New("decoded value is not a JSON object")}
	}
	return obj, nil
}

// writeSavedObjectFile encodes and overwrites one per-object saved-objects
// file, creating its {type}/ parent directory as needed.
func writeSavedObjectFile(path string, record *codec.Object) error {
	data, err := codec.EncodeCanonical(record, codec.MultilinePaths[version.FamilySavedObjects])
	if err != nil {
		return &apperrors.CodecError{Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &apperrors.CodecError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &apperrors.CodecError{Path: path, Err: err}
	}
	return nil
}
