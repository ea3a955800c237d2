package orchestrator

import (
	"context"

	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/version"
)

// EnumeratedRecord is one on-disk record surfaced to the external bundle
// writer (spec §4.7: "togo... the core only supplies record enumeration").
type EnumeratedRecord struct {
	Space  string
	Family version.Family
	Key    string
	Record *codec.Object
}

// Enumerate walks every selected space and family's on-disk records,
// decoding each into its ordered JSON form for the external bundle writer
// to serialize as NDJSON. Enumeration never touches the Server.
func (o *Orchestrator) Enumerate(ctx context.Context, spaces []string, families []version.Family) ([]EnumeratedRecord, error) {
	spaceIDs, err := o.resolveSpaces(spaces)
	if err != nil {
		return nil, err
	}
	requested := resolveFamilies(families)

	var records []EnumeratedRecord
	for _, spaceID := range spaceIDs {
		for _, fam := range requested {
			recs, err := o.enumerateFamily(ctx, spaceID, fam)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}
	return records, nil
}

func (o *Orchestrator) enumerateFamily(ctx context.Context, spaceID string, fam version.Family) ([]EnumeratedRecord, error) {
	switch fam {
	case version.FamilySpaces:
		obj, err := readSpaceDefinitionFile(o.root, spaceID)
		if err != nil {
			return nil, err
		}
		return []EnumeratedRecord{{Space: spaceID, Family: fam, Key: spaceID, Record: obj}}, nil

	case version.FamilySavedObjects:
		paths := manifest.Resolve(o.root, spaceID, version.FamilySavedObjects)
		m, err := manifest.LoadSavedObjectsManifest(paths.ManifestFile)
		if err != nil {
			return nil, err
		}
		records := make([]EnumeratedRecord, 0, len(m.Objects))
		for _, ref := range m.Objects {
			path := manifest.SavedObjectPath(o.root, spaceID, ref.Type, ref.ID)
			obj, err := readSavedObjectFile(path)
			if err != nil {
				return nil, err
			}
			records = append(records, EnumeratedRecord{Space: spaceID, Family: fam, Key: ref.Type + "/" + ref.ID, Record: obj})
		}
		return records, nil

	default:
		disk := &diskItemExtractor{Root: o.root, SpaceID: spaceID, Family: fam}
		keys, err := disk.List(ctx)
		if err != nil {
			return nil, err
		}
		records := make([]EnumeratedRecord, 0, len(keys))
		for _, key := range keys {
			obj, err := disk.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			records = append(records, EnumeratedRecord{Space: spaceID, Family: fam, Key: key, Record: obj})
		}
		return records, nil
	}
}
