package orchestrator

import (
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/pipeline"
	"github.com/p-blackswan/ksync/internal/version"
)

// pullTransforms is the pull-direction transformer chain (spec §2:
// "drop volatile fields, unescape nested JSON, normalize multi-line
// strings"). Multi-line normalization itself is the encoder's job at
// write time (codec.EncodeCanonical with the family's MultilinePaths), so
// only the first two steps run here.
func pullTransforms(fam version.Family) []pipeline.Transformer[*codec.Object] {
	return []pipeline.Transformer[*codec.Object]{
		func(obj *codec.Object) (*codec.Object, error) {
			codec.DropVolatileFields(obj, fam)
			return obj, nil
		},
		func(obj *codec.Object) (*codec.Object, error) {
			if err := codec.ExpandNestedJSON(obj, fam); err != nil {
				return nil, err
			}
			return obj, nil
		},
	}
}

// pushTransforms is the push-direction chain (spec §2: "re-escape nested
// JSON, set managed flag to the command-supplied value"). Server-owned-field
// sanitization is the Loader's job (Upsert calls Sanitize before
// Create/Update), not a transformer, since it differs per family. The
// managed-flag step always runs: --managed=false must clear the field, not
// merely skip writing it.
func pushTransforms(fam version.Family, managed bool) []pipeline.Transformer[*codec.Object] {
	return []pipeline.Transformer[*codec.Object]{
		func(obj *codec.Object) (*codec.Object, error) {
			if err := codec.CollapseNestedJSON(obj, fam); err != nil {
				return nil, err
			}
			return obj, nil
		},
		func(obj *codec.Object) (*codec.Object, error) {
			codec.MarkManaged(obj, managed)
			return obj, nil
		},
	}
}
