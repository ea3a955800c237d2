// Package manifest is the single authority for ksync's on-disk project
// layout (spec §4.4): the root spaces.yml, per-space manifest/ directories,
// and per-family object subdirectories.
package manifest

import (
	"path/filepath"

	"github.com/p-blackswan/ksync/internal/version"
)

// DefaultSpaceID is the reserved namespace id meaning "no /s/<id> prefix".
const DefaultSpaceID = "default"

// Paths resolves every on-disk location for one (space, family) pair.
type Paths struct {
	SpaceDir     string // <root>/<space-id>
	SpaceFile    string // <root>/<space-id>/space.json
	ManifestDir  string // <root>/<space-id>/manifest
	ManifestFile string // <root>/<space-id>/manifest/<family file>
	ObjectsDir   string // <root>/<space-id>/<family objects dir>
}

// manifestFileName returns the per-space manifest file name for family,
// per the canonical layout in spec §4.4.
func manifestFileName(family version.Family) string {
	switch family {
	case version.FamilySavedObjects:
		return "saved_objects.json"
	case version.FamilyWorkflows:
		return "workflows.yml"
	case version.FamilyAgents:
		return "agents.yml"
	case version.FamilyTools:
		return "tools.yml"
	default:
		return string(family) + ".yml"
	}
}

// objectsDirName returns the per-space object subdirectory name for
// family. Spaces themselves have no objects/ subdirectory: the space
// definition lives directly at space.json.
func objectsDirName(family version.Family) string {
	switch family {
	case version.FamilySavedObjects:
		return "objects"
	default:
		return string(family)
	}
}

// Resolve is the single authority for disk paths (spec §4.4).
func Resolve(root, spaceID string, family version.Family) Paths {
	spaceDir := filepath.Join(root, spaceID)
	return Paths{
		SpaceDir:     spaceDir,
		SpaceFile:    filepath.Join(spaceDir, "space.json"),
		ManifestDir:  filepath.Join(spaceDir, "manifest"),
		ManifestFile: filepath.Join(spaceDir, "manifest", manifestFileName(family)),
		ObjectsDir:   filepath.Join(spaceDir, objectsDirName(family)),
	}
}

// SavedObjectPath returns the per-object file path for a saved object,
// stored by {type}/{id}.json per spec §3.
func SavedObjectPath(root, spaceID, objectType, id string) string {
	p := Resolve(root, spaceID, version.FamilySavedObjects)
	return filepath.Join(p.ObjectsDir, objectType, id+".json")
}

// ItemPath returns the per-object file path for per-item families
// (workflows stored by name, agents/tools stored by id).
func ItemPath(root, spaceID string, family version.Family, key string) string {
	p := Resolve(root, spaceID, family)
	return filepath.Join(p.ObjectsDir, key+".json")
}

// BundleDir returns the optional bundle/ output tree root, never read by
// the core (spec §4.4).
func BundleDir(root string) string {
	return filepath.Join(root, "bundle")
}
