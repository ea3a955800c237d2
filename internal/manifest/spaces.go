package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/p-blackswan/ksync/internal/version"
)

const spacesFileName = "spaces.yml"

// SpaceEntry is one namespace registered in the root manifest.
type SpaceEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// KibanaBlock records the Server version observed at the last successful
// pull, consulted by push preflight (spec §3, §4.7).
type KibanaBlock struct {
	Version string `yaml:"version"`
}

// SpacesFile is the root spaces.yml (spec §3: SpacesManifest).
type SpacesFile struct {
	Spaces []SpaceEntry `yaml:"spaces"`
	Kibana *KibanaBlock `yaml:"kibana,omitempty"`
}

// SpacesFilePath returns the root manifest path.
func SpacesFilePath(root string) string {
	return filepath.Join(root, spacesFileName)
}

// LoadSpacesFile reads the root spaces.yml. A missing file yields the
// default registry {default → "Default"} with no recorded version, per
// spec §4.1 ("Absent manifest ⇒ registry is {default → Default}").
func LoadSpacesFile(root string) (SpacesFile, error) {
	data, err := os.ReadFile(SpacesFilePath(root))
	if os.IsNotExist(err) {
		return SpacesFile{Spaces: []SpaceEntry{{ID: DefaultSpaceID, Name: "Default"}}}, nil
	}
	if err != nil {
		return SpacesFile{}, fmt.Errorf("reading %s: %w", spacesFileName, err)
	}
	var f SpacesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SpacesFile{}, fmt.Errorf("parsing %s: %w", spacesFileName, err)
	}
	if len(f.Spaces) == 0 {
		f.Spaces = []SpaceEntry{{ID: DefaultSpaceID, Name: "Default"}}
	}
	if err := checkDuplicateIDs(f.Spaces); err != nil {
		return SpacesFile{}, err
	}
	return f, nil
}

func checkDuplicateIDs(spaces []SpaceEntry) error {
	seen := make(map[string]bool, len(spaces))
	for _, s := range spaces {
		if seen[s.ID] {
			return fmt.Errorf("spaces.yml: duplicate space id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// SaveSpacesFile writes the root spaces.yml, preserving field order and
// any Kibana block already present (spec §8 property 5).
func SaveSpacesFile(root string, f SpacesFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", spacesFileName, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating project root: %w", err)
	}
	return os.WriteFile(SpacesFilePath(root), data, 0o644)
}

// RecordVersion sets f.Kibana.Version to v's full parsed string,
// preserving every other field (spec §4.7, §8 property 5).
func (f *SpacesFile) RecordVersion(v version.ServerVersion) {
	f.Kibana = &KibanaBlock{Version: v.String()}
}

// RecordedVersion returns the last-pull version, or ok=false if none was
// ever recorded.
func (f SpacesFile) RecordedVersion() (version.ServerVersion, bool, error) {
	if f.Kibana == nil || f.Kibana.Version == "" {
		return version.ServerVersion{}, false, nil
	}
	v, err := version.Parse(f.Kibana.Version)
	if err != nil {
		return version.ServerVersion{}, false, fmt.Errorf("spaces.yml: %w", err)
	}
	return v, true, nil
}

// Registry is a lookup from space id to display name, built from
// SpacesFile. It is what internal/httpclient consults when binding a
// namespace sub-client.
type Registry map[string]string

// NewRegistry builds a Registry from a loaded SpacesFile.
func NewRegistry(f SpacesFile) Registry {
	r := make(Registry, len(f.Spaces))
	for _, s := range f.Spaces {
		r[s.ID] = s.Name
	}
	return r
}

// Has reports whether id is a registered space.
func (r Registry) Has(id string) bool {
	_, ok := r[id]
	return ok
}

// IDs returns every registered space id, in a stable (sorted) order.
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
