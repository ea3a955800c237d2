package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SavedObjectRef identifies one saved object by type and id, as carried in
// the export-request manifest (spec §4.4, §4.5).
type SavedObjectRef struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// SavedObjectsManifest is <space>/manifest/saved_objects.json — doubles as
// the literal export-request payload (spec §4.4, §6).
type SavedObjectsManifest struct {
	Objects               []SavedObjectRef `json:"objects"`
	ExcludeExportDetails  bool             `json:"excludeExportDetails"`
	IncludeReferencesDeep bool             `json:"includeReferencesDeep"`
}

// LoadSavedObjectsManifest reads the saved-objects manifest. A missing
// file is treated as an empty manifest (no-op per spec §8).
func LoadSavedObjectsManifest(path string) (SavedObjectsManifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return SavedObjectsManifest{ExcludeExportDetails: true, IncludeReferencesDeep: true}, nil
	}
	if err != nil {
		return SavedObjectsManifest{}, fmt.Errorf("reading saved_objects.json: %w", err)
	}
	var m SavedObjectsManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return SavedObjectsManifest{}, fmt.Errorf("parsing saved_objects.json: %w", err)
	}
	if err := checkDuplicateSavedObjects(m.Objects); err != nil {
		return SavedObjectsManifest{}, err
	}
	return m, nil
}

func checkDuplicateSavedObjects(objs []SavedObjectRef) error {
	seen := make(map[string]bool, len(objs))
	for _, o := range objs {
		key := o.Type + "/" + o.ID
		if seen[key] {
			return fmt.Errorf("saved_objects.json: duplicate entry %s", key)
		}
		seen[key] = true
	}
	return nil
}

// SaveSavedObjectsManifest writes the saved-objects manifest as 2-space
// indented JSON.
func SaveSavedObjectsManifest(path string, m SavedObjectsManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding saved_objects.json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Entry is one managed identifier in a per-item family manifest
// (workflows.yml, agents.yml, tools.yml). Name is optional display text.
type Entry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name,omitempty"`
}

// ItemManifest is the parsed form of a per-item family manifest file: a
// list of IDs, or a list of {id,name} records (spec §4.4, §6).
type ItemManifest struct {
	Entries []Entry
}

// UnmarshalYAML accepts both accepted on-disk shapes: a bare list of id
// strings (`agents.yml`/`tools.yml`: "[id...]"), or a list of {id,name}
// maps (`workflows.yml`: "[{id,name}...]"), mirroring the dual-form
// tolerance spec.md documents for agents.yml specifically but which this
// adapter applies uniformly to every per-item manifest.
func (m *ItemManifest) UnmarshalYAML(value *yaml.Node) error {
	var asStrings []string
	if err := value.Decode(&asStrings); err == nil {
		m.Entries = make([]Entry, 0, len(asStrings))
		for _, id := range asStrings {
			m.Entries = append(m.Entries, Entry{ID: id})
		}
		return nil
	}

	var asEntries []Entry
	if err := value.Decode(&asEntries); err != nil {
		return fmt.Errorf("manifest entries must be a list of ids or {id,name} records: %w", err)
	}
	m.Entries = asEntries
	return nil
}

// MarshalYAML always emits the {id,name} form so round-trips are
// unambiguous and diff-stable; Name is omitted when empty.
func (m ItemManifest) MarshalYAML() (interface{}, error) {
	return m.Entries, nil
}

// IDs returns the managed identifiers in manifest order.
func (m ItemManifest) IDs() []string {
	ids := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// Has reports whether id is already managed.
func (m ItemManifest) Has(id string) bool {
	for _, e := range m.Entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// WithAdded returns a copy of m with id (and name, if non-empty) appended,
// unless id is already present — in which case m is returned unchanged and
// ok is false (spec §4.7: add is idempotent).
func (m ItemManifest) WithAdded(id, name string) (result ItemManifest, ok bool) {
	if m.Has(id) {
		return m, false
	}
	entries := make([]Entry, len(m.Entries), len(m.Entries)+1)
	copy(entries, m.Entries)
	entries = append(entries, Entry{ID: id, Name: name})
	return ItemManifest{Entries: entries}, true
}

func checkDuplicateEntries(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return fmt.Errorf("manifest: duplicate id %q", e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// LoadItemManifest reads a per-item family manifest file. A missing file
// is treated as an empty manifest.
func LoadItemManifest(path string) (ItemManifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ItemManifest{}, nil
	}
	if err != nil {
		return ItemManifest{}, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m ItemManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ItemManifest{}, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if err := checkDuplicateEntries(m.Entries); err != nil {
		return ItemManifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// SaveItemManifest writes a per-item family manifest file as YAML.
func SaveItemManifest(path string, m ItemManifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
