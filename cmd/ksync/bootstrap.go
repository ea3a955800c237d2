package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/orchestrator"
	"github.com/p-blackswan/ksync/internal/version"
)

// initProject bootstraps a fresh project directory: it ensures root
// exists and writes a root spaces.yml, either copied from a bundle file
// (a bare {spaces: [{id,name}...]} yaml document) or defaulted to the
// single reserved "default" space per the registry's documented fallback.
func initProject(root, bundleFile string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating project root: %w", err)
	}

	if bundleFile == "" {
		existing, err := manifest.LoadSpacesFile(root)
		if err != nil {
			return err
		}
		return manifest.SaveSpacesFile(root, existing)
	}

	data, err := os.ReadFile(bundleFile)
	if err != nil {
		return fmt.Errorf("reading bundle file %s: %w", bundleFile, err)
	}
	var f manifest.SpacesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing bundle file %s: %w", bundleFile, err)
	}
	if len(f.Spaces) == 0 {
		f.Spaces = []manifest.SpaceEntry{{ID: manifest.DefaultSpaceID, Name: "Default"}}
	}
	return manifest.SaveSpacesFile(root, f)
}

// migrateProject fetches the current definition of each requested space
// (or, if none are requested, every space already registered in root's
// spaces.yml) and rewrites it into the current per-space layout, updating
// the root registry to match. This is the legacy-layout migration path:
// the core supplies the live fetch, this wrapper supplies the rewrite.
func migrateProject(ctx context.Context, o *orchestrator.Orchestrator, root string, spaceIDs []string) (int, error) {
	existing, err := manifest.LoadSpacesFile(root)
	if err != nil {
		return 0, err
	}
	if len(spaceIDs) == 0 {
		for _, s := range existing.Spaces {
			spaceIDs = append(spaceIDs, s.ID)
		}
	}

	defs, err := o.FetchSpaceDefinitions(ctx, spaceIDs)
	if err != nil {
		return 0, err
	}

	names := make(map[string]string, len(existing.Spaces))
	for _, s := range existing.Spaces {
		names[s.ID] = s.Name
	}

	for id, obj := range defs {
		if err := writeSpaceFile(root, id, obj); err != nil {
			return 0, err
		}
		name := id
		if v, ok := obj.Get("name"); ok {
			if s, ok := v.(string); ok && s != "" {
				name = s
			}
		}
		names[id] = name
	}

	updated := make([]manifest.SpaceEntry, 0, len(names))
	for id, name := range names {
		updated = append(updated, manifest.SpaceEntry{ID: id, Name: name})
	}
	existing.Spaces = updated
	if err := manifest.SaveSpacesFile(root, existing); err != nil {
		return 0, err
	}
	return len(defs), nil
}

func writeSpaceFile(root, spaceID string, obj *codec.Object) error {
	paths := manifest.Resolve(root, spaceID, version.FamilySpaces)
	data, err := codec.EncodeCanonical(obj, codec.MultilinePaths[version.FamilySpaces])
	if err != nil {
		return fmt.Errorf("encoding %s: %w", paths.SpaceFile, err)
	}
	if err := os.MkdirAll(paths.SpaceDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", paths.SpaceDir, err)
	}
	return os.WriteFile(paths.SpaceFile, data, 0o644)
}

// writeBundle serializes records as newline-delimited JSON under
// <root>/bundle/<path>, the output tree the core never reads back (spec
// §4.4: "bundle/ ... emitted by togo; never read by the core").
func writeBundle(root, path string, records []orchestrator.EnumeratedRecord) (int, error) {
	dir := manifest.BundleDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating bundle directory: %w", err)
	}
	full := filepath.Join(dir, path)

	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("creating bundle file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		line := map[string]interface{}{
			"space":  rec.Space,
			"family": string(rec.Family),
			"key":    rec.Key,
			"record": codec.ToPlain(rec.Record),
		}
		if err := enc.Encode(line); err != nil {
			return 0, fmt.Errorf("encoding bundle record %s/%s: %w", rec.Family, rec.Key, err)
		}
	}
	return len(records), nil
}
