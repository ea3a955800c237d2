package orchestrator

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/ksync/internal/httpclient"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/version"
)

func TestPull_PerItem_FetchesOnlyManagedIDs(t *testing.T) {
	root := t.TempDir()
	paths := manifest.Resolve(root, "default", version.FamilyTools)
	require.NoError(t, manifest.SaveItemManifest(paths.ManifestFile, manifest.ItemManifest{
		Entries: []manifest.Entry{{ID: "t1"}},
	}))

	var gotPath string
	c := connectTestClient(t, root, "9.3.0", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"t1","name":"Tool One","readonly":true,"configuration":{}}`))
	})
	o := New(c, root, 4, zerolog.Nop())

	summary, err := o.Pull(context.Background(), []string{"default"}, []version.Family{version.FamilyTools}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written)
	assert.Contains(t, gotPath, "/api/agent_builder/tools/t1")

	extractor := &diskItemExtractor{Root: root, SpaceID: "default", Family: version.FamilyTools}
	obj, err := extractor.Get(context.Background(), "t1")
	require.NoError(t, err)
	name, _ := obj.Get("name")
	assert.Equal(t, "Tool One", name)
	_, hasReadonly := obj.Get("readonly")
	assert.False(t, hasReadonly, "volatile fields must be dropped on pull")
}

func TestPull_UnsupportedFamilySkippedWithoutForce(t *testing.T) {
	root := t.TempDir()
	c := connectTestClient(t, root, "8.5.0", func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request to %s while family should be skipped", r.URL.Path)
	})
	o := New(c, root, 4, zerolog.Nop())

	summary, err := o.Pull(context.Background(), []string{"default"}, []version.Family{version.FamilyWorkflows}, false)
	require.NoError(t, err)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, version.FamilyWorkflows, summary.Skipped[0].Family)
	assert.Equal(t, ExitWarning, summary.ExitStatus())
}

func TestPull_RecordsVersionPreservingExistingSpaces(t *testing.T) {
	root := t.TempDir()
	writeSpacesYAML(t, root, "spaces:\n  - id: default\n    name: Default\n  - id: marketing\n    name: Marketing\n")

	c := connectTestClient(t, root, "9.3.0", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"space","name":"Space"}`))
	})
	o := New(c, root, 4, zerolog.Nop())

	_, err := o.Pull(context.Background(), nil, []version.Family{version.FamilySpaces}, false)
	require.NoError(t, err)

	f, err := manifest.LoadSpacesFile(root)
	require.NoError(t, err)
	require.NotNil(t, f.Kibana)
	assert.Equal(t, "9.3.0", f.Kibana.Version)
	assert.Len(t, f.Spaces, 2)
}

func TestPull_Space_WritesSpaceDefinitionFile(t *testing.T) {
	root := t.TempDir()
	c := connectTestClient(t, root, "9.3.0", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/spaces/space/default" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"default","name":"Default","disabledFeatures":[]}`))
		}
	})
	o := New(c, root, 4, zerolog.Nop())

	written, errs := o.pullSpace(context.Background(), "default", mustSpace(t, c, "default"))
	require.Empty(t, errs)
	assert.Equal(t, 1, written)

	obj, err := readSpaceDefinitionFile(root, "default")
	require.NoError(t, err)
	name, _ := obj.Get("name")
	assert.Equal(t, "Default", name)
}

func TestPull_SavedObjects_SanitizesAndWritesPerObjectFiles(t *testing.T) {
	root := t.TempDir()
	paths := manifest.Resolve(root, "default", version.FamilySavedObjects)
	require.NoError(t, manifest.SaveSavedObjectsManifest(paths.ManifestFile, manifest.SavedObjectsManifest{
		Objects: []manifest.SavedObjectRef{{Type: "dashboard", ID: "abc"}},
	}))

	c := connectTestClient(t, root, "9.3.0", func(w http.ResponseWriter, r *http.Request) {
		ndjson := `{"id":"abc","type":"dashboard","updated_at":"2024-01-01","references":[{"id":"x","type":"index-pattern"}]}` + "\n"
		w.Write([]byte(ndjson))
	})
	o := New(c, root, 4, zerolog.Nop())

	written, errs := o.pullSavedObjects(context.Background(), "default", mustSpace(t, c, "default"))
	require.Empty(t, errs)
	assert.Equal(t, 1, written)

	obj, err := readSavedObjectFile(manifest.SavedObjectPath(root, "default", "dashboard", "abc"))
	require.NoError(t, err)
	_, hasUpdatedAt := obj.Get("updated_at")
	assert.False(t, hasUpdatedAt)
	_, hasReferences := obj.Get("references")
	assert.True(t, hasReferences, "references are preserved by default")
}

func mustSpace(t *testing.T, c *httpclient.Client, id string) *httpclient.SpaceClient {
	t.Helper()
	sp, err := c.Space(id)
	require.NoError(t, err)
	return sp
}
