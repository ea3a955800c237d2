package orchestrator

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/version"
)

func TestPush_FloorBlocksMinorRegressionWithoutForce(t *testing.T) {
	root := t.TempDir()
	writeSpacesYAML(t, root, "spaces:\n  - id: default\n    name: Default\nkibana:\n  version: 9.3.2\n")

	c := connectTestClient(t, root, "9.2.7", func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request should reach the server when the push floor blocks")
	})
	o := New(c, root, 4, zerolog.Nop())

	summary, err := o.Push(context.Background(), nil, []version.Family{version.FamilyTools}, false, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPushFloor)
	assert.Equal(t, 0, summary.Written)
}

func TestPush_FloorBypassedWithForceRecordsWarning(t *testing.T) {
	root := t.TempDir()
	writeSpacesYAML(t, root, "spaces:\n  - id: default\n    name: Default\nkibana:\n  version: 9.3.2\n")
	paths := manifest.Resolve(root, "default", version.FamilyTools)
	require.NoError(t, manifest.SaveItemManifest(paths.ManifestFile, manifest.ItemManifest{Entries: []manifest.Entry{{ID: "t1"}}}))
	require.NoError(t, (&diskItemLoader{Root: root, SpaceID: "default", Family: version.FamilyTools}).Create(
		context.Background(), "t1", toolObject("t1", "Tool One")))

	c := connectTestClient(t, root, "9.2.7", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	o := New(c, root, 4, zerolog.Nop())

	summary, err := o.Push(context.Background(), nil, []version.Family{version.FamilyTools}, false, true)
	require.NoError(t, err)
	require.Len(t, summary.ForcedWarnings, 1)
	assert.Equal(t, ExitWarning, summary.ExitStatus())
	assert.Equal(t, 1, summary.Written)
}

func TestPush_NoRecordedVersionNeverBlocks(t *testing.T) {
	root := t.TempDir()
	c := connectTestClient(t, root, "9.3.0", func(w http.ResponseWriter, r *http.Request) {})
	o := New(c, root, 4, zerolog.Nop())

	blocked, reason, err := o.checkPushFloor()
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.Empty(t, reason)
}

func TestPush_PerItem_UpsertsEachManagedID(t *testing.T) {
	root := t.TempDir()
	paths := manifest.Resolve(root, "default", version.FamilyAgents)
	require.NoError(t, manifest.SaveItemManifest(paths.ManifestFile, manifest.ItemManifest{Entries: []manifest.Entry{{ID: "a1"}}}))
	require.NoError(t, (&diskItemLoader{Root: root, SpaceID: "default", Family: version.FamilyAgents}).Create(
		context.Background(), "a1", toolObject("a1", "Agent One")))

	var gotMethod string
	var gotBody map[string]interface{}
	c := connectTestClient(t, root, "9.3.0", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		decodeJSONBody(t, r, &gotBody)
		w.WriteHeader(http.StatusOK)
	})
	o := New(c, root, 4, zerolog.Nop())

	summary, err := o.Push(context.Background(), []string{"default"}, []version.Family{version.FamilyAgents}, true, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, true, gotBody["managed"])
}

func TestPush_PerItem_ManagedFalseClearsExistingFlag(t *testing.T) {
	root := t.TempDir()
	paths := manifest.Resolve(root, "default", version.FamilyAgents)
	require.NoError(t, manifest.SaveItemManifest(paths.ManifestFile, manifest.ItemManifest{Entries: []manifest.Entry{{ID: "a1"}}}))
	onDisk := toolObject("a1", "Agent One")
	onDisk.Set("managed", true)
	require.NoError(t, (&diskItemLoader{Root: root, SpaceID: "default", Family: version.FamilyAgents}).Create(
		context.Background(), "a1", onDisk))

	var gotBody map[string]interface{}
	c := connectTestClient(t, root, "9.3.0", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		decodeJSONBody(t, r, &gotBody)
		w.WriteHeader(http.StatusOK)
	})
	o := New(c, root, 4, zerolog.Nop())

	summary, err := o.Push(context.Background(), []string{"default"}, []version.Family{version.FamilyAgents}, false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written)
	_, present := gotBody["managed"]
	assert.False(t, present, "managed:false must clear the field, not merely skip setting it")
}

func TestPush_SavedObjects_BatchesManifestEntries(t *testing.T) {
	root := t.TempDir()
	paths := manifest.Resolve(root, "default", version.FamilySavedObjects)
	require.NoError(t, manifest.SaveSavedObjectsManifest(paths.ManifestFile, manifest.SavedObjectsManifest{
		Objects: []manifest.SavedObjectRef{{Type: "dashboard", ID: "abc"}},
	}))
	obj := codec.NewObject()
	obj.Set("id", "abc")
	obj.Set("type", "dashboard")
	require.NoError(t, writeSavedObjectFile(manifest.SavedObjectPath(root, "default", "dashboard", "abc"), obj))

	var sawImport bool
	c := connectTestClient(t, root, "9.3.0", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sawImport = true
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true}`))
		}
	})
	o := New(c, root, 4, zerolog.Nop())

	summary, err := o.Push(context.Background(), []string{"default"}, []version.Family{version.FamilySavedObjects}, false, false)
	require.NoError(t, err)
	assert.True(t, sawImport)
	assert.Equal(t, 1, summary.Written)
}

func toolObject(id, name string) *codec.Object {
	obj := codec.NewObject()
	obj.Set("id", id)
	obj.Set("name", name)
	obj.Set("configuration", codec.NewObject())
	return obj
}
