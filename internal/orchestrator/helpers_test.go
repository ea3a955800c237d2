package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/ksync/internal/config"
	"github.com/p-blackswan/ksync/internal/httpclient"
)

func decodeJSONBody(t *testing.T, r *http.Request, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(out))
}

// connectTestClient spins up an httptest server pre-wired for the
// /api/status probe at the given version, connects a Client against it
// scoped to root's spaces.yml, and registers server.Close/client cleanup.
func connectTestClient(t *testing.T, root, serverVersion string, handler http.HandlerFunc) *httpclient.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/status" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"version":{"number":"` + serverVersion + `"}}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	c, err := httpclient.Connect(context.Background(), server.URL, config.Auth{}, root, 4, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func writeSpacesYAML(t *testing.T, root, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "spaces.yml"), []byte(contents), 0o644))
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
