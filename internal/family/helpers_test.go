package family

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeJSONBody(t *testing.T, r *http.Request, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(out))
}
