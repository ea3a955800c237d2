package family

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/ksync/internal/codec"
)

func TestSpaceExtractor_List(t *testing.T) {
	sp := connectDefault(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]string{{"id": "default"}, {"id": "marketing"}})
	})

	e := &SpaceExtractor{Space: sp}
	ids, err := e.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "marketing"}, ids)
}

func TestSpaceLoader_NeverDeletesOnUpdateRace(t *testing.T) {
	var sawCreate, sawDelete bool
	sp := connectDefault(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// The space exists at the CHECK step...
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			// ...but is gone by the time the update lands.
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPost:
			sawCreate = true
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			sawDelete = true
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})

	loader := &SpaceLoader{Space: sp}
	record := codec.NewObject()
	record.Set("name", "Marketing")

	result, err := Upsert(context.Background(), loader, "marketing", record)
	require.NoError(t, err)
	assert.Equal(t, UpsertCreated, result)
	assert.True(t, sawCreate)
	assert.False(t, sawDelete)
}
