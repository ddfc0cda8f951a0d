package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"figure": "arm"}`))
	}))
	defer srv.Close()

	var out struct {
		Figure string `json:"figure"`
	}
	require.NoError(t, GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "arm", out.Figure)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]float64{"double": in["n"] * 2})
	}))
	defer srv.Close()

	var out map[string]float64
	require.NoError(t, PostJSON(context.Background(), srv.URL, map[string]float64{"n": 2}, &out))
	assert.Equal(t, 4.0, out["double"])
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "action not found: juggle", http.StatusNotFound)
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), srv.URL, nil, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "action not found: juggle", se.Body)
}
