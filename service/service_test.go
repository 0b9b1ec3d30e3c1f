package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealthzWithoutProvider(t *testing.T) {
	s := New("v1.2.3")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.HandleHealthz(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp healthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
	assert.False(t, resp.Running)
	assert.Empty(t, resp.LastVerdict)
}

func TestHandleHealthzReportsRunState(t *testing.T) {
	s := New("v1.2.3")
	s.SetStatusProvider(func() RunState {
		return RunState{
			Running:     true,
			LastRunID:   "run-42",
			LastVerdict: "FAIL",
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.HandleHealthz(rec, req)

	var resp healthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Running)
	assert.Equal(t, "run-42", resp.LastRunID)
	assert.Equal(t, "FAIL", resp.LastVerdict)
}
