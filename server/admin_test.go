package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminConfig(t *testing.T) {
	a := newTestArena(t)

	rec := httptest.NewRecorder()
	a.HandleAdminConfig(rec, httptest.NewRequest(http.MethodGet, "/admin/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tickPeriodMs":5,"thrust":0.2,"maxSpeed":5}`, rec.Body.String())

	rec = httptest.NewRecorder()
	a.HandleAdminConfig(rec, httptest.NewRequest(http.MethodPost, "/admin/config", strings.NewReader(`{"thrust":0.4,"tickPeriodMs":20}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.4, a.Tuning.Load().Thrust)
	assert.Equal(t, 20*time.Millisecond, a.Tuning.Load().TickPeriod)

	rec = httptest.NewRecorder()
	a.HandleAdminConfig(rec, httptest.NewRequest(http.MethodPost, "/admin/config", strings.NewReader(`{"maxSpeed":-1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, DefaultMaxSpeed, a.Tuning.Load().MaxSpeed)

	rec = httptest.NewRecorder()
	a.HandleAdminConfig(rec, httptest.NewRequest(http.MethodPost, "/admin/config", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	a.HandleAdminConfig(rec, httptest.NewRequest(http.MethodDelete, "/admin/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestArena(t)
	connect(t, a)

	rec := httptest.NewRecorder()
	a.HandleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Players int            `json:"players"`
		Members int            `json:"members"`
		Loop    string         `json:"loop"`
		Metrics map[string]any `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Players)
	assert.Equal(t, 1, body.Members)
	assert.Equal(t, "running", body.Loop)
	assert.EqualValues(t, 1, body.Metrics["loop_starts"])
}
