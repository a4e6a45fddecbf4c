package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimetablesEqualIgnoresVolatileFields(t *testing.T) {
	a := []byte(`{"data":{"id":"a","generatedAt":"2024-01-01T00:00:00Z","entries":[{"day":"monday","period":1}]},"meta":{"processing_time_ms":3}}`)
	b := []byte(`{"data":{"id":"b","generatedAt":"2024-02-01T00:00:00Z","entries":[{"day":"monday","period":1}]}}`)

	equal, diff := timetablesEqual(a, b)
	assert.True(t, equal)
	assert.Empty(t, diff)
}

func TestTimetablesEqualReportsFirstDiff(t *testing.T) {
	a := []byte(`{"data":{"id":"a","unplacedCount":0}}`)
	b := []byte(`{"data":{"id":"b","unplacedCount":2}}`)

	equal, diff := timetablesEqual(a, b)
	assert.False(t, equal)
	assert.Equal(t, "data.unplacedCount", diff)
}

func TestLoadScenariosRequiresSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"scenarios":[{"name":"x","request":{"periodsPerDay":5}}]}`), 0o600))

	_, err := loadScenarios(path)
	require.Error(t, err)
}

func TestLoadScenariosBundledFile(t *testing.T) {
	scenarios, err := loadScenarios("scenarios.json")
	require.NoError(t, err)
	assert.NotEmpty(t, scenarios)
}

func TestCompareScenario(t *testing.T) {
	handler := func(id string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"id": id, "placed": 10},
			})
		}
	}
	primary := httptest.NewServer(handler("p"))
	defer primary.Close()
	shadow := httptest.NewServer(handler("s"))
	defer shadow.Close()

	res := compareScenario(primary.Client(), primary.URL, shadow.URL, "/api/v1/timetables/generate", scenario{
		Name:    "basic",
		Request: json.RawMessage(`{"seed":1}`),
	})

	require.NoError(t, res.Error)
	assert.True(t, res.StatusMatch)
	assert.True(t, res.BodyMatch)
	assert.Equal(t, http.StatusCreated, res.PrimaryStatus)
}
