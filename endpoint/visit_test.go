package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ariebrainware/tbcare/authorize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visitRows(t *testing.T, env *testEnv, id uint, headers map[string]string) []interface{} {
	t.Helper()
	code, resp := env.call(t, http.MethodGet, fmt.Sprintf("/treatment/%d/visits", id), nil, headers)
	require.Equal(t, http.StatusOK, code, resp)
	return resp["data"].(map[string]interface{})["visits"].([]interface{})
}

func rowStatus(row interface{}) string {
	return row.(map[string]interface{})["status"].(string)
}

func TestListVisits_Reconciled(t *testing.T) {
	env := newTestEnv(t)
	id := env.createTreatment(t, 1, 10)

	rows := visitRows(t, env, id, tokenFor(t, 100, authorize.RolePatient))
	require.Len(t, rows, 5)
	assert.Equal(t, "Overdue/Missed", rowStatus(rows[0]))
	assert.Equal(t, "Overdue/Missed", rowStatus(rows[1]))
	// Today's visit is not overdue yet.
	assert.Equal(t, "Scheduled", rowStatus(rows[2]))
	assert.Equal(t, "Scheduled", rowStatus(rows[4]))

	code, _ := env.call(t, http.MethodGet, fmt.Sprintf("/treatment/%d/visits", id), nil, tokenFor(t, 200, authorize.RolePatient))
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCompleteVisit(t *testing.T) {
	env := newTestEnv(t)
	id := env.createTreatment(t, 1, 10)
	path := fmt.Sprintf("/treatment/%d/visits/2024-01-15/complete", id)

	code, resp := env.call(t, http.MethodPost, path, map[string]interface{}{"weight_kg": 55.0}, doctor(t))
	assert.Equal(t, http.StatusBadRequest, code, resp)

	code, resp = env.call(t, http.MethodPost, path, map[string]interface{}{
		"weight_kg":    55.0,
		"pill_count":   28,
		"side_effects": "mild nausea",
	}, tokenFor(t, 4, authorize.RoleNurse))
	require.Equal(t, http.StatusCreated, code, resp)
	entry := resp["data"].(map[string]interface{})
	assert.Equal(t, "completed", entry["status"])
	assert.Equal(t, float64(4), entry["recorded_by"])

	rows := visitRows(t, env, id, doctor(t))
	assert.Equal(t, "Completed", rowStatus(rows[0]))

	code, _ = env.call(t, http.MethodPost, fmt.Sprintf("/treatment/%d/visits/2024-01-16/complete", id),
		map[string]interface{}{"weight_kg": 55.0, "pill_count": 28}, doctor(t))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.call(t, http.MethodPost, fmt.Sprintf("/treatment/%d/visits/15-01-2024/complete", id),
		map[string]interface{}{"weight_kg": 55.0, "pill_count": 28}, doctor(t))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.call(t, http.MethodPost, path, map[string]interface{}{"weight_kg": 55.0, "pill_count": 28}, tokenFor(t, 100, authorize.RolePatient))
	assert.Equal(t, http.StatusForbidden, code)
}

func TestMissAndEditVisit(t *testing.T) {
	env := newTestEnv(t)
	id := env.createTreatment(t, 1, 10)
	base := fmt.Sprintf("/treatment/%d/visits/2024-01-31", id)

	code, _ := env.call(t, http.MethodPatch, base, map[string]interface{}{"notes": "late entry"}, doctor(t))
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := env.call(t, http.MethodPost, base+"/missed", map[string]interface{}{"notes": "did not attend"}, doctor(t))
	require.Equal(t, http.StatusCreated, code, resp)
	assert.Equal(t, "missed", resp["data"].(map[string]interface{})["status"])

	rows := visitRows(t, env, id, doctor(t))
	assert.Equal(t, "Missed", rowStatus(rows[1]))

	code, resp = env.call(t, http.MethodPatch, base, map[string]interface{}{
		"status":     "completed",
		"weight_kg":  53.0,
		"pill_count": 30,
	}, doctor(t))
	require.Equal(t, http.StatusOK, code, resp)
	entry := resp["data"].(map[string]interface{})
	assert.Equal(t, "completed", entry["status"])
	assert.Equal(t, "did not attend", entry["notes"])

	rows = visitRows(t, env, id, doctor(t))
	assert.Equal(t, "Completed", rowStatus(rows[1]))
	assert.Equal(t, float64(2), rows[1].(map[string]interface{})["entries"])

	code, resp = env.call(t, http.MethodGet, base+"/history", nil, tokenFor(t, 100, authorize.RolePatient))
	require.Equal(t, http.StatusOK, code, resp)
	entries := resp["data"].(map[string]interface{})["entries"].([]interface{})
	require.Len(t, entries, 2)
	assert.Equal(t, "missed", entries[0].(map[string]interface{})["status"])
	assert.Equal(t, "completed", entries[1].(map[string]interface{})["status"])
}

func TestMissVisit_WithoutBody(t *testing.T) {
	env := newTestEnv(t)
	id := env.createTreatment(t, 1, 10)

	code, resp := env.call(t, http.MethodPost, fmt.Sprintf("/treatment/%d/visits/2024-01-15/missed", id), nil, doctor(t))
	require.Equal(t, http.StatusCreated, code, resp)
	assert.Equal(t, "missed", resp["data"].(map[string]interface{})["status"])
}
