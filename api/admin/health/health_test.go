// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/health"
	"github.com/rainbowlabs/rainbow/test"
)

func TestHealth(t *testing.T) {
	h := health.New()
	router := mux.NewRouter()
	NewAPI(h).Mount(router, "/health")
	ts := httptest.NewServer(router)
	defer ts.Close()

	var status health.Status
	body, code := test.HTTPGet(t, ts.URL+"/health")
	require.NoError(t, json.Unmarshal(body, &status))
	assert.False(t, status.Healthy)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	h.EngineState(true, false, false)
	h.EventsRecorded(3)

	body, code = test.HTTPGet(t, ts.URL+"/health")
	require.NoError(t, json.Unmarshal(body, &status))
	assert.True(t, status.Healthy)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(3), status.EventIngestion.Seq)
}
