// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/api/staking"
	"github.com/rainbowlabs/rainbow/api/subscriptions"
	"github.com/rainbowlabs/rainbow/co"
	"github.com/rainbowlabs/rainbow/logdb"
	"github.com/rainbowlabs/rainbow/metrics"
	"github.com/rainbowlabs/rainbow/test"
	"github.com/rainbowlabs/rainbow/test/testengine"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "staking_info", routeLabel("GET /staking/info"))
	assert.Equal(t, "staking_accounts_address_earned", routeLabel("GET /staking/accounts/{address}/earned"))
	assert.Equal(t, "staking_emergency_unstake", routeLabel("POST /staking/emergency-unstake"))
}

func TestMetricsMiddleware(t *testing.T) {
	engine, err := testengine.NewDefault()
	require.NoError(t, err)
	defer engine.Close()

	router := mux.NewRouter()
	staking.New(engine.Staker()).Mount(router, "/staking")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	test.HTTPGet(t, ts.URL+"/staking/accounts/0x")
	test.HTTPGet(t, ts.URL+"/staking/accounts/"+engine.Owner().String())
	test.HTTPGet(t, ts.URL+"/staking/accounts/"+engine.Owner().String())

	body, _ := test.HTTPGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	m := families["rainbow_api_request_count"].GetMetric()
	require.Equal(t, 2, len(m), "should be 2 metric entries")

	// label pairs are sorted by name: code, method, name
	labels := m[0].GetLabel()
	assert.Equal(t, 3, len(labels))
	assert.Equal(t, "code", labels[0].GetName())
	assert.Equal(t, "200", labels[0].GetValue())
	assert.Equal(t, "method", labels[1].GetName())
	assert.Equal(t, "GET", labels[1].GetValue())
	assert.Equal(t, "name", labels[2].GetName())
	assert.Equal(t, "staking_accounts_address", labels[2].GetValue())
	assert.Equal(t, float64(2), m[0].GetCounter().GetValue())

	labels = m[1].GetLabel()
	assert.Equal(t, "400", labels[0].GetValue())
	assert.Equal(t, "staking_accounts_address", labels[2].GetValue())
	assert.Equal(t, float64(1), m[1].GetCounter().GetValue())
}

func TestWebsocketMetrics(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	router := mux.NewRouter()
	sub := subscriptions.New(db, &co.Signal{}, []string{"*"})
	sub.Mount(router, "/subscriptions")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()
	defer sub.Close()

	activeSubscriptions := func() float64 {
		body, _ := test.HTTPGet(t, ts.URL+"/metrics")
		parser := expfmt.TextParser{}
		families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
		require.NoError(t, err)
		m := families["rainbow_api_active_websocket_count"].GetMetric()
		require.Equal(t, 1, len(m), "should be 1 metric entry")
		assert.Equal(t, "subject", m[0].GetLabel()[0].GetName())
		assert.Equal(t, "events", m[0].GetLabel()[0].GetValue())
		return m[0].GetGauge().GetValue()
	}

	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/events"}
	conn1, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn1.Close()
	assert.Equal(t, float64(1), activeSubscriptions())

	conn2, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn2.Close()
	assert.Equal(t, float64(2), activeSubscriptions())
}
