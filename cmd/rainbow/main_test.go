// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/api/events"
	"github.com/rainbowlabs/rainbow/genesis"
	"github.com/rainbowlabs/rainbow/logdb"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/rainbow"
)

func TestHandleXGenesisID(t *testing.T) {
	genesisID := rainbow.Blake2b([]byte("genesis"))
	handler := handleXGenesisID(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OK"))
	}), genesisID)

	tests := []struct {
		name   string
		header string
		query  string
		code   int
	}{
		{"no id", "", "", http.StatusOK},
		{"matching header", genesisID.String(), "", http.StatusOK},
		{"matching query", "", genesisID.String(), http.StatusOK},
		{"mismatch", rainbow.Bytes32{}.String(), "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/staking/info"
			if tt.query != "" {
				target += "?x-genesis-id=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("x-genesis-id", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, genesisID.String(), rr.Header().Get("x-genesis-id"))
		})
	}
}

func TestRequestBodyLimit(t *testing.T) {
	handler := requestBodyLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 300*1024))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestHandleAPITimeout(t *testing.T) {
	handler := handleAPITimeout(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			w.WriteHeader(http.StatusServiceUnavailable)
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	}), 10*time.Millisecond)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestInitGenesis(t *testing.T) {
	mainDB := lvldb.NewMem()
	defer mainDB.Close()

	gen := genesis.NewDevnet()
	genesisID, err := gen.ID()
	require.NoError(t, err)

	e := newEngine(mainDB, gen)
	require.NoError(t, initGenesis(mainDB, e, gen, genesisID))

	initialized, err := e.staker.Initialized(context.Background())
	require.NoError(t, err)
	assert.True(t, initialized)

	// reopening with the same genesis is a no-op
	e = newEngine(mainDB, gen)
	require.NoError(t, initGenesis(mainDB, e, gen, genesisID))
	pool, err := e.reward.BalanceOf(context.Background(), e.staker.Address())
	require.NoError(t, err)
	assert.Equal(t, rainbow.MustParseUnits("1000000").String(), pool.String())

	other := genesis.NewDevnet()
	other.RewardPool = genesis.NewUnits("1")
	otherID, err := other.ID()
	require.NoError(t, err)
	err = initGenesis(mainDB, newEngine(mainDB, other), other, otherID)
	assert.ErrorContains(t, err, "genesis mismatch")
}

func TestGenesisDiff(t *testing.T) {
	diff := genesisDiff([]byte("owner: a\nrewardPool: \"1\"\n"), []byte("owner: a\nrewardPool: \"2\"\n"))
	assert.Contains(t, diff, "--- Stored")
	assert.Contains(t, diff, "+++ Current")
	assert.Contains(t, diff, "-rewardPool: \"1\"")
	assert.Contains(t, diff, "+rewardPool: \"2\"")
}

func TestExportEvents(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	actor := rainbow.BytesToAddress([]byte("actor"))
	var evs []*logdb.Event
	for i := range exportBatchSize + 5 {
		evs = append(evs, &logdb.Event{Time: uint64(i), Name: "Staked", Actor: actor, Amount: big.NewInt(int64(i))})
	}
	require.NoError(t, db.Record(evs))

	readLines := func(r io.Reader) []*events.FilteredEvent {
		var out []*events.FilteredEvent
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			var ev events.FilteredEvent
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
			out = append(out, &ev)
		}
		require.NoError(t, scanner.Err())
		return out
	}

	var plain bytes.Buffer
	n, err := exportEvents(context.Background(), db, &plain, false, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(exportBatchSize+5), n)
	lines := readLines(&plain)
	require.Len(t, lines, exportBatchSize+5)
	for i, ev := range lines {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}

	var compressed bytes.Buffer
	n, err = exportEvents(context.Background(), db, &compressed, true, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(exportBatchSize+5), n)
	assert.Len(t, readLines(snappy.NewReader(&compressed)), exportBatchSize+5)
}
