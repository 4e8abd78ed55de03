// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_EventsRecorded(t *testing.T) {
	h := New()

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Nil(t, status.EventIngestion.Timestamp)

	h.EngineState(true, false, false)
	h.EventsRecorded(7)

	if time.Since(h.recorded) > time.Second {
		t.Errorf("recorded timestamp is not recent")
	}

	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(7), status.EventIngestion.Seq)
	assert.NotNil(t, status.EventIngestion.Timestamp)
}

func TestHealth_EventLogFailed(t *testing.T) {
	h := New()
	h.EngineState(true, false, false)

	h.EventLogFailed(errors.New("disk full"))
	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Equal(t, "disk full", status.EventIngestion.Error)

	h.EventsRecorded(1)
	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.EventIngestion.Error)
}

func TestHealth_EngineState(t *testing.T) {
	h := &Health{}

	h.EngineState(true, true, true)
	status, err := h.Status()
	require.NoError(t, err)
	assert.True(t, status.Initialized)
	assert.True(t, status.Paused)
	assert.True(t, status.Emergency)
	assert.True(t, status.Healthy, "paused and emergency engines still serve exits")

	h.EngineState(false, false, false)
	status, err = h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
}
