// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health tracks whether committed engine events reach the event log.
package health

import (
	"sync"
	"time"
)

type EventIngestion struct {
	Seq       uint64     `json:"seq"`
	Timestamp *time.Time `json:"timestamp"`
	Error     string     `json:"error,omitempty"`
}

type Status struct {
	Healthy        bool            `json:"healthy"`
	EventIngestion *EventIngestion `json:"eventIngestion"`
	Initialized    bool            `json:"initialized"`
	Paused         bool            `json:"paused"`
	Emergency      bool            `json:"emergency"`
}

// Health is healthy once the engine is initialized, for as long as the event log keeps up.
type Health struct {
	lock        sync.RWMutex
	recorded    time.Time
	lastSeq     uint64
	lastErr     error
	initialized bool
	paused      bool
	emergency   bool
}

func New() *Health {
	return &Health{}
}

// EventsRecorded marks events up to seq as written to the event log.
func (h *Health) EventsRecorded(seq uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.recorded = time.Now()
	h.lastSeq = seq
	h.lastErr = nil
}

// EventLogFailed marks the event log as failing until events are recorded again.
func (h *Health) EventLogFailed(err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastErr = err
}

// EngineState updates the engine flags reported with the status.
func (h *Health) EngineState(initialized, paused, emergency bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.initialized = initialized
	h.paused = paused
	h.emergency = emergency
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	ingestion := &EventIngestion{Seq: h.lastSeq}
	if !h.recorded.IsZero() {
		recorded := h.recorded
		ingestion.Timestamp = &recorded
	}
	if h.lastErr != nil {
		ingestion.Error = h.lastErr.Error()
	}

	return &Status{
		Healthy:        h.initialized && h.lastErr == nil,
		EventIngestion: ingestion,
		Initialized:    h.initialized,
		Paused:         h.paused,
		Emergency:      h.emergency,
	}, nil
}
