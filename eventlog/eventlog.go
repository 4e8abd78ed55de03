// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventlog persists committed engine events to the event log and
// wakes up subscribers.
package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/co"
	"github.com/rainbowlabs/rainbow/health"
	"github.com/rainbowlabs/rainbow/log"
	"github.com/rainbowlabs/rainbow/logdb"
	"github.com/rainbowlabs/rainbow/metrics"
)

var (
	logger = log.WithContext("pkg", "eventlog")

	metricQueueLength = metrics.LazyLoadGauge("eventlog_queue_length")
	metricWriteErrors = metrics.LazyLoadCounter("eventlog_write_errors")
)

const retryInterval = time.Second

// Engine is queried for the flags reported by health.
type Engine interface {
	Initialized(ctx context.Context) (bool, error)
	Params(ctx context.Context) (*policy.Params, error)
}

// Writer is a staker.Observer. Events are queued while the engine is locked and
// written by Run in commit order.
type Writer struct {
	db       *logdb.LogDB
	newEvent *co.Signal
	health   *health.Health
	engine   Engine

	lock    sync.Mutex
	pending []*logdb.Event
	wake    chan struct{}
	idle    *sync.Cond
	writing bool
}

var _ staker.Observer = (*Writer)(nil)

// New creates a writer. newEvent is broadcast after every write; health may be nil.
func New(db *logdb.LogDB, newEvent *co.Signal, h *health.Health) *Writer {
	w := &Writer{
		db:       db,
		newEvent: newEvent,
		health:   h,
		wake:     make(chan struct{}, 1),
	}
	w.idle = sync.NewCond(&w.lock)
	return w
}

// Track sets the engine whose state is reported to health. Call it before Run.
func (w *Writer) Track(e Engine) {
	w.engine = e
}

func convert(ev *staker.Event) *logdb.Event {
	out := &logdb.Event{
		Time:   ev.Time,
		Name:   ev.Name,
		Actor:  ev.Actor,
		Amount: ev.Amount,
		Attrs:  ev.Attrs,
	}
	if !ev.Subject.IsZero() {
		subject := ev.Subject
		out.Subject = &subject
	}
	return out
}

// Observe queues events without blocking the engine.
func (w *Writer) Observe(events []*staker.Event) {
	if len(events) == 0 {
		return
	}
	w.lock.Lock()
	for _, ev := range events {
		w.pending = append(w.pending, convert(ev))
	}
	metricQueueLength().Set(int64(len(w.pending)))
	w.lock.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run writes queued events until ctx is done, then writes what is left.
func (w *Writer) Run(ctx context.Context) {
	w.refreshEngineState(ctx)

	for {
		select {
		case <-ctx.Done():
			// best effort, the log may be closing too
			w.flush(context.Background())
			return
		case <-w.wake:
			if !w.flush(ctx) {
				select {
				case <-ctx.Done():
				case <-time.After(retryInterval):
					w.signal()
				}
			}
		}
	}
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// flush writes all pending events, returns false if the write failed and
// the events are kept for a retry.
func (w *Writer) flush(ctx context.Context) bool {
	w.lock.Lock()
	batch := w.pending
	w.pending = nil
	w.writing = len(batch) > 0
	w.lock.Unlock()

	if len(batch) == 0 {
		return true
	}

	err := w.db.Record(batch)
	if err != nil {
		metricWriteErrors().Add(1)
		logger.Warn("failed to record events", "count", len(batch), "err", err)
		if w.health != nil {
			w.health.EventLogFailed(err)
		}
	} else {
		logger.Debug("recorded events", "count", len(batch), "seq", batch[len(batch)-1].Seq)
		if w.health != nil {
			w.health.EventsRecorded(batch[len(batch)-1].Seq)
		}
		w.newEvent.Broadcast()
		w.refreshEngineState(ctx)
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	w.writing = false
	if err != nil {
		w.pending = append(batch, w.pending...)
	}
	metricQueueLength().Set(int64(len(w.pending)))
	w.idle.Broadcast()
	return err == nil
}

func (w *Writer) refreshEngineState(ctx context.Context) {
	if w.health == nil || w.engine == nil {
		return
	}
	initialized, err := w.engine.Initialized(ctx)
	if err != nil {
		logger.Warn("failed to query engine", "err", err)
		return
	}
	if !initialized {
		w.health.EngineState(false, false, false)
		return
	}
	params, err := w.engine.Params(ctx)
	if err != nil {
		logger.Warn("failed to query engine", "err", err)
		return
	}
	w.health.EngineState(true, params.Paused, params.Emergency)
}

// Wait blocks until every event observed so far is written or ctx is done.
func (w *Writer) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		w.lock.Lock()
		w.idle.Broadcast()
		w.lock.Unlock()
	})
	defer stop()

	w.lock.Lock()
	defer w.lock.Unlock()
	for len(w.pending) > 0 || w.writing {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.idle.Wait()
	}
	return nil
}
