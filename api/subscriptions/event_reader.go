// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"

	"github.com/rainbowlabs/rainbow/api/events"
	"github.com/rainbowlabs/rainbow/logdb"
)

// eventReader reads recorded events past a sequence number, in batches.
type eventReader struct {
	db       *logdb.LogDB
	after    uint64
	criteria *logdb.EventCriteria
	batch    uint64
}

func newEventReader(db *logdb.LogDB, after uint64, criteria *logdb.EventCriteria, batch uint64) *eventReader {
	return &eventReader{
		db:       db,
		after:    after,
		criteria: criteria,
		batch:    batch,
	}
}

// Read returns the next batch of events, and whether more may be ready.
func (er *eventReader) Read(ctx context.Context) ([]any, bool, error) {
	filter := &logdb.EventFilter{
		After:   er.after,
		Options: &logdb.Options{Limit: er.batch},
	}
	if er.criteria != nil {
		filter.CriteriaSet = []*logdb.EventCriteria{er.criteria}
	}
	evs, err := er.db.FilterEvents(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	msgs := make([]any, 0, len(evs))
	for _, ev := range evs {
		msgs = append(msgs, events.ConvertEvent(ev))
		er.after = ev.Seq
	}
	return msgs, uint64(len(evs)) == er.batch, nil
}
