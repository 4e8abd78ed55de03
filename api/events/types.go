// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/rainbowlabs/rainbow/logdb"
	"github.com/rainbowlabs/rainbow/rainbow"
)

type EventCriteria struct {
	Name    string           `json:"name,omitempty"`
	Actor   *rainbow.Address `json:"actor,omitempty"`
	Subject *rainbow.Address `json:"subject,omitempty"`
}

// Range is an inclusive range of unix times.
type Range struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

// FilteredEvent is a recorded engine event.
type FilteredEvent struct {
	Seq     uint64                `json:"seq"`
	Time    uint64                `json:"time"`
	Name    string                `json:"name"`
	Actor   rainbow.Address       `json:"actor"`
	Subject *rainbow.Address      `json:"subject,omitempty"`
	Amount  *math.HexOrDecimal256 `json:"amount,omitempty"`
	Attrs   map[string]string     `json:"attrs,omitempty"`
}

// ConvertEvent converts a recorded event for output.
func ConvertEvent(ev *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Seq:     ev.Seq,
		Time:    ev.Time,
		Name:    ev.Name,
		Actor:   ev.Actor,
		Subject: ev.Subject,
		Attrs:   ev.Attrs,
	}
	if ev.Amount != nil {
		fe.Amount = (*math.HexOrDecimal256)(new(big.Int).Set(ev.Amount))
	}
	return fe
}

func convertEventFilter(ef *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{
		Order: ef.Order,
	}
	for _, c := range ef.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Name:    c.Name,
			Actor:   c.Actor,
			Subject: c.Subject,
		})
	}
	if ef.Range != nil {
		// sqlite takes signed integers
		r := &logdb.Range{To: 1<<63 - 1}
		if ef.Range.From != nil {
			r.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			r.To = *ef.Range.To
		}
		f.Range = r
	}
	if ef.Options != nil {
		f.Options = &logdb.Options{
			Offset: ef.Options.Offset,
			Limit:  ef.Options.Limit,
		}
	}
	return f
}
