// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/rainbowlabs/rainbow/rainbow"
)

// Event is a stored engine event.
type Event struct {
	Seq     uint64
	Time    uint64
	Name    string
	Actor   rainbow.Address
	Subject *rainbow.Address
	Amount  *big.Int
	Attrs   map[string]string
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is a closed interval of unix times. A To below From leaves the range open ended.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by all of its non-empty fields.
type EventCriteria struct {
	Name    string
	Actor   *rainbow.Address
	Subject *rainbow.Address
}

// EventFilter matches events meeting any of the criteria.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	// After selects events with a sequence number greater than it.
	After   uint64
	Options *Options
	Order   Order // default asc
}
