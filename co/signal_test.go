// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rainbowlabs/rainbow/co"
)

func TestSignalBeforeWait(t *testing.T) {
	var sig co.Signal
	sig.Signal()

	<-sig.NewWaiter().C()
}

func TestSignalAfterWait(t *testing.T) {
	var sig co.Signal
	w := sig.NewWaiter()
	sig.Signal()
	<-w.C()
}

func TestBroadcastBeforeWait(t *testing.T) {
	var sig co.Signal
	sig.Broadcast()

	var pending int
	for range 10 {
		select {
		case <-sig.NewWaiter().C():
		default:
			pending++
		}
	}
	assert.Equal(t, 10, pending)
}

func TestBroadcastAfterWait(t *testing.T) {
	var sig co.Signal

	var ws []co.Waiter
	for range 10 {
		ws = append(ws, sig.NewWaiter())
	}

	sig.Broadcast()

	for _, w := range ws {
		<-w.C()
	}
}

func TestGoes(t *testing.T) {
	var (
		goes co.Goes
		n    atomic.Int32
	)
	for range 5 {
		goes.Go(func() { n.Add(1) })
	}
	<-goes.Done()
	assert.Equal(t, int32(5), n.Load())
}
