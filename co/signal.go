// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter provides channel to wait for.
// A received true means Signal, a closed channel (false) means Broadcast.
type Waiter interface {
	C() <-chan bool
}

// Signal is a channel based rendezvous point, usable in select statements
// where sync.Cond is not.
type Signal struct {
	mu sync.Mutex
	ch chan bool
}

// current returns the live channel. Must be called with mu held.
func (s *Signal) current() chan bool {
	if s.ch == nil {
		s.ch = make(chan bool, 1)
	}
	return s.ch
}

// Signal wakes one goroutine that is waiting on s.
func (s *Signal) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.current() <- true:
	default:
	}
}

// Broadcast wakes all goroutines that are waiting on s.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.current())
	s.ch = make(chan bool, 1)
}

// NewWaiter creates a Waiter. Each call of C returns the channel that was live
// after the previous call, so no broadcast between two waits is missed.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	ref := s.current()
	s.mu.Unlock()

	return waiterFunc(func() <-chan bool {
		ch := ref

		s.mu.Lock()
		ref = s.current()
		s.mu.Unlock()

		return ch
	})
}

type waiterFunc func() <-chan bool

func (w waiterFunc) C() <-chan bool {
	return w()
}
