// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"
	"sync"

	"github.com/rainbowlabs/rainbow/cache"
	"github.com/rainbowlabs/rainbow/kv"
)

// Executor serializes transactions over a store.
// Every Update runs on a fresh state and is committed as a whole or not at all.
type Executor struct {
	mu    sync.RWMutex
	store kv.Store
	cache *cache.LRU
}

// NewExecutor creates an executor. cache may be nil.
func NewExecutor(store kv.Store, c *cache.LRU) *Executor {
	return &Executor{store: store, cache: c}
}

// joined returns the state of a transaction of this executor carried by ctx.
func (e *Executor) joined(ctx context.Context) (*State, bool) {
	st, ok := FromContext(ctx)
	if !ok || st.exec != e {
		return nil, false
	}
	return st, true
}

// Update runs fn in a transaction. If ctx already carries a transaction of this
// executor, fn joins it and its changes are reverted on error, but committed
// only with the outer transaction.
func (e *Executor) Update(ctx context.Context, fn func(ctx context.Context, st *State) error) error {
	if st, ok := e.joined(ctx); ok {
		cp := st.NewCheckpoint()
		if err := fn(ctx, st); err != nil {
			st.RevertTo(cp)
			return err
		}
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st := New(e.store, e.cache)
	st.exec = e
	if err := fn(NewContext(ctx, st), st); err != nil {
		return err
	}
	if err := st.Stage().Commit(); err != nil {
		return err
	}
	for _, hook := range st.hooks {
		hook()
	}
	return nil
}

// View runs fn on a read-only view of the committed state, or on the
// transaction carried by ctx.
func (e *Executor) View(ctx context.Context, fn func(st *State) error) error {
	if st, ok := e.joined(ctx); ok {
		return fn(st)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	return fn(New(e.store, e.cache))
}
