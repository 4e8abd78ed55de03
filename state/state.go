// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rainbowlabs/rainbow/cache"
	"github.com/rainbowlabs/rainbow/kv"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr rainbow.Address
	key  rainbow.Bytes32
}

func (k storageKey) dbKey() []byte {
	return append(append(make([]byte, 0, len(k.addr)+len(k.key)), k.addr[:]...), k.key[:]...)
}

// State manages storage of contract-like accounts.
type State struct {
	store kv.Store
	cache *cache.LRU             // committed values, shared by all states over the store
	sm    *stackedmap.StackedMap // keeps revisions of storage
	exec  *Executor              // the executor running this state, nil if standalone

	hooks     []func()
	hookMarks map[int]int // revision => hooks count
}

// New creates a state over the given store. cache may be nil.
func New(store kv.Store, c *cache.LRU) *State {
	s := &State{store: store, cache: c}
	s.sm = stackedmap.New(func(key any) (any, bool, error) {
		v, err := s.load(key.(storageKey))
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	})
	return s
}

func (s *State) load(key storageKey) (rlp.RawValue, error) {
	loader := func(any) (any, error) {
		raw, err := s.store.Get(key.dbKey())
		if err != nil {
			if s.store.IsNotFound(err) {
				return rlp.RawValue(nil), nil
			}
			return nil, err
		}
		return rlp.RawValue(raw), nil
	}
	if s.cache == nil {
		v, err := loader(key)
		if err != nil {
			return nil, err
		}
		return v.(rlp.RawValue), nil
	}
	v, err := s.cache.GetOrLoad(key, loader)
	if err != nil {
		return nil, err
	}
	return v.(rlp.RawValue), nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr rainbow.Address, key rainbow.Bytes32) (rainbow.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return rainbow.Bytes32{}, err
	}
	if len(raw) == 0 {
		return rainbow.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return rainbow.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return rainbow.Blake2b(raw), nil
	}
	return rainbow.BytesToBytes32(content), nil
}

// SetStorage sets storage value for the given address and key.
func (s *State) SetStorage(addr rainbow.Address, key, value rainbow.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr rainbow.Address, key rainbow.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage sets storage value in rlp raw.
func (s *State) SetRawStorage(addr rainbow.Address, key rainbow.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage sets storage value encoded by given enc method.
func (s *State) EncodeStorage(addr rainbow.Address, key rainbow.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes storage value.
func (s *State) DecodeStorage(addr rainbow.Address, key rainbow.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	rev := s.sm.Push()
	if s.hookMarks == nil {
		s.hookMarks = make(map[int]int)
	}
	s.hookMarks[rev] = len(s.hooks)
	return rev
}

// RevertTo reverts to checkpoint specified by revision.
// Commit hooks registered after the checkpoint are dropped.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if n, ok := s.hookMarks[revision]; ok {
		s.hooks = s.hooks[:n]
	}
	for rev := range s.hookMarks {
		if rev > revision {
			delete(s.hookMarks, rev)
		}
	}
}

// OnCommit registers f to run once the changes are committed by an Executor.
func (s *State) OnCommit(f func()) {
	s.hooks = append(s.hooks, f)
}

// Stage makes a stage object holding all changes since the state was created.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k, v any) bool {
		changes[k.(storageKey)] = v.(rlp.RawValue)
		return true
	})
	return &Stage{
		store:   s.store,
		cache:   s.cache,
		changes: changes,
	}
}
