// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rainbowlabs/rainbow/cache"
	"github.com/rainbowlabs/rainbow/kv"
)

// Stage holds the changes of a state, ready to be written.
type Stage struct {
	store   kv.Store
	cache   *cache.LRU
	changes map[storageKey]rlp.RawValue
}

// Len returns the count of changed storage slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit writes all changes in one batch.
func (s *Stage) Commit() error {
	if len(s.changes) == 0 {
		return nil
	}
	bulk := s.store.Bulk()
	for k, v := range s.changes {
		var err error
		if len(v) == 0 {
			err = bulk.Delete(k.dbKey())
		} else {
			err = bulk.Put(k.dbKey(), v)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		// the cache may now disagree with the store
		if s.cache != nil {
			s.cache.Purge()
		}
		return &Error{err}
	}
	if s.cache != nil {
		for k, v := range s.changes {
			s.cache.Add(k, v)
		}
	}
	return nil
}
