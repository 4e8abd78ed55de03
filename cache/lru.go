// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache provides the read caches used by the storage layer.
package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a LRU cache that extends golang-lru with loading and hit statistics.
type LRU struct {
	*lru.Cache
	stats Stats
}

// NewLRU creates a LRU cache instance.
// maxSize should be > 0, or an error returned.
func NewLRU(maxSize int) (*LRU, error) {
	c, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{Cache: c}, nil
}

// Loader loads the value of a missed key.
type Loader func(key any) (any, error)

// GetOrLoad first tries to get from cache, and loads on miss.
func (l *LRU) GetOrLoad(key any, loader Loader) (any, error) {
	if v, ok := l.Get(key); ok {
		l.stats.Hit()
		return v, nil
	}
	l.stats.Miss()
	v, err := loader(key)
	if err != nil {
		return nil, err
	}
	l.Add(key, v)
	return v, nil
}

// Stats returns hit and miss counters, see Stats.Stats.
func (l *LRU) Stats() (bool, int64, int64) {
	return l.stats.Stats()
}
