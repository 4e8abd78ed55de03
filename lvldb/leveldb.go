// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb implements kv.Store on top of goleveldb.
package lvldb

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/rainbowlabs/rainbow/kv"
)

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}
	scanOpt  = opt.ReadOptions{DontFillCache: true}
)

const idealBatchSize = 128 * 1024

// Options optional parameters for opening the database.
type Options struct {
	// OpenFilesCacheCapacity is the capacity of open files caching.
	OpenFilesCacheCapacity int
	// ReadCacheMB is the size of the block cache.
	ReadCacheMB int
	// WriteBufferMB is the size of the write buffer.
	WriteBufferMB int
}

// LevelDB is a kv.Store backed by a leveldb instance.
type LevelDB struct {
	db        *leveldb.DB
	batchPool *sync.Pool
}

var _ kv.Store = (*LevelDB)(nil)

// Open opens or creates the database at the given path.
// A corrupted database is recovered before use.
func Open(path string, options *Options) (*LevelDB, error) {
	if options == nil {
		options = &Options{}
	}
	ldbOpts := opt.Options{
		OpenFilesCacheCapacity: max(options.OpenFilesCacheCapacity, 16),
		BlockCacheCapacity:     max(options.ReadCacheMB, 8) * opt.MiB,
		WriteBuffer:            max(options.WriteBufferMB, 4) * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}

	ldb, err := leveldb.OpenFile(path, &ldbOpts)
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		ldb, err = leveldb.RecoverFile(path, &ldbOpts)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return newLevelDB(ldb), nil
}

// NewMem creates a memory-backed database.
func NewMem() *LevelDB {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		// never fails on memory storage
		panic(err)
	}
	return newLevelDB(ldb)
}

func newLevelDB(db *leveldb.DB) *LevelDB {
	return &LevelDB{
		db,
		&sync.Pool{
			New: func() any {
				return &leveldb.Batch{}
			},
		},
	}
}

// NewStore creates a named store, isolated from other named stores by key prefix.
func (ldb *LevelDB) NewStore(name string) kv.Store {
	return kv.Bucket(name + "/").NewStore(ldb)
}

// Close closes the database.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

func (ldb *LevelDB) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := ldb.db.Get(key, &readOpt)
	// val will be []byte{} if error occurs, which is not expected
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, &readOpt)
}

func (ldb *LevelDB) Put(key, val []byte) error {
	return ldb.db.Put(key, val, &writeOpt)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, &writeOpt)
}

func (ldb *LevelDB) Snapshot() kv.Snapshot {
	s, err := ldb.db.GetSnapshot()
	return &struct {
		kv.GetFunc
		kv.HasFunc
		kv.IsNotFoundFunc
		kv.ReleaseFunc
	}{
		func(key []byte) ([]byte, error) {
			if err != nil {
				return nil, err
			}
			val, err := s.Get(key, &readOpt)
			if err != nil {
				return nil, err
			}
			return val, nil
		},
		func(key []byte) (bool, error) {
			if err != nil {
				return false, err
			}
			return s.Has(key, &readOpt)
		},
		ldb.IsNotFound,
		func() {
			if s != nil {
				s.Release()
			}
		},
	}
}

func (ldb *LevelDB) Bulk() kv.Bulk {
	var (
		batch     *leveldb.Batch
		autoFlush bool
	)
	getBatch := func() *leveldb.Batch {
		if batch == nil {
			batch = ldb.batchPool.Get().(*leveldb.Batch)
			batch.Reset()
		}
		return batch
	}
	flush := func(minSize int) error {
		if batch == nil || len(batch.Dump()) < minSize {
			return nil
		}
		if batch.Len() > 0 {
			if err := ldb.db.Write(batch, &writeOpt); err != nil {
				return err
			}
		}
		ldb.batchPool.Put(batch)
		batch = nil
		return nil
	}

	return &struct {
		kv.PutFunc
		kv.DeleteFunc
		kv.EnableAutoFlushFunc
		kv.WriteFunc
	}{
		func(key, val []byte) error {
			getBatch().Put(key, val)
			if autoFlush {
				return flush(idealBatchSize)
			}
			return nil
		},
		func(key []byte) error {
			getBatch().Delete(key)
			if autoFlush {
				return flush(idealBatchSize)
			}
			return nil
		},
		func() { autoFlush = true },
		func() error { return flush(0) },
	}
}

func (ldb *LevelDB) Iterate(r kv.Range) kv.Iterator {
	return ldb.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, &scanOpt)
}
