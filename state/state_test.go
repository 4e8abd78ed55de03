// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/cache"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/rainbow"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB, *cache.LRU) {
	db := lvldb.NewMem()
	t.Cleanup(func() { db.Close() })
	c, err := cache.NewLRU(64)
	require.NoError(t, err)
	return New(db.NewStore("state"), c), db, c
}

func TestStateReadWrite(t *testing.T) {
	st, _, _ := newTestState(t)
	addr := rainbow.BytesToAddress([]byte("account"))
	key := rainbow.BytesToBytes32([]byte("key"))
	value := rainbow.BytesToBytes32([]byte("value"))

	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	st.SetStorage(addr, key, value)
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, v)

	st.SetStorage(addr, key, rainbow.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStateRevert(t *testing.T) {
	st, _, _ := newTestState(t)
	addr := rainbow.BytesToAddress([]byte("account"))
	key := rainbow.BytesToBytes32([]byte("key"))

	values := []rainbow.Bytes32{
		rainbow.BytesToBytes32([]byte("v1")),
		rainbow.BytesToBytes32([]byte("v2")),
		rainbow.BytesToBytes32([]byte("v3")),
	}
	var revisions []int
	for _, v := range values {
		revisions = append(revisions, st.NewCheckpoint())
		st.SetStorage(addr, key, v)
	}

	for i := len(revisions) - 1; i >= 0; i-- {
		st.RevertTo(revisions[i])
		got, err := st.GetStorage(addr, key)
		require.NoError(t, err)
		if i == 0 {
			assert.True(t, got.IsZero())
		} else {
			assert.Equal(t, values[i-1], got)
		}
	}
}

func TestStageCommit(t *testing.T) {
	st, db, c := newTestState(t)
	addr := rainbow.BytesToAddress([]byte("account"))
	k1 := rainbow.BytesToBytes32([]byte("k1"))
	k2 := rainbow.BytesToBytes32([]byte("k2"))

	st.SetStorage(addr, k1, rainbow.BytesToBytes32([]byte("v1")))
	require.NoError(t, st.EncodeStorage(addr, k2, func() ([]byte, error) {
		return rlp.EncodeToBytes([]uint64{1, 2})
	}))

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	require.NoError(t, stage.Commit())

	// a fresh state without cache sees the committed values
	fresh := New(db.NewStore("state"), nil)
	v, err := fresh.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, rainbow.BytesToBytes32([]byte("v1")), v)

	var list []uint64
	require.NoError(t, fresh.DecodeStorage(addr, k2, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &list)
	}))
	assert.Equal(t, []uint64{1, 2}, list)

	// deleting writes through to the cache as well
	next := New(db.NewStore("state"), c)
	next.SetStorage(addr, k1, rainbow.Bytes32{})
	require.NoError(t, next.Stage().Commit())

	v, err = New(db.NewStore("state"), c).GetStorage(addr, k1)
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestDecodeStorageError(t *testing.T) {
	st, _, _ := newTestState(t)
	addr := rainbow.BytesToAddress([]byte("account"))

	err := st.DecodeStorage(addr, rainbow.Bytes32{}, func([]byte) error { return errors.New("bad data") })
	assert.EqualError(t, err, "state: bad data")

	var serr *Error
	assert.True(t, errors.As(err, &serr))
}

func TestContext(t *testing.T) {
	st, _, _ := newTestState(t)

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	got, ok := FromContext(NewContext(context.Background(), st))
	assert.True(t, ok)
	assert.Same(t, st, got)
}
