// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

type testStruct struct {
	Field1 uint64
	Field2 *big.Int
	Addr1  rainbow.Address
}

func newTestContext(t *testing.T) *Context {
	db := lvldb.NewMem()
	t.Cleanup(func() { db.Close() })
	return NewContext(rainbow.Address{1}, state.New(db.NewStore("state"), nil))
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[rainbow.Address, *testStruct](ctx, rainbow.Bytes32{1})
	key := rainbow.BytesToAddress([]byte("key"))

	empty, err := m.Get(key)
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Equal(t, uint64(0), empty.Field1)

	value := &testStruct{Field1: 100, Field2: big.NewInt(200), Addr1: rainbow.Address{9}}
	require.NoError(t, m.Set(key, value))

	got, err := m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	m.Delete(key)
	got, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Field1)
}

func TestMappingSeparatesPositions(t *testing.T) {
	ctx := newTestContext(t)
	m1 := NewMapping[rainbow.Address, uint64](ctx, rainbow.Bytes32{1})
	m2 := NewMapping[rainbow.Address, uint64](ctx, rainbow.Bytes32{2})
	key := rainbow.Address{7}

	require.NoError(t, m1.Set(key, 1))
	require.NoError(t, m2.Set(key, 2))

	v1, err := m1.Get(key)
	require.NoError(t, err)
	v2, err := m2.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v1)
	assert.Equal(t, uint64(2), v2)
}

func TestRaw(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRaw[testStruct](ctx, rainbow.Bytes32{3})

	_, found, err := r.Get()
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.Set(testStruct{Field1: 5, Field2: big.NewInt(6)}))
	v, found, err := r.Get()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(5), v.Field1)
	assert.Equal(t, big.NewInt(6), v.Field2)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, rainbow.Bytes32{1})

	require.NoError(t, u.Set(big.NewInt(1000)))
	value, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), value)

	require.NoError(t, u.Add(big.NewInt(500)))
	value, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), value)

	require.NoError(t, u.Sub(big.NewInt(200)))
	value, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1300), value)

	assert.ErrorIs(t, u.Sub(big.NewInt(1301)), ErrUnderflow)
	assert.ErrorIs(t, u.Set(new(big.Int).Lsh(big.NewInt(1), 256)), ErrOverflow)

	value, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1300), value, "failed updates leave the value untouched")
}

func TestAddress(t *testing.T) {
	ctx := newTestContext(t)
	a := NewAddress(ctx, rainbow.Bytes32{4})

	got, err := a.Get()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	addr := rainbow.BytesToAddress([]byte("owner"))
	a.Set(addr)
	got, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}
