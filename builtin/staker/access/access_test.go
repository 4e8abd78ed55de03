// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/solidity"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

var (
	owner    = rainbow.BytesToAddress([]byte("owner"))
	governor = rainbow.BytesToAddress([]byte("governor"))
	user     = rainbow.BytesToAddress([]byte("user"))
	operator = rainbow.BytesToAddress([]byte("operator"))
)

func newRegistry(t *testing.T) *Registry {
	db := lvldb.NewMem()
	t.Cleanup(func() { db.Close() })
	sctx := solidity.NewContext(rainbow.EngineAddress, state.New(db.NewStore("state"), nil))

	r := New(sctx)
	require.NoError(t, r.Initialize(owner))
	return r
}

func TestInitialize(t *testing.T) {
	r := newRegistry(t)

	got, err := r.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	isGov, err := r.IsGovernor(owner)
	require.NoError(t, err)
	assert.True(t, isGov)

	isOp, err := r.IsEmergencyOperator(owner)
	require.NoError(t, err)
	assert.True(t, isOp)

	assert.Error(t, r.Initialize(user), "second initialization")
}

func TestCheck(t *testing.T) {
	r := newRegistry(t)
	_, err := r.AddGovernor(governor)
	require.NoError(t, err)
	_, err = r.AddEmergencyOperator(operator)
	require.NoError(t, err)

	tests := []struct {
		cap    Capability
		caller rainbow.Address
		allow  bool
	}{
		{CapAnyone, user, true},
		{CapGovernance, owner, true},
		{CapGovernance, governor, true},
		{CapGovernance, user, false},
		{CapOwner, owner, true},
		{CapOwner, governor, false},
		{CapOwner, user, false},
		{CapOwner, operator, false},
		{CapGovernance, operator, false},
	}
	for _, tt := range tests {
		t.Run(tt.cap.String(), func(t *testing.T) {
			err := r.Check(tt.cap, tt.caller)
			if tt.allow {
				assert.NoError(t, err)
			} else {
				assert.True(t, reverts.Is(err, reverts.Unauthorized), "got %v", err)
			}
		})
	}

	assert.EqualError(t, r.Check(CapOwner, user), "Ownable: caller is not the owner")
}

func TestMembership(t *testing.T) {
	r := newRegistry(t)

	changed, err := r.AddGovernor(governor)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = r.AddGovernor(governor)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = r.RemoveGovernor(governor)
	require.NoError(t, err)
	assert.True(t, changed)

	isGov, err := r.IsGovernor(governor)
	require.NoError(t, err)
	assert.False(t, isGov)

	changed, err = r.AddEmergencyOperator(user)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = r.RemoveEmergencyOperator(user)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = r.SetBlacklisted(user, true)
	require.NoError(t, err)
	black, err := r.IsBlacklisted(user)
	require.NoError(t, err)
	assert.True(t, black)

	_, err = r.AddGovernor(rainbow.Address{})
	assert.True(t, reverts.Is(err, reverts.InvalidAddress))
}

func TestTransferOwnership(t *testing.T) {
	r := newRegistry(t)

	require.NoError(t, r.TransferOwnership(user))
	assert.NoError(t, r.Check(CapOwner, user))
	assert.Error(t, r.Check(CapOwner, owner))

	// the previous owner keeps its governor seat
	assert.NoError(t, r.Check(CapGovernance, owner))

	assert.True(t, reverts.Is(r.TransferOwnership(rainbow.Address{}), reverts.InvalidAddress))
}
