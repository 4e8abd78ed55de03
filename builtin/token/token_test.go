// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

var (
	alice   = rainbow.BytesToAddress([]byte("alice"))
	bob     = rainbow.BytesToAddress([]byte("bob"))
	spender = rainbow.BytesToAddress([]byte("spender"))
)

func newToken(t *testing.T) (*Token, *state.Executor) {
	db := lvldb.NewMem()
	t.Cleanup(func() { db.Close() })
	exec := state.NewExecutor(db.NewStore("state"), nil)
	return New(Metadata{Name: "Staking Token", Symbol: "STK", Decimals: 18}, exec), exec
}

func balance(t *testing.T, tok *Token, addr rainbow.Address) string {
	bal, err := tok.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return bal.String()
}

func TestMintAndTransfer(t *testing.T) {
	tok, _ := newToken(t)
	ctx := context.Background()

	require.NoError(t, tok.Mint(ctx, alice, big.NewInt(1000)))
	supply, err := tok.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", supply.String())

	require.NoError(t, tok.Transfer(ctx, alice, bob, big.NewInt(300)))
	assert.Equal(t, "700", balance(t, tok, alice))
	assert.Equal(t, "300", balance(t, tok, bob))

	err = tok.Transfer(ctx, bob, alice, big.NewInt(301))
	assert.True(t, reverts.Is(err, reverts.InsufficientBalance))
	assert.Equal(t, "300", balance(t, tok, bob))

	err = tok.Transfer(ctx, alice, rainbow.Address{}, big.NewInt(1))
	assert.True(t, reverts.Is(err, reverts.InvalidAddress))

	err = tok.Mint(ctx, alice, big.NewInt(0))
	assert.True(t, reverts.Is(err, reverts.InvalidAmount))
}

func TestTransferFrom(t *testing.T) {
	tok, _ := newToken(t)
	ctx := context.Background()
	require.NoError(t, tok.Mint(ctx, alice, big.NewInt(1000)))

	err := tok.TransferFrom(ctx, spender, alice, bob, big.NewInt(1))
	assert.True(t, reverts.Is(err, reverts.InsufficientAllowance))

	require.NoError(t, tok.Approve(ctx, alice, spender, big.NewInt(500)))
	require.NoError(t, tok.TransferFrom(ctx, spender, alice, bob, big.NewInt(200)))

	allowance, err := tok.Allowance(ctx, alice, spender)
	require.NoError(t, err)
	assert.Equal(t, "300", allowance.String())
	assert.Equal(t, "800", balance(t, tok, alice))
	assert.Equal(t, "200", balance(t, tok, bob))

	// a failed transfer keeps the allowance
	require.NoError(t, tok.Approve(ctx, alice, spender, big.NewInt(5000)))
	err = tok.TransferFrom(ctx, spender, alice, bob, big.NewInt(900))
	assert.True(t, reverts.Is(err, reverts.InsufficientBalance))
	allowance, err = tok.Allowance(ctx, alice, spender)
	require.NoError(t, err)
	assert.Equal(t, "5000", allowance.String())
}

func TestMaxAllowance(t *testing.T) {
	tok, _ := newToken(t)
	ctx := context.Background()
	require.NoError(t, tok.Mint(ctx, alice, big.NewInt(1000)))
	require.NoError(t, tok.Approve(ctx, alice, spender, MaxAllowance))

	require.NoError(t, tok.TransferFrom(ctx, spender, alice, bob, big.NewInt(1000)))
	allowance, err := tok.Allowance(ctx, alice, spender)
	require.NoError(t, err)
	assert.Equal(t, MaxAllowance.String(), allowance.String())

	err = tok.Approve(ctx, alice, spender, new(big.Int).Add(MaxAllowance, big.NewInt(1)))
	assert.True(t, reverts.Is(err, reverts.InvalidAmount))
}

func TestJoinTransaction(t *testing.T) {
	tok, exec := newToken(t)
	require.NoError(t, tok.Mint(context.Background(), alice, big.NewInt(100)))

	// a transfer inside a failing transaction is rolled back with it
	err := exec.Update(context.Background(), func(ctx context.Context, _ *state.State) error {
		require.NoError(t, tok.Transfer(ctx, alice, bob, big.NewInt(40)))
		bal, err := tok.BalanceOf(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, "40", bal.String())
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")
	assert.Equal(t, "100", balance(t, tok, alice))
	assert.Equal(t, "0", balance(t, tok, bob))
}

func TestAddressOf(t *testing.T) {
	assert.Equal(t, AddressOf("STK"), AddressOf("STK"))
	assert.NotEqual(t, AddressOf("STK"), AddressOf("RWD"))
}

func TestNilAmount(t *testing.T) {
	tok, _ := newToken(t)
	ctx := context.Background()
	require.NoError(t, tok.Mint(ctx, alice, big.NewInt(1000)))
	require.NoError(t, tok.Approve(ctx, alice, spender, big.NewInt(1000)))

	for name, err := range map[string]error{
		"mint":         tok.Mint(ctx, alice, nil),
		"approve":      tok.Approve(ctx, alice, spender, nil),
		"transfer":     tok.Transfer(ctx, alice, bob, nil),
		"transferFrom": tok.TransferFrom(ctx, spender, alice, bob, nil),
	} {
		assert.True(t, reverts.Is(err, reverts.InvalidAmount), "%s: got %v", name, err)
	}
	assert.Equal(t, "1000", balance(t, tok, alice))
}
