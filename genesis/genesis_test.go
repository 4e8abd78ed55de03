// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/genesis"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

var (
	owner    = rainbow.BytesToAddress([]byte("owner"))
	governor = rainbow.BytesToAddress([]byte("governor"))
	operator = rainbow.BytesToAddress([]byte("operator"))
	bad      = rainbow.BytesToAddress([]byte("bad"))
	user     = rainbow.BytesToAddress([]byte("user"))
)

type engine struct {
	exec    *state.Executor
	staker  *staker.Staker
	staking *token.Token
	reward  *token.Token
}

func newEngine(t *testing.T, gen *genesis.Genesis) *engine {
	db := lvldb.NewMem()
	t.Cleanup(func() { db.Close() })

	exec := state.NewExecutor(db.NewStore("state"), nil)
	e := &engine{
		exec:    exec,
		staking: token.New(gen.Tokens.Staking, exec),
		reward:  token.New(gen.Tokens.Reward, exec),
	}
	e.staker = staker.New(exec, staker.Options{
		StakingToken: e.staking,
		RewardToken:  e.reward,
		Clock:        func() uint64 { return 1_700_000_000 },
	})
	return e
}

func TestLoad(t *testing.T) {
	gen, err := genesis.Load("testdata/custom.yaml")
	require.NoError(t, err)

	assert.Equal(t, owner, gen.Owner)
	assert.Equal(t, []rainbow.Address{governor}, gen.Governors)
	assert.Equal(t, []rainbow.Address{operator}, gen.EmergencyOperators)
	assert.Equal(t, []rainbow.Address{bad}, gen.Blacklist)
	assert.Equal(t, "TSTK", gen.Tokens.Staking.Symbol)
	assert.Equal(t, "Test Reward", gen.Tokens.Reward.Name)
	require.Len(t, gen.Accounts, 1)
	assert.Equal(t, user, gen.Accounts[0].Address)
	assert.Equal(t, "2500500000000000000000", gen.Accounts[0].Balance.String())

	params, err := gen.Params()
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", params.RewardRate.String())
	assert.Equal(t, "10000000000000000000", params.MinimumStake.String())
	assert.Equal(t, uint64(3600), params.LockPeriod)
	assert.Equal(t, "500000000000000000000", params.ProposalThreshold.String())
	assert.Equal(t, policy.RewardProportional, params.RewardModel)
	assert.Equal(t, policy.WeightSnapshot, params.VoteWeight)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := genesis.Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestParseDefaults(t *testing.T) {
	gen, err := genesis.Parse([]byte(`
owner: "0x0000000000000000000000000000006f776e6572"
tokens:
  staking: {name: A, symbol: A, decimals: 18}
  reward: {name: B, symbol: B, decimals: 18}
`))
	require.NoError(t, err)

	params, err := gen.Params()
	require.NoError(t, err)
	def := policy.Defaults()
	assert.Equal(t, def.RewardRate.String(), params.RewardRate.String())
	assert.Equal(t, def.MinimumStake.String(), params.MinimumStake.String())
	assert.Equal(t, def.ProposalThreshold.String(), params.ProposalThreshold.String())
	assert.Equal(t, def.LockPeriod, params.LockPeriod)
	assert.Equal(t, policy.RewardFlat, params.RewardModel)
	assert.Equal(t, policy.WeightLive, params.VoteWeight)
}

func TestParseInvalid(t *testing.T) {
	const tokens = `
tokens:
  staking: {name: A, symbol: A, decimals: 18}
  reward: {name: B, symbol: B, decimals: 18}
`
	const ownerLine = `owner: "0x0000000000000000000000000000006f776e6572"`

	tests := []struct {
		name string
		yaml string
	}{
		{"no owner", tokens},
		{"bad owner", `owner: "0x1234"` + tokens},
		{"same symbols", ownerLine + `
tokens:
  staking: {name: A, symbol: A}
  reward: {name: B, symbol: A}
`},
		{"missing symbol", ownerLine + `
tokens:
  staking: {name: A, symbol: A}
`},
		{"negative amount", ownerLine + tokens + `
policy:
  rewardRate: "-1"
`},
		{"too many decimals", ownerLine + tokens + `
policy:
  minimumStake: "0.0000000000000000001"
`},
		{"unknown model", ownerLine + tokens + `
policy:
  rewardModel: quadratic
`},
		{"unknown weight", ownerLine + tokens + `
policy:
  voteWeight: delegated
`},
		{"zero balance", ownerLine + tokens + `
accounts:
  - address: "0x0000000000000000000000000000000075736572"
    balance: "0"
`},
		{"malformed", "owner: [1, 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := genesis.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestID(t *testing.T) {
	dev := genesis.NewDevnet()
	id1, err := dev.ID()
	require.NoError(t, err)
	id2, err := genesis.NewDevnet().ID()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.False(t, id1.IsZero())

	custom, err := genesis.Load("testdata/custom.yaml")
	require.NoError(t, err)
	id3, err := custom.ID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	dev.RewardPool = genesis.NewUnits("1")
	id4, err := dev.ID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id4)
}

func TestDevnet(t *testing.T) {
	dev := genesis.NewDevnet()
	require.NoError(t, dev.Validate())

	accs := genesis.DevAccounts()
	assert.Len(t, accs, 10)
	assert.Equal(t, accs[0], dev.Owner)
	assert.Len(t, dev.Accounts, len(accs))

	seen := make(map[rainbow.Address]bool)
	for _, a := range accs {
		assert.False(t, seen[a], "dev accounts must be distinct")
		seen[a] = true
	}
}

func TestApply(t *testing.T) {
	gen, err := genesis.Load("testdata/custom.yaml")
	require.NoError(t, err)
	e := newEngine(t, gen)
	ctx := context.Background()

	require.NoError(t, gen.Apply(ctx, e.exec, e.staker, e.staking, e.reward))

	ok, err := e.staker.Initialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := e.staker.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	ok, err = e.staker.IsGovernor(ctx, governor)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.staker.IsEmergencyOperator(ctx, operator)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.staker.IsBlacklisted(ctx, bad)
	require.NoError(t, err)
	assert.True(t, ok)

	params, err := e.staker.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, policy.RewardProportional, params.RewardModel)
	assert.Equal(t, uint64(3600), params.LockPeriod)

	bal, err := e.staking.BalanceOf(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "2500500000000000000000", bal.String())

	pool, err := e.reward.BalanceOf(ctx, e.staker.Address())
	require.NoError(t, err)
	assert.Equal(t, rainbow.MustParseUnits("100000").String(), pool.String())

	// a second application is rejected and changes nothing
	assert.Error(t, gen.Apply(ctx, e.exec, e.staker, e.staking, e.reward))
	bal, err = e.staking.BalanceOf(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "2500500000000000000000", bal.String())
}

func TestApplyIsAtomic(t *testing.T) {
	gen := genesis.NewDevnet()
	// bypasses Validate, so minting fails after the engine is initialized
	gen.Accounts = append(gen.Accounts, genesis.Account{Balance: genesis.NewUnits("1")})
	e := newEngine(t, gen)
	ctx := context.Background()

	assert.Error(t, gen.Apply(ctx, e.exec, e.staker, e.staking, e.reward))

	ok, err := e.staker.Initialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	supply, err := e.staking.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Zero(t, supply.Sign())
}
