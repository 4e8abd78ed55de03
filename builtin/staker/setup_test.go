// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

var (
	owner    = rainbow.BytesToAddress([]byte("owner"))
	user1    = rainbow.BytesToAddress([]byte("user1"))
	user2    = rainbow.BytesToAddress([]byte("user2"))
	governor = rainbow.BytesToAddress([]byte("governor"))
	operator = rainbow.BytesToAddress([]byte("operator"))

	genesisTime uint64 = 1_700_000_000
)

func units(s string) *big.Int {
	return rainbow.MustParseUnits(s)
}

type clock struct {
	mu  sync.Mutex
	now uint64
}

func (c *clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(seconds uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

type recorder struct {
	mu     sync.Mutex
	events []*Event
}

func (r *recorder) Observe(events []*Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		names = append(names, ev.Name)
	}
	return names
}

func (r *recorder) Last() *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

type testEnv struct {
	staker  *Staker
	exec    *state.Executor
	staking *token.Token
	reward  *token.Token
	clock   *clock
	events  *recorder
}

// newTestEnv creates an initialized engine with funded users and a funded reward pool.
func newTestEnv(t *testing.T, params *policy.Params) *testEnv {
	db := lvldb.NewMem()
	t.Cleanup(func() { db.Close() })

	exec := state.NewExecutor(db.NewStore("state"), nil)
	env := &testEnv{
		exec:    exec,
		staking: token.New(token.Metadata{Name: "Staking Token", Symbol: "STK", Decimals: 18}, exec),
		reward:  token.New(token.Metadata{Name: "Reward Token", Symbol: "RWD", Decimals: 18}, exec),
		clock:   &clock{now: genesisTime},
		events:  &recorder{},
	}
	env.staker = New(exec, Options{
		StakingToken: env.staking,
		RewardToken:  env.reward,
		Clock:        env.clock.Now,
		Observers:    []Observer{env.events},
	})
	if params == nil {
		params = policy.Defaults()
	}
	ctx := context.Background()
	require.NoError(t, env.staker.Initialize(ctx, owner, params))

	for _, user := range []rainbow.Address{user1, user2} {
		require.NoError(t, env.staking.Mint(ctx, user, units("1000000")))
		require.NoError(t, env.staking.Approve(ctx, user, env.staker.Address(), token.MaxAllowance))
	}
	require.NoError(t, env.reward.Mint(ctx, env.staker.Address(), units("1000000")))
	return env
}

func (env *testEnv) balance(t *testing.T, tok *token.Token, addr rainbow.Address) *big.Int {
	bal, err := tok.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return bal
}

// assertSolvent checks that the total stake is the sum of all stakes and is held by the engine.
func (env *testEnv) assertSolvent(t *testing.T) {
	ctx := context.Background()
	sum := new(big.Int)
	for _, addr := range []rainbow.Address{owner, user1, user2, governor, operator} {
		info, err := env.staker.GetStakeInfo(ctx, addr)
		require.NoError(t, err)
		sum.Add(sum, info.Amount)
	}
	total, err := env.staker.TotalStaked(ctx)
	require.NoError(t, err)
	assert.Equal(t, sum.String(), total.String(), "total staked must equal the sum of stakes")
	assert.True(t, env.balance(t, env.staking, env.staker.Address()).Cmp(total) >= 0, "engine must hold the staked tokens")
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Stake(addr rainbow.Address, amount string) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Stake(context.Background(), addr, units(amount)); err != nil {
			t.Fatalf("failed to stake %s for %s: %v", amount, addr, err)
		}
		t.Logf("staked %s for %s", amount, addr)
	})
}

func (st *TestSequence) Unstake(addr rainbow.Address, amount string) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Unstake(context.Background(), addr, units(amount)); err != nil {
			t.Fatalf("failed to unstake %s for %s: %v", amount, addr, err)
		}
		t.Logf("unstaked %s for %s", amount, addr)
	})
}

func (st *TestSequence) Advance(seconds uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.env.clock.Advance(seconds)
	})
}

func (st *TestSequence) AssertEarned(addr rainbow.Address, amount string) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		earned, err := st.env.staker.Earned(context.Background(), addr)
		require.NoError(t, err)
		assert.Equal(t, units(amount).String(), earned.String(), "earned of %s", addr)
	})
}

func (st *TestSequence) AssertStaked(addr rainbow.Address, amount string) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		info, err := st.env.staker.GetStakeInfo(context.Background(), addr)
		require.NoError(t, err)
		assert.Equal(t, units(amount).String(), info.Amount.String(), "stake of %s", addr)
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
		st.env.assertSolvent(t)
	}
}
