// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testengine builds a dev engine over in-memory stores for tests.
package testengine

import (
	"context"
	"sync/atomic"

	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/genesis"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

// GenesisTime is the clock of a fresh engine.
const GenesisTime uint64 = 1_700_000_000

// Engine is an initialized engine whose clock only moves when told to.
type Engine struct {
	db      *lvldb.LevelDB
	now     atomic.Uint64
	genesis *genesis.Genesis
	exec    *state.Executor
	staker  *staker.Staker
	staking *token.Token
	reward  *token.Token
}

// NewDefault creates an engine from the dev genesis.
func NewDefault(observers ...staker.Observer) (*Engine, error) {
	return New(genesis.NewDevnet(), observers...)
}

// New creates an engine from gen. The dev accounts approve the engine to spend their staking tokens.
func New(gen *genesis.Genesis, observers ...staker.Observer) (*Engine, error) {
	e := &Engine{
		db:      lvldb.NewMem(),
		genesis: gen,
	}
	e.now.Store(GenesisTime)
	e.exec = state.NewExecutor(e.db.NewStore("state"), nil)
	e.staking = token.New(gen.Tokens.Staking, e.exec)
	e.reward = token.New(gen.Tokens.Reward, e.exec)
	e.staker = staker.New(e.exec, staker.Options{
		StakingToken: e.staking,
		RewardToken:  e.reward,
		Clock:        e.Now,
		Observers:    observers,
	})

	ctx := context.Background()
	if err := gen.Apply(ctx, e.exec, e.staker, e.staking, e.reward); err != nil {
		e.db.Close()
		return nil, err
	}
	for _, acc := range gen.Accounts {
		if err := e.staking.Approve(ctx, acc.Address, e.staker.Address(), token.MaxAllowance); err != nil {
			e.db.Close()
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) Now() uint64 {
	return e.now.Load()
}

// Advance moves the clock forward.
func (e *Engine) Advance(seconds uint64) {
	e.now.Add(seconds)
}

func (e *Engine) Genesis() *genesis.Genesis { return e.genesis }
func (e *Engine) Executor() *state.Executor { return e.exec }
func (e *Engine) Staker() *staker.Staker    { return e.staker }
func (e *Engine) StakingToken() *token.Token { return e.staking }
func (e *Engine) RewardToken() *token.Token  { return e.reward }

// Owner returns the engine owner.
func (e *Engine) Owner() rainbow.Address {
	return e.genesis.Owner
}

// Accounts returns the funded accounts.
func (e *Engine) Accounts() []rainbow.Address {
	accs := make([]rainbow.Address, 0, len(e.genesis.Accounts))
	for _, a := range e.genesis.Accounts {
		accs = append(accs, a.Address)
	}
	return accs
}

// Tokens returns the token ledgers by symbol.
func (e *Engine) Tokens() map[string]*token.Token {
	return map[string]*token.Token{
		e.staking.Metadata().Symbol: e.staking,
		e.reward.Metadata().Symbol:  e.reward,
	}
}

func (e *Engine) Close() error {
	return e.db.Close()
}
