// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker implements the staking engine: locked deposits, reward
// accrual and stake-weighted governance, gated by an access registry and
// an emergency/pause controller.
//
// Every mutating operation is one transaction of the state executor: it
// either commits as a whole, including the token transfers it makes, or
// leaves no trace. Token calls are made last, after the engine's own state
// is updated, and calls back into the engine from within an operation are
// rejected.
package staker

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/solidity"
	"github.com/rainbowlabs/rainbow/builtin/staker/access"
	"github.com/rainbowlabs/rainbow/builtin/staker/governance"
	"github.com/rainbowlabs/rainbow/builtin/staker/ledger"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/builtin/staker/rewards"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/log"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

var (
	logger = log.WithContext("pkg", "staker")

	errReentrant = reverts.New(reverts.Reentrant, "ReentrancyGuard: reentrant call")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Options configures the collaborators of a Staker.
type Options struct {
	StakingToken token.Ledger
	RewardToken  token.Ledger
	// Clock returns the current unix time in seconds. Defaults to the system clock.
	Clock     func() uint64
	Observers []Observer
}

// Staker is the staking engine.
type Staker struct {
	addr      rainbow.Address
	exec      *state.Executor
	staking   token.Ledger
	reward    token.Ledger
	clock     func() uint64
	observers []Observer
}

// New creates an engine keeping its state under rainbow.EngineAddress.
func New(exec *state.Executor, opts Options) *Staker {
	clock := opts.Clock
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return &Staker{
		addr:      rainbow.EngineAddress,
		exec:      exec,
		staking:   opts.StakingToken,
		reward:    opts.RewardToken,
		clock:     clock,
		observers: opts.Observers,
	}
}

// Address returns the account the engine holds tokens under.
func (s *Staker) Address() rainbow.Address {
	return s.addr
}

type services struct {
	access     *access.Registry
	policy     *policy.Service
	ledger     *ledger.Service
	rewards    *rewards.Service
	governance *governance.Service
}

func (s *Staker) services(st *state.State) *services {
	sctx := solidity.NewContext(s.addr, st)
	return &services{
		access:     access.New(sctx),
		policy:     policy.New(sctx),
		ledger:     ledger.New(sctx),
		rewards:    rewards.New(sctx),
		governance: governance.New(sctx),
	}
}

// tx is one running operation.
type tx struct {
	*services
	ctx    context.Context
	st     *state.State
	caller rainbow.Address
	now    uint64
	events []*Event
}

func (t *tx) emit(name string, subject rainbow.Address, amount *big.Int, attrs ...string) {
	ev := &Event{
		Name:    name,
		Actor:   t.caller,
		Subject: subject,
		Amount:  amount,
		Time:    t.now,
	}
	if len(attrs) > 0 {
		ev.Attrs = make(map[string]string, len(attrs)/2)
		for i := 0; i+1 < len(attrs); i += 2 {
			ev.Attrs[attrs[i]] = attrs[i+1]
		}
	}
	t.events = append(t.events, ev)
}

type guardKey struct{}

// update runs fn as a transaction on behalf of caller, once c is granted.
func (s *Staker) update(ctx context.Context, op string, caller rainbow.Address, c access.Capability, fn func(t *tx) error) error {
	if g, ok := ctx.Value(guardKey{}).(*Staker); ok && g == s {
		countOperation(op, errReentrant)
		return errReentrant
	}
	ctx = context.WithValue(ctx, guardKey{}, s)

	err := s.exec.Update(ctx, func(ctx context.Context, st *state.State) error {
		t := &tx{
			services: s.services(st),
			ctx:      ctx,
			st:       st,
			caller:   caller,
			now:      s.clock(),
		}
		if err := t.access.Check(c, caller); err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		if len(t.events) > 0 {
			events := t.events
			st.OnCommit(func() { s.notify(events) })
		}
		return nil
	})
	countOperation(op, err)
	return err
}

// view runs fn on the committed state, or on the running transaction if ctx carries one.
func (s *Staker) view(ctx context.Context, fn func(svc *services) error) error {
	return s.exec.View(ctx, func(st *state.State) error {
		return fn(s.services(st))
	})
}

func (s *Staker) notify(events []*Event) {
	for _, o := range s.observers {
		o.Observe(events)
	}
}

// Initialize sets up a fresh engine: the owner, who is also the first governor and
// emergency operator, and the policy.
func (s *Staker) Initialize(ctx context.Context, owner rainbow.Address, params *policy.Params) error {
	logger.Debug("initializing", "owner", owner)

	if err := params.Validate(); err != nil {
		return err
	}
	err := s.exec.Update(ctx, func(_ context.Context, st *state.State) error {
		svc := s.services(st)
		if err := svc.access.Initialize(owner); err != nil {
			return err
		}
		if err := svc.policy.Initialize(params); err != nil {
			return err
		}
		_, err := svc.rewards.Advance(s.clock(), params, new(big.Int))
		return err
	})
	if err != nil {
		logger.Info("initialize failed", "error", err)
		return errors.WithMessage(err, "initialize staker")
	}

	logger.Info("initialized", "owner", owner, "rewardModel", params.RewardModel, "voteWeight", params.VoteWeight)
	return nil
}

// Initialized reports whether the engine has an owner.
func (s *Staker) Initialized(ctx context.Context) (bool, error) {
	owner, err := s.Owner(ctx)
	if err != nil {
		return false, err
	}
	return !owner.IsZero(), nil
}

// Version returns the version of the engine interface.
func (s *Staker) Version() string {
	return rainbow.Version
}
