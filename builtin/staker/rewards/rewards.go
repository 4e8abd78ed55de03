// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards accrues staking rewards through a global reward index.
//
// The index grows lazily with elapsed time. In the flat model every account
// with a non-zero stake earns the full rate, so the index is the reward per
// account. In the proportional model the rate is shared by the pool, so the
// index is the reward per staked token, scaled by 1e18.
package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/builtin/solidity"
	"github.com/rainbowlabs/rainbow/builtin/staker/ledger"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var slotGlobal = rainbow.BytesToBytes32([]byte("reward-global"))

// Global is the reward index and the time it was brought to.
type Global struct {
	Index      *big.Int
	LastUpdate uint64
}

type Service struct {
	global *solidity.Raw[*Global]
}

func New(sctx *solidity.Context) *Service {
	return &Service{global: solidity.NewRaw[*Global](sctx, slotGlobal)}
}

// Global returns the stored index, not advanced.
func (s *Service) Global() (*Global, error) {
	g, found, err := s.global.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward index")
	}
	if !found || g == nil {
		return &Global{Index: new(big.Int)}, nil
	}
	if g.Index == nil {
		g.Index = new(big.Int)
	}
	return g, nil
}

// Project returns the index as it would be at now, without storing it.
func Project(g *Global, now uint64, rate *big.Int, model policy.RewardModel, total *big.Int) *Global {
	if g.LastUpdate == 0 || now <= g.LastUpdate {
		last := g.LastUpdate
		if last == 0 {
			last = now
		}
		return &Global{Index: g.Index, LastUpdate: last}
	}
	elapsed := new(big.Int).SetUint64(now - g.LastUpdate)
	delta := new(big.Int).Mul(rate, elapsed)

	switch model {
	case policy.RewardProportional:
		if total.Sign() == 0 {
			delta.SetUint64(0)
		} else {
			delta.Mul(delta, rainbow.One)
			delta.Quo(delta, total)
		}
	}
	return &Global{
		Index:      new(big.Int).Add(g.Index, delta),
		LastUpdate: now,
	}
}

// Advance brings the stored index to now. It must run before the rate, the model
// or the total stake changes, so that the elapsed interval is accounted at the old values.
func (s *Service) Advance(now uint64, params *policy.Params, total *big.Int) (*Global, error) {
	g, err := s.Global()
	if err != nil {
		return nil, err
	}
	next := Project(g, now, params.RewardRate, params.RewardModel, total)
	if next.LastUpdate == g.LastUpdate && next.Index.Cmp(g.Index) == 0 {
		return g, nil
	}
	if err := s.global.Set(next); err != nil {
		return nil, errors.Wrap(err, "failed to set reward index")
	}
	return next, nil
}

// Accrued returns the reward accrued by r since its last settlement.
func Accrued(r *ledger.Record, g *Global, model policy.RewardModel) *big.Int {
	if r.Amount.Sign() == 0 {
		return new(big.Int)
	}
	delta := new(big.Int).Sub(g.Index, r.RewardIndex)
	if delta.Sign() <= 0 {
		return new(big.Int)
	}
	if model == policy.RewardProportional {
		delta.Mul(delta, r.Amount)
		delta.Quo(delta, rainbow.One)
	}
	return delta
}

// Earned returns settled plus accrued reward of r.
func Earned(r *ledger.Record, g *Global, model policy.RewardModel) *big.Int {
	return new(big.Int).Add(r.Pending, Accrued(r, g, model))
}

// Settle moves the accrued reward of r into its pending balance and
// checkpoints r at the index.
func Settle(r *ledger.Record, g *Global, model policy.RewardModel) {
	r.Pending = Earned(r, g, model)
	r.RewardIndex = new(big.Int).Set(g.Index)
	r.CheckpointTime = g.LastUpdate
}
