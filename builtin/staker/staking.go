// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"context"
	"math/big"
	"strconv"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/staker/access"
	"github.com/rainbowlabs/rainbow/builtin/staker/ledger"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/builtin/staker/rewards"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var (
	errBlacklisted       = reverts.New(reverts.Blacklisted, "Address is blacklisted")
	errPaused            = reverts.New(reverts.Paused, "Pausable: paused")
	errEmergencyActive   = reverts.New(reverts.EmergencyActive, "Emergency mode active")
	errEmergencyInactive = reverts.New(reverts.EmergencyInactive, "Emergency mode not active")
)

// StakeInfo is the public view of an account stake.
type StakeInfo struct {
	Amount      *big.Int
	DepositTime uint64
	UnlockTime  uint64
	Earned      *big.Int
}

// settle brings the reward index to now and settles the caller's record against it.
func (t *tx) settle(params *policy.Params) (*ledger.Record, error) {
	total, err := t.ledger.TotalStaked()
	if err != nil {
		return nil, err
	}
	g, err := t.rewards.Advance(t.now, params, total)
	if err != nil {
		return nil, err
	}
	r, err := t.ledger.GetRecord(t.caller)
	if err != nil {
		return nil, err
	}
	rewards.Settle(r, g, params.RewardModel)
	return r, nil
}

// Stake locks amount of the caller's staking tokens. The engine must be
// approved to spend them. A stake restarts the lock period of the whole balance.
func (s *Staker) Stake(ctx context.Context, caller rainbow.Address, amount *big.Int) error {
	logger.Debug("staking", "staker", caller, "amount", rainbow.FormatUnits(amount))

	err := s.update(ctx, "stake", caller, access.CapAnyone, func(t *tx) error {
		blacklisted, err := t.access.IsBlacklisted(caller)
		if err != nil {
			return err
		}
		if blacklisted {
			return errBlacklisted
		}
		params, err := t.policy.Get()
		if err != nil {
			return err
		}
		if params.Paused {
			return errPaused
		}
		if params.Emergency {
			return errEmergencyActive
		}

		r, err := t.settle(params)
		if err != nil {
			return err
		}
		if err := t.ledger.Deposit(caller, r, amount, params.MinimumStake, t.now); err != nil {
			return err
		}
		if err := t.ledger.SetRecord(caller, r); err != nil {
			return err
		}
		if err := t.trackTotalStaked(); err != nil {
			return err
		}
		t.emit(EventStaked, caller, amount,
			"staked", r.Amount.String(),
			"unlockTime", strconv.FormatUint(r.UnlockTime(params.LockPeriod), 10))

		return s.staking.TransferFrom(t.ctx, s.addr, caller, s.addr, amount)
	})
	if err != nil {
		logger.Info("stake failed", "staker", caller, "error", err)
		return err
	}

	logger.Info("staked", "staker", caller, "amount", rainbow.FormatUnits(amount))
	return nil
}

// Unstake returns amount of the caller's stake once the lock period is over.
// In emergency mode the lock does not apply. Pausing does not block unstaking.
func (s *Staker) Unstake(ctx context.Context, caller rainbow.Address, amount *big.Int) error {
	logger.Debug("unstaking", "staker", caller, "amount", rainbow.FormatUnits(amount))

	err := s.update(ctx, "unstake", caller, access.CapAnyone, func(t *tx) error {
		params, err := t.policy.Get()
		if err != nil {
			return err
		}
		r, err := t.settle(params)
		if err != nil {
			return err
		}
		if err := t.ledger.Withdraw(caller, r, amount, t.now, params.LockPeriod, params.Emergency); err != nil {
			return err
		}
		if err := t.ledger.SetRecord(caller, r); err != nil {
			return err
		}
		if err := t.trackTotalStaked(); err != nil {
			return err
		}
		t.emit(EventUnstaked, caller, amount, "staked", r.Amount.String())

		return s.staking.Transfer(t.ctx, s.addr, caller, amount)
	})
	if err != nil {
		logger.Info("unstake failed", "staker", caller, "error", err)
		return err
	}

	logger.Info("unstaked", "staker", caller, "amount", rainbow.FormatUnits(amount))
	return nil
}

// EmergencyUnstake returns the whole stake of the caller, ignoring the lock.
// Only available in emergency mode. Pending rewards are forfeited.
func (s *Staker) EmergencyUnstake(ctx context.Context, caller rainbow.Address) (*big.Int, error) {
	logger.Debug("emergency unstaking", "staker", caller)

	var amount *big.Int
	err := s.update(ctx, "emergencyUnstake", caller, access.CapAnyone, func(t *tx) error {
		params, err := t.policy.Get()
		if err != nil {
			return err
		}
		if !params.Emergency {
			return errEmergencyInactive
		}
		// the index moves before the total does, the caller's record is not settled
		total, err := t.ledger.TotalStaked()
		if err != nil {
			return err
		}
		g, err := t.rewards.Advance(t.now, params, total)
		if err != nil {
			return err
		}
		r, err := t.ledger.GetRecord(caller)
		if err != nil {
			return err
		}
		forfeited := rewards.Earned(r, g, params.RewardModel)
		if amount, err = t.ledger.WithdrawAll(caller, r, t.now); err != nil {
			return err
		}
		if err := t.ledger.SetRecord(caller, r); err != nil {
			return err
		}
		if err := t.trackTotalStaked(); err != nil {
			return err
		}
		t.emit(EventEmergencyUnstaked, caller, amount, "forfeited", forfeited.String())

		return s.staking.Transfer(t.ctx, s.addr, caller, amount)
	})
	if err != nil {
		logger.Info("emergency unstake failed", "staker", caller, "error", err)
		return nil, err
	}

	logger.Info("emergency unstaked", "staker", caller, "amount", rainbow.FormatUnits(amount))
	return amount, nil
}

// ClaimRewards pays the caller's earned reward. Claiming with nothing earned
// succeeds and pays nothing.
func (s *Staker) ClaimRewards(ctx context.Context, caller rainbow.Address) (*big.Int, error) {
	logger.Debug("claiming rewards", "staker", caller)

	var paid *big.Int
	err := s.update(ctx, "claimRewards", caller, access.CapAnyone, func(t *tx) error {
		params, err := t.policy.Get()
		if err != nil {
			return err
		}
		r, err := t.settle(params)
		if err != nil {
			return err
		}
		paid = r.Pending
		if paid.Sign() == 0 {
			return nil
		}
		r.Pending = new(big.Int)
		if err := t.ledger.SetRecord(caller, r); err != nil {
			return err
		}
		t.emit(EventRewardClaimed, caller, paid)

		return s.reward.Transfer(t.ctx, s.addr, caller, paid)
	})
	if err != nil {
		logger.Info("claim rewards failed", "staker", caller, "error", err)
		return nil, err
	}

	logger.Info("claimed rewards", "staker", caller, "amount", rainbow.FormatUnits(paid))
	return paid, nil
}

// Earned returns the reward addr could claim now.
func (s *Staker) Earned(ctx context.Context, addr rainbow.Address) (earned *big.Int, err error) {
	err = s.view(ctx, func(svc *services) error {
		params, r, g, err := s.project(svc, addr)
		if err != nil {
			return err
		}
		earned = rewards.Earned(r, g, params.RewardModel)
		return nil
	})
	return
}

// GetStakeInfo returns the stake of addr.
func (s *Staker) GetStakeInfo(ctx context.Context, addr rainbow.Address) (info *StakeInfo, err error) {
	err = s.view(ctx, func(svc *services) error {
		params, r, g, err := s.project(svc, addr)
		if err != nil {
			return err
		}
		info = &StakeInfo{
			Amount:      r.Amount,
			DepositTime: r.DepositTime,
			Earned:      rewards.Earned(r, g, params.RewardModel),
		}
		if r.Amount.Sign() > 0 {
			info.UnlockTime = r.UnlockTime(params.LockPeriod)
		}
		return nil
	})
	return
}

// project loads the record of addr and the reward index as it would be now.
func (s *Staker) project(svc *services, addr rainbow.Address) (*policy.Params, *ledger.Record, *rewards.Global, error) {
	params, err := svc.policy.Get()
	if err != nil {
		return nil, nil, nil, err
	}
	total, err := svc.ledger.TotalStaked()
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := svc.rewards.Global()
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := svc.ledger.GetRecord(addr)
	if err != nil {
		return nil, nil, nil, err
	}
	return params, r, rewards.Project(g, s.clock(), params.RewardRate, params.RewardModel, total), nil
}

// TotalStaked returns the sum of all stakes.
func (s *Staker) TotalStaked(ctx context.Context) (total *big.Int, err error) {
	err = s.view(ctx, func(svc *services) error {
		total, err = svc.ledger.TotalStaked()
		return err
	})
	return
}

// StakeAt returns the stake addr held at time t.
func (s *Staker) StakeAt(ctx context.Context, addr rainbow.Address, t uint64) (amount *big.Int, err error) {
	err = s.view(ctx, func(svc *services) error {
		amount, err = svc.ledger.StakeAt(addr, t)
		return err
	})
	return
}
