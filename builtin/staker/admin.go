// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"context"
	"math/big"
	"strconv"

	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/staker/access"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/rainbow"
)

//
// Access control
//

// membership runs an owner-only change of a role set. An unchanged set emits nothing.
func (s *Staker) membership(ctx context.Context, op, event string, caller, addr rainbow.Address, change func(t *tx) (bool, error), attrs ...string) error {
	logger.Debug(op, "caller", caller, "address", addr)

	err := s.update(ctx, op, caller, access.CapOwner, func(t *tx) error {
		changed, err := change(t)
		if err != nil {
			return err
		}
		if changed {
			t.emit(event, addr, nil, attrs...)
		}
		return nil
	})
	if err != nil {
		logger.Info(op+" failed", "address", addr, "error", err)
		return err
	}

	logger.Info(op, "address", addr)
	return nil
}

func (s *Staker) AddGovernor(ctx context.Context, caller, addr rainbow.Address) error {
	return s.membership(ctx, "addGovernor", EventGovernorAdded, caller, addr, func(t *tx) (bool, error) {
		return t.access.AddGovernor(addr)
	})
}

func (s *Staker) RemoveGovernor(ctx context.Context, caller, addr rainbow.Address) error {
	return s.membership(ctx, "removeGovernor", EventGovernorRemoved, caller, addr, func(t *tx) (bool, error) {
		return t.access.RemoveGovernor(addr)
	})
}

func (s *Staker) AddEmergencyOperator(ctx context.Context, caller, addr rainbow.Address) error {
	return s.membership(ctx, "addEmergencyOperator", EventEmergencyOperatorAdded, caller, addr, func(t *tx) (bool, error) {
		return t.access.AddEmergencyOperator(addr)
	})
}

func (s *Staker) RemoveEmergencyOperator(ctx context.Context, caller, addr rainbow.Address) error {
	return s.membership(ctx, "removeEmergencyOperator", EventEmergencyOperatorRemoved, caller, addr, func(t *tx) (bool, error) {
		return t.access.RemoveEmergencyOperator(addr)
	})
}

func (s *Staker) SetBlacklisted(ctx context.Context, caller, addr rainbow.Address, blacklisted bool) error {
	return s.membership(ctx, "setBlacklisted", EventBlacklistUpdated, caller, addr, func(t *tx) (bool, error) {
		return t.access.SetBlacklisted(addr, blacklisted)
	}, "blacklisted", strconv.FormatBool(blacklisted))
}

// TransferOwnership hands the owner role over. Governor and operator roles are kept as they are.
func (s *Staker) TransferOwnership(ctx context.Context, caller, newOwner rainbow.Address) error {
	return s.membership(ctx, "transferOwnership", EventOwnershipTransferred, caller, newOwner, func(t *tx) (bool, error) {
		if err := t.access.TransferOwnership(newOwner); err != nil {
			return false, err
		}
		return caller != newOwner, nil
	})
}

func (s *Staker) Owner(ctx context.Context) (owner rainbow.Address, err error) {
	err = s.view(ctx, func(svc *services) error {
		owner, err = svc.access.Owner()
		return err
	})
	return
}

func (s *Staker) IsGovernor(ctx context.Context, addr rainbow.Address) (ok bool, err error) {
	err = s.view(ctx, func(svc *services) error {
		ok, err = svc.access.IsGovernor(addr)
		return err
	})
	return
}

func (s *Staker) IsEmergencyOperator(ctx context.Context, addr rainbow.Address) (ok bool, err error) {
	err = s.view(ctx, func(svc *services) error {
		ok, err = svc.access.IsEmergencyOperator(addr)
		return err
	})
	return
}

func (s *Staker) IsBlacklisted(ctx context.Context, addr rainbow.Address) (ok bool, err error) {
	err = s.view(ctx, func(svc *services) error {
		ok, err = svc.access.IsBlacklisted(addr)
		return err
	})
	return
}

//
// Policy
//

// configure runs a policy change. The reward index is brought to now first, so
// that the time before the change accrues under the old policy.
func (s *Staker) configure(ctx context.Context, op, event string, caller rainbow.Address, c access.Capability, value string, change func(t *tx) error) error {
	logger.Debug(op, "caller", caller, "value", value)

	err := s.update(ctx, op, caller, c, func(t *tx) error {
		params, err := t.policy.Get()
		if err != nil {
			return err
		}
		total, err := t.ledger.TotalStaked()
		if err != nil {
			return err
		}
		if _, err := t.rewards.Advance(t.now, params, total); err != nil {
			return err
		}
		if err := change(t); err != nil {
			return err
		}
		if event != "" {
			t.emit(event, rainbow.Address{}, nil, "value", value)
		}
		return nil
	})
	if err != nil {
		logger.Info(op+" failed", "value", value, "error", err)
		return err
	}

	logger.Info(op, "value", value)
	return nil
}

func (s *Staker) SetRewardRate(ctx context.Context, caller rainbow.Address, rate *big.Int) error {
	return s.configure(ctx, "setRewardRate", EventRewardRateUpdated, caller, access.CapOwner, rate.String(), func(t *tx) error {
		return t.policy.SetRewardRate(rate)
	})
}

func (s *Staker) SetMinimumStake(ctx context.Context, caller rainbow.Address, amount *big.Int) error {
	return s.configure(ctx, "setMinimumStake", EventMinimumStakeUpdated, caller, access.CapOwner, amount.String(), func(t *tx) error {
		return t.policy.SetMinimumStake(amount)
	})
}

// SetLockPeriod changes the lock period of every stake, including running ones.
func (s *Staker) SetLockPeriod(ctx context.Context, caller rainbow.Address, seconds uint64) error {
	return s.configure(ctx, "setLockPeriod", EventLockPeriodUpdated, caller, access.CapOwner, strconv.FormatUint(seconds, 10), func(t *tx) error {
		return t.policy.SetLockPeriod(seconds)
	})
}

func (s *Staker) SetProposalThreshold(ctx context.Context, caller rainbow.Address, amount *big.Int) error {
	return s.configure(ctx, "setProposalThreshold", EventProposalThresholdUpdated, caller, access.CapOwner, amount.String(), func(t *tx) error {
		return t.policy.SetProposalThreshold(amount)
	})
}

// Pause blocks new stakes. Owner or governors.
func (s *Staker) Pause(ctx context.Context, caller rainbow.Address) error {
	return s.configure(ctx, "pause", EventPaused, caller, access.CapGovernance, "true", func(t *tx) error {
		return t.policy.Pause()
	})
}

func (s *Staker) Unpause(ctx context.Context, caller rainbow.Address) error {
	return s.configure(ctx, "unpause", EventUnpaused, caller, access.CapGovernance, "false", func(t *tx) error {
		return t.policy.Unpause()
	})
}

// SetEmergencyMode switches emergency mode, which blocks stakes, lifts the lock
// and enables emergency unstaking. Owner only.
func (s *Staker) SetEmergencyMode(ctx context.Context, caller rainbow.Address, active bool) error {
	return s.configure(ctx, "setEmergencyMode", "", caller, access.CapOwner, strconv.FormatBool(active), func(t *tx) error {
		changed, err := t.policy.SetEmergencyMode(active)
		if err != nil {
			return err
		}
		if changed {
			t.emit(EventEmergencyModeSet, rainbow.Address{}, nil, "active", strconv.FormatBool(active))
		}
		return nil
	})
}

// Params returns the current policy.
func (s *Staker) Params(ctx context.Context) (params *policy.Params, err error) {
	err = s.view(ctx, func(svc *services) error {
		params, err = svc.policy.Get()
		return err
	})
	return
}

//
// Token rescue
//

// TokenKind selects one of the engine's token ledgers.
type TokenKind string

const (
	StakingToken TokenKind = "staking"
	RewardToken  TokenKind = "reward"
)

func (s *Staker) ledgerOf(kind TokenKind) (token.Ledger, error) {
	switch kind {
	case StakingToken:
		return s.staking, nil
	case RewardToken:
		return s.reward, nil
	}
	return nil, reverts.New(reverts.InvalidParameter, "Unknown token")
}

// EmergencyTokenWithdraw sends tokens held by the engine to an address. Owner only.
// Staked principal cannot be withdrawn: only the staking token balance above the
// total stake is available.
func (s *Staker) EmergencyTokenWithdraw(ctx context.Context, caller rainbow.Address, kind TokenKind, amount *big.Int, to rainbow.Address) error {
	logger.Debug("withdrawing tokens", "token", kind, "amount", rainbow.FormatUnits(amount), "to", to)

	ledger, err := s.ledgerOf(kind)
	if err != nil {
		return err
	}
	err = s.update(ctx, "emergencyTokenWithdraw", caller, access.CapOwner, func(t *tx) error {
		if amount == nil || amount.Sign() <= 0 {
			return reverts.New(reverts.InvalidAmount, "Amount must be greater than zero")
		}
		if to.IsZero() {
			return reverts.New(reverts.InvalidAddress, "Address is zero")
		}
		if kind == StakingToken {
			bal, err := ledger.BalanceOf(t.ctx, s.addr)
			if err != nil {
				return errors.WithMessage(err, "staking token balance")
			}
			total, err := t.ledger.TotalStaked()
			if err != nil {
				return err
			}
			if new(big.Int).Sub(bal, total).Cmp(amount) < 0 {
				return reverts.New(reverts.InsufficientBalance, "Amount exceeds unstaked balance")
			}
		}
		t.emit(EventEmergencyTokenWithdrawn, to, amount, "token", string(kind))

		return ledger.Transfer(t.ctx, s.addr, to, amount)
	})
	if err != nil {
		logger.Info("withdraw tokens failed", "token", kind, "error", err)
		return err
	}

	logger.Info("withdrew tokens", "token", kind, "amount", rainbow.FormatUnits(amount), "to", to)
	return nil
}

// Balance returns the engine's balance of a token.
func (s *Staker) Balance(ctx context.Context, kind TokenKind) (*big.Int, error) {
	ledger, err := s.ledgerOf(kind)
	if err != nil {
		return nil, err
	}
	return ledger.BalanceOf(ctx, s.addr)
}
