// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package policy holds the mutable engine configuration: economic parameters,
// the reward and voting models, and the pause and emergency switches.
package policy

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/solidity"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var slotParams = rainbow.BytesToBytes32([]byte("policy"))

// RewardModel selects how the reward rate is distributed.
type RewardModel uint8

const (
	// RewardFlat accrues the full rate to every account with a non-zero stake.
	RewardFlat RewardModel = iota
	// RewardProportional shares the rate among stakers by their share of the total stake.
	RewardProportional
)

func (m RewardModel) String() string {
	switch m {
	case RewardFlat:
		return "flat"
	case RewardProportional:
		return "proportional"
	}
	return "unknown"
}

func ParseRewardModel(s string) (RewardModel, error) {
	switch s {
	case "", "flat":
		return RewardFlat, nil
	case "proportional":
		return RewardProportional, nil
	}
	return 0, errors.Errorf("unknown reward model %q", s)
}

// VoteWeight selects which stake weighs a vote.
type VoteWeight uint8

const (
	// WeightLive uses the stake at vote time.
	WeightLive VoteWeight = iota
	// WeightSnapshot uses the stake at proposal creation time.
	WeightSnapshot
)

func (w VoteWeight) String() string {
	switch w {
	case WeightLive:
		return "live"
	case WeightSnapshot:
		return "snapshot"
	}
	return "unknown"
}

func ParseVoteWeight(s string) (VoteWeight, error) {
	switch s {
	case "", "live":
		return WeightLive, nil
	case "snapshot":
		return WeightSnapshot, nil
	}
	return 0, errors.Errorf("unknown vote weight %q", s)
}

// Params is the engine configuration.
type Params struct {
	RewardRate        *big.Int // reward base units per second
	MinimumStake      *big.Int
	LockPeriod        uint64 // seconds
	ProposalThreshold *big.Int
	RewardModel       RewardModel
	VoteWeight        VoteWeight
	Paused            bool
	Emergency         bool
}

// Defaults returns the parameters of a fresh deployment.
func Defaults() *Params {
	return &Params{
		RewardRate:        new(big.Int).Set(rainbow.DefaultRewardRate),
		MinimumStake:      new(big.Int).Set(rainbow.DefaultMinimumStake),
		LockPeriod:        rainbow.DefaultLockPeriod,
		ProposalThreshold: new(big.Int).Set(rainbow.DefaultProposalThreshold),
	}
}

// Validate checks the economic parameters.
func (p *Params) Validate() error {
	for name, v := range map[string]*big.Int{
		"reward rate":        p.RewardRate,
		"minimum stake":      p.MinimumStake,
		"proposal threshold": p.ProposalThreshold,
	} {
		if v == nil || v.Sign() < 0 {
			return reverts.New(reverts.InvalidParameter, "Invalid "+name)
		}
	}
	if p.RewardModel > RewardProportional {
		return reverts.New(reverts.InvalidParameter, "Invalid reward model")
	}
	if p.VoteWeight > WeightSnapshot {
		return reverts.New(reverts.InvalidParameter, "Invalid vote weight")
	}
	return nil
}

// Service stores the engine configuration.
type Service struct {
	params *solidity.Raw[*Params]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		params: solidity.NewRaw[*Params](sctx, slotParams),
	}
}

// Initialize stores the initial configuration.
func (s *Service) Initialize(p *Params) error {
	if _, found, err := s.params.Get(); err != nil {
		return err
	} else if found {
		return errors.New("policy already initialized")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.params.Set(p)
}

// Get returns the current configuration. The result is a copy owned by the caller.
func (s *Service) Get() (*Params, error) {
	p, found, err := s.params.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get policy")
	}
	if !found {
		return Defaults(), nil
	}
	return p, nil
}

func (s *Service) update(fn func(p *Params) error) error {
	p, err := s.Get()
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.params.Set(p)
}

// cloneAmount copies v, leaving nil for Validate to reject.
func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func (s *Service) SetRewardRate(rate *big.Int) error {
	return s.update(func(p *Params) error {
		p.RewardRate = cloneAmount(rate)
		return nil
	})
}

func (s *Service) SetMinimumStake(amount *big.Int) error {
	return s.update(func(p *Params) error {
		p.MinimumStake = cloneAmount(amount)
		return nil
	})
}

func (s *Service) SetLockPeriod(seconds uint64) error {
	return s.update(func(p *Params) error {
		p.LockPeriod = seconds
		return nil
	})
}

func (s *Service) SetProposalThreshold(amount *big.Int) error {
	return s.update(func(p *Params) error {
		p.ProposalThreshold = cloneAmount(amount)
		return nil
	})
}

// Pause blocks new stakes. Pausing twice fails.
func (s *Service) Pause() error {
	return s.update(func(p *Params) error {
		if p.Paused {
			return reverts.New(reverts.Paused, "Pausable: paused")
		}
		p.Paused = true
		return nil
	})
}

// Unpause fails if the engine is not paused.
func (s *Service) Unpause() error {
	return s.update(func(p *Params) error {
		if !p.Paused {
			return reverts.New(reverts.NotPaused, "Pausable: not paused")
		}
		p.Paused = false
		return nil
	})
}

// SetEmergencyMode reports whether the mode changed.
func (s *Service) SetEmergencyMode(active bool) (changed bool, err error) {
	err = s.update(func(p *Params) error {
		changed = p.Emergency != active
		p.Emergency = active
		return nil
	})
	return
}
