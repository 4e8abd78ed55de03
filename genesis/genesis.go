// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the initial state of an engine: roles, policy,
// tokens and their first balances.
package genesis

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

// Units is a token amount written in whole tokens, like "100" or "0.1".
type Units struct {
	*big.Int
}

func NewUnits(s string) Units {
	return Units{rainbow.MustParseUnits(s)}
}

func (u *Units) UnmarshalYAML(node *yaml.Node) error {
	v, err := rainbow.ParseUnits(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	u.Int = v
	return nil
}

func (u Units) MarshalYAML() (any, error) {
	if u.Int == nil {
		return "0", nil
	}
	return rainbow.FormatUnits(u.Int), nil
}

func (u Units) big() *big.Int {
	return u.or(new(big.Int))
}

func (u Units) or(def *big.Int) *big.Int {
	if u.Int == nil {
		return new(big.Int).Set(def)
	}
	return new(big.Int).Set(u.Int)
}

// Policy is the initial engine configuration. Omitted values take the defaults.
type Policy struct {
	RewardRate        Units   `yaml:"rewardRate,omitempty"`
	MinimumStake      Units   `yaml:"minimumStake,omitempty"`
	LockPeriod        *uint64 `yaml:"lockPeriod,omitempty"`
	ProposalThreshold Units   `yaml:"proposalThreshold,omitempty"`
	RewardModel       string  `yaml:"rewardModel,omitempty"`
	VoteWeight        string  `yaml:"voteWeight,omitempty"`
}

type Tokens struct {
	Staking token.Metadata `yaml:"staking"`
	Reward  token.Metadata `yaml:"reward"`
}

// Account is an initial staking token balance.
type Account struct {
	Address rainbow.Address `yaml:"address"`
	Balance Units           `yaml:"balance"`
}

// Genesis is the initial state of an engine.
type Genesis struct {
	Owner              rainbow.Address   `yaml:"owner"`
	Governors          []rainbow.Address `yaml:"governors"`
	EmergencyOperators []rainbow.Address `yaml:"emergencyOperators"`
	Blacklist          []rainbow.Address `yaml:"blacklist"`
	Policy             Policy            `yaml:"policy"`
	Tokens             Tokens            `yaml:"tokens"`
	Accounts           []Account         `yaml:"accounts"`
	RewardPool         Units             `yaml:"rewardPool"`
}

// Load reads a genesis file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Parse(data)
}

// Parse decodes a genesis from yaml and validates it.
func Parse(data []byte) (*Genesis, error) {
	var gen Genesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Params converts the policy section.
func (g *Genesis) Params() (*policy.Params, error) {
	model, err := policy.ParseRewardModel(g.Policy.RewardModel)
	if err != nil {
		return nil, err
	}
	weight, err := policy.ParseVoteWeight(g.Policy.VoteWeight)
	if err != nil {
		return nil, err
	}
	params := policy.Defaults()
	params.RewardRate = g.Policy.RewardRate.or(params.RewardRate)
	params.MinimumStake = g.Policy.MinimumStake.or(params.MinimumStake)
	params.ProposalThreshold = g.Policy.ProposalThreshold.or(params.ProposalThreshold)
	if g.Policy.LockPeriod != nil {
		params.LockPeriod = *g.Policy.LockPeriod
	}
	params.RewardModel = model
	params.VoteWeight = weight
	return params, params.Validate()
}

func (g *Genesis) Validate() error {
	if g.Owner.IsZero() {
		return errors.New("genesis: owner must be set")
	}
	if g.Tokens.Staking.Symbol == "" || g.Tokens.Reward.Symbol == "" {
		return errors.New("genesis: token symbols must be set")
	}
	if g.Tokens.Staking.Symbol == g.Tokens.Reward.Symbol {
		return errors.New("genesis: staking and reward tokens must differ")
	}
	for _, a := range g.Accounts {
		if a.Address.IsZero() {
			return errors.New("genesis: account address must be set")
		}
		if a.Balance.big().Sign() <= 0 {
			return fmt.Errorf("genesis: %s: balance must be positive", a.Address)
		}
	}
	if _, err := g.Params(); err != nil {
		return errors.WithMessage(err, "genesis")
	}
	return nil
}

// ID identifies the genesis, so that a database can be matched with the genesis it was built from.
func (g *Genesis) ID() (rainbow.Bytes32, error) {
	data, err := yaml.Marshal(g)
	if err != nil {
		return rainbow.Bytes32{}, err
	}
	return rainbow.Blake2b(data), nil
}

// Apply initializes the engine and the tokens in one transaction.
func (g *Genesis) Apply(ctx context.Context, exec *state.Executor, s *staker.Staker, stakingToken, rewardToken *token.Token) error {
	params, err := g.Params()
	if err != nil {
		return err
	}
	return exec.Update(ctx, func(ctx context.Context, _ *state.State) error {
		if err := s.Initialize(ctx, g.Owner, params); err != nil {
			return err
		}
		for _, addr := range g.Governors {
			if err := s.AddGovernor(ctx, g.Owner, addr); err != nil {
				return errors.WithMessagef(err, "governor %s", addr)
			}
		}
		for _, addr := range g.EmergencyOperators {
			if err := s.AddEmergencyOperator(ctx, g.Owner, addr); err != nil {
				return errors.WithMessagef(err, "emergency operator %s", addr)
			}
		}
		for _, addr := range g.Blacklist {
			if err := s.SetBlacklisted(ctx, g.Owner, addr, true); err != nil {
				return errors.WithMessagef(err, "blacklist %s", addr)
			}
		}
		for _, a := range g.Accounts {
			if err := stakingToken.Mint(ctx, a.Address, a.Balance.big()); err != nil {
				return errors.WithMessagef(err, "account %s", a.Address)
			}
		}
		if g.RewardPool.big().Sign() > 0 {
			if err := rewardToken.Mint(ctx, s.Address(), g.RewardPool.big()); err != nil {
				return errors.WithMessage(err, "reward pool")
			}
		}
		return nil
	})
}
