// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package governance keeps stake-weighted proposals and their votes.
package governance

import (
	"encoding/binary"
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/solidity"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var (
	slotProposals = rainbow.BytesToBytes32([]byte("proposals"))
	slotCount     = rainbow.BytesToBytes32([]byte("proposal-count"))
	slotVotes     = rainbow.BytesToBytes32([]byte("proposal-votes"))

	errNotFound = reverts.New(reverts.ProposalNotFound, "Proposal does not exist")
)

type Proposal struct {
	ID            uint64
	Proposer      rainbow.Address
	Description   string
	CreatedAt     uint64
	ForWeight     *big.Int
	AgainstWeight *big.Int
	WeightMode    policy.VoteWeight
}

// Passed reports whether the support outweighs the opposition.
func (p *Proposal) Passed() bool {
	return p.ForWeight.Cmp(p.AgainstWeight) > 0
}

// Ballot is a cast vote.
type Ballot struct {
	Support bool
	Weight  *big.Int
}

type proposalID uint64

func (id proposalID) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}

type voteKey struct {
	id    uint64
	voter rainbow.Address
}

func (k voteKey) Bytes() []byte {
	return rainbow.Blake2b(binary.BigEndian.AppendUint64(nil, k.id), k.voter.Bytes()).Bytes()
}

// WeightFunc returns the voting weight of voter on p.
type WeightFunc func(p *Proposal, voter rainbow.Address) (*big.Int, error)

type Service struct {
	proposals *solidity.Mapping[proposalID, *Proposal]
	count     *solidity.Raw[uint64]
	votes     *solidity.Mapping[voteKey, *Ballot]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		proposals: solidity.NewMapping[proposalID, *Proposal](sctx, slotProposals),
		count:     solidity.NewRaw[uint64](sctx, slotCount),
		votes:     solidity.NewMapping[voteKey, *Ballot](sctx, slotVotes),
	}
}

// ProposalCount returns the number of proposals, also the id of the latest one.
func (s *Service) ProposalCount() (uint64, error) {
	n, _, err := s.count.Get()
	return n, err
}

// Create adds a proposal by a proposer holding stake. Ids start at 1.
func (s *Service) Create(proposer rainbow.Address, description string, stake, threshold *big.Int, now uint64, mode policy.VoteWeight) (*Proposal, error) {
	if stake.Cmp(threshold) < 0 {
		return nil, reverts.New(reverts.InsufficientStakeForProposal, "Insufficient tokens to create proposal")
	}
	if strings.TrimSpace(description) == "" {
		return nil, reverts.New(reverts.InvalidDescription, "Description is empty")
	}
	n, err := s.ProposalCount()
	if err != nil {
		return nil, err
	}
	p := &Proposal{
		ID:            n + 1,
		Proposer:      proposer,
		Description:   description,
		CreatedAt:     now,
		ForWeight:     new(big.Int),
		AgainstWeight: new(big.Int),
		WeightMode:    mode,
	}
	if err := s.proposals.Set(proposalID(p.ID), p); err != nil {
		return nil, errors.Wrap(err, "failed to set proposal")
	}
	if err := s.count.Set(p.ID); err != nil {
		return nil, errors.Wrap(err, "failed to set proposal count")
	}
	return p, nil
}

// GetProposal returns the proposal with id, or a ProposalNotFound revert.
func (s *Service) GetProposal(id uint64) (*Proposal, error) {
	n, err := s.ProposalCount()
	if err != nil {
		return nil, err
	}
	if id == 0 || id > n {
		return nil, errNotFound
	}
	p, err := s.proposals.Get(proposalID(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get proposal")
	}
	if p.ForWeight == nil {
		p.ForWeight = new(big.Int)
	}
	if p.AgainstWeight == nil {
		p.AgainstWeight = new(big.Int)
	}
	return p, nil
}

// GetBallot returns the vote of voter on proposal id, nil if none was cast.
func (s *Service) GetBallot(id uint64, voter rainbow.Address) (*Ballot, error) {
	b, err := s.votes.Get(voteKey{id, voter})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ballot")
	}
	if b.Weight == nil {
		return nil, nil
	}
	return b, nil
}

func (s *Service) HasVoted(id uint64, voter rainbow.Address) (bool, error) {
	b, err := s.GetBallot(id, voter)
	return b != nil, err
}

// Vote casts the vote of voter on proposal id, weighed by weigh.
func (s *Service) Vote(id uint64, voter rainbow.Address, support bool, weigh WeightFunc) (*Proposal, *Ballot, error) {
	p, err := s.GetProposal(id)
	if err != nil {
		return nil, nil, err
	}
	voted, err := s.HasVoted(id, voter)
	if err != nil {
		return nil, nil, err
	}
	if voted {
		return nil, nil, reverts.New(reverts.AlreadyVoted, "Already voted")
	}
	weight, err := weigh(p, voter)
	if err != nil {
		return nil, nil, err
	}
	if weight.Sign() <= 0 {
		return nil, nil, reverts.New(reverts.NoVotingPower, "No voting power")
	}

	if support {
		p.ForWeight = new(big.Int).Add(p.ForWeight, weight)
	} else {
		p.AgainstWeight = new(big.Int).Add(p.AgainstWeight, weight)
	}
	ballot := &Ballot{Support: support, Weight: weight}
	if err := s.votes.Set(voteKey{id, voter}, ballot); err != nil {
		return nil, nil, errors.Wrap(err, "failed to set ballot")
	}
	if err := s.proposals.Set(proposalID(id), p); err != nil {
		return nil, nil, errors.Wrap(err, "failed to set proposal")
	}
	return p, ballot, nil
}

// Tally is the outcome of a proposal.
type Tally struct {
	For     *big.Int
	Against *big.Int
	Passed  bool
}

func (s *Service) Tally(id uint64) (*Tally, error) {
	p, err := s.GetProposal(id)
	if err != nil {
		return nil, err
	}
	return &Tally{For: p.ForWeight, Against: p.AgainstWeight, Passed: p.Passed()}, nil
}
