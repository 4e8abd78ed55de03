// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"context"
	"math/big"
	"strconv"

	"github.com/rainbowlabs/rainbow/builtin/staker/access"
	"github.com/rainbowlabs/rainbow/builtin/staker/governance"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/rainbow"
)

// CreateProposal opens a proposal. The caller must have at least the proposal threshold staked.
func (s *Staker) CreateProposal(ctx context.Context, caller rainbow.Address, description string) (uint64, error) {
	logger.Debug("creating proposal", "proposer", caller)

	var id uint64
	err := s.update(ctx, "createProposal", caller, access.CapAnyone, func(t *tx) error {
		params, err := t.policy.Get()
		if err != nil {
			return err
		}
		r, err := t.ledger.GetRecord(caller)
		if err != nil {
			return err
		}
		p, err := t.governance.Create(caller, description, r.Amount, params.ProposalThreshold, t.now, params.VoteWeight)
		if err != nil {
			return err
		}
		id = p.ID
		t.emit(EventGovernanceProposalCreated, rainbow.Address{}, nil,
			"id", strconv.FormatUint(id, 10),
			"description", description)
		t.st.OnCommit(func() { metricProposals().Add(1) })
		return nil
	})
	if err != nil {
		logger.Info("create proposal failed", "proposer", caller, "error", err)
		return 0, err
	}

	logger.Info("created proposal", "proposer", caller, "id", id)
	return id, nil
}

// Vote casts the caller's stake on proposal id. The weight is the current stake, or
// the stake held when the proposal was created if it was opened with snapshot weights.
func (s *Staker) Vote(ctx context.Context, caller rainbow.Address, id uint64, support bool) (*big.Int, error) {
	logger.Debug("voting", "voter", caller, "id", id, "support", support)

	var weight *big.Int
	err := s.update(ctx, "vote", caller, access.CapAnyone, func(t *tx) error {
		weigh := func(p *governance.Proposal, voter rainbow.Address) (*big.Int, error) {
			if p.WeightMode == policy.WeightSnapshot {
				return t.ledger.StakeAt(voter, p.CreatedAt)
			}
			r, err := t.ledger.GetRecord(voter)
			if err != nil {
				return nil, err
			}
			return r.Amount, nil
		}
		p, ballot, err := t.governance.Vote(id, caller, support, weigh)
		if err != nil {
			return err
		}
		weight = ballot.Weight
		t.emit(EventGovernanceVoteCast, rainbow.Address{}, weight,
			"id", strconv.FormatUint(id, 10),
			"support", strconv.FormatBool(support),
			"for", p.ForWeight.String(),
			"against", p.AgainstWeight.String())
		t.st.OnCommit(func() { metricVotes().AddWithLabel(1, map[string]string{"support": strconv.FormatBool(support)}) })
		return nil
	})
	if err != nil {
		logger.Info("vote failed", "voter", caller, "id", id, "error", err)
		return nil, err
	}

	logger.Info("voted", "voter", caller, "id", id, "weight", rainbow.FormatUnits(weight))
	return weight, nil
}

func (s *Staker) GetProposal(ctx context.Context, id uint64) (p *governance.Proposal, err error) {
	err = s.view(ctx, func(svc *services) error {
		p, err = svc.governance.GetProposal(id)
		return err
	})
	return
}

func (s *Staker) ProposalCount(ctx context.Context) (n uint64, err error) {
	err = s.view(ctx, func(svc *services) error {
		n, err = svc.governance.ProposalCount()
		return err
	})
	return
}

func (s *Staker) HasVoted(ctx context.Context, id uint64, voter rainbow.Address) (voted bool, err error) {
	err = s.view(ctx, func(svc *services) error {
		if _, err := svc.governance.GetProposal(id); err != nil {
			return err
		}
		voted, err = svc.governance.HasVoted(id, voter)
		return err
	})
	return
}

// GetBallot returns the vote of voter on proposal id, nil if none was cast.
func (s *Staker) GetBallot(ctx context.Context, id uint64, voter rainbow.Address) (b *governance.Ballot, err error) {
	err = s.view(ctx, func(svc *services) error {
		b, err = svc.governance.GetBallot(id, voter)
		return err
	})
	return
}

func (s *Staker) Tally(ctx context.Context, id uint64) (tally *governance.Tally, err error) {
	err = s.view(ctx, func(svc *services) error {
		tally, err = svc.governance.Tally(id)
		return err
	})
	return
}
