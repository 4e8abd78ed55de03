// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/rainbowlabs/rainbow/builtin/staker/governance"
	"github.com/rainbowlabs/rainbow/rainbow"
)

type Proposal struct {
	ID          uint64                `json:"id"`
	Proposer    rainbow.Address       `json:"proposer"`
	Description string                `json:"description"`
	CreatedAt   uint64                `json:"createdAt"`
	For         *math.HexOrDecimal256 `json:"for"`
	Against     *math.HexOrDecimal256 `json:"against"`
	Passed      bool                  `json:"passed"`
	VoteWeight  string                `json:"voteWeight"`
}

func convertProposal(p *governance.Proposal) *Proposal {
	return &Proposal{
		ID:          p.ID,
		Proposer:    p.Proposer,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		For:         (*math.HexOrDecimal256)(p.ForWeight),
		Against:     (*math.HexOrDecimal256)(p.AgainstWeight),
		Passed:      p.Passed(),
		VoteWeight:  p.WeightMode.String(),
	}
}

type Count struct {
	Count uint64 `json:"count"`
}

type Ballot struct {
	Voted   bool                  `json:"voted"`
	Support bool                  `json:"support"`
	Weight  *math.HexOrDecimal256 `json:"weight"`
}

func convertBallot(b *governance.Ballot) *Ballot {
	if b == nil {
		return &Ballot{Weight: (*math.HexOrDecimal256)(new(big.Int))}
	}
	return &Ballot{
		Voted:   true,
		Support: b.Support,
		Weight:  (*math.HexOrDecimal256)(b.Weight),
	}
}

// CreateProposal is the body of a proposal creation.
type CreateProposal struct {
	Caller      *rainbow.Address `json:"caller"`
	Description string           `json:"description"`
}

type Created struct {
	ID uint64 `json:"id"`
}

// CastVote is the body of a vote.
type CastVote struct {
	Caller  *rainbow.Address `json:"caller"`
	Support *bool            `json:"support"`
}

type Cast struct {
	Weight *math.HexOrDecimal256 `json:"weight"`
}
