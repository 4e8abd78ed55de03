// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/rainbow"
)

// Membership adds an address to, or removes it from, a role or the blacklist.
type Membership struct {
	Caller  *rainbow.Address `json:"caller"`
	Address *rainbow.Address `json:"address"`
	Member  bool             `json:"member"`
}

type MemberStatus struct {
	Address rainbow.Address `json:"address"`
	Member  bool            `json:"member"`
}

type Ownership struct {
	Caller   *rainbow.Address `json:"caller"`
	NewOwner *rainbow.Address `json:"newOwner"`
}

type Owner struct {
	Owner rainbow.Address `json:"owner"`
}

// ParamsUpdate changes the given parameters in one transaction.
type ParamsUpdate struct {
	Caller            *rainbow.Address      `json:"caller"`
	RewardRate        *math.HexOrDecimal256 `json:"rewardRate,omitempty"`
	MinimumStake      *math.HexOrDecimal256 `json:"minimumStake,omitempty"`
	LockPeriod        *uint64               `json:"lockPeriod,omitempty"`
	ProposalThreshold *math.HexOrDecimal256 `json:"proposalThreshold,omitempty"`
}

// Switch turns pause or emergency mode on or off.
type Switch struct {
	Caller *rainbow.Address `json:"caller"`
	On     bool             `json:"on"`
}

type Withdrawal struct {
	Caller *rainbow.Address      `json:"caller"`
	Token  string                `json:"token"`
	Amount *math.HexOrDecimal256 `json:"amount"`
	To     *rainbow.Address      `json:"to"`
}

type Params struct {
	RewardRate        *math.HexOrDecimal256 `json:"rewardRate"`
	MinimumStake      *math.HexOrDecimal256 `json:"minimumStake"`
	LockPeriod        uint64                `json:"lockPeriod"`
	ProposalThreshold *math.HexOrDecimal256 `json:"proposalThreshold"`
	RewardModel       string                `json:"rewardModel"`
	VoteWeight        string                `json:"voteWeight"`
	Paused            bool                  `json:"paused"`
	Emergency         bool                  `json:"emergency"`
}

func convertParams(p *policy.Params) *Params {
	return &Params{
		RewardRate:        (*math.HexOrDecimal256)(p.RewardRate),
		MinimumStake:      (*math.HexOrDecimal256)(p.MinimumStake),
		LockPeriod:        p.LockPeriod,
		ProposalThreshold: (*math.HexOrDecimal256)(p.ProposalThreshold),
		RewardModel:       p.RewardModel.String(),
		VoteWeight:        p.VoteWeight.String(),
		Paused:            p.Paused,
		Emergency:         p.Emergency,
	}
}
