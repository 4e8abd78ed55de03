// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
	"github.com/rainbowlabs/rainbow/rainbow"
)

// Summary is the state of the engine as a whole.
type Summary struct {
	Version           string                `json:"version"`
	TotalStaked       *math.HexOrDecimal256 `json:"totalStaked"`
	RewardPool        *math.HexOrDecimal256 `json:"rewardPool"`
	RewardRate        *math.HexOrDecimal256 `json:"rewardRate"`
	MinimumStake      *math.HexOrDecimal256 `json:"minimumStake"`
	LockPeriod        uint64                `json:"lockPeriod"`
	ProposalThreshold *math.HexOrDecimal256 `json:"proposalThreshold"`
	RewardModel       string                `json:"rewardModel"`
	VoteWeight        string                `json:"voteWeight"`
	Paused            bool                  `json:"paused"`
	Emergency         bool                  `json:"emergency"`
}

func convertSummary(version string, total, pool *big.Int, p *policy.Params) *Summary {
	return &Summary{
		Version:           version,
		TotalStaked:       (*math.HexOrDecimal256)(total),
		RewardPool:        (*math.HexOrDecimal256)(pool),
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

// Account is the stake of one account.
type Account struct {
	Amount      *math.HexOrDecimal256 `json:"amount"`
	DepositTime uint64                `json:"depositTime"`
	UnlockTime  uint64                `json:"unlockTime"`
	Earned      *math.HexOrDecimal256 `json:"earned"`
}

func convertAccount(info *staker.StakeInfo) *Account {
	return &Account{
		Amount:      (*math.HexOrDecimal256)(info.Amount),
		DepositTime: info.DepositTime,
		UnlockTime:  info.UnlockTime,
		Earned:      (*math.HexOrDecimal256)(info.Earned),
	}
}

type Earned struct {
	Earned *math.HexOrDecimal256 `json:"earned"`
}

// Operation is the body of a staking operation. Amount is ignored by
// operations that take none.
type Operation struct {
	Caller *rainbow.Address      `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount,omitempty"`
}

// Receipt is the outcome of a committed operation.
type Receipt struct {
	Caller rainbow.Address       `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}
