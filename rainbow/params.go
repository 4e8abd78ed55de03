// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rainbow

import (
	"math/big"
)

// Version of the staking engine interface.
const Version = "1.0.0"

// Decimals of the staking and reward tokens.
const Decimals = 18

var (
	// One is one whole token in base units.
	One = big.NewInt(1e18)

	// DefaultRewardRate is 0.1 token per second.
	DefaultRewardRate = big.NewInt(1e17)
	// DefaultMinimumStake is 100 tokens.
	DefaultMinimumStake = new(big.Int).Mul(big.NewInt(100), One)
	// DefaultProposalThreshold is the stake needed to create a proposal, 10000 tokens.
	DefaultProposalThreshold = new(big.Int).Mul(big.NewInt(10000), One)
)

// DefaultLockPeriod is one day, in seconds.
const DefaultLockPeriod uint64 = 86400

// EngineAddress is the account under which the engine holds staked and reward tokens.
var EngineAddress = BytesToAddress([]byte("Staker"))
