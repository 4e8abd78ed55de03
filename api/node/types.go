// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"github.com/rainbowlabs/rainbow/rainbow"
)

// Info describes the running node.
type Info struct {
	Version      string          `json:"version"`
	GenesisID    rainbow.Bytes32 `json:"genesisId"`
	Engine       rainbow.Address `json:"engine"`
	StakingToken string          `json:"stakingToken"`
	RewardToken  string          `json:"rewardToken"`
	StartedAt    uint64          `json:"startedAt"`
}

type Clock struct {
	Now uint64 `json:"now"`
}
