// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/rainbowlabs/rainbow/rainbow"
)

// Event names.
const (
	EventStaked                    = "Staked"
	EventUnstaked                  = "Unstaked"
	EventEmergencyUnstaked         = "EmergencyUnstaked"
	EventRewardClaimed             = "RewardClaimed"
	EventRewardRateUpdated         = "RewardRateUpdated"
	EventMinimumStakeUpdated       = "MinimumStakeUpdated"
	EventLockPeriodUpdated         = "LockPeriodUpdated"
	EventProposalThresholdUpdated  = "ProposalThresholdUpdated"
	EventGovernorAdded             = "GovernorAdded"
	EventGovernorRemoved           = "GovernorRemoved"
	EventEmergencyOperatorAdded    = "EmergencyOperatorAdded"
	EventEmergencyOperatorRemoved  = "EmergencyOperatorRemoved"
	EventBlacklistUpdated          = "BlacklistUpdated"
	EventPaused                    = "Paused"
	EventUnpaused                  = "Unpaused"
	EventEmergencyModeSet          = "EmergencyModeSet"
	EventGovernanceProposalCreated = "GovernanceProposalCreated"
	EventGovernanceVoteCast        = "GovernanceVoteCast"
	EventOwnershipTransferred      = "OwnershipTransferred"
	EventEmergencyTokenWithdrawn   = "EmergencyTokenWithdrawn"
)

// Event records a committed mutation: who did it, to whom, how much,
// and the resulting state in Attrs.
type Event struct {
	Name    string
	Actor   rainbow.Address
	Subject rainbow.Address // zero if the operation has no subject other than the actor
	Amount  *big.Int        // nil if no amount is involved
	Time    uint64
	Attrs   map[string]string
}

// Observer receives the events of every committed transaction, in commit order.
// Observe is called while the engine is locked and must not call back into it.
type Observer interface {
	Observe(events []*Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(events []*Event)

func (f ObserverFunc) Observe(events []*Event) { f(events) }
