// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
)

// Record is the stake of one account.
type Record struct {
	Amount         *big.Int // locked principal
	DepositTime    uint64   // time of the last stake, the lock reference point
	Pending        *big.Int // settled but unclaimed reward
	RewardIndex    *big.Int // reward index at the last settlement
	CheckpointTime uint64   // time of the last settlement
}

func newRecord() *Record {
	return &Record{
		Amount:      new(big.Int),
		Pending:     new(big.Int),
		RewardIndex: new(big.Int),
	}
}

// normalize replaces nil numbers by zero, after decoding.
func (r *Record) normalize() *Record {
	if r.Amount == nil {
		r.Amount = new(big.Int)
	}
	if r.Pending == nil {
		r.Pending = new(big.Int)
	}
	if r.RewardIndex == nil {
		r.RewardIndex = new(big.Int)
	}
	return r
}

// IsEmpty returns true when there is neither stake nor pending reward.
func (r *Record) IsEmpty() bool {
	return r.Amount.Sign() == 0 && r.Pending.Sign() == 0
}

// UnlockTime returns the time from which the stake may be withdrawn.
func (r *Record) UnlockTime(lockPeriod uint64) uint64 {
	return r.DepositTime + lockPeriod
}

// IsLocked reports whether the stake is still locked at now.
func (r *Record) IsLocked(now, lockPeriod uint64) bool {
	return now < r.UnlockTime(lockPeriod)
}

// HistoryEntry is an account stake amount effective from Time.
type HistoryEntry struct {
	Amount *big.Int
	Time   uint64
}
