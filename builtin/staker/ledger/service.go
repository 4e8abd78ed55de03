// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger tracks locked deposits per account, the total stake and the
// history of every account's stake over time.
package ledger

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/solidity"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var (
	slotRecords       = rainbow.BytesToBytes32([]byte("stake-records"))
	slotTotalStaked   = rainbow.BytesToBytes32([]byte("total-staked"))
	slotHistory       = rainbow.BytesToBytes32([]byte("stake-history"))
	slotHistoryLength = rainbow.BytesToBytes32([]byte("stake-history-length"))
)

// historyKey addresses the n-th history entry of an account.
type historyKey struct {
	addr rainbow.Address
	n    uint64
}

func (k historyKey) Bytes() []byte {
	var b [rainbow.AddressLength + 8]byte
	copy(b[:], k.addr[:])
	binary.BigEndian.PutUint64(b[rainbow.AddressLength:], k.n)
	return b[:]
}

type Service struct {
	records       *solidity.Mapping[rainbow.Address, *Record]
	totalStaked   *solidity.Uint256
	history       *solidity.Mapping[historyKey, *HistoryEntry]
	historyLength *solidity.Mapping[rainbow.Address, uint64]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		records:       solidity.NewMapping[rainbow.Address, *Record](sctx, slotRecords),
		totalStaked:   solidity.NewUint256(sctx, slotTotalStaked),
		history:       solidity.NewMapping[historyKey, *HistoryEntry](sctx, slotHistory),
		historyLength: solidity.NewMapping[rainbow.Address, uint64](sctx, slotHistoryLength),
	}
}

// GetRecord returns the record of addr, a zero record if it never staked.
func (s *Service) GetRecord(addr rainbow.Address) (*Record, error) {
	r, err := s.records.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake record")
	}
	if r == nil {
		return newRecord(), nil
	}
	return r.normalize(), nil
}

// SetRecord stores the record of addr. Empty records are removed.
func (s *Service) SetRecord(addr rainbow.Address, r *Record) error {
	if r.IsEmpty() {
		s.records.Delete(addr)
		return nil
	}
	if err := s.records.Set(addr, r); err != nil {
		return errors.Wrap(err, "failed to set stake record")
	}
	return nil
}

func (s *Service) TotalStaked() (*big.Int, error) {
	return s.totalStaked.Get()
}

// Deposit adds amount to the record and restarts its lock clock.
// The caller persists the record with SetRecord.
func (s *Service) Deposit(addr rainbow.Address, r *Record, amount, minimum *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "Amount must be greater than zero")
	}
	if amount.Cmp(minimum) < 0 {
		return reverts.New(reverts.BelowMinimum, "Amount below minimum stake")
	}
	r.Amount = new(big.Int).Add(r.Amount, amount)
	r.DepositTime = now

	if err := s.totalStaked.Add(amount); err != nil {
		return errors.Wrap(err, "failed to increase total staked")
	}
	return s.appendHistory(addr, r.Amount, now)
}

// Withdraw takes amount out of a record whose lock has expired, unless bypassLock is set.
func (s *Service) Withdraw(addr rainbow.Address, r *Record, amount *big.Int, now, lockPeriod uint64, bypassLock bool) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "Amount must be greater than zero")
	}
	if amount.Cmp(r.Amount) > 0 {
		return reverts.New(reverts.InsufficientStake, "Insufficient staked amount")
	}
	if !bypassLock && r.IsLocked(now, lockPeriod) {
		return reverts.New(reverts.StillLocked, "Tokens still locked")
	}
	r.Amount = new(big.Int).Sub(r.Amount, amount)

	if err := s.totalStaked.Sub(amount); err != nil {
		return errors.Wrap(err, "failed to decrease total staked")
	}
	return s.appendHistory(addr, r.Amount, now)
}

// WithdrawAll empties the record, forfeiting its pending reward, and returns the principal.
func (s *Service) WithdrawAll(addr rainbow.Address, r *Record, now uint64) (*big.Int, error) {
	amount := r.Amount
	if amount.Sign() == 0 {
		return nil, reverts.New(reverts.InsufficientStake, "Nothing staked")
	}
	r.Amount = new(big.Int)
	r.Pending = new(big.Int)

	if err := s.totalStaked.Sub(amount); err != nil {
		return nil, errors.Wrap(err, "failed to decrease total staked")
	}
	if err := s.appendHistory(addr, r.Amount, now); err != nil {
		return nil, err
	}
	return amount, nil
}

func (s *Service) appendHistory(addr rainbow.Address, amount *big.Int, now uint64) error {
	n, err := s.historyLength.Get(addr)
	if err != nil {
		return err
	}
	// several changes within the same second collapse into one entry
	if n > 0 {
		last, err := s.history.Get(historyKey{addr, n - 1})
		if err != nil {
			return err
		}
		if last.Time == now {
			return s.history.Set(historyKey{addr, n - 1}, &HistoryEntry{Amount: amount, Time: now})
		}
	}
	if err := s.history.Set(historyKey{addr, n}, &HistoryEntry{Amount: amount, Time: now}); err != nil {
		return err
	}
	return s.historyLength.Set(addr, n+1)
}

// StakeAt returns the stake of addr as it was at the end of second t.
func (s *Service) StakeAt(addr rainbow.Address, t uint64) (*big.Int, error) {
	n, err := s.historyLength.Get(addr)
	if err != nil {
		return nil, err
	}
	// binary search for the last entry with Time <= t
	lo, hi := uint64(0), n
	for lo < hi {
		mid := lo + (hi-lo)/2
		e, err := s.history.Get(historyKey{addr, mid})
		if err != nil {
			return nil, err
		}
		if e.Time <= t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return new(big.Int), nil
	}
	e, err := s.history.Get(historyKey{addr, lo - 1})
	if err != nil {
		return nil, err
	}
	if e.Amount == nil {
		return new(big.Int), nil
	}
	return e.Amount, nil
}
