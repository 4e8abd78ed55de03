// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements fungible token ledgers.
package token

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/solidity"
	"github.com/rainbowlabs/rainbow/log"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

var logger = log.WithContext("pkg", "token")

// Ledger is the view of a token the staking engine depends on.
// Implementations must pass ctx on, so that calls made within a
// transaction join it.
type Ledger interface {
	BalanceOf(ctx context.Context, addr rainbow.Address) (*big.Int, error)
	Transfer(ctx context.Context, from, to rainbow.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, spender, from, to rainbow.Address, amount *big.Int) error
}

var (
	slotBalances   = rainbow.BytesToBytes32([]byte("balances"))
	slotAllowances = rainbow.BytesToBytes32([]byte("allowances"))
	slotSupply     = rainbow.BytesToBytes32([]byte("total-supply"))

	// MaxAllowance never decreases on spending.
	MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// AddressOf returns the account a native token keeps its storage under.
func AddressOf(symbol string) rainbow.Address {
	return rainbow.BytesToAddress(rainbow.Blake2b([]byte("token"), []byte(symbol)).Bytes())
}

type allowanceKey struct {
	owner, spender rainbow.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Metadata describes a token.
type Metadata struct {
	Name     string `yaml:"name" json:"name"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Decimals uint8  `yaml:"decimals" json:"decimals"`
}

// Token is a native ERC20-like token. Each call is a transaction of the
// executor, or joins the one carried by ctx.
type Token struct {
	addr rainbow.Address
	meta Metadata
	exec *state.Executor
}

var _ Ledger = (*Token)(nil)

func New(meta Metadata, exec *state.Executor) *Token {
	return &Token{
		addr: AddressOf(meta.Symbol),
		meta: meta,
		exec: exec,
	}
}

func (t *Token) Address() rainbow.Address { return t.addr }
func (t *Token) Metadata() Metadata       { return t.meta }

type storage struct {
	balances   *solidity.Mapping[rainbow.Address, *big.Int]
	allowances *solidity.Mapping[allowanceKey, *big.Int]
	supply     *solidity.Uint256
}

func (t *Token) storage(st *state.State) *storage {
	sctx := solidity.NewContext(t.addr, st)
	return &storage{
		balances:   solidity.NewMapping[rainbow.Address, *big.Int](sctx, slotBalances),
		allowances: solidity.NewMapping[allowanceKey, *big.Int](sctx, slotAllowances),
		supply:     solidity.NewUint256(sctx, slotSupply),
	}
}

func (s *storage) balanceOf(addr rainbow.Address) (*big.Int, error) {
	bal, err := s.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

func (s *storage) setBalance(addr rainbow.Address, bal *big.Int) error {
	if bal.Sign() == 0 {
		s.balances.Delete(addr)
		return nil
	}
	return s.balances.Set(addr, bal)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.New(reverts.InvalidAmount, "ERC20: negative amount")
	}
	return nil
}

func (s *storage) transfer(from, to rainbow.Address, amount *big.Int) error {
	if to.IsZero() {
		return reverts.New(reverts.InvalidAddress, "ERC20: transfer to the zero address")
	}
	fromBal, err := s.balanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.New(reverts.InsufficientBalance, "ERC20: transfer amount exceeds balance")
	}
	if err := s.setBalance(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := s.balanceOf(to)
	if err != nil {
		return err
	}
	return s.setBalance(to, new(big.Int).Add(toBal, amount))
}

func (t *Token) TotalSupply(ctx context.Context) (supply *big.Int, err error) {
	err = t.exec.View(ctx, func(st *state.State) error {
		supply, err = t.storage(st).supply.Get()
		return err
	})
	return
}

func (t *Token) BalanceOf(ctx context.Context, addr rainbow.Address) (bal *big.Int, err error) {
	err = t.exec.View(ctx, func(st *state.State) error {
		bal, err = t.storage(st).balanceOf(addr)
		return err
	})
	return
}

func (t *Token) Allowance(ctx context.Context, owner, spender rainbow.Address) (allowance *big.Int, err error) {
	err = t.exec.View(ctx, func(st *state.State) error {
		allowance, err = t.storage(st).allowances.Get(allowanceKey{owner, spender})
		return err
	})
	return
}

func (t *Token) Approve(ctx context.Context, owner, spender rainbow.Address, amount *big.Int) error {
	if spender.IsZero() {
		return reverts.New(reverts.InvalidAddress, "ERC20: approve to the zero address")
	}
	if amount == nil || amount.Sign() < 0 || amount.Cmp(MaxAllowance) > 0 {
		return reverts.New(reverts.InvalidAmount, "ERC20: invalid allowance")
	}
	err := t.exec.Update(ctx, func(_ context.Context, st *state.State) error {
		return t.storage(st).allowances.Set(allowanceKey{owner, spender}, amount)
	})
	if err != nil {
		return err
	}
	logger.Debug("approved", "token", t.meta.Symbol, "owner", owner, "spender", spender, "amount", amount)
	return nil
}

func (t *Token) Transfer(ctx context.Context, from, to rainbow.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	err := t.exec.Update(ctx, func(_ context.Context, st *state.State) error {
		return t.storage(st).transfer(from, to, amount)
	})
	if err != nil {
		return err
	}
	logger.Debug("transferred", "token", t.meta.Symbol, "from", from, "to", to, "amount", amount)
	return nil
}

// TransferFrom moves amount from one account to another on behalf of spender,
// spending the allowance from granted to spender.
func (t *Token) TransferFrom(ctx context.Context, spender, from, to rainbow.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	err := t.exec.Update(ctx, func(_ context.Context, st *state.State) error {
		s := t.storage(st)
		key := allowanceKey{from, spender}
		allowance, err := s.allowances.Get(key)
		if err != nil {
			return errors.Wrap(err, "failed to get allowance")
		}
		if allowance.Cmp(amount) < 0 {
			return reverts.New(reverts.InsufficientAllowance, "ERC20: insufficient allowance")
		}
		if allowance.Cmp(MaxAllowance) != 0 {
			if err := s.allowances.Set(key, new(big.Int).Sub(allowance, amount)); err != nil {
				return err
			}
		}
		return s.transfer(from, to, amount)
	})
	if err != nil {
		return err
	}
	logger.Debug("transferred", "token", t.meta.Symbol, "spender", spender, "from", from, "to", to, "amount", amount)
	return nil
}

// Mint creates amount new tokens owned by to.
func (t *Token) Mint(ctx context.Context, to rainbow.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "ERC20: mint amount must be positive")
	}
	if to.IsZero() {
		return reverts.New(reverts.InvalidAddress, "ERC20: mint to the zero address")
	}
	err := t.exec.Update(ctx, func(_ context.Context, st *state.State) error {
		s := t.storage(st)
		if err := s.supply.Add(amount); err != nil {
			return err
		}
		bal, err := s.balanceOf(to)
		if err != nil {
			return err
		}
		return s.setBalance(to, new(big.Int).Add(bal, amount))
	})
	if err != nil {
		return err
	}
	logger.Info("minted", "token", t.meta.Symbol, "to", to, "amount", amount)
	return nil
}
