// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"context"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/api/restutil"
	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/rainbow"
)

type Staking struct {
	staker *staker.Staker
}

func New(s *staker.Staker) *Staking {
	return &Staking{s}
}

func (s *Staking) handleGetSummary(w http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()
	params, err := s.staker.Params(ctx)
	if err != nil {
		return err
	}
	total, err := s.staker.TotalStaked(ctx)
	if err != nil {
		return err
	}
	pool, err := s.staker.Balance(ctx, staker.RewardToken)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertSummary(s.staker.Version(), total, pool, params))
}

func (s *Staking) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := rainbow.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	info, err := s.staker.GetStakeInfo(req.Context(), addr)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertAccount(info))
}

func (s *Staking) handleGetEarned(w http.ResponseWriter, req *http.Request) error {
	addr, err := rainbow.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	earned, err := s.staker.Earned(req.Context(), addr)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Earned{(*math.HexOrDecimal256)(earned)})
}

// parseOperation decodes the body of an operation. The amount is required if withAmount is set.
func parseOperation(req *http.Request, withAmount bool) (rainbow.Address, *big.Int, error) {
	var op Operation
	if err := restutil.ParseJSON(req.Body, &op); err != nil {
		return rainbow.Address{}, nil, restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if op.Caller == nil {
		return rainbow.Address{}, nil, restutil.BadRequest(errors.New("caller: required"))
	}
	if !withAmount {
		return *op.Caller, nil, nil
	}
	if op.Amount == nil {
		return rainbow.Address{}, nil, restutil.BadRequest(errors.New("amount: required"))
	}
	return *op.Caller, (*big.Int)(op.Amount), nil
}

// handleAmountOp serves an operation taking an amount.
func (s *Staking) handleAmountOp(op func(ctx context.Context, caller rainbow.Address, amount *big.Int) error) restutil.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		caller, amount, err := parseOperation(req, true)
		if err != nil {
			return err
		}
		if err := op(req.Context(), caller, amount); err != nil {
			return err
		}
		return restutil.WriteJSON(w, &Receipt{Caller: caller, Amount: (*math.HexOrDecimal256)(amount)})
	}
}

// handlePayoutOp serves an operation paying out an amount to the caller.
func (s *Staking) handlePayoutOp(op func(ctx context.Context, caller rainbow.Address) (*big.Int, error)) restutil.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		caller, _, err := parseOperation(req, false)
		if err != nil {
			return err
		}
		amount, err := op(req.Context(), caller)
		if err != nil {
			return err
		}
		return restutil.WriteJSON(w, &Receipt{Caller: caller, Amount: (*math.HexOrDecimal256)(amount)})
	}
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/info").
		Methods(http.MethodGet).
		Name("GET /staking/info").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetSummary))
	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/accounts/{address}/earned").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/earned").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetEarned))

	sub.Path("/stake").
		Methods(http.MethodPost).
		Name("POST /staking/stake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleAmountOp(s.staker.Stake)))
	sub.Path("/unstake").
		Methods(http.MethodPost).
		Name("POST /staking/unstake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleAmountOp(s.staker.Unstake)))
	sub.Path("/emergency-unstake").
		Methods(http.MethodPost).
		Name("POST /staking/emergency-unstake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handlePayoutOp(s.staker.EmergencyUnstake)))
	sub.Path("/claim").
		Methods(http.MethodPost).
		Name("POST /staking/claim").
		HandlerFunc(restutil.WrapHandlerFunc(s.handlePayoutOp(s.staker.ClaimRewards)))
}
