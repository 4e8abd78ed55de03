// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tokens serves the native token ledgers. The caller is trusted, so
// it is meant for solo and dev deployments.
package tokens

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/api/restutil"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/rainbow"
)

type Tokens struct {
	tokens         map[string]*token.Token
	defaultSpender rainbow.Address
}

// New serves tokens by symbol. Approvals without a spender go to defaultSpender.
func New(tokens map[string]*token.Token, defaultSpender rainbow.Address) *Tokens {
	return &Tokens{tokens, defaultSpender}
}

func (t *Tokens) token(req *http.Request) (*token.Token, error) {
	symbol := mux.Vars(req)["symbol"]
	tok, ok := t.tokens[symbol]
	if !ok {
		return nil, restutil.NotFound(errors.Errorf("token %q not found", symbol))
	}
	return tok, nil
}

func parseAddress(req *http.Request, key string) (rainbow.Address, error) {
	addr, err := rainbow.ParseAddress(mux.Vars(req)[key])
	if err != nil {
		return rainbow.Address{}, restutil.BadRequest(errors.WithMessage(err, key))
	}
	return addr, nil
}

func (t *Tokens) handleGetToken(w http.ResponseWriter, req *http.Request) error {
	tok, err := t.token(req)
	if err != nil {
		return err
	}
	supply, err := tok.TotalSupply(req.Context())
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Token{
		Metadata:    tok.Metadata(),
		Address:     tok.Address(),
		TotalSupply: (*math.HexOrDecimal256)(supply),
	})
}

func (t *Tokens) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	tok, err := t.token(req)
	if err != nil {
		return err
	}
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	bal, err := tok.BalanceOf(req.Context(), addr)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Balance{(*math.HexOrDecimal256)(bal)})
}

func (t *Tokens) handleGetAllowance(w http.ResponseWriter, req *http.Request) error {
	tok, err := t.token(req)
	if err != nil {
		return err
	}
	owner, err := parseAddress(req, "owner")
	if err != nil {
		return err
	}
	spender, err := parseAddress(req, "spender")
	if err != nil {
		return err
	}
	allowance, err := tok.Allowance(req.Context(), owner, spender)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Allowance{owner, spender, (*math.HexOrDecimal256)(allowance)})
}

func (t *Tokens) handleApprove(w http.ResponseWriter, req *http.Request) error {
	tok, err := t.token(req)
	if err != nil {
		return err
	}
	var body Approval
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Owner == nil {
		return restutil.BadRequest(errors.New("owner: required"))
	}
	if body.Amount == nil {
		return restutil.BadRequest(errors.New("amount: required"))
	}
	spender := t.defaultSpender
	if body.Spender != nil {
		spender = *body.Spender
	}
	if err := tok.Approve(req.Context(), *body.Owner, spender, (*big.Int)(body.Amount)); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Allowance{*body.Owner, spender, body.Amount})
}

func (t *Tokens) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	tok, err := t.token(req)
	if err != nil {
		return err
	}
	var body Transfer
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.From == nil || body.To == nil {
		return restutil.BadRequest(errors.New("from, to: required"))
	}
	if body.Amount == nil {
		return restutil.BadRequest(errors.New("amount: required"))
	}
	if err := tok.Transfer(req.Context(), *body.From, *body.To, (*big.Int)(body.Amount)); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &body)
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{symbol}").
		Methods(http.MethodGet).
		Name("GET /tokens/{symbol}").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGetToken))
	sub.Path("/{symbol}/balances/{address}").
		Methods(http.MethodGet).
		Name("GET /tokens/{symbol}/balances/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGetBalance))
	sub.Path("/{symbol}/allowances/{owner}/{spender}").
		Methods(http.MethodGet).
		Name("GET /tokens/{symbol}/allowances/{owner}/{spender}").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGetAllowance))
	sub.Path("/{symbol}/approve").
		Methods(http.MethodPost).
		Name("POST /tokens/{symbol}/approve").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleApprove))
	sub.Path("/{symbol}/transfer").
		Methods(http.MethodPost).
		Name("POST /tokens/{symbol}/transfer").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleTransfer))
}
