// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/api/restutil"
	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/rainbow"
)

type Governance struct {
	staker *staker.Staker
}

func New(s *staker.Staker) *Governance {
	return &Governance{s}
}

func parseID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func (g *Governance) handleGetCount(w http.ResponseWriter, req *http.Request) error {
	n, err := g.staker.ProposalCount(req.Context())
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Count{n})
}

func (g *Governance) handleGetProposal(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	p, err := g.staker.GetProposal(req.Context(), id)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertProposal(p))
}

func (g *Governance) handleGetBallot(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	voter, err := rainbow.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	// fails for an unknown proposal
	if _, err := g.staker.HasVoted(req.Context(), id, voter); err != nil {
		return err
	}
	b, err := g.staker.GetBallot(req.Context(), id, voter)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertBallot(b))
}

func (g *Governance) handleCreateProposal(w http.ResponseWriter, req *http.Request) error {
	var body CreateProposal
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Caller == nil {
		return restutil.BadRequest(errors.New("caller: required"))
	}
	id, err := g.staker.CreateProposal(req.Context(), *body.Caller, body.Description)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Created{id})
}

func (g *Governance) handleVote(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body CastVote
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Caller == nil {
		return restutil.BadRequest(errors.New("caller: required"))
	}
	if body.Support == nil {
		return restutil.BadRequest(errors.New("support: required"))
	}
	weight, err := g.staker.Vote(req.Context(), *body.Caller, id, *body.Support)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Cast{(*math.HexOrDecimal256)(weight)})
}

func (g *Governance) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/proposals").
		Methods(http.MethodGet).
		Name("GET /governance/proposals").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleGetCount))
	sub.Path("/proposals").
		Methods(http.MethodPost).
		Name("POST /governance/proposals").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleCreateProposal))
	sub.Path("/proposals/{id}").
		Methods(http.MethodGet).
		Name("GET /governance/proposals/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleGetProposal))
	sub.Path("/proposals/{id}/votes").
		Methods(http.MethodPost).
		Name("POST /governance/proposals/{id}/votes").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleVote))
	sub.Path("/proposals/{id}/votes/{address}").
		Methods(http.MethodGet).
		Name("GET /governance/proposals/{id}/votes/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleGetBallot))
}
