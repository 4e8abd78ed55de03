// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/api/admin/apilogs"
	"github.com/rainbowlabs/rainbow/api/admin/loglevel"
	"github.com/rainbowlabs/rainbow/api/restutil"
	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/health"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"

	healthAPI "github.com/rainbowlabs/rainbow/api/admin/health"
)

// Admin serves the privileged operations of the engine, and of the daemon itself.
type Admin struct {
	staker   *staker.Staker
	exec     *state.Executor
	logLevel *slog.LevelVar
	apiLogs  *atomic.Bool
	health   *health.Health
}

// New creates the admin API. Daemon endpoints whose argument is nil are not served.
func New(s *staker.Staker, exec *state.Executor, logLevel *slog.LevelVar, apiLogs *atomic.Bool, health *health.Health) *Admin {
	return &Admin{
		staker:   s,
		exec:     exec,
		logLevel: logLevel,
		apiLogs:  apiLogs,
		health:   health,
	}
}

func requireAddress(name string, addr *rainbow.Address) error {
	if addr == nil {
		return restutil.BadRequest(errors.New(name + ": required"))
	}
	return nil
}

type role struct {
	get func(ctx context.Context, addr rainbow.Address) (bool, error)
	set func(ctx context.Context, caller, addr rainbow.Address, member bool) error
}

func (a *Admin) roles() map[string]role {
	return map[string]role{
		"governors": {
			get: a.staker.IsGovernor,
			set: func(ctx context.Context, caller, addr rainbow.Address, member bool) error {
				if member {
					return a.staker.AddGovernor(ctx, caller, addr)
				}
				return a.staker.RemoveGovernor(ctx, caller, addr)
			},
		},
		"emergency-operators": {
			get: a.staker.IsEmergencyOperator,
			set: func(ctx context.Context, caller, addr rainbow.Address, member bool) error {
				if member {
					return a.staker.AddEmergencyOperator(ctx, caller, addr)
				}
				return a.staker.RemoveEmergencyOperator(ctx, caller, addr)
			},
		},
		"blacklist": {
			get: a.staker.IsBlacklisted,
			set: a.staker.SetBlacklisted,
		},
	}
}

func (a *Admin) handleGetMember(r role) restutil.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		addr, err := rainbow.ParseAddress(mux.Vars(req)["address"])
		if err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "address"))
		}
		member, err := r.get(req.Context(), addr)
		if err != nil {
			return err
		}
		return restutil.WriteJSON(w, &MemberStatus{addr, member})
	}
}

func (a *Admin) handleSetMember(r role) restutil.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body Membership
		if err := restutil.ParseJSON(req.Body, &body); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "body"))
		}
		if err := requireAddress("caller", body.Caller); err != nil {
			return err
		}
		if err := requireAddress("address", body.Address); err != nil {
			return err
		}
		if err := r.set(req.Context(), *body.Caller, *body.Address, body.Member); err != nil {
			return err
		}
		return restutil.WriteJSON(w, &MemberStatus{*body.Address, body.Member})
	}
}

func (a *Admin) handleGetOwner(w http.ResponseWriter, req *http.Request) error {
	owner, err := a.staker.Owner(req.Context())
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Owner{owner})
}

func (a *Admin) handleTransferOwnership(w http.ResponseWriter, req *http.Request) error {
	var body Ownership
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireAddress("caller", body.Caller); err != nil {
		return err
	}
	if err := requireAddress("newOwner", body.NewOwner); err != nil {
		return err
	}
	if err := a.staker.TransferOwnership(req.Context(), *body.Caller, *body.NewOwner); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Owner{*body.NewOwner})
}

func (a *Admin) handleUpdateParams(w http.ResponseWriter, req *http.Request) error {
	var body ParamsUpdate
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireAddress("caller", body.Caller); err != nil {
		return err
	}
	caller := *body.Caller

	err := a.exec.Update(req.Context(), func(ctx context.Context, _ *state.State) error {
		if body.RewardRate != nil {
			if err := a.staker.SetRewardRate(ctx, caller, (*big.Int)(body.RewardRate)); err != nil {
				return err
			}
		}
		if body.MinimumStake != nil {
			if err := a.staker.SetMinimumStake(ctx, caller, (*big.Int)(body.MinimumStake)); err != nil {
				return err
			}
		}
		if body.LockPeriod != nil {
			if err := a.staker.SetLockPeriod(ctx, caller, *body.LockPeriod); err != nil {
				return err
			}
		}
		if body.ProposalThreshold != nil {
			if err := a.staker.SetProposalThreshold(ctx, caller, (*big.Int)(body.ProposalThreshold)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return a.writeParams(w, req)
}

func (a *Admin) writeParams(w http.ResponseWriter, req *http.Request) error {
	params, err := a.staker.Params(req.Context())
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertParams(params))
}

func (a *Admin) handleGetParams(w http.ResponseWriter, req *http.Request) error {
	return a.writeParams(w, req)
}

func (a *Admin) handleSwitch(set func(ctx context.Context, caller rainbow.Address, on bool) error) restutil.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body Switch
		if err := restutil.ParseJSON(req.Body, &body); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "body"))
		}
		if err := requireAddress("caller", body.Caller); err != nil {
			return err
		}
		if err := set(req.Context(), *body.Caller, body.On); err != nil {
			return err
		}
		return a.writeParams(w, req)
	}
}

func (a *Admin) setPaused(ctx context.Context, caller rainbow.Address, on bool) error {
	if on {
		return a.staker.Pause(ctx, caller)
	}
	return a.staker.Unpause(ctx, caller)
}

func (a *Admin) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	var body Withdrawal
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireAddress("caller", body.Caller); err != nil {
		return err
	}
	if err := requireAddress("to", body.To); err != nil {
		return err
	}
	if body.Amount == nil {
		return restutil.BadRequest(errors.New("amount: required"))
	}
	kind := staker.TokenKind(body.Token)
	if err := a.staker.EmergencyTokenWithdraw(req.Context(), *body.Caller, kind, (*big.Int)(body.Amount), *body.To); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &body)
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	for name, r := range a.roles() {
		sub.Path("/" + name + "/{address}").
			Methods(http.MethodGet).
			Name("GET /admin/" + name + "/{address}").
			HandlerFunc(restutil.WrapHandlerFunc(a.handleGetMember(r)))
		sub.Path("/" + name).
			Methods(http.MethodPost).
			Name("POST /admin/" + name).
			HandlerFunc(restutil.WrapHandlerFunc(a.handleSetMember(r)))
	}

	sub.Path("/owner").
		Methods(http.MethodGet).
		Name("GET /admin/owner").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleGetOwner))
	sub.Path("/owner").
		Methods(http.MethodPost).
		Name("POST /admin/owner").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleTransferOwnership))
	sub.Path("/params").
		Methods(http.MethodGet).
		Name("GET /admin/params").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleGetParams))
	sub.Path("/params").
		Methods(http.MethodPost).
		Name("POST /admin/params").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleUpdateParams))
	sub.Path("/pause").
		Methods(http.MethodPost).
		Name("POST /admin/pause").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSwitch(a.setPaused)))
	sub.Path("/emergency").
		Methods(http.MethodPost).
		Name("POST /admin/emergency").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSwitch(a.staker.SetEmergencyMode)))
	sub.Path("/withdraw").
		Methods(http.MethodPost).
		Name("POST /admin/withdraw").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleWithdraw))

	if a.logLevel != nil {
		loglevel.New(a.logLevel).Mount(sub, "/loglevel")
	}
	if a.apiLogs != nil {
		apilogs.New(a.apiLogs).Mount(sub, "/apilogs")
	}
	if a.health != nil {
		healthAPI.NewAPI(a.health).Mount(sub, "/health")
	}
}
