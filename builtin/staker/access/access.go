// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package access

import (
	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/solidity"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var (
	slotOwner     = rainbow.BytesToBytes32([]byte("owner"))
	slotGovernors = rainbow.BytesToBytes32([]byte("governors"))
	slotOperators = rainbow.BytesToBytes32([]byte("emergency-operators"))
	slotBlacklist = rainbow.BytesToBytes32([]byte("blacklist"))

	errNotOwner    = reverts.New(reverts.Unauthorized, "Ownable: caller is not the owner")
	errNotGovernor = reverts.New(reverts.Unauthorized, "AccessControl: caller is not owner or governor")
	errZeroAddress = reverts.New(reverts.InvalidAddress, "Address is zero")
)

// Capability names what a caller must be allowed to do to run an operation.
type Capability int

const (
	// CapAnyone is granted to every caller.
	CapAnyone Capability = iota
	// CapGovernance is granted to the owner and to governors.
	CapGovernance
	// CapOwner is granted to the owner only.
	CapOwner
)

func (c Capability) String() string {
	switch c {
	case CapAnyone:
		return "anyone"
	case CapGovernance:
		return "governance"
	case CapOwner:
		return "owner"
	}
	return "unknown"
}

// Registry keeps the owner, governors, emergency operators and the blacklist.
type Registry struct {
	owner     *solidity.Address
	governors *solidity.Mapping[rainbow.Address, bool]
	operators *solidity.Mapping[rainbow.Address, bool]
	blacklist *solidity.Mapping[rainbow.Address, bool]
}

func New(sctx *solidity.Context) *Registry {
	return &Registry{
		owner:     solidity.NewAddress(sctx, slotOwner),
		governors: solidity.NewMapping[rainbow.Address, bool](sctx, slotGovernors),
		operators: solidity.NewMapping[rainbow.Address, bool](sctx, slotOperators),
		blacklist: solidity.NewMapping[rainbow.Address, bool](sctx, slotBlacklist),
	}
}

// Initialize sets the owner, who also becomes the first governor and emergency operator.
func (r *Registry) Initialize(owner rainbow.Address) error {
	if owner.IsZero() {
		return errZeroAddress
	}
	current, err := r.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errors.New("access registry already initialized")
	}
	r.owner.Set(owner)
	if err := r.governors.Set(owner, true); err != nil {
		return err
	}
	return r.operators.Set(owner, true)
}

// Check evaluates capability c for the caller.
func (r *Registry) Check(c Capability, caller rainbow.Address) error {
	switch c {
	case CapAnyone:
		return nil
	case CapOwner:
		isOwner, err := r.IsOwner(caller)
		if err != nil {
			return err
		}
		if !isOwner {
			return errNotOwner
		}
		return nil
	case CapGovernance:
		isOwner, err := r.IsOwner(caller)
		if err != nil || isOwner {
			return err
		}
		isGovernor, err := r.IsGovernor(caller)
		if err != nil {
			return err
		}
		if !isGovernor {
			return errNotGovernor
		}
		return nil
	}
	return errors.Errorf("unknown capability %d", c)
}

func (r *Registry) Owner() (rainbow.Address, error) {
	return r.owner.Get()
}

func (r *Registry) IsOwner(addr rainbow.Address) (bool, error) {
	owner, err := r.owner.Get()
	if err != nil {
		return false, err
	}
	return !owner.IsZero() && owner == addr, nil
}

func (r *Registry) IsGovernor(addr rainbow.Address) (bool, error) {
	return r.governors.Get(addr)
}

func (r *Registry) IsEmergencyOperator(addr rainbow.Address) (bool, error) {
	return r.operators.Get(addr)
}

func (r *Registry) IsBlacklisted(addr rainbow.Address) (bool, error) {
	return r.blacklist.Get(addr)
}

// TransferOwnership hands the owner role to newOwner. Governor and operator
// memberships of the previous owner are left untouched.
func (r *Registry) TransferOwnership(newOwner rainbow.Address) error {
	if newOwner.IsZero() {
		return errZeroAddress
	}
	r.owner.Set(newOwner)
	return nil
}

// AddGovernor reports whether membership changed.
func (r *Registry) AddGovernor(addr rainbow.Address) (bool, error) {
	return setMember(r.governors, addr, true)
}

func (r *Registry) RemoveGovernor(addr rainbow.Address) (bool, error) {
	return setMember(r.governors, addr, false)
}

func (r *Registry) AddEmergencyOperator(addr rainbow.Address) (bool, error) {
	return setMember(r.operators, addr, true)
}

func (r *Registry) RemoveEmergencyOperator(addr rainbow.Address) (bool, error) {
	return setMember(r.operators, addr, false)
}

func (r *Registry) SetBlacklisted(addr rainbow.Address, blacklisted bool) (bool, error) {
	return setMember(r.blacklist, addr, blacklisted)
}

func setMember(set *solidity.Mapping[rainbow.Address, bool], addr rainbow.Address, member bool) (bool, error) {
	if addr.IsZero() {
		return false, errZeroAddress
	}
	current, err := set.Get(addr)
	if err != nil {
		return false, err
	}
	if current == member {
		return false, nil
	}
	if member {
		return true, set.Set(addr, true)
	}
	set.Delete(addr)
	return true, nil
}
