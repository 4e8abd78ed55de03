// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/rainbowlabs/rainbow/rainbow"
)

// Address is a wrapper for storage and retrieval of an address, similar to storing an address in a smart contract.
type Address struct {
	context *Context
	pos     rainbow.Bytes32
}

func NewAddress(context *Context, pos rainbow.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (rainbow.Address, error) {
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return rainbow.Address{}, err
	}
	return rainbow.BytesToAddress(storage.Bytes()), nil
}

func (a *Address) Set(addr rainbow.Address) {
	a.context.state.SetStorage(a.context.address, a.pos, rainbow.BytesToBytes32(addr.Bytes()))
}
