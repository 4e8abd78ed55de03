// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solidity provides typed storage primitives for built-in contracts,
// laid out the way a solidity contract lays out its storage.
package solidity

import (
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

// Context binds storage primitives to a contract address and the transaction state.
type Context struct {
	address rainbow.Address
	state   *state.State
}

func NewContext(address rainbow.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() rainbow.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}
