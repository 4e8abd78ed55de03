// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/rainbow"
)

type Token struct {
	token.Metadata
	Address     rainbow.Address       `json:"address"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

type Balance struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type Allowance struct {
	Owner     rainbow.Address       `json:"owner"`
	Spender   rainbow.Address       `json:"spender"`
	Allowance *math.HexOrDecimal256 `json:"allowance"`
}

// Approval lets spender, the engine if omitted, spend amount of owner's tokens.
type Approval struct {
	Owner   *rainbow.Address      `json:"owner"`
	Spender *rainbow.Address      `json:"spender,omitempty"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

type Transfer struct {
	From   *rainbow.Address      `json:"from"`
	To     *rainbow.Address      `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}
