// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"

	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/rainbow"
)

// DevAccounts returns the well-known accounts of a dev genesis.
func DevAccounts() []rainbow.Address {
	accs := make([]rainbow.Address, 0, 10)
	for i := range 10 {
		seed := rainbow.Blake2b([]byte(fmt.Sprintf("dev-%d", i)))
		accs = append(accs, rainbow.BytesToAddress(seed.Bytes()))
	}
	return accs
}

// NewDevnet creates a genesis for local development. The first dev account owns
// the engine, and every dev account holds one million staking tokens.
func NewDevnet() *Genesis {
	accs := DevAccounts()
	gen := &Genesis{
		Owner: accs[0],
		Tokens: Tokens{
			Staking: token.Metadata{Name: "Staking Token", Symbol: "STK", Decimals: rainbow.Decimals},
			Reward:  token.Metadata{Name: "Reward Token", Symbol: "RWD", Decimals: rainbow.Decimals},
		},
		RewardPool: NewUnits("1000000"),
	}
	for _, addr := range accs {
		gen.Accounts = append(gen.Accounts, Account{Address: addr, Balance: NewUnits("1000000")})
	}
	return gen
}
