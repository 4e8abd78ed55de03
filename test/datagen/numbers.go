// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"math/big"
	mathrand "math/rand/v2"

	"github.com/rainbowlabs/rainbow/rainbow"
)

func RandInt() int {
	return mathrand.Int() //#nosec G404
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

// RandUnits returns between 1 and n whole tokens, in base units.
func RandUnits(n int) *big.Int {
	return new(big.Int).Mul(big.NewInt(int64(RandIntN(n)+1)), rainbow.One)
}
