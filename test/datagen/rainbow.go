// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/rainbowlabs/rainbow/rainbow"
)

func RandAddress() (addr rainbow.Address) {
	rand.Read(addr[:])
	return
}

func RandBytes32() (b rainbow.Bytes32) {
	rand.Read(b[:])
	return
}
