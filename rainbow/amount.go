// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rainbow

import (
	"errors"
	"math/big"
	"strings"
)

// ParseUnits converts a decimal token amount like "0.1" or "15000" into base units.
func ParseUnits(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, errors.New("negative amount")
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > Decimals {
		return nil, errors.New("too many decimal places")
	}
	frac += strings.Repeat("0", Decimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, errors.New("invalid amount")
	}
	return v, nil
}

// MustParseUnits is like ParseUnits but panics on error.
func MustParseUnits(s string) *big.Int {
	v, err := ParseUnits(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatUnits converts base units into a decimal token amount, trimming trailing zeros.
func FormatUnits(v *big.Int) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	q, r := new(big.Int).QuoRem(new(big.Int).Abs(v), One, new(big.Int))

	s := q.String()
	if r.Sign() != 0 {
		frac := r.String()
		frac = strings.Repeat("0", Decimals-len(frac)) + frac
		s += "." + strings.TrimRight(frac, "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}
