// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"context"
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/rainbow"
)

func init() {
	spew.Config.Indent = "    "
	spew.Config.DisableMethods = false
}

type randomOp struct {
	Kind    uint8
	User    bool
	Amount  uint16
	Advance uint32
}

// TestRandomOperations runs random operation sequences and checks that the
// engine stays solvent and that earned rewards never shrink except by claims.
func TestRandomOperations(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(100, 100)
	ctx := context.Background()

	for round := 0; round < 5; round++ {
		var ops []randomOp
		f.Fuzz(&ops)

		env := newTestEnv(t, nil)
		earned := map[rainbow.Address]*big.Int{user1: new(big.Int), user2: new(big.Int)}

		for i, op := range ops {
			user := user1
			if op.User {
				user = user2
			}
			amount := new(big.Int).Mul(big.NewInt(int64(op.Amount)), rainbow.One)

			var err error
			switch op.Kind % 6 {
			case 0, 1:
				err = env.staker.Stake(ctx, user, amount)
			case 2:
				err = env.staker.Unstake(ctx, user, amount)
			case 3:
				_, err = env.staker.ClaimRewards(ctx, user)
				earned[user] = new(big.Int)
			case 4:
				env.clock.Advance(uint64(op.Advance % (2 * uint32(rainbow.DefaultLockPeriod))))
			case 5:
				if op.Amount%10 == 0 {
					err = env.staker.SetEmergencyMode(ctx, owner, op.Amount%20 == 0)
				}
			}
			if err != nil && !reverts.IsRevertErr(err) {
				t.Fatalf("round %d op %d failed with infra error %v: %s", round, i, err, spew.Sdump(ops[:i+1]))
			}

			for addr, last := range earned {
				now, err := env.staker.Earned(ctx, addr)
				require.NoError(t, err)
				if now.Cmp(last) < 0 {
					t.Fatalf("round %d op %d: earned of %s decreased from %s to %s: %s", round, i, addr, last, now, spew.Sdump(ops[:i+1]))
				}
				earned[addr] = now
			}
			env.assertSolvent(t)
		}
	}
}
