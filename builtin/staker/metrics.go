// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/metrics"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var (
	metricOperations  = metrics.LazyLoadCounterVec("staker_operations_count", []string{"op", "result"})
	metricTotalStaked = metrics.LazyLoadGauge("staker_total_staked_tokens")
	metricProposals   = metrics.LazyLoadCounter("staker_proposals_count")
	metricVotes       = metrics.LazyLoadCounterVec("staker_votes_count", []string{"support"})
)

func countOperation(op string, err error) {
	result := "ok"
	if err != nil {
		if code := reverts.CodeOf(err); code != "" {
			result = string(code)
		} else {
			result = "error"
		}
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
}

// wholeTokens truncates an amount to whole tokens.
func wholeTokens(amount *big.Int) int64 {
	return new(big.Int).Quo(amount, rainbow.One).Int64()
}

func (t *tx) trackTotalStaked() error {
	total, err := t.ledger.TotalStaked()
	if err != nil {
		return err
	}
	t.st.OnCommit(func() { metricTotalStaked().Set(wholeTokens(total)) })
	return nil
}
