// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
	"github.com/rainbowlabs/rainbow/builtin/staker/policy"
)

func TestCreateProposal(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.staker.Stake(ctx, user1, units("10000")))
	require.NoError(t, env.staker.Stake(ctx, user2, units("5000")))

	id, err := env.staker.CreateProposal(ctx, user1, "Test proposal")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	ev := env.events.Last()
	assert.Equal(t, EventGovernanceProposalCreated, ev.Name)
	assert.Equal(t, user1, ev.Actor)
	assert.Equal(t, "1", ev.Attrs["id"])
	assert.Equal(t, "Test proposal", ev.Attrs["description"])

	_, err = env.staker.CreateProposal(ctx, user2, "Test proposal")
	assert.True(t, reverts.Is(err, reverts.InsufficientStakeForProposal))
	assert.EqualError(t, err, "Insufficient tokens to create proposal")

	_, err = env.staker.CreateProposal(ctx, user1, "")
	assert.True(t, reverts.Is(err, reverts.InvalidDescription))

	n, err := env.staker.ProposalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	p, err := env.staker.GetProposal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, user1, p.Proposer)
	assert.Equal(t, genesisTime, p.CreatedAt)
}

func TestVote(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.staker.Stake(ctx, user1, units("10000")))
	require.NoError(t, env.staker.Stake(ctx, user2, units("5000")))
	_, err := env.staker.CreateProposal(ctx, user1, "Test proposal")
	require.NoError(t, err)

	weight, err := env.staker.Vote(ctx, user2, 1, true)
	require.NoError(t, err)
	assert.Equal(t, units("5000").String(), weight.String())

	ev := env.events.Last()
	assert.Equal(t, EventGovernanceVoteCast, ev.Name)
	assert.Equal(t, user2, ev.Actor)
	assert.Equal(t, "1", ev.Attrs["id"])
	assert.Equal(t, "true", ev.Attrs["support"])
	assert.Equal(t, units("5000").String(), ev.Amount.String())

	_, err = env.staker.Vote(ctx, user2, 1, false)
	assert.True(t, reverts.Is(err, reverts.AlreadyVoted))
	assert.EqualError(t, err, "Already voted")

	_, err = env.staker.Vote(ctx, owner, 1, true)
	assert.True(t, reverts.Is(err, reverts.NoVotingPower))

	_, err = env.staker.Vote(ctx, user1, 2, true)
	assert.True(t, reverts.Is(err, reverts.ProposalNotFound))

	_, err = env.staker.Vote(ctx, user1, 1, false)
	require.NoError(t, err)

	tally, err := env.staker.Tally(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, units("5000").String(), tally.For.String())
	assert.Equal(t, units("10000").String(), tally.Against.String())
	assert.False(t, tally.Passed)

	voted, err := env.staker.HasVoted(ctx, 1, user2)
	require.NoError(t, err)
	assert.True(t, voted)

	_, err = env.staker.HasVoted(ctx, 9, user2)
	assert.True(t, reverts.Is(err, reverts.ProposalNotFound))

	ballot, err := env.staker.GetBallot(ctx, 1, user1)
	require.NoError(t, err)
	assert.False(t, ballot.Support)
}

func TestVoteLiveWeight(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.staker.Stake(ctx, user1, units("10000")))
	_, err := env.staker.CreateProposal(ctx, user1, "live")
	require.NoError(t, err)

	// stake added after creation counts
	env.clock.Advance(1)
	require.NoError(t, env.staker.Stake(ctx, user2, units("700")))
	weight, err := env.staker.Vote(ctx, user2, 1, true)
	require.NoError(t, err)
	assert.Equal(t, units("700").String(), weight.String())
}

func TestVoteSnapshotWeight(t *testing.T) {
	params := policy.Defaults()
	params.VoteWeight = policy.WeightSnapshot
	env := newTestEnv(t, params)
	ctx := context.Background()

	require.NoError(t, env.staker.Stake(ctx, user1, units("10000")))
	require.NoError(t, env.staker.Stake(ctx, user2, units("300")))
	env.clock.Advance(10)
	_, err := env.staker.CreateProposal(ctx, user1, "snapshot")
	require.NoError(t, err)

	env.clock.Advance(10)
	require.NoError(t, env.staker.Stake(ctx, user2, units("700")))

	// the weight is the stake held at creation
	weight, err := env.staker.Vote(ctx, user2, 1, false)
	require.NoError(t, err)
	assert.Equal(t, units("300").String(), weight.String())

	weight, err = env.staker.Vote(ctx, user1, 1, true)
	require.NoError(t, err)
	assert.Equal(t, units("10000").String(), weight.String())

	tally, err := env.staker.Tally(ctx, 1)
	require.NoError(t, err)
	assert.True(t, tally.Passed)

	p, err := env.staker.GetProposal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, policy.WeightSnapshot, p.WeightMode)
}
