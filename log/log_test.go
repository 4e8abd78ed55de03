// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextFollowsDefault(t *testing.T) {
	logger := WithContext("pkg", "test")

	var lvl slog.LevelVar
	lvl.Set(LevelDebug)
	buf := &bytes.Buffer{}
	SetDefault(NewJSONHandler(buf, &lvl))
	t.Cleanup(func() { SetDefault(DiscardHandler()) })

	logger.Debug("staked", "amount", 100)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "staked", rec["msg"])
	assert.Equal(t, "test", rec["pkg"])
	assert.Equal(t, float64(100), rec["amount"])

	buf.Reset()
	lvl.Set(LevelInfo)
	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(0))
	assert.Equal(t, LevelInfo, FromLegacyLevel(3))
	assert.Equal(t, LevelTrace, FromLegacyLevel(5))
}

func TestTerminalHandlerLevelChange(t *testing.T) {
	var lvl slog.LevelVar
	lvl.Set(LevelInfo)
	buf := &bytes.Buffer{}
	logger := Root()
	SetDefault(NewTerminalHandler(buf, &lvl, false))
	t.Cleanup(func() { SetDefault(DiscardHandler()) })

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	lvl.Set(LevelDebug)
	logger.Debug("shown", "pkg", "test")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "pkg=test")
}

func TestDerivedHandlerFollowsSwap(t *testing.T) {
	var lvl slog.LevelVar
	first := &bytes.Buffer{}
	SetDefault(NewJSONHandler(first, &lvl))
	t.Cleanup(func() { SetDefault(DiscardHandler()) })

	h := root.WithAttrs([]slog.Attr{slog.String("pkg", "test")}).(*swapHandler)
	resolved := h.resolve()
	assert.Same(t, resolved, h.resolve())

	second := &bytes.Buffer{}
	SetDefault(NewJSONHandler(second, &lvl))
	assert.NotSame(t, resolved, h.resolve())

	WithContext("pkg", "test").Info("after swap")
	assert.Zero(t, first.Len())
	assert.Contains(t, second.String(), "after swap")
}
