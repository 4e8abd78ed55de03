// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package loglevel

import (
	"log/slog"

	"github.com/rainbowlabs/rainbow/log"
)

type Request struct {
	Level string `json:"level"`
}

type Response struct {
	CurrentLevel string `json:"currentLevel"`
}

// levelName names the levels slog does not know.
func levelName(l slog.Level) string {
	switch l {
	case log.LevelTrace:
		return "TRACE"
	case log.LevelCrit:
		return "CRIT"
	}
	return l.String()
}
