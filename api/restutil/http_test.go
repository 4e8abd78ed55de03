// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowlabs/rainbow/builtin/reverts"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"bad request", BadRequest(errors.New("bad body")), http.StatusBadRequest, "bad body\n"},
		{"forbidden", Forbidden(errors.New("nope")), http.StatusForbidden, "nope\n"},
		{"not found", NotFound(errors.New("gone")), http.StatusNotFound, "gone\n"},
		{"bare status", HTTPError(nil, http.StatusTeapot), http.StatusTeapot, ""},
		{"infra", errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return tt.err })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestWrapHandlerFuncRevert(t *testing.T) {
	tests := []struct {
		code   reverts.Code
		status int
	}{
		{reverts.Unauthorized, http.StatusForbidden},
		{reverts.Blacklisted, http.StatusForbidden},
		{reverts.ProposalNotFound, http.StatusNotFound},
		{reverts.Reentrant, http.StatusConflict},
		{reverts.Paused, http.StatusBadRequest},
		{reverts.StillLocked, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			cause := errors.WithMessage(reverts.New(tt.code, "reason"), "op")
			h := WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return cause })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))

			var res ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, string(tt.code), res.Code)
			assert.Equal(t, "op: reason", res.Reason)
		})
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"a":1}`), &v))
	assert.Equal(t, 1, v.A)

	assert.Error(t, ParseJSON(strings.NewReader(`{"a":1,"b":2}`), &v), "unknown fields are rejected")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, M{"k": "v"}))
	assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"k":"v"}`, rec.Body.String())
}
