// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines business rule violations. A revert aborts the
// transaction it happens in, and carries a stable code next to its reason.
package reverts

import (
	"errors"
)

// Code identifies the kind of a revert.
type Code string

const (
	Unauthorized                 Code = "Unauthorized"
	Blacklisted                  Code = "Blacklisted"
	Paused                       Code = "Paused"
	NotPaused                    Code = "NotPaused"
	EmergencyActive              Code = "EmergencyActive"
	EmergencyInactive            Code = "EmergencyInactive"
	BelowMinimum                 Code = "BelowMinimum"
	InvalidAmount                Code = "InvalidAmount"
	InsufficientStake            Code = "InsufficientStake"
	StillLocked                  Code = "StillLocked"
	InsufficientStakeForProposal Code = "InsufficientStakeForProposal"
	InvalidDescription           Code = "InvalidDescription"
	ProposalNotFound             Code = "ProposalNotFound"
	AlreadyVoted                 Code = "AlreadyVoted"
	NoVotingPower                Code = "NoVotingPower"
	InvalidAddress               Code = "InvalidAddress"
	InvalidParameter             Code = "InvalidParameter"
	InsufficientBalance          Code = "InsufficientBalance"
	InsufficientAllowance        Code = "InsufficientAllowance"
	Reentrant                    Code = "Reentrant"
)

type ErrRevert struct {
	code    Code
	message string
}

func New(code Code, message string) *ErrRevert {
	return &ErrRevert{
		code:    code,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Code() Code {
	return e.code
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// CodeOf returns the code of the revert wrapped in err, or "" if err is not a revert.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.code
	}
	return ""
}

// Is reports whether err is a revert with the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
