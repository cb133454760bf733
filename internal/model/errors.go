// Copyright (C) 2024 The LCD Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "fmt"

// DiscoveryErrorCode enumerates the outcomes the Global Capabilities
// Directory can report back for add/remove/lookup calls.
type DiscoveryErrorCode int

const (
	NoDiscoveryError DiscoveryErrorCode = iota
	InvalidGbid
	UnknownGbid
	InternalError
	NoEntryForParticipant
	NoEntryForSelectedBackends
)

func (c DiscoveryErrorCode) String() string {
	switch c {
	case InvalidGbid:
		return "INVALID_GBID"
	case UnknownGbid:
		return "UNKNOWN_GBID"
	case InternalError:
		return "INTERNAL_ERROR"
	case NoEntryForParticipant:
		return "NO_ENTRY_FOR_PARTICIPANT"
	case NoEntryForSelectedBackends:
		return "NO_ENTRY_FOR_SELECTED_BACKENDS"
	default:
		return "NONE"
	}
}

// DiscoveryError is the remote-directory outcome surfaced to a caller.
type DiscoveryError struct {
	Code DiscoveryErrorCode
}

func NewDiscoveryError(code DiscoveryErrorCode) *DiscoveryError {
	return &DiscoveryError{Code: code}
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery error: %s", e.Code)
}

// ProviderRuntimeException signals a local precondition failure: a
// permissions denial, a malformed request, or any other failure that never
// reached the Global Capabilities Directory.
type ProviderRuntimeException struct {
	Message string
}

func NewProviderRuntimeException(format string, args ...any) *ProviderRuntimeException {
	return &ProviderRuntimeException{Message: fmt.Sprintf(format, args...)}
}

func (e *ProviderRuntimeException) Error() string {
	return e.Message
}

// JoynrRuntimeException signals a transport-level failure upstream of the
// LCD (timeouts, connection loss). The LCD surfaces transport failures to its
// own callers as an INTERNAL_ERROR DiscoveryError, except on the add path,
// where they become a ProviderRuntimeException.
type JoynrRuntimeException struct {
	Message string
}

func NewJoynrRuntimeException(format string, args ...any) *JoynrRuntimeException {
	return &JoynrRuntimeException{Message: fmt.Sprintf(format, args...)}
}

func (e *JoynrRuntimeException) Error() string {
	return e.Message
}
