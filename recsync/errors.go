// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package recsync

import (
	"errors"
	"fmt"
)

// ErrStaleLoad is returned by Load when a newer load superseded this one
// before its result arrived. The late result has been discarded and the
// cache still holds the newer window.
var ErrStaleLoad = errors.New("load superseded by a newer filter window")

// FetchError reports a failed window load. The previous snapshot is always
// preserved when this is returned.
type FetchError struct {
	Filter Filter
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for window %q: %v", e.Filter.Key(), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationFailed reports a remote write that failed after its optimistic
// patch was applied. By the time the caller sees this error the patch has
// already been rolled back. Message carries the backend's human-readable
// error text verbatim so it can be surfaced to the user unchanged.
type MutationFailed struct {
	Op      string // "create", "update", "delete", "toggle", "toggle-column"
	Message string
	Err     error
}

func (e *MutationFailed) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

func (e *MutationFailed) Unwrap() error { return e.Err }

// NotifyKind classifies a user-facing notification.
type NotifyKind int

const (
	NotifyInfo NotifyKind = iota
	NotifyError
)

func (k NotifyKind) String() string {
	if k == NotifyError {
		return "error"
	}
	return "info"
}

// Notification is a non-blocking user-facing message. Errors crossing the
// fetch/mutation boundary are converted into these; nothing in this layer
// panics or retries.
type Notification struct {
	Kind    NotifyKind
	Title   string
	Message string
}

// Notifier receives notifications. A nil Notifier is valid and drops them.
type Notifier func(Notification)

func (n Notifier) post(kind NotifyKind, title, message string) {
	if n != nil {
		n(Notification{Kind: kind, Title: title, Message: message})
	}
}
