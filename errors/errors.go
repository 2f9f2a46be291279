/*
 * MIT License
 *
 * Copyright (c) 2023-2026 Olympus Health Team
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package errors defines the sentinel errors shared across the runtime.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrActorNotFound is returned when a lookup or send targets a name that
	// is not registered.
	ErrActorNotFound = errors.New("actor not found")

	// ErrDead indicates that the actor is no longer alive or has been terminated.
	ErrDead = errors.New("actor is not alive")

	// ErrMailboxFull is returned when a send is rejected because the target
	// mailbox has reached capacity.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrMailboxDisposed is returned when a message is offered to a mailbox
	// that has been disposed.
	ErrMailboxDisposed = errors.New("mailbox is disposed")

	// ErrRequestTimeout indicates that a call timed out while waiting for a response.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrUnhandled is returned when an actor receives a message it cannot handle.
	ErrUnhandled = errors.New("unhandled message")

	// ErrRestartLimitExceeded is returned by the supervision engine when a
	// child breached its restart intensity within the configured window.
	ErrRestartLimitExceeded = errors.New("restart limit exceeded")

	// ErrNameAlreadyRegistered is returned when registering a name that is
	// already bound to a live actor.
	ErrNameAlreadyRegistered = errors.New("name already registered")

	// ErrChildNotFound is returned when a supervisor operation targets a
	// child id that is not part of the supervision tree.
	ErrChildNotFound = errors.New("child not found")

	// ErrChildAlreadyStarted is returned when starting a child whose id is
	// already running under the supervisor.
	ErrChildAlreadyStarted = errors.New("child already started")

	// ErrSupervisorStopped indicates an operation on a supervisor that has
	// been shut down.
	ErrSupervisorStopped = errors.New("supervisor is stopped")

	// ErrInitFailure wraps a child init callback failure.
	ErrInitFailure = errors.New("initialization failed")

	// ErrRemotingNotSupported is returned by distribution stubs when a remote
	// operation is attempted without a transport configured.
	ErrRemotingNotSupported = errors.New("remoting is not supported")

	// ErrInvalidMessage is returned when a message cannot be handled because
	// it does not satisfy the expected contract.
	ErrInvalidMessage = errors.New("invalid message")
)

// NewErrActorNotFound wraps ErrActorNotFound with the missing name.
func NewErrActorNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrActorNotFound, name)
}

// NewErrNameAlreadyRegistered wraps ErrNameAlreadyRegistered with the
// conflicting name.
func NewErrNameAlreadyRegistered(name string) error {
	return fmt.Errorf("%w: %s", ErrNameAlreadyRegistered, name)
}

// NewErrChildNotFound wraps ErrChildNotFound with the missing child id.
func NewErrChildNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrChildNotFound, id)
}

// NewErrInitFailure wraps the cause of a failed init callback.
func NewErrInitFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrInitFailure, err)
}

// PanicError wraps a recovered panic so callers can treat handler panics as
// regular errors.
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}
