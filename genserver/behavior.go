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

// Package genserver implements the actor runtime: a behavior drives a piece
// of state that only the actor's own goroutine ever touches, and the outside
// world talks to it through an Addr.
package genserver

import (
	"context"

	"github.com/olympushealth/otp/address"
)

// Behavior defines the callbacks of an actor owning state of type S.
// Handlers receive a pointer to the state and are the only code that may
// mutate it; the runtime guarantees one handler runs at a time.
type Behavior[S any] interface {
	// Init builds the initial state. It runs synchronously during spawn;
	// returning an error aborts the spawn.
	Init(ctx context.Context) (S, error)

	// HandleCall processes a synchronous request and returns the response
	// delivered to the caller. Returning an error fails the call without
	// stopping the actor.
	HandleCall(ctx context.Context, msg any, from address.ActorID, state *S) (any, error)

	// HandleCast processes a fire-and-forget message. Errors are logged and
	// do not stop the actor.
	HandleCast(ctx context.Context, msg any, from address.ActorID, state *S) error

	// HandleInfo processes an out-of-band event such as a timer tick or a
	// system notification. Errors are logged and do not stop the actor.
	HandleInfo(ctx context.Context, event any, state *S) error

	// Terminate runs exactly once when the actor stops, whatever the reason.
	Terminate(reason Reason, state *S)
}

// CodeChanger is implemented by behaviors that support hot state upgrades.
// Behaviors that do not implement it accept code change requests as no-ops.
type CodeChanger[S any] interface {
	// CodeChange migrates the state from an older behavior version. extra
	// carries opaque upgrade instructions.
	CodeChange(oldVersion string, state *S, extra string) error
}
