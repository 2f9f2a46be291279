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

package genserver

import (
	"context"

	"github.com/olympushealth/otp/address"
)

// Ref is the capability a supervisor holds over a child. It erases the
// child's state type, exposing only identity, lifecycle control and death
// notification. Both Addr and Supervisor satisfy it, which is what lets
// supervisors supervise other supervisors.
type Ref interface {
	// ID returns the identity of the underlying actor.
	ID() address.ActorID
	// Stop terminates the actor with the given reason.
	Stop(ctx context.Context, reason Reason) error
	// IsRunning reports whether the actor is accepting messages.
	IsRunning() bool
	// Watch registers a callback fired exactly once with the termination
	// reason.
	Watch(fn func(Reason))
}
