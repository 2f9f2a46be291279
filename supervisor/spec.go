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

package supervisor

import (
	"context"
	"time"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/genserver"
	"github.com/olympushealth/otp/internal/validation"
	"github.com/olympushealth/otp/supervision"
)

// StartFunc launches one incarnation of a child and returns its handle.
type StartFunc func(ctx context.Context) (genserver.Ref, error)

// ChildType distinguishes leaf workers from nested supervisors.
type ChildType int

const (
	// Worker is a leaf actor.
	Worker ChildType = iota
	// SupervisorChild is a nested supervisor.
	SupervisorChild
)

// String implements fmt.Stringer
func (t ChildType) String() string {
	if t == SupervisorChild {
		return "supervisor"
	}
	return "worker"
}

type shutdownKind int

const (
	shutdownImmediate shutdownKind = iota
	shutdownTimeout
	shutdownInfinity
)

// ShutdownPolicy governs how long a supervisor waits for a child's
// Terminate callback when stopping it.
type ShutdownPolicy struct {
	kind    shutdownKind
	timeout time.Duration
}

// Immediate stops the child without waiting for its Terminate callback.
func Immediate() ShutdownPolicy {
	return ShutdownPolicy{kind: shutdownImmediate}
}

// Timeout waits up to d for the child's Terminate callback.
func Timeout(d time.Duration) ShutdownPolicy {
	return ShutdownPolicy{kind: shutdownTimeout, timeout: d}
}

// Infinity waits for the child's Terminate callback without a deadline.
// Reserved for nested supervisors that must drain their own trees.
func Infinity() ShutdownPolicy {
	return ShutdownPolicy{kind: shutdownInfinity}
}

// context derives the stop context implementing the policy.
func (p ShutdownPolicy) context(ctx context.Context) (context.Context, context.CancelFunc) {
	switch p.kind {
	case shutdownTimeout:
		return context.WithTimeout(ctx, p.timeout)
	case shutdownInfinity:
		return context.WithCancel(ctx)
	default:
		// immediate: the stop is triggered and not awaited
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		return ctx, cancel
	}
}

// ChildSpec declares one child of a supervisor.
type ChildSpec struct {
	// ID is the child identity; its key must be unique within the tree.
	ID address.ActorID
	// Start launches one incarnation of the child.
	Start StartFunc
	// Restart governs automatic restart eligibility.
	Restart supervision.RestartPolicy
	// Shutdown governs how the child is stopped.
	Shutdown ShutdownPolicy
	// Type distinguishes workers from nested supervisors.
	Type ChildType
}

var _ validation.Validator = ChildSpec{}

// Validate implements validation.Validator
func (s ChildSpec) Validate() error {
	return validation.
		New(validation.FailFast()).
		AddValidator(s.ID).
		AddAssertion(s.Start != nil, "child spec requires a start function").
		Validate()
}

// ChildInfo is a point-in-time view of one child.
type ChildInfo struct {
	// ID is the child identity.
	ID address.ActorID
	// Type distinguishes workers from nested supervisors.
	Type ChildType
	// Restarts is the lifetime restart count.
	Restarts uint32
	// Running reports whether the child is currently alive.
	Running bool
}
