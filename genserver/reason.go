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

import "fmt"

type reasonKind int

const (
	reasonNormal reasonKind = iota
	reasonShutdown
	reasonSupervisorShutdown
	reasonMaxRestartsExceeded
	reasonCritical
)

// Reason describes why an actor terminated. Supervisors use it to decide
// whether a child is eligible for restart.
type Reason struct {
	kind reasonKind
	err  error
}

// Normal means the actor finished its work and stopped on its own.
func Normal() Reason {
	return Reason{kind: reasonNormal}
}

// Shutdown means the actor was asked to stop gracefully.
func Shutdown() Reason {
	return Reason{kind: reasonShutdown}
}

// SupervisorShutdown means the actor was stopped as part of its supervisor
// shutting down or applying a blast radius.
func SupervisorShutdown() Reason {
	return Reason{kind: reasonSupervisorShutdown}
}

// MaxRestartsExceeded means the supervision engine refused to restart the
// actor again.
func MaxRestartsExceeded() Reason {
	return Reason{kind: reasonMaxRestartsExceeded}
}

// Critical means the actor failed with the given error, typically a
// recovered panic or an init failure.
func Critical(err error) Reason {
	return Reason{kind: reasonCritical, err: err}
}

// IsAbnormal reports whether the reason makes a Transient child eligible for
// restart.
func (r Reason) IsAbnormal() bool {
	return r.kind == reasonCritical || r.kind == reasonMaxRestartsExceeded
}

// Err returns the underlying error for Critical reasons, nil otherwise.
func (r Reason) Err() error {
	return r.err
}

// String implements fmt.Stringer
func (r Reason) String() string {
	switch r.kind {
	case reasonNormal:
		return "normal"
	case reasonShutdown:
		return "shutdown"
	case reasonSupervisorShutdown:
		return "supervisor_shutdown"
	case reasonMaxRestartsExceeded:
		return "max_restarts_exceeded"
	case reasonCritical:
		return fmt.Sprintf("critical: %v", r.err)
	default:
		return "unknown"
	}
}
