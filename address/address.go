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

// Package address defines actor identity. An ActorID names an actor within a
// node, and optionally carries the node identifier when the actor is part of
// a distributed deployment.
package address

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/olympushealth/otp/internal/validation"
)

// protocol is the scheme used when rendering an ActorID as a string.
const protocol = "otp"

// processCounter hands out incarnation numbers for locally spawned actors.
var processCounter = atomic.NewUint64(0)

// ActorID uniquely identifies an actor. Two ActorIDs are the same identity
// when their name and node match. The process id distinguishes successive
// incarnations of the same identity across restarts and never takes part in
// equality.
type ActorID struct {
	name      string
	node      string
	processID uint64
}

var _ validation.Validator = (*ActorID)(nil)

// Local creates an ActorID for an actor that lives on the local node.
func Local(name string) ActorID {
	return ActorID{
		name:      name,
		processID: processCounter.Inc(),
	}
}

// Distributed creates an ActorID for an actor hosted on a named node.
func Distributed(name, node string) ActorID {
	return ActorID{
		name:      name,
		node:      node,
		processID: processCounter.Inc(),
	}
}

// WithProcessID returns a copy of the ActorID carrying the given incarnation
// number.
func (id ActorID) WithProcessID(processID uint64) ActorID {
	id.processID = processID
	return id
}

// Name returns the actor name
func (id ActorID) Name() string {
	return id.name
}

// Node returns the node identifier hosting the actor. It is empty for local
// actors.
func (id ActorID) Node() string {
	return id.node
}

// ProcessID returns the incarnation number of the actor
func (id ActorID) ProcessID() uint64 {
	return id.processID
}

// IsLocal reports whether the actor lives on the local node.
func (id ActorID) IsLocal() bool {
	return id.node == ""
}

// Key returns the registry key of the actor. The key identifies the actor
// across incarnations so it excludes the process id.
func (id ActorID) Key() string {
	if id.node == "" {
		return id.name
	}
	return fmt.Sprintf("%s@%s", id.name, id.node)
}

// Equals reports whether the two ActorIDs name the same identity.
func (id ActorID) Equals(other ActorID) bool {
	return id.name == other.name && id.node == other.node
}

// String implements fmt.Stringer
func (id ActorID) String() string {
	return fmt.Sprintf("%s://%s", protocol, id.Key())
}

// Validate implements validation.Validator
func (id ActorID) Validate() error {
	return validation.
		New(validation.FailFast()).
		AddValidator(validation.NewNameValidator(id.name)).
		Validate()
}
