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

package registry

import "time"

// Topic is the eventstream topic carrying registry events.
const Topic = "registry.events"

// EventType classifies a registry event.
type EventType int

const (
	// ActorRegistered fires when a name is bound.
	ActorRegistered EventType = iota
	// ActorUnregistered fires when a name is explicitly released.
	ActorUnregistered
	// ActorDied fires when a registered actor terminates and its name is
	// auto-released.
	ActorDied
	// NodeJoinedEvent fires when a node enters the membership view.
	NodeJoinedEvent
	// NodeLeftEvent fires when a node deliberately departs.
	NodeLeftEvent
	// NodeFailedEvent fires when the heartbeat sweep writes a node off.
	NodeFailedEvent
)

var eventNames = map[EventType]string{
	ActorRegistered:   "actor_registered",
	ActorUnregistered: "actor_unregistered",
	ActorDied:         "actor_died",
	NodeJoinedEvent:   "node_joined",
	NodeLeftEvent:     "node_left",
	NodeFailedEvent:   "node_failed",
}

// String implements fmt.Stringer
func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is published on the registry topic for every membership or naming
// change.
type Event struct {
	// Type classifies the event.
	Type EventType
	// Name is the actor name involved, empty for node events.
	Name string
	// Node is the node involved, empty for purely local events.
	Node string
	// At records when the event occurred.
	At time.Time
}
