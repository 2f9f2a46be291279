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

// Package deadletter captures undeliverable messages and drives their retry
// lifecycle. Messages that exhaust their retries are published on the sink
// topic for subscribers to audit.
package deadletter

import (
	"time"

	"github.com/olympushealth/otp/message"
)

// Topic is the eventstream topic on which exhausted dead letters are
// published.
const Topic = "deadletters"

// Reason classifies why a message became a dead letter.
type Reason int

const (
	// MailboxFull means the target mailbox rejected the message at admission.
	MailboxFull Reason = iota
	// Timeout means the send or call timed out.
	Timeout
	// MaxRetriesExceeded means the processor exhausted its retries.
	MaxRetriesExceeded
	// ActorNotFound means the target name resolved to no live actor.
	ActorNotFound
	// SerializationError means the payload could not be encoded for transport.
	SerializationError
)

var reasonNames = map[Reason]string{
	MailboxFull:        "mailbox_full",
	Timeout:            "timeout",
	MaxRetriesExceeded: "max_retries_exceeded",
	ActorNotFound:      "actor_not_found",
	SerializationError: "serialization_error",
}

// String implements fmt.Stringer
func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// DeadLetter records a single undeliverable message.
type DeadLetter struct {
	// Message is the undelivered message.
	Message *message.PriorityMessage
	// Err is the delivery failure, when one was observed.
	Err error
	// FailedAt records when the delivery failed.
	FailedAt time.Time
	// Reason classifies the failure.
	Reason Reason
}

// New creates a dead letter stamped with the current time.
func New(msg *message.PriorityMessage, err error, reason Reason) *DeadLetter {
	return &DeadLetter{
		Message:  msg,
		Err:      err,
		FailedAt: time.Now(),
		Reason:   reason,
	}
}
