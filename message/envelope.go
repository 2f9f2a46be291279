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

// Package message defines the envelope, priority and typed request contracts
// exchanged between actors.
package message

import (
	"time"

	"github.com/google/uuid"

	"github.com/olympushealth/otp/address"
)

// Envelope wraps a user message with its routing metadata. Envelopes are
// built once at send time and never mutated afterwards.
type Envelope struct {
	// ID uniquely identifies the envelope.
	ID uuid.UUID
	// Message is the user payload.
	Message any
	// From identifies the sender. The zero value means anonymous.
	From address.ActorID
	// To identifies the target actor.
	To address.ActorID
	// Timestamp records when the envelope was created.
	Timestamp time.Time
	// Priority drives mailbox scheduling.
	Priority Priority
}

// NewEnvelope creates an envelope at Normal priority.
func NewEnvelope(msg any, from, to address.ActorID) *Envelope {
	return NewEnvelopeWithPriority(msg, from, to, Normal)
}

// NewEnvelopeWithPriority creates an envelope at the given priority.
func NewEnvelopeWithPriority(msg any, from, to address.ActorID, priority Priority) *Envelope {
	return &Envelope{
		ID:        uuid.New(),
		Message:   msg,
		From:      from,
		To:        to,
		Timestamp: time.Now(),
		Priority:  priority,
	}
}

// PriorityMessage is the mailbox's unit of buffering. DeliveryAttempts is
// owned by the dead letter processor and counts resubmissions.
type PriorityMessage struct {
	// Envelope is the buffered envelope.
	Envelope *Envelope
	// CreatedAt records when the message entered a mailbox for the first time.
	CreatedAt time.Time
	// DeliveryAttempts counts dead letter resubmissions.
	DeliveryAttempts uint32
}

// NewPriorityMessage wraps an envelope for buffering.
func NewPriorityMessage(envelope *Envelope) *PriorityMessage {
	return &PriorityMessage{
		Envelope:  envelope,
		CreatedAt: time.Now(),
	}
}

// Priority returns the priority of the wrapped envelope.
func (m *PriorityMessage) Priority() Priority {
	if m.Envelope == nil {
		return Normal
	}
	return m.Envelope.Priority
}
