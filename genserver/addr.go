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
	stderrors "errors"
	"fmt"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/deadletter"
	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/mailbox"
	"github.com/olympushealth/otp/message"
)

// Addr is the handle through which the outside world talks to an actor. It
// is cheap to copy around and remains valid after the actor stops; every
// operation on a stopped actor fails with ErrActorNotFound.
type Addr struct {
	core core
}

var _ Ref = (*Addr)(nil)

func newAddr(c core) *Addr {
	return &Addr{core: c}
}

// ID returns the identity of the actor behind the handle.
func (a *Addr) ID() address.ActorID {
	return a.core.actorID()
}

// IsRunning reports whether the actor is accepting messages.
func (a *Addr) IsRunning() bool {
	return a.core.isRunning()
}

// Send delivers a fire-and-forget message at Normal priority.
func (a *Addr) Send(ctx context.Context, msg any, from address.ActorID) error {
	return a.SendWithPriority(ctx, msg, from, message.Normal)
}

// SendWithPriority delivers a fire-and-forget message at the given priority.
// Admission failures are captured as dead letters when a processor is
// configured, and are still returned to the sender.
func (a *Addr) SendWithPriority(ctx context.Context, msg any, from address.ActorID, priority message.Priority) error {
	cast := &castMessage{msg: msg, from: from}
	return a.deliver(ctx, cast, from, priority)
}

// SendInfo delivers an out-of-band event to the HandleInfo callback.
func (a *Addr) SendInfo(ctx context.Context, event any) error {
	info := &infoMessage{event: event}
	return a.deliver(ctx, info, address.ActorID{}, message.High)
}

// Call sends a request and waits for the response. When the caller's context
// carries no deadline the actor's call timeout applies; expiry fails the
// call with ErrRequestTimeout.
func (a *Addr) Call(ctx context.Context, msg any, from address.ActorID) (any, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.core.callTimeout())
		defer cancel()
	}

	call := &callMessage{
		msg:   msg,
		from:  from,
		reply: make(chan callReply, 1),
	}
	if err := a.deliver(ctx, call, from, message.Normal); err != nil {
		return nil, err
	}

	select {
	case reply := <-call.reply:
		return reply.value, reply.err
	case <-a.core.doneChan():
		return nil, errors.ErrDead
	case <-ctx.Done():
		return nil, errors.ErrRequestTimeout
	}
}

// CodeChange asks the actor to migrate its state from an older behavior
// version. Behaviors without upgrade support accept the request as a no-op.
func (a *Addr) CodeChange(ctx context.Context, oldVersion, extra string) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.core.callTimeout())
		defer cancel()
	}

	change := &codeChangeMessage{
		oldVersion: oldVersion,
		extra:      extra,
		reply:      make(chan error, 1),
	}
	if err := a.deliver(ctx, change, address.ActorID{}, message.Critical); err != nil {
		return err
	}

	select {
	case err := <-change.reply:
		return err
	case <-a.core.doneChan():
		return errors.ErrDead
	case <-ctx.Done():
		return errors.ErrRequestTimeout
	}
}

// Stop terminates the actor with the given reason and waits for its
// Terminate callback to finish. Stopping an already stopped actor fails
// with ErrActorNotFound and never panics.
func (a *Addr) Stop(ctx context.Context, reason Reason) error {
	return a.core.stop(ctx, reason)
}

// Watch registers a callback fired exactly once with the termination reason.
// Watching an already stopped actor fires the callback immediately.
func (a *Addr) Watch(fn func(Reason)) {
	a.core.watch(fn)
}

// Metrics returns a snapshot of the actor's mailbox traffic.
func (a *Addr) Metrics() mailbox.Metrics {
	return a.core.mailboxMetrics()
}

// deliver wraps the payload in an envelope and admits it into the mailbox.
func (a *Addr) deliver(ctx context.Context, payload any, from address.ActorID, priority message.Priority) error {
	envelope := message.NewEnvelopeWithPriority(payload, from, a.ID(), priority)
	msg := message.NewPriorityMessage(envelope)

	err := a.core.enqueue(ctx, msg)
	if err == nil {
		return nil
	}

	if processor := a.core.deadLetters(); processor != nil {
		reason := deadletter.ActorNotFound
		if stderrors.Is(err, errors.ErrMailboxFull) {
			reason = deadletter.MailboxFull
		}
		processor.Offer(deadletter.New(msg, err, reason))
	}
	return err
}

// Call sends a typed request to the actor and returns the declared response
// type. A handler answering with any other type fails the call instead of
// panicking.
func Call[R any](ctx context.Context, addr *Addr, req message.Request[R], from address.ActorID) (R, error) {
	var zero R
	value, err := addr.Call(ctx, req, from)
	if err != nil {
		return zero, err
	}
	response, ok := value.(R)
	if !ok {
		return zero, fmt.Errorf("%w: expected %T, got %T", errors.ErrInvalidMessage, zero, value)
	}
	return response, nil
}
