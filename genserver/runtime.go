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
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/deadletter"
	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/mailbox"
	"github.com/olympushealth/otp/message"
)

// actor lifecycle states
const (
	statusInitializing int32 = iota
	statusRunning
	statusTerminating
	statusStopped
)

// internal wire types carried inside envelopes

type callMessage struct {
	msg   any
	from  address.ActorID
	reply chan callReply
}

type callReply struct {
	value any
	err   error
}

type castMessage struct {
	msg  any
	from address.ActorID
}

type infoMessage struct {
	event any
}

type codeChangeMessage struct {
	oldVersion string
	extra      string
	reply      chan error
}

// core is the non-generic surface of a Runtime; Addr talks to the runtime
// through it so generic state never leaks into the handle.
type core interface {
	actorID() address.ActorID
	enqueue(ctx context.Context, msg *message.PriorityMessage) error
	isRunning() bool
	stop(ctx context.Context, reason Reason) error
	watch(fn func(Reason))
	doneChan() <-chan struct{}
	callTimeout() time.Duration
	deadLetters() *deadletter.Processor
	mailboxMetrics() mailbox.Metrics
}

// Runtime drives one behavior on its own goroutine. All state access happens
// on that goroutine; the lifecycle is Initializing, Running, Terminating,
// Stopped, and Stopped is absorbing.
type Runtime[S any] struct {
	id       address.ActorID
	behavior Behavior[S]
	state    S
	mailbox  *mailbox.Mailbox
	config   Config

	status      *atomic.Int32
	stopOnce    sync.Once
	stopCh      chan struct{}
	stopReason  Reason
	finalReason Reason
	finished    chan struct{}

	watchersMu sync.Mutex
	watchers   []func(Reason)

	terminateOnce sync.Once
}

var _ core = (*Runtime[any])(nil)

// Spawn starts an actor with the default configuration and the given mailbox
// capacity. Init runs synchronously; an Init failure aborts the spawn.
func Spawn[S any](ctx context.Context, name string, behavior Behavior[S], mailboxSize int) (*Addr, error) {
	config := DefaultConfig()
	config.MailboxSize = mailboxSize
	return SpawnWithConfig(ctx, address.Local(name), behavior, config)
}

// SpawnWithConfig starts an actor with the given identity and configuration.
func SpawnWithConfig[S any](ctx context.Context, id address.ActorID, behavior Behavior[S], config Config) (*Addr, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	config = config.sanitize()

	runtime := &Runtime[S]{
		id:       id,
		behavior: behavior,
		config:   config,
		status:   atomic.NewInt32(statusInitializing),
		stopCh:   make(chan struct{}),
		finished: make(chan struct{}),
	}

	opts := append([]mailbox.Option{
		mailbox.WithSize(config.MailboxSize),
		mailbox.WithLogger(config.Logger),
	}, config.MailboxOptions...)
	runtime.mailbox = mailbox.New(opts...)

	if err := runtime.init(ctx); err != nil {
		runtime.mailbox.Dispose()
		runtime.status.Store(statusStopped)
		close(runtime.finished)
		return nil, errors.NewErrInitFailure(err)
	}

	runtime.status.Store(statusRunning)
	go runtime.receiveLoop()

	config.Logger.Infof("actor %s started", id.String())
	return newAddr(runtime), nil
}

// init runs the behavior Init callback under the configured timeout,
// retrying failed attempts.
func (r *Runtime[S]) init(ctx context.Context) error {
	retrier := retry.NewRetrier(r.config.InitMaxRetries+1, 100*time.Millisecond, r.config.InitTimeout)
	return retrier.RunContext(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.config.InitTimeout)
		defer cancel()

		state, err := r.safeInit(ctx)
		if err != nil {
			return err
		}
		r.state = state
		return nil
	})
}

func (r *Runtime[S]) safeInit(ctx context.Context) (state S, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.NewPanicError(fmt.Errorf("%v", recovered))
		}
	}()
	return r.behavior.Init(ctx)
}

// receiveLoop is the single consumer of the mailbox. Each signal token
// corresponds to one admitted message; each message dispatches exactly one
// handler.
func (r *Runtime[S]) receiveLoop() {
	for {
		select {
		case <-r.stopCh:
			r.terminate(r.stopReason)
			return
		case <-r.mailbox.Signal():
			msg := r.mailbox.Dequeue()
			if msg == nil {
				continue
			}
			if reason, fatal := r.dispatch(msg); fatal {
				r.terminate(reason)
				return
			}
		}
	}
}

// dispatch routes one message to its handler. It reports a fatal reason only
// when the handler panicked; handler errors never stop the loop.
func (r *Runtime[S]) dispatch(pm *message.PriorityMessage) (Reason, bool) {
	ctx := context.Background()

	switch m := pm.Envelope.Message.(type) {
	case *callMessage:
		value, err, panicErr := r.safeCall(ctx, m)
		if panicErr != nil {
			err = panicErr
		}
		select {
		case m.reply <- callReply{value: value, err: err}:
		default:
		}
		if panicErr != nil {
			return Critical(panicErr), true
		}

	case *castMessage:
		err, panicErr := r.safeCast(ctx, m)
		if panicErr != nil {
			return Critical(panicErr), true
		}
		if err != nil {
			r.config.Logger.Warnf("actor %s cast handler failed: %v", r.id.String(), err)
		}

	case *infoMessage:
		err, panicErr := r.safeInfo(ctx, m)
		if panicErr != nil {
			return Critical(panicErr), true
		}
		if err != nil {
			r.config.Logger.Warnf("actor %s info handler failed: %v", r.id.String(), err)
		}

	case *codeChangeMessage:
		err, panicErr := r.safeCodeChange(m)
		if panicErr != nil {
			err = panicErr
		}
		select {
		case m.reply <- err:
		default:
		}
		if panicErr != nil {
			return Critical(panicErr), true
		}

	default:
		// bare payloads are treated as casts from an anonymous sender
		err, panicErr := r.safeCast(ctx, &castMessage{msg: pm.Envelope.Message, from: pm.Envelope.From})
		if panicErr != nil {
			return Critical(panicErr), true
		}
		if err != nil {
			r.config.Logger.Warnf("actor %s handler failed: %v", r.id.String(), err)
		}
	}

	return Reason{}, false
}

func (r *Runtime[S]) safeCall(ctx context.Context, m *callMessage) (value any, err error, panicErr *errors.PanicError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr = errors.NewPanicError(fmt.Errorf("%v", recovered))
		}
	}()
	value, err = r.behavior.HandleCall(ctx, m.msg, m.from, &r.state)
	return
}

func (r *Runtime[S]) safeCast(ctx context.Context, m *castMessage) (err error, panicErr *errors.PanicError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr = errors.NewPanicError(fmt.Errorf("%v", recovered))
		}
	}()
	err = r.behavior.HandleCast(ctx, m.msg, m.from, &r.state)
	return
}

func (r *Runtime[S]) safeInfo(ctx context.Context, m *infoMessage) (err error, panicErr *errors.PanicError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr = errors.NewPanicError(fmt.Errorf("%v", recovered))
		}
	}()
	err = r.behavior.HandleInfo(ctx, m.event, &r.state)
	return
}

func (r *Runtime[S]) safeCodeChange(m *codeChangeMessage) (err error, panicErr *errors.PanicError) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr = errors.NewPanicError(fmt.Errorf("%v", recovered))
		}
	}()
	changer, ok := any(r.behavior).(CodeChanger[S])
	if !ok {
		// behaviors without upgrade support accept the request as a no-op
		return nil, nil
	}
	err = changer.CodeChange(m.oldVersion, &r.state, m.extra)
	return
}

// terminate runs the Terminate callback exactly once and settles the actor
// into the Stopped state.
func (r *Runtime[S]) terminate(reason Reason) {
	r.terminateOnce.Do(func() {
		r.status.Store(statusTerminating)
		r.mailbox.Dispose()

		func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					r.config.Logger.Errorf("actor %s panicked in Terminate: %v", r.id.String(), recovered)
				}
			}()
			r.behavior.Terminate(reason, &r.state)
		}()

		r.finalReason = reason
		r.status.Store(statusStopped)
		close(r.finished)

		if reason.IsAbnormal() {
			r.config.Logger.Errorf("actor %s terminated: %s", r.id.String(), reason.String())
		} else {
			r.config.Logger.Infof("actor %s terminated: %s", r.id.String(), reason.String())
		}

		r.watchersMu.Lock()
		watchers := make([]func(Reason), len(r.watchers))
		copy(watchers, r.watchers)
		r.watchersMu.Unlock()
		for _, watcher := range watchers {
			go watcher(reason)
		}
	})
}

// core implementation

func (r *Runtime[S]) actorID() address.ActorID {
	return r.id
}

func (r *Runtime[S]) enqueue(ctx context.Context, msg *message.PriorityMessage) error {
	if !r.isRunning() {
		return errors.NewErrActorNotFound(r.id.Name())
	}
	return r.mailbox.Enqueue(ctx, msg)
}

func (r *Runtime[S]) isRunning() bool {
	return r.status.Load() == statusRunning
}

// stop requests termination and waits for the Terminate callback to finish
// or the context to expire. Stopping an already stopped actor fails with
// ErrActorNotFound.
func (r *Runtime[S]) stop(ctx context.Context, reason Reason) error {
	if !r.isRunning() {
		return errors.NewErrActorNotFound(r.id.Name())
	}

	r.stopOnce.Do(func() {
		r.stopReason = reason
		close(r.stopCh)
	})

	select {
	case <-r.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runtime[S]) watch(fn func(Reason)) {
	r.watchersMu.Lock()
	defer r.watchersMu.Unlock()
	select {
	case <-r.finished:
		// already stopped, notify immediately
		go fn(r.finalReason)
	default:
		r.watchers = append(r.watchers, fn)
	}
}

func (r *Runtime[S]) doneChan() <-chan struct{} {
	return r.finished
}

func (r *Runtime[S]) callTimeout() time.Duration {
	return r.config.CallTimeout
}

func (r *Runtime[S]) deadLetters() *deadletter.Processor {
	return r.config.DeadLetters
}

func (r *Runtime[S]) mailboxMetrics() mailbox.Metrics {
	return r.mailbox.Metrics()
}
