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

// Package supervisor implements the supervision tree runtime. A supervisor
// owns an ordered set of children, watches their terminations, consults the
// supervision engine and executes its decisions. A supervisor is itself a
// genserver.Ref, so trees nest naturally.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/genserver"
	"github.com/olympushealth/otp/internal/queue"
	"github.com/olympushealth/otp/log"
	"github.com/olympushealth/otp/supervision"
)

const (
	// startMaxRetries is the number of attempts made when restarting a child.
	startMaxRetries = 3
	// startRetryDelay is the initial delay between restart attempts.
	startRetryDelay = 100 * time.Millisecond
	// startRetryCap bounds the delay between restart attempts.
	startRetryCap = time.Second
)

// child is one supervised entry. ref is nil between incarnations.
type child struct {
	spec      ChildSpec
	refMu     sync.RWMutex
	ref       genserver.Ref
	history   *supervision.History
	expecting *atomic.Bool
}

func (c *child) getRef() genserver.Ref {
	c.refMu.RLock()
	defer c.refMu.RUnlock()
	return c.ref
}

func (c *child) setRef(ref genserver.Ref) {
	c.refMu.Lock()
	c.ref = ref
	c.refMu.Unlock()
}

func (c *child) running() bool {
	ref := c.getRef()
	return ref != nil && ref.IsRunning()
}

// exit is the internal event emitted when a child incarnation terminates.
type exit struct {
	key    string
	ref    genserver.Ref
	reason genserver.Reason
}

// Option configures a supervisor.
type Option func(*Supervisor)

// WithLogger sets the supervisor logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngine replaces the default engine, typically to layer adaptive
// strategies onto it.
func WithEngine(engine *supervision.Engine) Option {
	return func(s *Supervisor) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// Supervisor owns an ordered set of children and restarts them according to
// its strategy. Exits are processed one at a time on a dedicated goroutine,
// so blast radius operations never overlap.
type Supervisor struct {
	id     address.ActorID
	engine *supervision.Engine
	logger log.Logger

	mu       sync.Mutex
	children []*child
	index    map[string]*child

	exits   *queue.Queue[exit]
	ctx     context.Context
	cancel  context.CancelFunc
	stopped *atomic.Bool
	drained chan struct{}

	finalReason genserver.Reason

	watchersMu sync.Mutex
	watchers   []func(genserver.Reason)
	notified   *atomic.Bool
}

var _ genserver.Ref = (*Supervisor)(nil)

// New creates and starts a supervisor with the given strategy.
func New(ctx context.Context, name string, strategy supervision.Strategy, opts ...Option) (*Supervisor, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sup := &Supervisor{
		id:       address.Local(name),
		engine:   supervision.NewEngine(strategy),
		logger:   log.DiscardLogger,
		index:    make(map[string]*child),
		exits:    queue.New[exit](),
		ctx:      ctx,
		cancel:   cancel,
		stopped:  atomic.NewBool(false),
		drained:  make(chan struct{}),
		notified: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(sup)
	}

	if err := sup.id.Validate(); err != nil {
		cancel()
		return nil, err
	}

	go sup.superviseLoop()
	sup.logger.Infof("supervisor %s started with strategy %s", sup.id.String(), strategy.Type.String())
	return sup, nil
}

// ID implements genserver.Ref
func (s *Supervisor) ID() address.ActorID {
	return s.id
}

// IsRunning implements genserver.Ref
func (s *Supervisor) IsRunning() bool {
	return !s.stopped.Load()
}

// Watch implements genserver.Ref. The callback fires exactly once when the
// supervisor stops, with MaxRestartsExceeded when it escalated.
func (s *Supervisor) Watch(fn func(genserver.Reason)) {
	s.watchersMu.Lock()
	defer s.watchersMu.Unlock()
	if s.stopped.Load() {
		go fn(s.finalReason)
		return
	}
	s.watchers = append(s.watchers, fn)
}

// StartChild adds a child to the tree and starts it. Starting a child whose
// id is already present fails with ErrChildAlreadyStarted.
func (s *Supervisor) StartChild(ctx context.Context, spec ChildSpec) (address.ActorID, error) {
	if s.stopped.Load() {
		return address.ActorID{}, errors.ErrSupervisorStopped
	}
	if err := spec.Validate(); err != nil {
		return address.ActorID{}, err
	}

	s.mu.Lock()
	key := spec.ID.Key()
	if existing, ok := s.index[key]; ok && existing.running() {
		s.mu.Unlock()
		return address.ActorID{}, errors.ErrChildAlreadyStarted
	}

	entry := &child{
		spec:      spec,
		history:   supervision.NewHistory(len(s.children), spec.Restart),
		expecting: atomic.NewBool(false),
	}
	s.children = append(s.children, entry)
	s.index[key] = entry
	s.mu.Unlock()

	ref, err := spec.Start(ctx)
	if err != nil {
		s.removeChild(key)
		return address.ActorID{}, err
	}

	s.adopt(entry, ref)
	s.logger.Infof("supervisor %s started child %s", s.id.String(), spec.ID.String())
	return ref.ID(), nil
}

// TerminateChild gracefully stops a child according to its shutdown policy.
// The child stays in the tree and can be restarted explicitly.
func (s *Supervisor) TerminateChild(ctx context.Context, id address.ActorID) error {
	s.mu.Lock()
	entry, ok := s.index[id.Key()]
	s.mu.Unlock()
	if !ok {
		return errors.NewErrChildNotFound(id.Key())
	}
	if !entry.running() {
		return nil
	}
	return s.stopChild(ctx, entry, genserver.SupervisorShutdown())
}

// RestartChild explicitly restarts a child, preserving its id, spec and
// restart history. The restart intensity still applies; a denial fails with
// ErrRestartLimitExceeded.
func (s *Supervisor) RestartChild(ctx context.Context, id address.ActorID) error {
	if s.stopped.Load() {
		return errors.ErrSupervisorStopped
	}

	s.mu.Lock()
	entry, ok := s.index[id.Key()]
	s.mu.Unlock()
	if !ok {
		return errors.NewErrChildNotFound(id.Key())
	}

	strategy := s.engine.Strategy()
	if uint32(entry.history.CountInWindow(strategy.Window)) >= strategy.MaxRestarts {
		return errors.ErrRestartLimitExceeded
	}

	if entry.running() {
		if err := s.stopChild(ctx, entry, genserver.SupervisorShutdown()); err != nil {
			return err
		}
	}
	// explicit restarts count against the intensity window too
	entry.history.Record()
	return s.startIncarnation(ctx, entry)
}

// WhichChildren returns a snapshot of the tree in declaration order.
func (s *Supervisor) WhichChildren() []ChildInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]ChildInfo, 0, len(s.children))
	for _, entry := range s.children {
		infos = append(infos, ChildInfo{
			ID:       entry.spec.ID,
			Type:     entry.spec.Type,
			Restarts: entry.history.Total(),
			Running:  entry.running(),
		})
	}
	return infos
}

// Stop implements genserver.Ref. Children are stopped in reverse declaration
// order, each according to its shutdown policy. Stopping a stopped
// supervisor fails with ErrActorNotFound.
func (s *Supervisor) Stop(ctx context.Context, reason genserver.Reason) error {
	if !s.stopped.CompareAndSwap(false, true) {
		return errors.NewErrActorNotFound(s.id.Name())
	}

	s.mu.Lock()
	ordered := make([]*child, len(s.children))
	copy(ordered, s.children)
	s.mu.Unlock()

	var lastErr error
	for i := len(ordered) - 1; i >= 0; i-- {
		entry := ordered[i]
		if !entry.running() {
			continue
		}
		if err := s.stopChild(ctx, entry, genserver.SupervisorShutdown()); err != nil {
			s.logger.Warnf("supervisor %s failed to stop child %s: %v",
				s.id.String(), entry.spec.ID.String(), err)
			lastErr = err
		}
	}

	s.finalReason = reason
	s.cancel()
	s.exits.Close()
	<-s.drained

	s.notify(reason)
	s.logger.Infof("supervisor %s stopped: %s", s.id.String(), reason.String())
	return lastErr
}

// superviseLoop consumes exit events sequentially.
func (s *Supervisor) superviseLoop() {
	defer close(s.drained)
	for {
		event, ok := s.exits.Wait()
		if !ok {
			return
		}
		s.handleExit(event)
	}
}

// handleExit consults the engine for a terminated child and executes the
// decision.
func (s *Supervisor) handleExit(event exit) {
	if s.stopped.Load() {
		return
	}

	s.mu.Lock()
	entry, ok := s.index[event.key]
	s.mu.Unlock()
	if !ok || (event.ref != nil && entry.getRef() != event.ref) {
		// stale notification from a previous incarnation
		return
	}
	entry.setRef(nil)

	decision := s.engine.Decide(entry.history, event.reason.IsAbnormal())
	s.logger.Debugf("supervisor %s: child %s exited (%s), decision %v",
		s.id.String(), entry.spec.ID.String(), event.reason.String(), decision.Kind)

	switch decision.Kind {
	case supervision.NoRestart:
		if decision.LimitExceeded {
			s.escalate(entry)
		}

	case supervision.RestartAll:
		s.restartGroup(entry, 0, decision.Delay)

	case supervision.RestartFrom:
		s.restartGroup(entry, entry.history.Index(), decision.Delay)

	default: // RestartOne
		s.wait(decision.Delay)
		entry.history.Record()
		if err := s.startIncarnation(s.ctx, entry); err != nil {
			s.logger.Errorf("supervisor %s failed to restart child %s: %v",
				s.id.String(), entry.spec.ID.String(), err)
			s.exits.Push(exit{key: event.key, reason: genserver.Critical(err)})
		}
	}
}

// restartGroup terminates every running child at or after the given
// declaration index, then restarts the group in declaration order. The
// failed child's history carries the restart record.
func (s *Supervisor) restartGroup(failed *child, fromIndex int, delay time.Duration) {
	s.mu.Lock()
	group := make([]*child, 0, len(s.children))
	for _, entry := range s.children {
		if entry.history.Index() >= fromIndex {
			group = append(group, entry)
		}
	}
	s.mu.Unlock()

	// terminate the survivors in parallel, each per its shutdown policy
	eg := new(errgroup.Group)
	for _, entry := range group {
		if entry == failed || !entry.running() {
			continue
		}
		entry := entry
		eg.Go(func() error {
			return s.stopChild(s.ctx, entry, genserver.SupervisorShutdown())
		})
	}
	if err := eg.Wait(); err != nil {
		s.logger.Warnf("supervisor %s: sibling shutdown reported: %v", s.id.String(), err)
	}

	s.wait(delay)
	failed.history.Record()

	for _, entry := range group {
		if s.stopped.Load() {
			return
		}
		if err := s.startIncarnation(s.ctx, entry); err != nil {
			s.logger.Errorf("supervisor %s failed to restart child %s: %v",
				s.id.String(), entry.spec.ID.String(), err)
			s.exits.Push(exit{key: entry.spec.ID.Key(), reason: genserver.Critical(err)})
			return
		}
	}
}

// escalate stops the whole tree and reports MaxRestartsExceeded upward.
func (s *Supervisor) escalate(entry *child) {
	s.logger.Errorf("supervisor %s: child %s exhausted its restarts, escalating",
		s.id.String(), entry.spec.ID.String())

	if !s.stopped.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	ordered := make([]*child, len(s.children))
	copy(ordered, s.children)
	s.mu.Unlock()

	for i := len(ordered) - 1; i >= 0; i-- {
		if !ordered[i].running() {
			continue
		}
		_ = s.stopChild(s.ctx, ordered[i], genserver.SupervisorShutdown())
	}

	s.finalReason = genserver.MaxRestartsExceeded()
	s.cancel()
	// unblocks the supervise loop; escalate runs on that same goroutine so it
	// must not wait for the drain
	s.exits.Close()
	s.notify(s.finalReason)
}

// startIncarnation launches a fresh incarnation of the child, retrying
// transient start failures.
func (s *Supervisor) startIncarnation(ctx context.Context, entry *child) error {
	var ref genserver.Ref
	retrier := retry.NewRetrier(startMaxRetries, startRetryDelay, startRetryCap)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		started, startErr := entry.spec.Start(ctx)
		if startErr != nil {
			return startErr
		}
		ref = started
		return nil
	})
	if err != nil {
		return err
	}

	s.adopt(entry, ref)
	s.logger.Infof("supervisor %s restarted child %s", s.id.String(), entry.spec.ID.String())
	return nil
}

// adopt wires the watch on a fresh incarnation.
func (s *Supervisor) adopt(entry *child, ref genserver.Ref) {
	entry.setRef(ref)
	entry.expecting.Store(false)

	key := entry.spec.ID.Key()
	ref.Watch(func(reason genserver.Reason) {
		if entry.expecting.Load() || s.stopped.Load() {
			return
		}
		s.exits.Push(exit{key: key, ref: ref, reason: reason})
	})
}

// stopChild stops a running incarnation without triggering the engine.
func (s *Supervisor) stopChild(ctx context.Context, entry *child, reason genserver.Reason) error {
	ref := entry.getRef()
	if ref == nil {
		return nil
	}

	entry.expecting.Store(true)
	defer entry.expecting.Store(false)

	stopCtx, cancel := entry.spec.Shutdown.context(ctx)
	defer cancel()

	err := ref.Stop(stopCtx, reason)
	entry.setRef(nil)
	if err != nil && stopCtx.Err() != nil {
		// the stop was triggered; the policy just did not wait for it
		return nil
	}
	return err
}

func (s *Supervisor) removeChild(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.index, key)
	for i, entry := range s.children {
		if entry.spec.ID.Key() == key {
			s.children = append(s.children[:i], s.children[i+1:]...)
			break
		}
	}
}

func (s *Supervisor) wait(delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.ctx.Done():
	}
}

func (s *Supervisor) notify(reason genserver.Reason) {
	if !s.notified.CompareAndSwap(false, true) {
		return
	}
	s.watchersMu.Lock()
	watchers := make([]func(genserver.Reason), len(s.watchers))
	copy(watchers, s.watchers)
	s.watchersMu.Unlock()
	for _, watcher := range watchers {
		go watcher(reason)
	}
}
