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

package supervision

import (
	"time"

	"github.com/olympushealth/otp/log"
)

const (
	// backoffBase is the restart delay applied to the first restart.
	backoffBase = 100 * time.Millisecond
	// backoffCap bounds the computed restart delay.
	backoffCap = 5 * time.Second
)

// DecisionKind names the action a supervisor must take after a child
// terminates.
type DecisionKind int

const (
	// NoRestart leaves the child stopped.
	NoRestart DecisionKind = iota
	// RestartOne restarts only the failed child.
	RestartOne
	// RestartAll terminates and restarts every child.
	RestartAll
	// RestartFrom restarts the failed child and all later-declared siblings.
	RestartFrom
)

// Decision is the outcome of consulting the engine.
type Decision struct {
	// Kind names the action to take.
	Kind DecisionKind
	// Delay is the wait before acting, zero for NoRestart.
	Delay time.Duration
	// LimitExceeded is set when NoRestart was forced by the restart
	// intensity rather than the child's restart policy.
	LimitExceeded bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLoadAdaptive layers load-aware delay scaling onto the engine.
func WithLoadAdaptive(adaptive LoadAdaptive) EngineOption {
	return func(e *Engine) {
		e.loadAdaptive = &adaptive
	}
}

// WithPatternAdaptive layers failure-pattern scoring onto the engine.
func WithPatternAdaptive(adaptive PatternAdaptive) EngineOption {
	return func(e *Engine) {
		e.patternAdaptive = &adaptive
	}
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine turns a child's restart history into a restart decision. The engine
// never restarts anything itself; supervisors execute its decisions.
type Engine struct {
	strategy        Strategy
	loadAdaptive    *LoadAdaptive
	patternAdaptive *PatternAdaptive
	logger          log.Logger
}

// NewEngine creates an engine for the given strategy.
func NewEngine(strategy Strategy, opts ...EngineOption) *Engine {
	engine := &Engine{
		strategy: strategy,
		logger:   log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Strategy returns the strategy the engine was built with.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Decide consults the restart policy, the intensity window and the adaptive
// layers for a child that terminated. abnormal reports whether the
// termination reason was abnormal.
func (e *Engine) Decide(h *History, abnormal bool) Decision {
	switch h.Policy() {
	case Temporary:
		return Decision{Kind: NoRestart}
	case Transient:
		if !abnormal {
			return Decision{Kind: NoRestart}
		}
	}

	count := h.CountInWindow(e.strategy.Window)
	if uint32(count) >= e.strategy.MaxRestarts {
		e.logger.Warnf("restart intensity reached: %d restart(s) within %s",
			count, e.strategy.Window)
		return Decision{Kind: NoRestart, LimitExceeded: true}
	}

	delay := backoffDelay(count)
	if e.loadAdaptive != nil {
		delay = e.loadAdaptive.Adjust(delay)
	}
	if e.patternAdaptive != nil {
		delay = e.patternAdaptive.Adjust(h, delay)
	}

	return Decision{Kind: e.blastRadius(), Delay: delay}
}

func (e *Engine) blastRadius() DecisionKind {
	switch e.strategy.Type {
	case OneForAll:
		return RestartAll
	case RestForOne:
		return RestartFrom
	default:
		return RestartOne
	}
}

// backoffDelay doubles with each restart already on record, capped at
// backoffCap.
func backoffDelay(count int) time.Duration {
	if count >= 6 {
		return backoffCap
	}
	delay := backoffBase << uint(count)
	if delay > backoffCap {
		return backoffCap
	}
	return delay
}
