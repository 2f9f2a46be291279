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

// Package supervision implements the restart policy engine consulted by
// supervisors when a child terminates abnormally. It is a pure decision
// layer: it owns restart histories and produces decisions, and never touches
// actors itself.
package supervision

import (
	"time"

	"github.com/olympushealth/otp/internal/validation"
)

// StrategyType selects the blast radius applied when a child fails.
type StrategyType int

const (
	// OneForOne restarts only the failed child.
	OneForOne StrategyType = iota
	// OneForAll terminates every sibling and restarts all children.
	OneForAll
	// RestForOne restarts the failed child and every child declared after it.
	RestForOne
	// SimpleOneForOne restarts dynamically spawned children individually.
	SimpleOneForOne
)

var strategyNames = map[StrategyType]string{
	OneForOne:       "one_for_one",
	OneForAll:       "one_for_all",
	RestForOne:      "rest_for_one",
	SimpleOneForOne: "simple_one_for_one",
}

// String implements fmt.Stringer
func (t StrategyType) String() string {
	if name, ok := strategyNames[t]; ok {
		return name
	}
	return "unknown"
}

const (
	// DefaultMaxRestarts is the default restart intensity.
	DefaultMaxRestarts uint32 = 3
	// DefaultWindow is the default restart intensity window.
	DefaultWindow = time.Minute
)

// Strategy bundles the blast radius with the restart intensity. A child that
// restarts MaxRestarts times within Window is not restarted again; the
// supervisor surfaces the denial to its own watcher. The intensity check
// applies to every strategy type.
type Strategy struct {
	// Type selects the blast radius.
	Type StrategyType
	// MaxRestarts is the restart intensity.
	MaxRestarts uint32
	// Window is the sliding window the intensity is measured over.
	Window time.Duration
}

var _ validation.Validator = Strategy{}

// NewStrategy creates a Strategy with the default intensity.
func NewStrategy(strategyType StrategyType) Strategy {
	return Strategy{
		Type:        strategyType,
		MaxRestarts: DefaultMaxRestarts,
		Window:      DefaultWindow,
	}
}

// Validate implements validation.Validator
func (s Strategy) Validate() error {
	return validation.
		New(validation.FailFast()).
		AddAssertion(s.Type >= OneForOne && s.Type <= SimpleOneForOne, "unknown strategy type").
		AddAssertion(s.MaxRestarts > 0, "max restarts must be positive").
		AddAssertion(s.Window > 0, "restart window must be positive").
		Validate()
}

// RestartPolicy governs whether a terminated child is eligible for restart.
type RestartPolicy int

const (
	// Permanent children are always restarted.
	Permanent RestartPolicy = iota
	// Transient children are restarted only after abnormal termination.
	Transient
	// Temporary children are never restarted.
	Temporary
)

var policyNames = map[RestartPolicy]string{
	Permanent: "permanent",
	Transient: "transient",
	Temporary: "temporary",
}

// String implements fmt.Stringer
func (p RestartPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown"
}
