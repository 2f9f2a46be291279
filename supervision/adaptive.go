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
	"runtime"
	"time"
)

// LoadMonitor samples the current system load as a ratio in [0, 1].
type LoadMonitor interface {
	Load() float64
}

// GoroutineLoadMonitor derives load from the live goroutine count relative
// to a configured capacity.
type GoroutineLoadMonitor struct {
	// Capacity is the goroutine count treated as full load.
	Capacity int
}

var _ LoadMonitor = GoroutineLoadMonitor{}

// DefaultLoadMonitor returns a goroutine-based monitor with a capacity of
// 10000 goroutines.
func DefaultLoadMonitor() LoadMonitor {
	return GoroutineLoadMonitor{Capacity: 10000}
}

// Load implements LoadMonitor
func (m GoroutineLoadMonitor) Load() float64 {
	capacity := m.Capacity
	if capacity <= 0 {
		capacity = 10000
	}
	load := float64(runtime.NumGoroutine()) / float64(capacity)
	if load > 1 {
		return 1
	}
	return load
}

// LoadAdaptive stretches restart delays when the system is under load so a
// restart storm does not pile onto an already saturated node.
type LoadAdaptive struct {
	// Monitor samples the load. Nil falls back to DefaultLoadMonitor.
	Monitor LoadMonitor
	// Threshold is the load ratio above which delays are stretched.
	Threshold float64
	// Multiplier scales the delay when the threshold is crossed.
	Multiplier float64
}

// Adjust returns the delay scaled by the multiplier when load is at or above
// the threshold.
func (a LoadAdaptive) Adjust(delay time.Duration) time.Duration {
	monitor := a.Monitor
	if monitor == nil {
		monitor = DefaultLoadMonitor()
	}
	if monitor.Load() >= a.Threshold && a.Multiplier > 1 {
		return time.Duration(float64(delay) * a.Multiplier)
	}
	return delay
}

// conservativeDelay is the flat delay applied when a failure pattern looks
// pathological.
const conservativeDelay = 5 * time.Second

// PatternAdaptive scores the density of a child's recent failures and forces
// a conservative flat delay when the child appears to be crash-looping.
type PatternAdaptive struct {
	// Window is the period failure density is measured over.
	Window time.Duration
	// Threshold is the score above which the conservative delay applies.
	Threshold float64
}

// Score rates the failure pattern of the history in [0, 1]. Density is the
// in-window restart count over 10, capped at 1; any child with more than 3
// lifetime restarts scores at least 0.8.
func (a PatternAdaptive) Score(h *History) float64 {
	window := a.Window
	if window <= 0 {
		window = DefaultWindow
	}
	density := float64(h.CountInWindow(window)) / 10
	if density > 1 {
		density = 1
	}
	if h.Total() > 3 && density < 0.8 {
		return 0.8
	}
	return density
}

// Adjust replaces the delay with the conservative delay when the score
// crosses the threshold.
func (a PatternAdaptive) Adjust(h *History, delay time.Duration) time.Duration {
	if a.Score(h) >= a.Threshold {
		return conservativeDelay
	}
	return delay
}
