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
	"sync"
	"time"
)

// retentionWindow bounds how long restart timestamps are kept regardless of
// the strategy window.
const retentionWindow = time.Hour

// History tracks the restart record of a single child. It is safe for
// concurrent use.
type History struct {
	mu         sync.Mutex
	timestamps []time.Time
	total      uint32
	index      int
	policy     RestartPolicy
}

// NewHistory creates an empty history for a child declared at the given
// index with the given restart policy.
func NewHistory(index int, policy RestartPolicy) *History {
	return &History{
		index:  index,
		policy: policy,
	}
}

// Record registers a restart at the current time.
func (h *History) Record() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timestamps = append(h.timestamps, time.Now())
	h.total++
	h.pruneLocked(retentionWindow)
}

// CountInWindow returns the number of restarts within the given window,
// pruning entries older than the retention bound as a side effect.
func (h *History) CountInWindow(window time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruneLocked(retentionWindow)

	cutoff := time.Now().Add(-window)
	count := 0
	for _, ts := range h.timestamps {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}

// Total returns the lifetime restart count of the child.
func (h *History) Total() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Index returns the declaration index of the child.
func (h *History) Index() int {
	return h.index
}

// Policy returns the restart policy of the child.
func (h *History) Policy() RestartPolicy {
	return h.policy
}

// Reset drops the restart record while preserving identity and policy.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timestamps = nil
	h.total = 0
}

func (h *History) pruneLocked(window time.Duration) {
	cutoff := time.Now().Add(-window)
	kept := h.timestamps[:0]
	for _, ts := range h.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	h.timestamps = kept
}
