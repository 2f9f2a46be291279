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

package mailbox

import (
	"time"

	"go.uber.org/atomic"
)

// metrics tracks mailbox traffic with lock-free counters.
type metrics struct {
	sent       *atomic.Uint64
	received   *atomic.Uint64
	dropped    *atomic.Uint64
	timedOut   *atomic.Uint64
	avgLatency *atomic.Duration
}

func newMetrics() *metrics {
	return &metrics{
		sent:       atomic.NewUint64(0),
		received:   atomic.NewUint64(0),
		dropped:    atomic.NewUint64(0),
		timedOut:   atomic.NewUint64(0),
		avgLatency: atomic.NewDuration(0),
	}
}

// observeLatency folds a new sample into the rolling average.
func (m *metrics) observeLatency(sample time.Duration) {
	old := m.avgLatency.Load()
	if old == 0 {
		m.avgLatency.Store(sample)
		return
	}
	m.avgLatency.Store((old + sample) / 2)
}

// Metrics is a point-in-time snapshot of mailbox traffic.
type Metrics struct {
	// Sent counts messages admitted into the mailbox.
	Sent uint64
	// Received counts messages handed to the consumer.
	Received uint64
	// Dropped counts messages rejected at admission.
	Dropped uint64
	// TimedOut counts admissions rejected because the timeout elapsed.
	TimedOut uint64
	// Len is the current occupancy.
	Len int64
	// AvgLatency is the rolling average of enqueue-to-dequeue latency.
	AvgLatency time.Duration
}
