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

// Package mailbox provides a bounded, priority-aware MPSC mailbox with
// admission control. Producers compete for admission permits; a single
// consumer drains the mailbox through a weighted round-robin scan of the
// priority rings so urgent traffic is favored without starving the rest.
package mailbox

import (
	"context"
	"fmt"
	"time"

	gods "github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"

	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/log"
	"github.com/olympushealth/otp/message"
)

const (
	// DefaultSize is the default mailbox capacity.
	DefaultSize = 1000
	// DefaultTimeout is the default admission timeout.
	DefaultTimeout = 5 * time.Second
	// DefaultBackpressureThreshold is the default occupancy ratio above
	// which the pressure hook fires.
	DefaultBackpressureThreshold = 0.8
)

// wrrWeights biases the consumer scan toward urgent traffic. Within one
// refill cycle Critical drains up to 8 messages for every Low message, so no
// priority can be starved indefinitely.
var wrrWeights = [message.NumPriorities]int{8, 4, 2, 1}

// Mailbox is a bounded, priority-aware MPSC mailbox.
//
// Admission is controlled by a counting semaphore of capacity permits.
// Enqueue acquires a permit within the admission timeout and fails with
// ErrMailboxFull when the mailbox stays full. The permit is released when
// the consumer dequeues the message.
//
// Priority biases scheduling between producers only. A single producer's
// sequence of same-priority messages is never reordered.
type Mailbox struct {
	size      int64
	timeout   time.Duration
	threshold float64

	permits *semaphore.Weighted
	rings   [message.NumPriorities]*gods.RingBuffer
	signal  chan struct{}
	length  *atomic.Int64

	// consumer-only round robin state
	credits [message.NumPriorities]int

	disposed   *atomic.Bool
	inPressure *atomic.Bool

	pressureHook func(ratio float64)
	logger       log.Logger
	metrics      *metrics
}

// New creates a mailbox with the given options.
func New(opts ...Option) *Mailbox {
	mailbox := &Mailbox{
		size:       DefaultSize,
		timeout:    DefaultTimeout,
		threshold:  DefaultBackpressureThreshold,
		length:     atomic.NewInt64(0),
		disposed:   atomic.NewBool(false),
		inPressure: atomic.NewBool(false),
		logger:     log.DiscardLogger,
		metrics:    newMetrics(),
	}

	for _, opt := range opts {
		opt(mailbox)
	}

	mailbox.permits = semaphore.NewWeighted(mailbox.size)
	// each ring is sized to full capacity so Put never blocks once a permit
	// is held
	for priority := range mailbox.rings {
		mailbox.rings[priority] = gods.NewRingBuffer(uint64(mailbox.size))
	}
	mailbox.signal = make(chan struct{}, mailbox.size)
	if mailbox.pressureHook == nil {
		mailbox.pressureHook = mailbox.logPressure
	}
	mailbox.refillCredits()
	return mailbox
}

// Enqueue admits a message into the mailbox. When the mailbox is full the
// call waits for a permit until the caller's deadline or the admission
// timeout elapses, then fails with ErrMailboxFull. Safe for concurrent
// producers.
func (m *Mailbox) Enqueue(ctx context.Context, msg *message.PriorityMessage) error {
	if m.disposed.Load() {
		return errors.ErrMailboxDisposed
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.permits.Acquire(ctx, 1); err != nil {
		m.metrics.dropped.Inc()
		if ctx.Err() == context.DeadlineExceeded {
			m.metrics.timedOut.Inc()
		}
		return fmt.Errorf("%w: %v", errors.ErrMailboxFull, err)
	}

	if m.disposed.Load() {
		m.permits.Release(1)
		return errors.ErrMailboxDisposed
	}

	if err := m.rings[msg.Priority()].Put(msg); err != nil {
		m.permits.Release(1)
		return errors.ErrMailboxDisposed
	}

	occupancy := m.length.Inc()
	m.metrics.sent.Inc()

	select {
	case m.signal <- struct{}{}:
	default:
	}

	m.checkPressure(occupancy)
	return nil
}

// Dequeue removes and returns the next message according to the weighted
// round-robin schedule, or nil when the mailbox is empty. Intended for a
// single consumer.
func (m *Mailbox) Dequeue() *message.PriorityMessage {
	// two passes: the first may find every non-empty ring out of credits,
	// in which case the credits are refilled and the scan runs again
	for pass := 0; pass < 2; pass++ {
		exhausted := false
		for priority := range m.rings {
			if m.rings[priority].Len() == 0 {
				continue
			}
			if m.credits[priority] == 0 {
				exhausted = true
				continue
			}
			m.credits[priority]--
			return m.take(message.Priority(priority))
		}
		if !exhausted {
			return nil
		}
		m.refillCredits()
	}
	return nil
}

// Signal returns the channel carrying one token per admitted message. The
// consumer selects on it against its stop channel and calls Dequeue for
// each token received.
func (m *Mailbox) Signal() <-chan struct{} {
	return m.signal
}

// Len returns the current occupancy snapshot.
func (m *Mailbox) Len() int64 {
	return m.length.Load()
}

// IsEmpty reports whether the mailbox currently has no messages.
func (m *Mailbox) IsEmpty() bool {
	return m.length.Load() == 0
}

// Size returns the mailbox capacity.
func (m *Mailbox) Size() int64 {
	return m.size
}

// Metrics returns a snapshot of the mailbox traffic counters.
func (m *Mailbox) Metrics() Metrics {
	return Metrics{
		Sent:       m.metrics.sent.Load(),
		Received:   m.metrics.received.Load(),
		Dropped:    m.metrics.dropped.Load(),
		TimedOut:   m.metrics.timedOut.Load(),
		Len:        m.length.Load(),
		AvgLatency: m.metrics.avgLatency.Load(),
	}
}

// Dispose closes the mailbox. Subsequent Enqueue calls fail with
// ErrMailboxDisposed. Do not use the mailbox after calling Dispose.
func (m *Mailbox) Dispose() {
	if !m.disposed.CompareAndSwap(false, true) {
		return
	}
	for priority := range m.rings {
		m.rings[priority].Dispose()
	}
}

// IsDisposed reports whether the mailbox has been disposed.
func (m *Mailbox) IsDisposed() bool {
	return m.disposed.Load()
}

func (m *Mailbox) take(priority message.Priority) *message.PriorityMessage {
	item, err := m.rings[priority].Get()
	if err != nil {
		return nil
	}
	msg, ok := item.(*message.PriorityMessage)
	if !ok {
		return nil
	}

	m.length.Dec()
	m.permits.Release(1)
	m.metrics.received.Inc()
	m.metrics.observeLatency(time.Since(msg.CreatedAt))
	return msg
}

func (m *Mailbox) refillCredits() {
	m.credits = wrrWeights
}

// checkPressure fires the pressure hook on the rising edge of the occupancy
// ratio exceeding the threshold, and re-arms once occupancy falls back to or
// below it.
func (m *Mailbox) checkPressure(occupancy int64) {
	ratio := float64(occupancy) / float64(m.size)
	if ratio > m.threshold {
		if m.inPressure.CompareAndSwap(false, true) {
			m.pressureHook(ratio)
		}
		return
	}
	m.inPressure.Store(false)
}

func (m *Mailbox) logPressure(ratio float64) {
	m.logger.Warnf("mailbox backpressure: occupancy at %.0f%% of capacity %d", ratio*100, m.size)
}
