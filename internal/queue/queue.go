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

// Package queue provides an unbounded, thread-safe FIFO queue backed by a
// growable ring buffer with blocking wait semantics.
package queue

import "sync"

// minQueueLen is the smallest capacity that queue may have.
// Must be a power of 2 for bitwise modulus: x % n == x & (n - 1).
const minQueueLen = 16

// Queue is a thread-safe unbounded FIFO queue backed by a ring buffer.
// Multiple producers may Push concurrently; consumers either Pop
// (non-blocking) or Wait (blocking until an item or Close).
type Queue[T any] struct {
	mu     sync.RWMutex
	cond   *sync.Cond
	nodes  []*T
	head   int
	tail   int
	count  int
	closed bool
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		nodes: make([]*T, minQueueLen),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push adds an item to the back of the queue. It can be safely called from
// multiple goroutines. It returns false when the queue is closed; in that
// case the item is dropped.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if q.count == len(q.nodes) {
		q.resize()
	}
	q.nodes[q.tail] = &item
	q.tail = (q.tail + 1) & (len(q.nodes) - 1)
	q.count++
	q.cond.Signal()
	q.mu.Unlock()
	return true
}

// Pop removes and returns the item at the front of the queue without
// blocking. The second return value is false when the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.count == 0 {
		return zero, false
	}
	return q.popLocked(), true
}

// Wait blocks until an item is available or the queue is closed. The second
// return value is false when the queue has been closed.
func (q *Queue[T]) Wait() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	var zero T
	if q.closed {
		return zero, false
	}
	return q.popLocked(), true
}

// Len returns a snapshot of the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.RLock()
	l := q.count
	q.mu.RUnlock()
	return l
}

// IsClosed reports whether the queue has been closed. Only a true result has
// a definite meaning under concurrency.
func (q *Queue[T]) IsClosed() bool {
	q.mu.RLock()
	c := q.closed
	q.mu.RUnlock()
	return c
}

// Close closes the queue and discards any pending items. All goroutines
// blocked in Wait return.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.count = 0
	q.nodes = nil
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *Queue[T]) popLocked() T {
	item := q.nodes[q.head]
	q.nodes[q.head] = nil
	q.head = (q.head + 1) & (len(q.nodes) - 1)
	q.count--
	return *item
}

func (q *Queue[T]) resize() {
	nodes := make([]*T, q.count<<1)
	if q.tail > q.head {
		copy(nodes, q.nodes[q.head:q.tail])
	} else {
		n := copy(nodes, q.nodes[q.head:])
		copy(nodes[n:], q.nodes[:q.tail])
	}
	q.tail = q.count
	q.head = 0
	q.nodes = nodes
}
