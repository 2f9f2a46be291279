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

package eventstream

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/olympushealth/otp/internal/queue"
)

// Subscriber defines a stream consumer attached to one or more topics.
type Subscriber interface {
	ID() string
	Active() bool
	Topics() []string
	Iterator() chan *Message
	Shutdown()
	signal(message *Message)
	subscribe(topic string)
	unsubscribe(topic string)
}

type subscriber struct {
	id       string
	sem      sync.Mutex
	messages *queue.Queue[*Message]
	topics   map[string]bool
	active   *atomic.Bool
}

var _ Subscriber = (*subscriber)(nil)

// newSubscriber creates a stream consumer with a random identifier and an
// unbounded inbox.
func newSubscriber() *subscriber {
	return &subscriber{
		id:       uuid.NewString(),
		sem:      sync.Mutex{},
		messages: queue.New[*Message](),
		topics:   make(map[string]bool),
		active:   atomic.NewBool(true),
	}
}

// ID returns the consumer id
func (x *subscriber) ID() string {
	return x.id
}

// Active checks whether the consumer is active
func (x *subscriber) Active() bool {
	return x.active.Load()
}

// Topics returns the list of topics the consumer has subscribed to
func (x *subscriber) Topics() []string {
	x.sem.Lock()
	defer x.sem.Unlock()
	var topics []string
	for topic := range x.topics {
		topics = append(topics, topic)
	}
	return topics
}

// Shutdown deactivates the consumer. Pending messages remain readable
// through Iterator.
func (x *subscriber) Shutdown() {
	x.active.Store(false)
}

// Iterator drains the currently buffered messages into a closed channel so
// callers can range over them without blocking.
func (x *subscriber) Iterator() chan *Message {
	out := make(chan *Message, x.messages.Len())
	for x.messages.Len() > 0 {
		msg, ok := x.messages.Pop()
		if !ok {
			break
		}
		out <- msg
	}
	close(out)
	return out
}

// signal pushes a message to the subscriber inbox
func (x *subscriber) signal(message *Message) {
	if x.active.Load() {
		x.messages.Push(message)
	}
}

func (x *subscriber) subscribe(topic string) {
	x.sem.Lock()
	x.topics[topic] = true
	x.sem.Unlock()
}

func (x *subscriber) unsubscribe(topic string) {
	x.sem.Lock()
	delete(x.topics, topic)
	x.sem.Unlock()
}
