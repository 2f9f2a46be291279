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

package deadletter

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/olympushealth/otp/internal/eventstream"
	"github.com/olympushealth/otp/internal/queue"
	"github.com/olympushealth/otp/log"
	"github.com/olympushealth/otp/message"
)

// DefaultMaxRetries is the number of resubmissions attempted before a dead
// letter is declared exhausted.
const DefaultMaxRetries uint32 = 3

// ResubmitFunc reinjects a previously failed message toward its target.
type ResubmitFunc func(ctx context.Context, msg *message.PriorityMessage) error

// ProcessorOption configures a Processor at construction time.
type ProcessorOption func(*Processor)

// WithMaxRetries sets the number of resubmissions before exhaustion.
func WithMaxRetries(maxRetries uint32) ProcessorOption {
	return func(p *Processor) {
		p.maxRetries = maxRetries
	}
}

// WithRetryStrategy sets the delay strategy between resubmissions.
func WithRetryStrategy(strategy RetryStrategy) ProcessorOption {
	return func(p *Processor) {
		if strategy != nil {
			p.strategy = strategy
		}
	}
}

// WithLogger sets the processor logger.
func WithLogger(logger log.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Processor consumes dead letters and drives their retry lifecycle on a
// dedicated goroutine. A dead letter whose message still has retry budget is
// resubmitted after the strategy delay. An exhausted dead letter is tagged
// MaxRetriesExceeded and published exactly once on the sink topic.
type Processor struct {
	letters    *queue.Queue[*DeadLetter]
	maxRetries uint32
	strategy   RetryStrategy
	resubmit   ResubmitFunc
	stream     eventstream.Stream
	logger     log.Logger

	started *atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewProcessor creates a dead letter processor publishing exhausted letters
// on the given stream. The resubmit function may be nil, in which case every
// dead letter goes straight to exhaustion.
func NewProcessor(stream eventstream.Stream, resubmit ResubmitFunc, opts ...ProcessorOption) *Processor {
	processor := &Processor{
		letters:    queue.New[*DeadLetter](),
		maxRetries: DefaultMaxRetries,
		strategy:   DefaultBackoff(),
		resubmit:   resubmit,
		stream:     stream,
		logger:     log.DiscardLogger,
		started:    atomic.NewBool(false),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(processor)
	}
	return processor
}

// Start launches the processing loop. A second Start is a no-op.
func (p *Processor) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
}

// Stop halts the processing loop and waits for it to drain. Letters still in
// flight when Stop is called are discarded.
func (p *Processor) Stop() {
	if !p.started.CompareAndSwap(true, false) {
		return
	}
	p.cancel()
	p.letters.Close()
	<-p.done
}

// Offer hands a dead letter to the processor. It never blocks.
func (p *Processor) Offer(letter *DeadLetter) {
	if letter == nil || letter.Message == nil {
		return
	}
	p.letters.Push(letter)
}

// Subscribe returns a consumer of the exhausted letter sink.
func (p *Processor) Subscribe() eventstream.Subscriber {
	subscriber := p.stream.AddSubscriber()
	p.stream.Subscribe(subscriber, Topic)
	return subscriber
}

// Len returns the number of letters waiting to be processed.
func (p *Processor) Len() int {
	return p.letters.Len()
}

func (p *Processor) run(ctx context.Context) {
	defer close(p.done)
	for {
		letter, ok := p.letters.Wait()
		if !ok {
			return
		}
		p.process(ctx, letter)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (p *Processor) process(ctx context.Context, letter *DeadLetter) {
	msg := letter.Message
	if p.resubmit == nil || msg.DeliveryAttempts >= p.maxRetries {
		p.exhaust(letter)
		return
	}

	delay := p.strategy.Delay(msg.DeliveryAttempts)
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	msg.DeliveryAttempts++
	if err := p.resubmit(ctx, msg); err != nil {
		p.logger.Warnf("dead letter resubmission %d/%d failed: %v",
			msg.DeliveryAttempts, p.maxRetries, err)
		// back onto the queue for the next attempt
		p.letters.Push(New(msg, err, letter.Reason))
		return
	}

	p.logger.Debugf("dead letter redelivered to %s after %d attempt(s)",
		msg.Envelope.To.String(), msg.DeliveryAttempts)
}

func (p *Processor) exhaust(letter *DeadLetter) {
	letter.Reason = MaxRetriesExceeded
	p.logger.Errorf("dead letter for %s exhausted after %d attempt(s): %v",
		letter.Message.Envelope.To.String(), letter.Message.DeliveryAttempts, letter.Err)
	p.stream.Publish(Topic, letter)
}
