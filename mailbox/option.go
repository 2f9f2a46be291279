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

	"github.com/olympushealth/otp/log"
)

// Option configures a mailbox at construction time.
type Option func(*Mailbox)

// WithSize sets the mailbox capacity. Non-positive values fall back to the
// default.
func WithSize(size int) Option {
	return func(m *Mailbox) {
		if size > 0 {
			m.size = int64(size)
		}
	}
}

// WithTimeout sets the admission timeout. Enqueue always layers it on the
// caller's context, so the effective deadline is whichever is sooner.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Mailbox) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithBackpressureThreshold sets the occupancy ratio above which the
// pressure hook fires. Values outside (0, 1] fall back to the default.
func WithBackpressureThreshold(threshold float64) Option {
	return func(m *Mailbox) {
		if threshold > 0 && threshold <= 1 {
			m.threshold = threshold
		}
	}
}

// WithPressureHook sets the callback invoked when occupancy crosses the
// backpressure threshold. The hook receives the occupancy ratio and must not
// block.
func WithPressureHook(hook func(ratio float64)) Option {
	return func(m *Mailbox) {
		if hook != nil {
			m.pressureHook = hook
		}
	}
}

// WithLogger sets the mailbox logger.
func WithLogger(logger log.Logger) Option {
	return func(m *Mailbox) {
		if logger != nil {
			m.logger = logger
		}
	}
}
