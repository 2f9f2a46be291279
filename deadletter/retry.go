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
	"math"
	"time"
)

// RetryStrategy computes the delay before a dead letter is resubmitted.
type RetryStrategy interface {
	// Delay returns the wait before the given resubmission attempt.
	// Attempts are counted from zero.
	Delay(attempts uint32) time.Duration
}

// ExponentialBackoff grows the delay geometrically with each attempt, capped
// at Max.
type ExponentialBackoff struct {
	// Initial is the delay before the first resubmission.
	Initial time.Duration
	// Max caps the computed delay.
	Max time.Duration
	// Multiplier is the per-attempt growth factor.
	Multiplier float64
}

var _ RetryStrategy = ExponentialBackoff{}

// DefaultBackoff returns the backoff used when no strategy is configured.
func DefaultBackoff() ExponentialBackoff {
	return ExponentialBackoff{
		Initial:    100 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2,
	}
}

// Delay implements RetryStrategy
func (s ExponentialBackoff) Delay(attempts uint32) time.Duration {
	delay := time.Duration(float64(s.Initial) * math.Pow(s.Multiplier, float64(attempts)))
	if delay > s.Max || delay <= 0 {
		return s.Max
	}
	return delay
}

// FixedDelay waits the same duration before every resubmission.
type FixedDelay struct {
	// Wait is the delay applied to every attempt.
	Wait time.Duration
}

var _ RetryStrategy = FixedDelay{}

// Delay implements RetryStrategy
func (s FixedDelay) Delay(uint32) time.Duration {
	return s.Wait
}

// Immediate resubmits without waiting.
type Immediate struct{}

var _ RetryStrategy = Immediate{}

// Delay implements RetryStrategy
func (Immediate) Delay(uint32) time.Duration {
	return 0
}
