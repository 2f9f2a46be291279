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

package genserver

import (
	"time"

	"github.com/olympushealth/otp/deadletter"
	"github.com/olympushealth/otp/log"
	"github.com/olympushealth/otp/mailbox"
)

const (
	// DefaultMailboxSize is the default mailbox capacity of a spawned actor.
	DefaultMailboxSize = 1000
	// DefaultCallTimeout is the call timeout applied when the caller's
	// context carries no deadline.
	DefaultCallTimeout = time.Second
	// DefaultInitTimeout bounds how long Init may run per attempt.
	DefaultInitTimeout = time.Second
	// DefaultInitMaxRetries is the number of times a failed Init is retried.
	DefaultInitMaxRetries = 2
)

// Config tunes a spawned actor.
type Config struct {
	// MailboxSize is the mailbox capacity. Non-positive values fall back to
	// the default.
	MailboxSize int
	// CallTimeout is the default timeout for calls without a deadline.
	CallTimeout time.Duration
	// InitTimeout bounds each Init attempt.
	InitTimeout time.Duration
	// InitMaxRetries is the number of Init retries after the first failure.
	InitMaxRetries int
	// Logger is the actor logger. Nil falls back to the discard logger.
	Logger log.Logger
	// DeadLetters, when set, receives messages that could not be admitted.
	DeadLetters *deadletter.Processor
	// MailboxOptions are applied on top of MailboxSize when building the
	// actor mailbox.
	MailboxOptions []mailbox.Option
}

// DefaultConfig returns the configuration applied by Spawn.
func DefaultConfig() Config {
	return Config{
		MailboxSize:    DefaultMailboxSize,
		CallTimeout:    DefaultCallTimeout,
		InitTimeout:    DefaultInitTimeout,
		InitMaxRetries: DefaultInitMaxRetries,
		Logger:         log.DiscardLogger,
	}
}

// sanitize fills the zero values of the config with defaults.
func (c Config) sanitize() Config {
	if c.MailboxSize <= 0 {
		c.MailboxSize = DefaultMailboxSize
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.InitTimeout <= 0 {
		c.InitTimeout = DefaultInitTimeout
	}
	if c.InitMaxRetries < 0 {
		c.InitMaxRetries = DefaultInitMaxRetries
	}
	if c.Logger == nil {
		c.Logger = log.DiscardLogger
	}
	return c
}
