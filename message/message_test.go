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

package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olympushealth/otp/address"
)

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "critical", Critical.String())
	assert.Equal(t, "high", High.String())
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "low", Low.String())
	assert.Equal(t, "unknown", Priority(42).String())
}

func TestFromLevelClamps(t *testing.T) {
	assert.Equal(t, Critical, FromLevel(-5))
	assert.Equal(t, Critical, FromLevel(0))
	assert.Equal(t, High, FromLevel(1))
	assert.Equal(t, Low, FromLevel(3))
	assert.Equal(t, Low, FromLevel(99))
}

func TestNewEnvelope(t *testing.T) {
	from := address.Local("hermes")
	to := address.Local("zeus")
	envelope := NewEnvelope("ping", from, to)

	assert.Equal(t, "ping", envelope.Message)
	assert.True(t, envelope.From.Equals(from))
	assert.True(t, envelope.To.Equals(to))
	assert.Equal(t, Normal, envelope.Priority)
	assert.False(t, envelope.Timestamp.IsZero())
}

func TestEnvelopeIDsAreUnique(t *testing.T) {
	from := address.Local("hermes")
	to := address.Local("zeus")
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		envelope := NewEnvelope("ping", from, to)
		require.False(t, seen[envelope.ID.String()])
		seen[envelope.ID.String()] = true
	}
}

func TestPriorityMessage(t *testing.T) {
	envelope := NewEnvelopeWithPriority("alert", address.Local("hera"), address.Local("zeus"), Critical)
	msg := NewPriorityMessage(envelope)

	assert.Equal(t, Critical, msg.Priority())
	assert.Zero(t, msg.DeliveryAttempts)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestPriorityMessageNilEnvelope(t *testing.T) {
	msg := &PriorityMessage{}
	assert.Equal(t, Normal, msg.Priority())
}
