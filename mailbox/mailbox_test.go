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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/message"
)

func makeMessage(payload any, priority message.Priority) *message.PriorityMessage {
	envelope := message.NewEnvelopeWithPriority(payload, address.Local("sender"), address.Local("receiver"), priority)
	return message.NewPriorityMessage(envelope)
}

func TestEnqueueDequeue(t *testing.T) {
	mb := New(WithSize(10))
	defer mb.Dispose()

	require.NoError(t, mb.Enqueue(context.Background(), makeMessage("one", message.Normal)))
	require.NoError(t, mb.Enqueue(context.Background(), makeMessage("two", message.Normal)))
	assert.EqualValues(t, 2, mb.Len())

	first := mb.Dequeue()
	require.NotNil(t, first)
	assert.Equal(t, "one", first.Envelope.Message)

	second := mb.Dequeue()
	require.NotNil(t, second)
	assert.Equal(t, "two", second.Envelope.Message)

	assert.Nil(t, mb.Dequeue())
	assert.True(t, mb.IsEmpty())
}

func TestAdmissionRejectsWhenFull(t *testing.T) {
	mb := New(WithSize(2), WithTimeout(50*time.Millisecond))
	defer mb.Dispose()

	require.NoError(t, mb.Enqueue(context.Background(), makeMessage(1, message.Normal)))
	require.NoError(t, mb.Enqueue(context.Background(), makeMessage(2, message.Normal)))

	err := mb.Enqueue(context.Background(), makeMessage(3, message.Normal))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMailboxFull)

	snapshot := mb.Metrics()
	assert.EqualValues(t, 2, snapshot.Sent)
	assert.EqualValues(t, 1, snapshot.Dropped)
}

func TestAdmissionUnblocksAfterDequeue(t *testing.T) {
	mb := New(WithSize(1), WithTimeout(time.Second))
	defer mb.Dispose()

	require.NoError(t, mb.Enqueue(context.Background(), makeMessage(1, message.Normal)))

	unblocked := make(chan error, 1)
	go func() {
		unblocked <- mb.Enqueue(context.Background(), makeMessage(2, message.Normal))
	}()

	time.Sleep(20 * time.Millisecond)
	require.NotNil(t, mb.Dequeue())

	select {
	case err := <-unblocked:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("producer stayed blocked after a permit was released")
	}
}

func TestCriticalIsFavored(t *testing.T) {
	mb := New(WithSize(10))
	defer mb.Dispose()

	require.NoError(t, mb.Enqueue(context.Background(), makeMessage("low", message.Low)))
	require.NoError(t, mb.Enqueue(context.Background(), makeMessage("critical", message.Critical)))

	first := mb.Dequeue()
	require.NotNil(t, first)
	assert.Equal(t, "critical", first.Envelope.Message)
}

func TestLowIsNeverStarved(t *testing.T) {
	mb := New(WithSize(100))
	defer mb.Dispose()

	require.NoError(t, mb.Enqueue(context.Background(), makeMessage("low", message.Low)))
	for i := 0; i < 40; i++ {
		require.NoError(t, mb.Enqueue(context.Background(), makeMessage(i, message.Critical)))
	}

	// within one full credit cycle the low message must surface even though
	// critical traffic keeps the mailbox busy
	sawLow := false
	for i := 0; i < 20; i++ {
		msg := mb.Dequeue()
		require.NotNil(t, msg)
		if msg.Envelope.Message == "low" {
			sawLow = true
			break
		}
	}
	assert.True(t, sawLow)
}

func TestPerProducerOrderIsPreserved(t *testing.T) {
	mb := New(WithSize(50))
	defer mb.Dispose()

	for i := 0; i < 10; i++ {
		require.NoError(t, mb.Enqueue(context.Background(), makeMessage(i, message.Normal)))
	}

	last := -1
	for i := 0; i < 10; i++ {
		msg := mb.Dequeue()
		require.NotNil(t, msg)
		value := msg.Envelope.Message.(int)
		assert.Greater(t, value, last)
		last = value
	}
}

func TestSignalCarriesOneTokenPerMessage(t *testing.T) {
	mb := New(WithSize(10))
	defer mb.Dispose()

	for i := 0; i < 3; i++ {
		require.NoError(t, mb.Enqueue(context.Background(), makeMessage(i, message.Normal)))
	}

	for i := 0; i < 3; i++ {
		select {
		case <-mb.Signal():
			require.NotNil(t, mb.Dequeue())
		case <-time.After(time.Second):
			t.Fatal("missing signal token")
		}
	}

	select {
	case <-mb.Signal():
		t.Fatal("unexpected extra signal token")
	default:
	}
}

func TestPressureHookFiresOnThreshold(t *testing.T) {
	fired := make(chan float64, 1)
	mb := New(
		WithSize(10),
		WithBackpressureThreshold(0.8),
		WithPressureHook(func(ratio float64) { fired <- ratio }))
	defer mb.Dispose()

	// occupancy exactly at the threshold does not count as pressure
	for i := 0; i < 8; i++ {
		require.NoError(t, mb.Enqueue(context.Background(), makeMessage(i, message.Normal)))
	}
	select {
	case ratio := <-fired:
		t.Fatalf("pressure hook fired at ratio %.2f, below the boundary", ratio)
	default:
	}

	// the ninth message pushes occupancy strictly above the threshold
	require.NoError(t, mb.Enqueue(context.Background(), makeMessage(8, message.Normal)))
	select {
	case ratio := <-fired:
		assert.Greater(t, ratio, 0.8)
	case <-time.After(time.Second):
		t.Fatal("pressure hook never fired")
	}

	// the hook fires on the rising edge only
	require.NoError(t, mb.Enqueue(context.Background(), makeMessage(9, message.Normal)))
	select {
	case <-fired:
		t.Fatal("pressure hook fired twice without recovery")
	default:
	}
}

func TestDispose(t *testing.T) {
	mb := New(WithSize(10))
	require.NoError(t, mb.Enqueue(context.Background(), makeMessage(1, message.Normal)))

	mb.Dispose()
	assert.True(t, mb.IsDisposed())

	err := mb.Enqueue(context.Background(), makeMessage(2, message.Normal))
	assert.ErrorIs(t, err, errors.ErrMailboxDisposed)

	// idempotent
	mb.Dispose()
}

func TestMetricsLatency(t *testing.T) {
	mb := New(WithSize(10))
	defer mb.Dispose()

	require.NoError(t, mb.Enqueue(context.Background(), makeMessage(1, message.Normal)))
	time.Sleep(5 * time.Millisecond)
	require.NotNil(t, mb.Dequeue())

	snapshot := mb.Metrics()
	assert.EqualValues(t, 1, snapshot.Received)
	assert.Greater(t, snapshot.AvgLatency, time.Duration(0))
}
