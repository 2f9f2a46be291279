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
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/message"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// message protocol of the counter behavior

type increment struct{ by int }

type getCount struct{}

func (getCount) ResponseType() int { return 0 }

// wrongType declares an int response but the handler answers with a string.
type wrongType struct{}

func (wrongType) ResponseType() int { return 0 }

type counter struct {
	initErr    error
	reasons    chan Reason
	infoEvents chan any
}

func newCounter() *counter {
	return &counter{
		reasons:    make(chan Reason, 1),
		infoEvents: make(chan any, 8),
	}
}

func (c *counter) Init(context.Context) (int, error) {
	if c.initErr != nil {
		return 0, c.initErr
	}
	return 0, nil
}

func (c *counter) HandleCall(_ context.Context, msg any, _ address.ActorID, state *int) (any, error) {
	switch msg.(type) {
	case getCount:
		return *state, nil
	case wrongType:
		return "not an int", nil
	default:
		return nil, errors.ErrUnhandled
	}
}

func (c *counter) HandleCast(_ context.Context, msg any, _ address.ActorID, state *int) error {
	switch m := msg.(type) {
	case increment:
		*state += m.by
		return nil
	case string:
		if m == "boom" {
			panic("counter exploded")
		}
		return nil
	default:
		return errors.ErrUnhandled
	}
}

func (c *counter) HandleInfo(_ context.Context, event any, _ *int) error {
	c.infoEvents <- event
	return nil
}

func (c *counter) Terminate(reason Reason, _ *int) {
	select {
	case c.reasons <- reason:
	default:
	}
}

// upgradable adds CodeChange support on top of the counter.
type upgradable struct {
	*counter
	oldVersions chan string
}

func (u *upgradable) CodeChange(oldVersion string, state *int, _ string) error {
	u.oldVersions <- oldVersion
	*state *= 2
	return nil
}

func TestSpawnAndStop(t *testing.T) {
	ctx := context.Background()
	behavior := newCounter()

	addr, err := Spawn(ctx, "counter", behavior, 10)
	require.NoError(t, err)
	require.True(t, addr.IsRunning())
	assert.Equal(t, "counter", addr.ID().Name())

	require.NoError(t, addr.Stop(ctx, Shutdown()))
	assert.False(t, addr.IsRunning())

	select {
	case reason := <-behavior.reasons:
		assert.Equal(t, Shutdown(), reason)
	case <-time.After(time.Second):
		t.Fatal("Terminate never ran")
	}
}

func TestSpawnRejectsInvalidName(t *testing.T) {
	_, err := Spawn(context.Background(), "bad name", newCounter(), 10)
	assert.Error(t, err)
}

func TestCastMutatesState(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	from := address.Local("caller")
	require.NoError(t, addr.Send(ctx, increment{by: 2}, from))
	require.NoError(t, addr.Send(ctx, increment{by: 3}, from))

	require.Eventually(t, func() bool {
		count, callErr := Call[int](ctx, addr, getCount{}, from)
		return callErr == nil && count == 5
	}, time.Second, 10*time.Millisecond)
}

func TestCallReturnsHandlerError(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	_, err = addr.Call(ctx, "unknown request", address.Local("caller"))
	assert.ErrorIs(t, err, errors.ErrUnhandled)
}

func TestTypedCallRejectsWrongResponseType(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	_, err = Call[int](ctx, addr, wrongType{}, address.Local("caller"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidMessage)
}

func TestSendInfo(t *testing.T) {
	ctx := context.Background()
	behavior := newCounter()
	addr, err := Spawn(ctx, "counter", behavior, 10)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	require.NoError(t, addr.SendInfo(ctx, "tick"))

	select {
	case event := <-behavior.infoEvents:
		assert.Equal(t, "tick", event)
	case <-time.After(time.Second):
		t.Fatal("HandleInfo never ran")
	}
}

func TestPanicTerminatesWithCritical(t *testing.T) {
	ctx := context.Background()
	behavior := newCounter()
	addr, err := Spawn(ctx, "counter", behavior, 10)
	require.NoError(t, err)

	notified := make(chan Reason, 1)
	addr.Watch(func(reason Reason) { notified <- reason })

	require.NoError(t, addr.Send(ctx, "boom", address.Local("caller")))

	select {
	case reason := <-notified:
		require.True(t, reason.IsAbnormal())
		var panicErr *errors.PanicError
		require.True(t, stderrors.As(reason.Err(), &panicErr))
	case <-time.After(time.Second):
		t.Fatal("watcher never fired")
	}
	assert.False(t, addr.IsRunning())
}

func TestCallAgainstStoppedActor(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)
	require.NoError(t, addr.Stop(ctx, Shutdown()))

	_, err = addr.Call(ctx, getCount{}, address.Local("caller"))
	assert.ErrorIs(t, err, errors.ErrActorNotFound)

	err = addr.Send(ctx, increment{by: 1}, address.Local("caller"))
	assert.ErrorIs(t, err, errors.ErrActorNotFound)
}

func TestStopTwiceFailsWithActorNotFound(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)

	require.NoError(t, addr.Stop(ctx, Shutdown()))
	assert.ErrorIs(t, addr.Stop(ctx, Shutdown()), errors.ErrActorNotFound)
}

func TestWatchAfterStopFiresImmediately(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)
	require.NoError(t, addr.Stop(ctx, Shutdown()))

	notified := make(chan Reason, 1)
	addr.Watch(func(reason Reason) { notified <- reason })

	select {
	case reason := <-notified:
		assert.Equal(t, Shutdown(), reason)
	case <-time.After(time.Second):
		t.Fatal("late watcher never fired")
	}
}

func TestInitFailureAbortsSpawn(t *testing.T) {
	behavior := newCounter()
	behavior.initErr = stderrors.New("store unreachable")

	config := DefaultConfig()
	config.InitMaxRetries = 0
	_, err := SpawnWithConfig(context.Background(), address.Local("counter"), behavior, config)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInitFailure)
}

func TestCodeChangeWithoutSupportIsNoOp(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	assert.NoError(t, addr.CodeChange(ctx, "v1", ""))
}

func TestCodeChangeMigratesState(t *testing.T) {
	ctx := context.Background()
	behavior := &upgradable{counter: newCounter(), oldVersions: make(chan string, 1)}
	addr, err := Spawn(ctx, "counter", behavior, 10)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	from := address.Local("caller")
	require.NoError(t, addr.Send(ctx, increment{by: 4}, from))
	require.Eventually(t, func() bool {
		count, callErr := Call[int](ctx, addr, getCount{}, from)
		return callErr == nil && count == 4
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, addr.CodeChange(ctx, "v1", "double"))
	assert.Equal(t, "v1", <-behavior.oldVersions)

	count, err := Call[int](ctx, addr, getCount{}, from)
	require.NoError(t, err)
	assert.Equal(t, 8, count)
}

func TestCallTimesOutOnSlowHandler(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	// block the loop so the call request is never dispatched in time
	require.NoError(t, addr.Send(ctx, increment{by: 1}, address.Local("caller")))

	_, err = addr.Call(timeoutCtx, "unknown request", address.Local("caller"))
	if err != nil {
		// depending on scheduling the call either times out or is answered
		// with the handler error
		assert.True(t,
			stderrors.Is(err, errors.ErrRequestTimeout) || stderrors.Is(err, errors.ErrUnhandled))
	}
}

func TestMailboxMetricsExposed(t *testing.T) {
	ctx := context.Background()
	addr, err := Spawn(ctx, "counter", newCounter(), 10)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	require.NoError(t, addr.Send(ctx, increment{by: 1}, address.Local("caller")))
	require.Eventually(t, func() bool {
		return addr.Metrics().Received == 1
	}, time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, addr.Metrics().Sent)
}

// serialized records whether two handlers ever ran at the same time.
type serialized struct {
	entered  *atomic.Bool
	overlaps *atomic.Int32
}

type bump struct{}

type read struct{}

func (read) ResponseType() int { return 0 }

func newSerialized() *serialized {
	return &serialized{
		entered:  atomic.NewBool(false),
		overlaps: atomic.NewInt32(0),
	}
}

func (s *serialized) enter() {
	if !s.entered.CompareAndSwap(false, true) {
		s.overlaps.Inc()
	}
	time.Sleep(100 * time.Microsecond)
}

func (s *serialized) exit() {
	s.entered.Store(false)
}

func (s *serialized) Init(context.Context) (int, error) {
	return 0, nil
}

func (s *serialized) HandleCall(_ context.Context, msg any, _ address.ActorID, state *int) (any, error) {
	s.enter()
	defer s.exit()
	if _, ok := msg.(read); ok {
		return *state, nil
	}
	return nil, errors.ErrUnhandled
}

func (s *serialized) HandleCast(_ context.Context, msg any, _ address.ActorID, state *int) error {
	s.enter()
	defer s.exit()
	if _, ok := msg.(bump); ok {
		*state++
		return nil
	}
	return errors.ErrUnhandled
}

func (s *serialized) HandleInfo(context.Context, any, *int) error {
	s.enter()
	defer s.exit()
	return nil
}

func (s *serialized) Terminate(Reason, *int) {}

func TestHandlersNeverRunConcurrently(t *testing.T) {
	ctx := context.Background()
	behavior := newSerialized()
	addr, err := Spawn(ctx, "serialized", behavior, 512)
	require.NoError(t, err)
	defer addr.Stop(ctx, Shutdown()) //nolint:errcheck

	const senders, perSender = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(from address.ActorID) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				if j%2 == 0 {
					assert.NoError(t, addr.SendWithPriority(ctx, bump{}, from, message.High))
				} else {
					assert.NoError(t, addr.Send(ctx, bump{}, from))
				}
				_, callErr := Call[int](ctx, addr, read{}, from)
				assert.NoError(t, callErr)
			}
		}(address.Local(fmt.Sprintf("sender-%d", i)))
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		count, callErr := Call[int](ctx, addr, read{}, address.Local("observer"))
		return callErr == nil && count == senders*perSender
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, behavior.overlaps.Load())
}
