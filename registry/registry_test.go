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

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/genserver"
	"github.com/olympushealth/otp/internal/eventstream"
)

// echo answers calls with the received message and records casts.
type echo struct {
	casts chan any
}

func (e *echo) Init(context.Context) (struct{}, error) {
	return struct{}{}, nil
}

func (e *echo) HandleCall(_ context.Context, msg any, _ address.ActorID, _ *struct{}) (any, error) {
	return msg, nil
}

func (e *echo) HandleCast(_ context.Context, msg any, _ address.ActorID, _ *struct{}) error {
	e.casts <- msg
	return nil
}

func (e *echo) HandleInfo(context.Context, any, *struct{}) error {
	return nil
}

func (e *echo) Terminate(genserver.Reason, *struct{}) {}

func spawnEcho(t *testing.T, name string) (*genserver.Addr, *echo) {
	t.Helper()
	behavior := &echo{casts: make(chan any, 8)}
	addr, err := genserver.Spawn(context.Background(), name, behavior, 10)
	require.NoError(t, err)
	return addr, behavior
}

func drainEvents(sub eventstream.Subscriber) []Event {
	var events []Event
	for msg := range sub.Iterator() {
		if event, ok := msg.Payload().(Event); ok {
			events = append(events, event)
		}
	}
	return events
}

func waitForEvent(t *testing.T, sub eventstream.Subscriber, eventType EventType, name string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, event := range drainEvents(sub) {
			if event.Type == eventType && event.Name == name {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	addr, _ := spawnEcho(t, "zeus")
	defer addr.Stop(ctx, genserver.Shutdown()) //nolint:errcheck

	require.NoError(t, registry.Register("zeus", addr, map[string]string{"ward": "icu"}))

	entry, err := registry.Lookup("zeus")
	require.NoError(t, err)
	assert.True(t, entry.IsLocal())
	assert.Equal(t, addr.ID(), entry.ID)
	assert.Equal(t, "icu", entry.Metadata["ward"])
	assert.Equal(t, 1, registry.Len())
}

func TestRegisterDuplicateName(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	first, _ := spawnEcho(t, "zeus")
	defer first.Stop(ctx, genserver.Shutdown()) //nolint:errcheck
	second, _ := spawnEcho(t, "impostor")
	defer second.Stop(ctx, genserver.Shutdown()) //nolint:errcheck

	require.NoError(t, registry.Register("zeus", first, nil))
	err := registry.Register("zeus", second, nil)
	assert.ErrorIs(t, err, errors.ErrNameAlreadyRegistered)
}

func TestRegisterRejectsInvalidArguments(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	addr, _ := spawnEcho(t, "zeus")
	defer addr.Stop(ctx, genserver.Shutdown()) //nolint:errcheck

	assert.Error(t, registry.Register("", addr, nil))
	assert.Error(t, registry.Register("bad name", addr, nil))
	assert.Error(t, registry.Register("zeus", nil, nil))
}

func TestSendAndCastByName(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	addr, behavior := spawnEcho(t, "zeus")
	defer addr.Stop(ctx, genserver.Shutdown()) //nolint:errcheck
	require.NoError(t, registry.Register("zeus", addr, nil))

	from := address.Local("caller")
	response, err := registry.Send(ctx, "zeus", "ping", from)
	require.NoError(t, err)
	assert.Equal(t, "ping", response)

	require.NoError(t, registry.Cast(ctx, "zeus", "fire-and-forget", from))
	select {
	case msg := <-behavior.casts:
		assert.Equal(t, "fire-and-forget", msg)
	case <-time.After(time.Second):
		t.Fatal("cast never reached the actor")
	}

	_, err = registry.Send(ctx, "nobody", "ping", from)
	assert.ErrorIs(t, err, errors.ErrActorNotFound)
}

func TestUnregister(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	addr, _ := spawnEcho(t, "zeus")
	defer addr.Stop(ctx, genserver.Shutdown()) //nolint:errcheck
	require.NoError(t, registry.Register("zeus", addr, nil))

	require.NoError(t, registry.Unregister("zeus"))
	_, err := registry.Lookup("zeus")
	assert.ErrorIs(t, err, errors.ErrActorNotFound)

	assert.ErrorIs(t, registry.Unregister("zeus"), errors.ErrActorNotFound)
}

func TestListRegisteredIsSorted(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	for _, name := range []string{"zeus", "apollo", "hera"} {
		addr, _ := spawnEcho(t, name)
		defer addr.Stop(ctx, genserver.Shutdown()) //nolint:errcheck
		require.NoError(t, registry.Register(name, addr, nil))
	}

	assert.Equal(t, []string{"apollo", "hera", "zeus"}, registry.ListRegistered())
}

func TestBindingIsReleasedWhenActorDies(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	addr, _ := spawnEcho(t, "zeus")
	require.NoError(t, registry.Register("zeus", addr, nil))

	sub := registry.Subscribe()
	require.NoError(t, addr.Stop(ctx, genserver.Shutdown()))

	waitForEvent(t, sub, ActorDied, "zeus")
	_, err := registry.Lookup("zeus")
	assert.ErrorIs(t, err, errors.ErrActorNotFound)

	// the name is free for rebinding
	replacement, _ := spawnEcho(t, "zeus")
	defer replacement.Stop(ctx, genserver.Shutdown()) //nolint:errcheck
	assert.NoError(t, registry.Register("zeus", replacement, nil))
}

func TestRegistrationEvents(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	sub := registry.Subscribe()

	addr, _ := spawnEcho(t, "zeus")
	defer addr.Stop(ctx, genserver.Shutdown()) //nolint:errcheck
	require.NoError(t, registry.Register("zeus", addr, nil))
	waitForEvent(t, sub, ActorRegistered, "zeus")

	require.NoError(t, registry.Unregister("zeus"))
	waitForEvent(t, sub, ActorUnregistered, "zeus")
}

func TestRemoteBinding(t *testing.T) {
	ctx := context.Background()
	registry := New()
	defer registry.Close(ctx)

	require.NoError(t, registry.RegisterRemote("oracle", "node-2", "10.0.0.2:9000", "tcp"))

	entry, err := registry.Lookup("oracle")
	require.NoError(t, err)
	assert.False(t, entry.IsLocal())
	assert.Equal(t, "oracle@node-2", entry.ID.Key())

	_, err = registry.Send(ctx, "oracle", "ping", address.Local("caller"))
	assert.ErrorIs(t, err, errors.ErrRemotingNotSupported)
	assert.ErrorIs(t, registry.Cast(ctx, "oracle", "ping", address.Local("caller")), errors.ErrRemotingNotSupported)
}

func TestRegisterRemoteValidation(t *testing.T) {
	registry := New()
	defer registry.Close(context.Background())

	assert.Error(t, registry.RegisterRemote("", "node-2", "", ""))
	assert.Error(t, registry.RegisterRemote("oracle", "", "", ""))
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "actor_registered", ActorRegistered.String())
	assert.Equal(t, "actor_unregistered", ActorUnregistered.String())
	assert.Equal(t, "actor_died", ActorDied.String())
	assert.Equal(t, "node_joined", NodeJoinedEvent.String())
	assert.Equal(t, "node_left", NodeLeftEvent.String())
	assert.Equal(t, "node_failed", NodeFailedEvent.String())
}
