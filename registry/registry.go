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

// Package registry maps stable names to actor handles. Local bindings are
// auto-released when the actor dies; remote bindings are bookkeeping until a
// transport is wired.
package registry

import (
	"context"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/genserver"
	"github.com/olympushealth/otp/internal/collection"
	"github.com/olympushealth/otp/internal/eventstream"
	"github.com/olympushealth/otp/internal/validation"
	"github.com/olympushealth/otp/log"
)

// Option configures a Registry.
type Option func(*Registry)

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCluster attaches a cluster membership view so node events surface on
// the registry topic.
func WithCluster(cluster *Cluster) Option {
	return func(r *Registry) {
		r.cluster = cluster
	}
}

// Registry is the process-wide name service.
type Registry struct {
	entries *collection.Map[string, *Entry]
	names   mapset.Set[string]
	stream  eventstream.Stream
	logger  log.Logger
	cluster *Cluster
}

// New creates a registry.
func New(opts ...Option) *Registry {
	registry := &Registry{
		entries: collection.NewMap[string, *Entry](),
		names:   mapset.NewSet[string](),
		stream:  eventstream.New(),
		logger:  log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(registry)
	}
	if registry.cluster != nil {
		registry.cluster.onStatusChange = func(node NodeInfo) {
			var eventType EventType
			switch node.Status {
			case NodeActive:
				eventType = NodeJoinedEvent
			case NodeLeft:
				eventType = NodeLeftEvent
			case NodeFailed:
				eventType = NodeFailedEvent
			default:
				// demotion to suspicious is informational only
				return
			}
			registry.publish(Event{Type: eventType, Node: node.NodeID, At: time.Now()})
		}
	}
	return registry
}

// Register binds a name to a local actor. Binding an already registered
// name fails with ErrNameAlreadyRegistered. The binding is auto-released
// when the actor terminates.
func (r *Registry) Register(name string, addr *genserver.Addr, metadata map[string]string) error {
	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewNameValidator(name)).
		AddAssertion(addr != nil, "actor handle is required").
		Validate(); err != nil {
		return err
	}

	if !r.names.Add(name) {
		return errors.NewErrNameAlreadyRegistered(name)
	}

	entry := &Entry{
		ID:           addr.ID(),
		Address:      LocalAddress{Addr: addr},
		RegisteredAt: time.Now(),
		Metadata:     metadata,
	}
	r.entries.Set(name, entry)
	r.publish(Event{Type: ActorRegistered, Name: name, At: entry.RegisteredAt})
	r.logger.Infof("registered %s as %s", addr.ID().String(), name)

	if r.cluster != nil {
		r.cluster.ReplicateRegistration(name)
	}

	// release the name when the actor dies, unless it was rebound meanwhile
	addr.Watch(func(genserver.Reason) {
		if current, ok := r.entries.Get(name); ok && current == entry {
			r.entries.Delete(name)
			r.names.Remove(name)
			r.publish(Event{Type: ActorDied, Name: name, At: time.Now()})
			r.logger.Infof("released %s, actor terminated", name)
		}
	})
	return nil
}

// RegisterRemote binds a name to an actor hosted on another node. Sends to
// the binding fail with ErrRemotingNotSupported until a transport is wired.
func (r *Registry) RegisterRemote(name, node, endpoint, protocol string) error {
	if err := validation.New(validation.FailFast()).
		AddValidator(validation.NewNameValidator(name)).
		AddValidator(validation.NewEmptyStringValidator("node", node)).
		Validate(); err != nil {
		return err
	}

	if !r.names.Add(name) {
		return errors.NewErrNameAlreadyRegistered(name)
	}

	r.entries.Set(name, &Entry{
		ID:           address.Distributed(name, node),
		Address:      RemoteAddress{Node: node, Endpoint: endpoint, Protocol: protocol},
		RegisteredAt: time.Now(),
	})
	r.publish(Event{Type: ActorRegistered, Name: name, Node: node, At: time.Now()})
	return nil
}

// Unregister releases a name. Releasing an unknown name fails with
// ErrActorNotFound.
func (r *Registry) Unregister(name string) error {
	if !r.names.Contains(name) {
		return errors.NewErrActorNotFound(name)
	}
	r.entries.Delete(name)
	r.names.Remove(name)
	r.publish(Event{Type: ActorUnregistered, Name: name, At: time.Now()})
	r.logger.Infof("unregistered %s", name)
	return nil
}

// Lookup resolves a name to its entry.
func (r *Registry) Lookup(name string) (*Entry, error) {
	entry, ok := r.entries.Get(name)
	if !ok {
		return nil, errors.NewErrActorNotFound(name)
	}
	return entry, nil
}

// ListRegistered returns the registered names in sorted order.
func (r *Registry) ListRegistered() []string {
	names := r.names.ToSlice()
	sort.Strings(names)
	return names
}

// Len returns the number of current bindings.
func (r *Registry) Len() int {
	return r.entries.Len()
}

// Send resolves a name and performs a call, returning the actor's response.
func (r *Registry) Send(ctx context.Context, name string, msg any, from address.ActorID) (any, error) {
	addr, err := r.resolveLocal(name)
	if err != nil {
		return nil, err
	}
	return addr.Call(ctx, msg, from)
}

// Cast resolves a name and delivers a fire-and-forget message.
func (r *Registry) Cast(ctx context.Context, name string, msg any, from address.ActorID) error {
	addr, err := r.resolveLocal(name)
	if err != nil {
		return err
	}
	return addr.Send(ctx, msg, from)
}

// Subscribe returns a consumer of the registry event topic.
func (r *Registry) Subscribe() eventstream.Subscriber {
	subscriber := r.stream.AddSubscriber()
	r.stream.Subscribe(subscriber, Topic)
	return subscriber
}

// Close releases the event stream and stops the attached cluster, if any.
func (r *Registry) Close(ctx context.Context) {
	if r.cluster != nil {
		r.cluster.Stop(ctx)
	}
	r.stream.Close()
	r.entries.Reset()
	r.names.Clear()
}

func (r *Registry) resolveLocal(name string) (*genserver.Addr, error) {
	entry, ok := r.entries.Get(name)
	if !ok {
		return nil, errors.NewErrActorNotFound(name)
	}
	switch target := entry.Address.(type) {
	case LocalAddress:
		return target.Addr, nil
	case RemoteAddress:
		return nil, errors.ErrRemotingNotSupported
	default:
		return nil, errors.NewErrActorNotFound(name)
	}
}

func (r *Registry) publish(event Event) {
	r.stream.Publish(Topic, event)
}
