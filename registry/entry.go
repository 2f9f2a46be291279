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
	"time"

	"github.com/olympushealth/otp/address"
	"github.com/olympushealth/otp/genserver"
)

// AddressType resolves a registered name to a delivery target. Local entries
// carry the actor handle; remote entries carry connection details for a
// transport that is not part of this runtime.
type AddressType interface {
	isAddressType()
}

// LocalAddress points at an actor living in this process.
type LocalAddress struct {
	// Addr is the actor handle.
	Addr *genserver.Addr
}

func (LocalAddress) isAddressType() {}

// RemoteAddress points at an actor hosted elsewhere. Sends to it fail with
// ErrRemotingNotSupported until a transport is plugged in.
type RemoteAddress struct {
	// Node is the hosting node identifier.
	Node string
	// Endpoint is the transport endpoint, typically host:port.
	Endpoint string
	// Protocol names the wire protocol expected at the endpoint.
	Protocol string
}

func (RemoteAddress) isAddressType() {}

// Entry is one name binding.
type Entry struct {
	// ID is the identity the name is bound to.
	ID address.ActorID
	// Address resolves the name to a delivery target.
	Address AddressType
	// RegisteredAt records when the binding was created.
	RegisteredAt time.Time
	// Metadata carries caller-supplied labels.
	Metadata map[string]string
}

// IsLocal reports whether the entry resolves to an in-process actor.
func (e *Entry) IsLocal() bool {
	_, ok := e.Address.(LocalAddress)
	return ok
}
