package value

import (
	"fmt"

	"filippo.io/edwards25519"
)

// Endpoint identifies a network peer. It is a first-class value (§3) and
// the left-hand side of a remote-execution expression (`a :: ...`).
//
// An endpoint's Identifier is its name without the leading `@`; String
// adds the `@` back for the textual form. When KeyMaterial
// is present it is validated as a compressed edwards25519 curve point —
// the same key material that would back the endpoint's cryptographic
// identity in a full network stack, even though DATEX's core pipeline
// never performs the handshake itself (wire transport is out of scope).
type Endpoint struct {
	Identifier string
	KeyMaterial []byte
}

// NewEndpoint builds an endpoint from its textual identifier alone,
// with no key material to validate.
func NewEndpoint(identifier string) Endpoint {
	return Endpoint{Identifier: identifier}
}

// NewEndpointWithKey builds an endpoint and validates that key decodes
// to a point on the curve; a non-empty key that is not a valid point is
// rejected. An empty key is accepted and leaves KeyMaterial empty.
func NewEndpointWithKey(identifier string, key []byte) (Endpoint, error) {
	if len(key) != 0 {
		if _, err := new(edwards25519.Point).SetBytes(key); err != nil {
			return Endpoint{}, fmt.Errorf("endpoint %q key material is not a valid curve point: %w", identifier, err)
		}
	}
	buf := make([]byte, len(key))
	copy(buf, key)
	return Endpoint{Identifier: identifier, KeyMaterial: buf}, nil
}

func (e Endpoint) String() string {
	return "@" + e.Identifier
}

func (e Endpoint) Equal(other Endpoint) bool {
	return e.Identifier == other.Identifier
}
