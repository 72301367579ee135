package value

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// PointerAddressKind distinguishes the three pointer address layouts
// from spec.md §6.
type PointerAddressKind int

const (
	// FullAddress is the canonical 26-byte pointer identity.
	FullAddress PointerAddressKind = iota
	// LocalAddress is a 10-byte address scoped to the local runtime that
	// minted it (DeriveAddress seeded with that runtime's session id), not
	// to the sender of a block that carries it (spec.md §9 open question).
	LocalAddress
	// InternalAddress is a 6-byte address reserved for built-in library
	// entries, e.g. the standard `integer`/`decimal` types.
	InternalAddress
)

func (k PointerAddressKind) byteLen() int {
	switch k {
	case FullAddress:
		return 26
	case LocalAddress:
		return 10
	case InternalAddress:
		return 6
	default:
		return 0
	}
}

func (k PointerAddressKind) String() string {
	switch k {
	case FullAddress:
		return "full"
	case LocalAddress:
		return "local"
	case InternalAddress:
		return "internal"
	default:
		return "unknown"
	}
}

// PointerAddress identifies a Reference's backing cell. Its byte length
// determines its Kind.
type PointerAddress struct {
	Kind  PointerAddressKind
	Bytes []byte
}

// NewPointerAddress validates bytes against the expected length for kind.
func NewPointerAddress(kind PointerAddressKind, bytes []byte) (PointerAddress, error) {
	if len(bytes) != kind.byteLen() {
		return PointerAddress{}, fmt.Errorf("pointer address of kind %s requires %d bytes, got %d", kind, kind.byteLen(), len(bytes))
	}
	buf := make([]byte, len(bytes))
	copy(buf, bytes)
	return PointerAddress{Kind: kind, Bytes: buf}, nil
}

// ParsePointerAddress parses the textual `$<hex>` form, inferring the
// kind from the decoded byte length (26/10/6 bytes -> 52/20/12 hex
// chars), per spec.md §6.
func ParsePointerAddress(hexDigits string) (PointerAddress, error) {
	raw, err := hex.DecodeString(hexDigits)
	if err != nil {
		return PointerAddress{}, fmt.Errorf("invalid pointer address hex: %w", err)
	}
	switch len(raw) {
	case FullAddress.byteLen():
		return PointerAddress{Kind: FullAddress, Bytes: raw}, nil
	case LocalAddress.byteLen():
		return PointerAddress{Kind: LocalAddress, Bytes: raw}, nil
	case InternalAddress.byteLen():
		return PointerAddress{Kind: InternalAddress, Bytes: raw}, nil
	default:
		return PointerAddress{}, fmt.Errorf("pointer address has unrecognized length %d bytes", len(raw))
	}
}

func (p PointerAddress) String() string {
	return "$" + hex.EncodeToString(p.Bytes)
}

func (p PointerAddress) Equal(other PointerAddress) bool {
	if p.Kind != other.Kind || len(p.Bytes) != len(other.Bytes) {
		return false
	}
	for i := range p.Bytes {
		if p.Bytes[i] != other.Bytes[i] {
			return false
		}
	}
	return true
}

// DeriveAddress derives a deterministic local or internal pointer
// address from a session seed and an allocation counter, using blake2b
// the way the execution context (Component H) mints fresh local
// addresses for references created during a script's execution.
func DeriveAddress(kind PointerAddressKind, seed []byte, counter uint64) (PointerAddress, error) {
	if kind == FullAddress {
		return PointerAddress{}, fmt.Errorf("full addresses are not derived locally, they are assigned by the network layer")
	}
	h, err := blake2b.New(kind.byteLen(), nil)
	if err != nil {
		return PointerAddress{}, err
	}
	h.Write(seed)
	var counterBytes [8]byte
	for i := 0; i < 8; i++ {
		counterBytes[i] = byte(counter >> (8 * i))
	}
	h.Write(counterBytes[:])
	return PointerAddress{Kind: kind, Bytes: h.Sum(nil)}, nil
}
