package smc

import "fmt"

// --------------------------------------------------------------------------
// Key Type
// --------------------------------------------------------------------------

// Key is a 4-byte identifier naming one controller value, conventionally
// printable ASCII (e.g. "TC0P"). On the wire a key always travels packed
// into a single 32-bit big-endian integer, never as raw characters.
type Key [4]byte

// ParseKey converts a textual key into a Key. The string must be exactly
// four bytes long; no null terminator is part of the wire form.
func ParseKey(s string) (Key, error) {
	if len(s) != 4 {
		return Key{}, NewError(ErrCBadKey, fmt.Sprintf("key %q must be exactly 4 characters, got %d", s, len(s)))
	}
	return Key{s[0], s[1], s[2], s[3]}, nil
}

// MustKey is like ParseKey but panics on invalid input.
// Intended for package-level key constants.
func MustKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// String returns the textual form of the key.
func (k Key) String() string {
	return string(k[:])
}

// --------------------------------------------------------------------------
// Packing
// --------------------------------------------------------------------------

// PackKey packs the four key bytes into their 32-bit wire form:
// bytes[0]<<24 | bytes[1]<<16 | bytes[2]<<8 | bytes[3].
func PackKey(k Key) uint32 {
	return uint32(k[0])<<24 | uint32(k[1])<<16 | uint32(k[2])<<8 | uint32(k[3])
}

// UnpackKey is the inverse of PackKey. For all keys k,
// UnpackKey(PackKey(k)) == k.
func UnpackKey(v uint32) Key {
	return Key{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// --------------------------------------------------------------------------
// Type Tags
// --------------------------------------------------------------------------

// TypeTag is a 4-character code identifying the data type of a payload.
// It is packed exactly like a Key.
type TypeTag uint32

// String returns the textual form of the type tag.
func (t TypeTag) String() string {
	return UnpackKey(uint32(t)).String()
}

// TagOf returns the TypeTag for a 4-character type code.
// It panics on invalid input, mirroring MustKey.
func TagOf(s string) TypeTag {
	return TypeTag(PackKey(MustKey(s)))
}

// Type tags understood by the value decoders.
var (
	TagFloat32 = TagOf("flt ") // IEEE-754 single precision
	TagUint8   = TagOf("ui8 ")
	TagUint16  = TagOf("ui16")
	TagUint32  = TagOf("ui32")
)

// --------------------------------------------------------------------------
// Well-Known Keys
// --------------------------------------------------------------------------

// KeyCount is the well-known key whose 4-byte payload holds the total
// number of keys the controller exposes, as a big-endian unsigned integer.
var KeyCount = MustKey("#KEY")
