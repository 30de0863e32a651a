package smc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// --------------------------------------------------------------------------
// Value
// --------------------------------------------------------------------------

// Value is the assembled result of a key read: the key, its resolved
// KeyInfo and the full payload buffer from the read-bytes exchange.
// Values are built fresh per read; nothing is cached between calls.
type Value struct {
	Key   Key
	Info  KeyInfo
	Bytes [PayloadSize]byte
}

// Payload returns the meaningful slice of the payload buffer, bounded by
// the reported data size.
func (v *Value) Payload() []byte {
	n := v.Info.DataSize
	if n > PayloadSize {
		n = PayloadSize
	}
	return v.Bytes[:n]
}

// --------------------------------------------------------------------------
// Strict Decoders
// --------------------------------------------------------------------------

// Float32 returns the IEEE-754 single-precision interpretation of the
// first 4 payload bytes. The reported type tag must be "flt " and the
// payload must be at least 4 bytes; otherwise a TypeMismatch error is
// returned. The reinterpretation is byte-for-byte (platform
// little-endian), no rounding.
func (v *Value) Float32() (float32, error) {
	if v.Info.DataType != TagFloat32 {
		return 0, NewError(ErrCTypeMismatch, fmt.Sprintf("key %s has type %s, want %s", v.Key, v.Info.DataType, TagFloat32))
	}
	if v.Info.DataSize < 4 {
		return 0, NewError(ErrCTypeMismatch, fmt.Sprintf("key %s reports %d payload bytes, float needs 4", v.Key, v.Info.DataSize))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(v.Bytes[:4])), nil
}

// Uint returns the unsigned integer interpretation of the payload for the
// ui8/ui16/ui32 type tags. Multi-byte integers use the same big-endian
// convention as key packing, applied to raw counts instead of characters
// (this is how the "#KEY" total is encoded).
func (v *Value) Uint() (uint64, error) {
	switch v.Info.DataType {
	case TagUint8:
		if v.Info.DataSize < 1 {
			return 0, NewError(ErrCTypeMismatch, fmt.Sprintf("key %s reports empty ui8 payload", v.Key))
		}
		return uint64(v.Bytes[0]), nil
	case TagUint16:
		if v.Info.DataSize < 2 {
			return 0, NewError(ErrCTypeMismatch, fmt.Sprintf("key %s reports %d payload bytes, ui16 needs 2", v.Key, v.Info.DataSize))
		}
		return uint64(binary.BigEndian.Uint16(v.Bytes[:2])), nil
	case TagUint32:
		if v.Info.DataSize < 4 {
			return 0, NewError(ErrCTypeMismatch, fmt.Sprintf("key %s reports %d payload bytes, ui32 needs 4", v.Key, v.Info.DataSize))
		}
		return uint64(binary.BigEndian.Uint32(v.Bytes[:4])), nil
	default:
		return 0, NewError(ErrCTypeMismatch, fmt.Sprintf("key %s has type %s, want an unsigned integer tag", v.Key, v.Info.DataType))
	}
}
