// Package smc defines the wire-level protocol contract of the Apple System
// Management Controller (SMC): keys, type tags, the fixed-size exchange frame,
// and typed value decoding. It contains no I/O - everything here is pure data
// transformation shared by the channel and client layers.
//
// The package focuses on:
//   - A canonical, reversible encoding between 4-character identifiers and
//     their packed 32-bit wire form (PackKey / UnpackKey)
//   - Typed request and response records that share a single 80-byte frame
//     layout, with explicit encode/decode at the exchange boundary
//   - Strict, type-checked decoding of payload bytes (IEEE-754 floats,
//     big-endian unsigned integers)
//
// Key Components:
//
//   - Key / TypeTag: 4-byte identifiers, conventionally printable ASCII,
//     always transmitted packed into a single 32-bit big-endian integer.
//     Type tags name the data type of a payload and use the same packing
//     as keys (a float payload carries the tag "flt ").
//
//   - Request / Response: two distinct typed records over the one frame
//     shape the controller uses in both directions. Fields not relevant to
//     a given command are zeroed by Encode, never left uninitialized, so no
//     stale memory leaks into the kernel call or is misread back.
//
//   - Value: the assembled result of a key read - the key, its resolved
//     KeyInfo and the raw payload buffer. Values are constructed fresh per
//     read and never cached.
//
//   - Error System: a structured error type wrapping a numeric code
//     (NotFound, OpenFailed, Communication, TypeMismatch, ...) so callers
//     can branch on the failure kind instead of matching message strings.
package smc
