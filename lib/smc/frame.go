package smc

import (
	"encoding/binary"
	"fmt"
)

// --------------------------------------------------------------------------
// Wire Layout
// --------------------------------------------------------------------------

// The controller uses one fixed-size structure as both request and response
// of every exchange. Multi-byte scalar fields (dataSize, data32) are
// little-endian; the key and type-tag fields are big-endian char packings.
//
//	offset  size  field
//	     0     4  key (packed 32-bit, big-endian char packing)
//	     4     8  vers (opaque, struct compatibility only)
//	    12    16  pLimitData (opaque, struct compatibility only)
//	    28     4  keyInfo.dataSize (little-endian)
//	    32     4  keyInfo.dataType (packed 32-bit, big-endian char packing)
//	    36     1  keyInfo.dataAttributes
//	    37     1  result
//	    38     1  status
//	    39     1  data8 (command selector)
//	    40     4  data32 (little-endian scalar argument)
//	    44    32  bytes (command parameters / payload)
//	    76     4  padding
const (
	offKey        = 0
	offDataSize   = 28
	offDataType   = 32
	offDataAttrib = 36
	offResult     = 37
	offStatus     = 38
	offData8      = 39
	offData32     = 40
	offBytes      = 44

	// PayloadSize is the length of the fixed payload buffer inside a frame.
	// No key carries more than PayloadSize bytes of data.
	PayloadSize = 32

	// FrameSize is the exact length of every request and response buffer.
	// The OS layer rejects calls whose buffers differ from this size.
	FrameSize = 80
)

// Command selectors, written to the data8 field. The kernel call itself is
// always issued with the same command index - the operation is selected by
// this field inside the structure, not by the index.
const (
	CmdReadBytes   = 5
	CmdWriteBytes  = 6 // reserved, writes are out of scope
	CmdReadIndex   = 8
	CmdReadKeyInfo = 9
	CmdReadPLimit  = 11 // reserved
	CmdReadVers    = 12 // reserved
)

// --------------------------------------------------------------------------
// KeyInfo
// --------------------------------------------------------------------------

// KeyInfo describes a key's payload: its byte length (at most PayloadSize),
// its type tag and a flags byte. It is produced by the read-keyinfo
// exchange and consumed to interpret the following read-bytes exchange.
type KeyInfo struct {
	DataSize       uint32
	DataType       TypeTag
	DataAttributes uint8
}

// --------------------------------------------------------------------------
// Request / Response Records
// --------------------------------------------------------------------------

// Request is the caller-facing view of an exchange frame. The two records
// share one wire layout; which fields matter depends on the command
// selector. Encode zero-fills everything the request does not set.
type Request struct {
	Key    Key     // target key (read-bytes, read-keyinfo)
	Info   KeyInfo // DataSize must be pre-set for read-bytes
	Data8  uint8   // command selector
	Data32 uint32  // scalar argument (e.g. index for read-index)
	Bytes  [PayloadSize]byte
}

// Response is the controller-facing view of the same frame.
type Response struct {
	Key    Key     // echoed / filled key (read-index returns the key here)
	Info   KeyInfo // filled by read-keyinfo
	Result uint8   // controller status byte, carried through undecoded
	Status uint8
	Bytes  [PayloadSize]byte
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode serializes the request into a freshly zeroed frame buffer of
// exactly FrameSize bytes.
func (r *Request) Encode() []byte {
	buf := make([]byte, FrameSize)
	copy(buf[offKey:offKey+4], r.Key[:])
	binary.LittleEndian.PutUint32(buf[offDataSize:offDataSize+4], r.Info.DataSize)
	binary.BigEndian.PutUint32(buf[offDataType:offDataType+4], uint32(r.Info.DataType))
	buf[offDataAttrib] = r.Info.DataAttributes
	buf[offData8] = r.Data8
	binary.LittleEndian.PutUint32(buf[offData32:offData32+4], r.Data32)
	copy(buf[offBytes:offBytes+PayloadSize], r.Bytes[:])
	return buf
}

// Encode serializes the response into a freshly zeroed frame buffer of
// exactly FrameSize bytes. Used by in-process and remote controller ports
// that produce responses themselves.
func (r *Response) Encode() []byte {
	buf := make([]byte, FrameSize)
	copy(buf[offKey:offKey+4], r.Key[:])
	binary.LittleEndian.PutUint32(buf[offDataSize:offDataSize+4], r.Info.DataSize)
	binary.BigEndian.PutUint32(buf[offDataType:offDataType+4], uint32(r.Info.DataType))
	buf[offDataAttrib] = r.Info.DataAttributes
	buf[offResult] = r.Result
	buf[offStatus] = r.Status
	copy(buf[offBytes:offBytes+PayloadSize], r.Bytes[:])
	return buf
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// DecodeRequest parses a frame buffer into a Request. The buffer must be
// exactly FrameSize bytes; anything else is a frame-size error, never a
// silent truncation.
func DecodeRequest(buf []byte) (*Request, error) {
	if len(buf) != FrameSize {
		return nil, NewError(ErrCFrameSize, fmt.Sprintf("request frame must be %d bytes, got %d", FrameSize, len(buf)))
	}

	req := &Request{
		Info: KeyInfo{
			DataSize:       binary.LittleEndian.Uint32(buf[offDataSize : offDataSize+4]),
			DataType:       TypeTag(binary.BigEndian.Uint32(buf[offDataType : offDataType+4])),
			DataAttributes: buf[offDataAttrib],
		},
		Data8:  buf[offData8],
		Data32: binary.LittleEndian.Uint32(buf[offData32 : offData32+4]),
	}
	copy(req.Key[:], buf[offKey:offKey+4])
	copy(req.Bytes[:], buf[offBytes:offBytes+PayloadSize])
	return req, nil
}

// DecodeResponse parses a frame buffer into a Response under the same
// exact-size contract as DecodeRequest.
func DecodeResponse(buf []byte) (*Response, error) {
	if len(buf) != FrameSize {
		return nil, NewError(ErrCFrameSize, fmt.Sprintf("response frame must be %d bytes, got %d", FrameSize, len(buf)))
	}

	resp := &Response{
		Info: KeyInfo{
			DataSize:       binary.LittleEndian.Uint32(buf[offDataSize : offDataSize+4]),
			DataType:       TypeTag(binary.BigEndian.Uint32(buf[offDataType : offDataType+4])),
			DataAttributes: buf[offDataAttrib],
		},
		Result: buf[offResult],
		Status: buf[offStatus],
	}
	copy(resp.Key[:], buf[offKey:offKey+4])
	copy(resp.Bytes[:], buf[offBytes:offBytes+PayloadSize])
	return resp, nil
}
