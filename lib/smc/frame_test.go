package smc

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// TestRequestEncodeLayout tests that every field lands at its fixed offset
// and everything else stays zeroed.
func TestRequestEncodeLayout(t *testing.T) {
	req := &Request{
		Key:    MustKey("TC0P"),
		Info:   KeyInfo{DataSize: 4},
		Data8:  CmdReadBytes,
		Data32: 7,
	}
	req.Bytes[0] = 0xAA

	buf := req.Encode()

	if len(buf) != FrameSize {
		t.Fatalf("encoded frame is %d bytes, want %d", len(buf), FrameSize)
	}

	// Key: big-endian char packing, i.e. the characters in order.
	if !bytes.Equal(buf[0:4], []byte("TC0P")) {
		t.Errorf("key bytes = %v, want %q", buf[0:4], "TC0P")
	}

	// vers and pLimitData stay zeroed.
	for i := 4; i < 28; i++ {
		if buf[i] != 0 {
			t.Errorf("reserved byte at offset %d is %#x, want 0", i, buf[i])
		}
	}

	if got := binary.LittleEndian.Uint32(buf[28:32]); got != 4 {
		t.Errorf("dataSize = %d, want 4", got)
	}
	if buf[39] != CmdReadBytes {
		t.Errorf("data8 = %d, want %d", buf[39], CmdReadBytes)
	}
	if got := binary.LittleEndian.Uint32(buf[40:44]); got != 7 {
		t.Errorf("data32 = %d, want 7", got)
	}
	if buf[44] != 0xAA {
		t.Errorf("payload byte 0 = %#x, want 0xAA", buf[44])
	}

	// Trailing padding stays zeroed.
	for i := 76; i < FrameSize; i++ {
		if buf[i] != 0 {
			t.Errorf("padding byte at offset %d is %#x, want 0", i, buf[i])
		}
	}
}

// TestResponseRoundTrip tests that a response survives encode/decode.
func TestResponseRoundTrip(t *testing.T) {
	resp := &Response{
		Key: MustKey("#KEY"),
		Info: KeyInfo{
			DataSize:       4,
			DataType:       TagUint32,
			DataAttributes: 0x40,
		},
		Result: 0,
		Status: 0,
	}
	copy(resp.Bytes[:], []byte{0x00, 0x00, 0x00, 0x2A})

	decoded, err := DecodeResponse(resp.Encode())
	if err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded.Key != resp.Key {
		t.Errorf("key = %q, want %q", decoded.Key, resp.Key)
	}
	if decoded.Info != resp.Info {
		t.Errorf("keyInfo = %+v, want %+v", decoded.Info, resp.Info)
	}
	if decoded.Bytes != resp.Bytes {
		t.Errorf("payload mismatch: got %v, want %v", decoded.Bytes[:4], resp.Bytes[:4])
	}
}

// TestDecodeRejectsWrongSize tests that buffers of the wrong size are
// rejected instead of being silently truncated.
func TestDecodeRejectsWrongSize(t *testing.T) {
	testCases := []struct {
		name string
		size int
	}{
		{"Empty", 0},
		{"Short", FrameSize - 1},
		{"Long", FrameSize + 1},
		{"Half", FrameSize / 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, tc.size)

			if _, err := DecodeResponse(buf); CodeOf(err) != ErrCFrameSize {
				t.Errorf("DecodeResponse: expected FrameSize error, got %v", err)
			}
			if _, err := DecodeRequest(buf); CodeOf(err) != ErrCFrameSize {
				t.Errorf("DecodeRequest: expected FrameSize error, got %v", err)
			}
		})
	}
}

// TestRequestDecodeMirrorsEncode tests the request codec both ways, as
// used by in-process controller ports.
func TestRequestDecodeMirrorsEncode(t *testing.T) {
	req := &Request{
		Key:    MustKey("F0Ac"),
		Info:   KeyInfo{DataSize: 2, DataType: TagUint16},
		Data8:  CmdReadKeyInfo,
		Data32: 42,
	}

	decoded, err := DecodeRequest(req.Encode())
	if err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}

	if decoded.Key != req.Key || decoded.Info != req.Info ||
		decoded.Data8 != req.Data8 || decoded.Data32 != req.Data32 {
		t.Errorf("request doesn't match after round trip:\nOriginal: %+v\nResult: %+v", req, decoded)
	}
}
