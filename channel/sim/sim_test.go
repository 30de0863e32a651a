package sim

import (
	"testing"

	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/lib/smc"
)

// call is a test helper issuing one raw exchange against the device.
func call(t *testing.T, d *Device, req *smc.Request) (*smc.Response, error) {
	t.Helper()
	out := make([]byte, smc.FrameSize)
	if err := d.Call(channel.CommandIndex, req.Encode(), out); err != nil {
		return nil, err
	}
	resp, err := smc.DecodeResponse(out)
	if err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, nil
}

// TestReadKeyInfo tests metadata lookup for a stored key.
func TestReadKeyInfo(t *testing.T) {
	d := New()
	d.SetFloat(smc.MustKey("TC0P"), 42.5)

	resp, err := call(t, d, &smc.Request{Key: smc.MustKey("TC0P"), Data8: smc.CmdReadKeyInfo})
	if err != nil {
		t.Fatalf("read-keyinfo failed: %v", err)
	}

	if resp.Info.DataType != smc.TagFloat32 {
		t.Errorf("dataType = %s, want %s", resp.Info.DataType, smc.TagFloat32)
	}
	if resp.Info.DataSize != 4 {
		t.Errorf("dataSize = %d, want 4", resp.Info.DataSize)
	}
}

// TestReadBytesRequiresSize tests that read-bytes fails unless the caller
// presents the size learned from read-keyinfo.
func TestReadBytesRequiresSize(t *testing.T) {
	d := New()
	d.SetFloat(smc.MustKey("TC0P"), 42.5)

	// Correct size succeeds and echoes the payload.
	resp, err := call(t, d, &smc.Request{
		Key:   smc.MustKey("TC0P"),
		Info:  smc.KeyInfo{DataSize: 4},
		Data8: smc.CmdReadBytes,
	})
	if err != nil {
		t.Fatalf("read-bytes failed: %v", err)
	}
	v := &smc.Value{Key: resp.Key, Info: resp.Info, Bytes: resp.Bytes}
	f, err := v.Float32()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if f != 42.5 {
		t.Errorf("decoded %v, want 42.5", f)
	}

	// A wrong size fails the call.
	_, err = call(t, d, &smc.Request{
		Key:   smc.MustKey("TC0P"),
		Info:  smc.KeyInfo{DataSize: 2},
		Data8: smc.CmdReadBytes,
	})
	if smc.CodeOf(err) != smc.ErrCCommunication {
		t.Errorf("expected Communication error for wrong size, got %v", err)
	}
}

// TestUnknownKeyFails tests that both read phases fail for a key the
// device does not hold.
func TestUnknownKeyFails(t *testing.T) {
	d := New()

	for _, cmd := range []uint8{smc.CmdReadKeyInfo, smc.CmdReadBytes} {
		_, err := call(t, d, &smc.Request{Key: smc.MustKey("ZZZZ"), Data8: cmd})
		if smc.CodeOf(err) != smc.ErrCCommunication {
			t.Errorf("cmd %d: expected Communication error, got %v", cmd, err)
		}
	}
}

// TestKeyCountTracksTable tests that "#KEY" reports the table size as a
// big-endian ui32 payload.
func TestKeyCountTracksTable(t *testing.T) {
	d := New()
	d.SetFloat(smc.MustKey("TC0P"), 1)
	d.SetFloat(smc.MustKey("TG0P"), 2)
	d.Set(smc.MustKey("FNum"), smc.TagUint8, []byte{1})

	resp, err := call(t, d, &smc.Request{
		Key:   smc.KeyCount,
		Info:  smc.KeyInfo{DataSize: 4},
		Data8: smc.CmdReadBytes,
	})
	if err != nil {
		t.Fatalf("read-bytes for #KEY failed: %v", err)
	}

	v := &smc.Value{Key: resp.Key, Info: resp.Info, Bytes: resp.Bytes}
	n, err := v.Uint()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if n != 3 {
		t.Errorf("#KEY = %d, want 3", n)
	}
}

// TestReadIndexEnumeration tests indexed key lookup in insertion order.
func TestReadIndexEnumeration(t *testing.T) {
	d := New()
	keys := []string{"TC0P", "TG0P", "F0Ac"}
	for _, k := range keys {
		d.SetFloat(smc.MustKey(k), 1)
	}

	for i, want := range keys {
		resp, err := call(t, d, &smc.Request{Data8: smc.CmdReadIndex, Data32: uint32(i)})
		if err != nil {
			t.Fatalf("read-index %d failed: %v", i, err)
		}
		if resp.Key.String() != want {
			t.Errorf("index %d = %q, want %q", i, resp.Key, want)
		}
	}

	// Out of range fails.
	if _, err := call(t, d, &smc.Request{Data8: smc.CmdReadIndex, Data32: uint32(len(keys))}); smc.CodeOf(err) != smc.ErrCCommunication {
		t.Errorf("expected Communication error for out-of-range index, got %v", err)
	}
}

// TestCallValidation tests index and buffer size validation.
func TestCallValidation(t *testing.T) {
	d := NewDemo()
	req := (&smc.Request{Key: smc.KeyCount, Data8: smc.CmdReadKeyInfo}).Encode()

	// Wrong command index.
	if err := d.Call(99, req, make([]byte, smc.FrameSize)); smc.CodeOf(err) != smc.ErrCCommunication {
		t.Errorf("expected Communication error for foreign index, got %v", err)
	}

	// Wrong response buffer size.
	if err := d.Call(channel.CommandIndex, req, make([]byte, smc.FrameSize-1)); smc.CodeOf(err) != smc.ErrCFrameSize {
		t.Errorf("expected FrameSize error, got %v", err)
	}

	// Wrong request buffer size.
	if err := d.Call(channel.CommandIndex, req[:10], make([]byte, smc.FrameSize)); smc.CodeOf(err) != smc.ErrCFrameSize {
		t.Errorf("expected FrameSize error, got %v", err)
	}
}

// TestClosedDevice tests that a closed device refuses calls and double
// close reports a failure.
func TestClosedDevice(t *testing.T) {
	d := NewDemo()
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	req := (&smc.Request{Key: smc.KeyCount, Data8: smc.CmdReadKeyInfo}).Encode()
	if err := d.Call(channel.CommandIndex, req, make([]byte, smc.FrameSize)); smc.CodeOf(err) != smc.ErrCCommunication {
		t.Errorf("expected Communication error on closed device, got %v", err)
	}

	if err := d.Close(); smc.CodeOf(err) != smc.ErrCCommunication {
		t.Errorf("expected Communication error on double close, got %v", err)
	}
}

// TestLocator tests discovery outcomes through the sim locator.
func TestLocator(t *testing.T) {
	if _, err := (Locator{}).Locate(); smc.CodeOf(err) != smc.ErrCNotFound {
		t.Errorf("expected NotFound error for empty locator, got %v", err)
	}

	d := NewDemo()
	port, err := Locator{Device: d}.Locate()
	if err != nil {
		t.Fatalf("locate failed: %v", err)
	}
	if port != channel.ServicePort(d) {
		t.Errorf("locator returned a foreign port")
	}
}
