package remote

import (
	"net"
	"testing"
	"time"

	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/channel/sim"
	"github.com/smclab/gosmc/lib/smc"
)

// startAgent serves a simulated device on an ephemeral tcp port and
// returns the endpoint plus a shutdown function.
func startAgent(t *testing.T, device *sim.Device) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	agent := NewAgent(device, 5*time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := agent.Serve(listener); err != nil {
			t.Errorf("agent serve failed: %v", err)
		}
	}()

	return listener.Addr().String(), func() {
		agent.Shutdown()
		<-done
	}
}

// exchange runs one exchange through a port.
func exchange(t *testing.T, port channel.ServicePort, req *smc.Request) (*smc.Response, error) {
	t.Helper()
	out := make([]byte, smc.FrameSize)
	if err := port.Call(channel.CommandIndex, req.Encode(), out); err != nil {
		return nil, err
	}
	resp, err := smc.DecodeResponse(out)
	if err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, nil
}

// TestForwardedExchange tests a full two-phase read forwarded through the
// agent to a simulated device.
func TestForwardedExchange(t *testing.T) {
	device := sim.New()
	device.SetFloat(smc.MustKey("TC0P"), 42.5)

	endpoint, stop := startAgent(t, device)
	defer stop()

	port, err := Dial("tcp", endpoint, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to dial agent: %v", err)
	}
	defer port.Close()

	// Phase 1: metadata lookup.
	info, err := exchange(t, port, &smc.Request{Key: smc.MustKey("TC0P"), Data8: smc.CmdReadKeyInfo})
	if err != nil {
		t.Fatalf("read-keyinfo failed: %v", err)
	}
	if info.Info.DataType != smc.TagFloat32 || info.Info.DataSize != 4 {
		t.Fatalf("unexpected keyInfo: %+v", info.Info)
	}

	// Phase 2: payload read with the learned size.
	resp, err := exchange(t, port, &smc.Request{
		Key:   smc.MustKey("TC0P"),
		Info:  smc.KeyInfo{DataSize: info.Info.DataSize},
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
}

// TestForwardedErrorKeepsCode tests that device-side errors come back
// with their typed code instead of collapsing to a generic failure.
func TestForwardedErrorKeepsCode(t *testing.T) {
	endpoint, stop := startAgent(t, sim.New())
	defer stop()

	port, err := Dial("tcp", endpoint, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to dial agent: %v", err)
	}
	defer port.Close()

	_, err = exchange(t, port, &smc.Request{Key: smc.MustKey("ZZZZ"), Data8: smc.CmdReadKeyInfo})
	if smc.CodeOf(err) != smc.ErrCCommunication {
		t.Errorf("expected Communication error, got %v", err)
	}
}

// TestCallBufferValidation tests the exact-size contract on the client
// side before anything touches the socket.
func TestCallBufferValidation(t *testing.T) {
	endpoint, stop := startAgent(t, sim.NewDemo())
	defer stop()

	port, err := Dial("tcp", endpoint, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to dial agent: %v", err)
	}
	defer port.Close()

	in := make([]byte, smc.FrameSize)
	if err := port.Call(channel.CommandIndex, in, make([]byte, smc.FrameSize-8)); smc.CodeOf(err) != smc.ErrCFrameSize {
		t.Errorf("expected FrameSize error for short out buffer, got %v", err)
	}
	if err := port.Call(channel.CommandIndex, in[:4], make([]byte, smc.FrameSize)); smc.CodeOf(err) != smc.ErrCFrameSize {
		t.Errorf("expected FrameSize error for short in buffer, got %v", err)
	}
}

// TestDialFailures tests locator error codes for unknown networks and
// unreachable endpoints.
func TestDialFailures(t *testing.T) {
	if _, err := Dial("carrier-pigeon", "x", 0); smc.CodeOf(err) != smc.ErrCNotFound {
		t.Errorf("expected NotFound error for unknown network, got %v", err)
	}

	// Nothing listens here.
	if _, err := Dial("tcp", "127.0.0.1:1", time.Second); smc.CodeOf(err) != smc.ErrCOpenFailed {
		t.Errorf("expected OpenFailed error for unreachable endpoint, got %v", err)
	}
}

// TestPortCloseTwice tests that double close reports a failure without
// crashing, mirroring the channel close contract.
func TestPortCloseTwice(t *testing.T) {
	endpoint, stop := startAgent(t, sim.NewDemo())
	defer stop()

	port, err := Dial("tcp", endpoint, time.Second)
	if err != nil {
		t.Fatalf("failed to dial agent: %v", err)
	}

	if err := port.Close(); err != nil {
		t.Errorf("first close failed: %v", err)
	}
	if err := port.Close(); smc.CodeOf(err) != smc.ErrCCommunication {
		t.Errorf("expected Communication error on double close, got %v", err)
	}
}
