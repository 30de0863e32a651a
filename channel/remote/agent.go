package remote

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/lib/smc"
)

// --------------------------------------------------------------------------
// Agent
// --------------------------------------------------------------------------

// Agent serves a ServicePort to remote clients. Every exchange a client
// sends is forwarded to the hosted port; call failures travel back with
// their error code, so the client-side port can rebuild the same typed
// error.
type Agent struct {
	port    channel.ServicePort
	timeout time.Duration

	mu       sync.Mutex
	listener net.Listener
}

// NewAgent creates an agent hosting the given port. The timeout bounds
// per-frame socket reads and writes; zero disables deadlines.
func NewAgent(port channel.ServicePort, timeout time.Duration) *Agent {
	return &Agent{port: port, timeout: timeout}
}

// Listen creates a listener on the endpoint and serves it. It blocks
// until Shutdown is called or the listener fails.
func (a *Agent) Listen(network, endpoint string) error {
	if _, err := connectorFor(network); err != nil {
		return err
	}

	listener, err := net.Listen(network, endpoint)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	return a.Serve(listener)
}

// Serve accepts connections on an existing listener. Exposed separately
// so tests can listen on an ephemeral port first.
func (a *Agent) Serve(listener net.Listener) error {
	a.mu.Lock()
	a.listener = listener
	a.mu.Unlock()

	Logger.Infof("agent serving on %s", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			Logger.Errorf("accept error: %v", err)
			continue
		}
		go a.handleConnection(conn)
	}
}

// Shutdown closes the listener; in-flight connections finish their
// current exchange and terminate on the next read.
func (a *Agent) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	err := a.listener.Close()
	a.listener = nil
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection forwards exchanges for one connection sequentially.
// The protocol allows a single exchange in flight per connection, so no
// per-connection worker pool is needed.
func (a *Agent) handleConnection(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, headerSize+smc.FrameSize)

	for {
		if a.timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(a.timeout)); err != nil {
				Logger.Errorf("failed to set read deadline: %v", err)
				return
			}
		}

		index, data, err := readFrame(conn, buf)
		if err == io.EOF {
			Logger.Debugf("connection closed by client")
			return
		}
		if err != nil {
			Logger.Errorf("error reading exchange: %v", err)
			return
		}

		status, payload := a.dispatch(index, data)

		if a.timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(a.timeout)); err != nil {
				Logger.Errorf("failed to set write deadline: %v", err)
				return
			}
		}
		if err := writeFrame(conn, status, payload); err != nil {
			Logger.Errorf("failed to write reply: %v", err)
			return
		}
	}
}

// dispatch runs one exchange against the hosted port and shapes the reply.
func (a *Agent) dispatch(index uint32, data []byte) (uint32, []byte) {
	if len(data) != smc.FrameSize {
		err := smc.NewError(smc.ErrCFrameSize, fmt.Sprintf("exchange frame must be %d bytes, got %d", smc.FrameSize, len(data)))
		return uint32(err.Code), []byte(err.Msg)
	}

	out := make([]byte, smc.FrameSize)
	if err := a.port.Call(index, data, out); err != nil {
		code := smc.CodeOf(err)
		if code == smc.ErrCSuccess || code == smc.ErrCUnknown {
			code = smc.ErrCCommunication
		}
		return uint32(code), []byte(err.Error())
	}
	return 0, out
}
