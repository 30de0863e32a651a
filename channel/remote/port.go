// Package remote forwards controller exchanges over a unix or tcp socket
// to an agent process that holds the actual ServicePort (normally a
// simulated device, or a real port on a machine that has one). The wire
// protocol is strictly synchronous: one exchange in flight per
// connection, serialized by a mutex, matching the blocking semantics of
// the kernel call it stands in for.
package remote

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/lib/smc"
)

var Logger = logger.GetLogger("remote")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// Connector defines the transport-specific dial operation.
type Connector interface {
	// Dial establishes a single connection to the endpoint
	Dial(endpoint string) (net.Conn, error)

	// Name returns the name of the transport type (e.g. "unix", "tcp")
	Name() string
}

type tcpConnector struct{}

func (tcpConnector) Name() string { return "tcp" }
func (tcpConnector) Dial(endpoint string) (net.Conn, error) { return net.Dial("tcp", endpoint) }

type unixConnector struct{}

func (unixConnector) Name() string { return "unix" }
func (unixConnector) Dial(endpoint string) (net.Conn, error) { return net.Dial("unix", endpoint) }

// connectorFor maps a network name to its connector.
func connectorFor(network string) (Connector, error) {
	switch network {
	case "tcp":
		return tcpConnector{}, nil
	case "unix":
		return unixConnector{}, nil
	default:
		return nil, smc.NewError(smc.ErrCNotFound, fmt.Sprintf("unknown network %q, want tcp or unix", network))
	}
}

// --------------------------------------------------------------------------
// Port
// --------------------------------------------------------------------------

// Port is a channel.ServicePort backed by an agent connection.
type Port struct {
	conn    net.Conn
	mu      sync.Mutex // serializes exchanges and protects conn
	timeout time.Duration
	buf     []byte // reused response read buffer
}

// Dial connects to an agent and returns the port. A zero timeout means
// the underlying calls block indefinitely, like the kernel primitive.
func Dial(network, endpoint string, timeout time.Duration) (*Port, error) {
	connector, err := connectorFor(network)
	if err != nil {
		return nil, err
	}

	conn, err := connector.Dial(endpoint)
	if err != nil {
		return nil, smc.NewError(smc.ErrCOpenFailed, fmt.Sprintf("failed to connect to %s agent at %s: %v", connector.Name(), endpoint, err))
	}

	Logger.Infof("connected to %s agent at %s", connector.Name(), endpoint)
	return &Port{conn: conn, timeout: timeout, buf: make([]byte, headerSize+smc.FrameSize)}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see channel.ServicePort)
// --------------------------------------------------------------------------

func (p *Port) Call(index uint32, in []byte, out []byte) error {
	if len(in) != smc.FrameSize || len(out) != smc.FrameSize {
		return smc.NewError(smc.ErrCFrameSize,
			fmt.Sprintf("call buffers must be %d bytes, got in=%d out=%d", smc.FrameSize, len(in), len(out)))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return smc.NewError(smc.ErrCCommunication, "port is closed")
	}

	if p.timeout > 0 {
		if err := p.conn.SetDeadline(time.Now().Add(p.timeout)); err != nil {
			return smc.NewError(smc.ErrCCommunication, fmt.Sprintf("failed to set deadline: %v", err))
		}
	}

	if err := writeFrame(p.conn, index, in); err != nil {
		return smc.NewError(smc.ErrCCommunication, fmt.Sprintf("failed to send exchange: %v", err))
	}

	status, payload, err := readFrame(p.conn, p.buf)
	if err != nil {
		return smc.NewError(smc.ErrCCommunication, fmt.Sprintf("failed to read exchange reply: %v", err))
	}

	// Non-zero status carries the agent-side error code and message.
	if status != 0 {
		return smc.NewError(smc.ErrCode(status), string(payload))
	}

	if len(payload) != smc.FrameSize {
		return smc.NewError(smc.ErrCCommunication,
			fmt.Sprintf("agent reply is %d bytes, want %d", len(payload), smc.FrameSize))
	}

	copy(out, payload)
	return nil
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return smc.NewError(smc.ErrCCommunication, "port already closed")
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// --------------------------------------------------------------------------
// Locator
// --------------------------------------------------------------------------

// Locator opens a channel port by dialing an agent endpoint.
type Locator struct {
	Network  string
	Endpoint string
	Timeout  time.Duration
}

// Locate implements channel.Locator.
func (l Locator) Locate() (channel.ServicePort, error) {
	return Dial(l.Network, l.Endpoint, l.Timeout)
}
