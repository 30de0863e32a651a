// Package channel owns the handle to the management controller service
// and issues structured request/response exchanges through it. One opaque
// synchronous call primitive is reused for every operation - metadata
// query, payload read, indexed key lookup - by varying only the command
// selector inside the frame. This keeps the wire contract uniform and
// auditable.
//
// A Channel holds no session state beyond the port itself: exchanges are
// stateless relative to each other, so multiple independently opened
// channels may be used concurrently from different goroutines. Closing a
// channel that another goroutine is mid-exchange on is undefined and must
// be prevented by ownership discipline, exactly one logical owner per
// channel.
package channel

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/smclab/gosmc/lib/smc"
)

var Logger = logger.GetLogger("channel")

// CommandIndex is the single logical command index used for every
// exchange. It identifies the SMC command interface inside the kernel
// service; the actual operation is selected by the data8 field of the
// frame, not by this index.
const CommandIndex uint32 = 2

var (
	exchangesTotal = metrics.NewCounter(`smc_exchanges_total`)
	exchangeErrors = metrics.NewCounter(`smc_exchange_errors_total`)
)

// --------------------------------------------------------------------------
// Channel
// --------------------------------------------------------------------------

// Channel owns one open port to the controller service.
type Channel struct {
	port ServicePort
}

// Open locates the controller service through the given locator and wraps
// the opened port in a Channel. Discovery failures keep their NotFound or
// OpenFailed codes; untyped locator errors are reported as OpenFailed.
func Open(loc Locator) (*Channel, error) {
	if loc == nil {
		return nil, smc.NewError(smc.ErrCNotFound, "no service locator provided")
	}

	port, err := loc.Locate()
	if err != nil {
		if smc.CodeOf(err) != smc.ErrCUnknown {
			return nil, err
		}
		return nil, smc.NewError(smc.ErrCOpenFailed, fmt.Sprintf("failed to open controller service: %v", err))
	}
	if port == nil {
		return nil, smc.NewError(smc.ErrCNotFound, "locator returned no controller service")
	}

	return &Channel{port: port}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see Exchanger)
// --------------------------------------------------------------------------

// Exchange sends one fixed-size request structure and receives the
// fixed-size response structure through a single synchronous call into
// the service. Any non-success status from the call, including a
// size-mismatch rejection by the OS layer, surfaces as a Communication
// error - never as a truncated or garbage payload.
func (c *Channel) Exchange(req *smc.Request) (*smc.Response, error) {
	if c == nil || c.port == nil {
		return nil, smc.NewError(smc.ErrCCommunication, "channel is not open")
	}

	in := req.Encode()
	out := make([]byte, smc.FrameSize)

	exchangesTotal.Inc()
	if err := c.port.Call(CommandIndex, in, out); err != nil {
		exchangeErrors.Inc()
		if smc.CodeOf(err) != smc.ErrCUnknown {
			return nil, err
		}
		return nil, smc.NewError(smc.ErrCCommunication, fmt.Sprintf("exchange for key %s (cmd %d) failed: %v", req.Key, req.Data8, err))
	}

	resp, err := smc.DecodeResponse(out)
	if err != nil {
		exchangeErrors.Inc()
		return nil, err
	}
	return resp, nil
}

// Close releases the port. Closing a channel that was never successfully
// opened does not crash; it reports the failure instead.
func (c *Channel) Close() error {
	if c == nil || c.port == nil {
		return smc.NewError(smc.ErrCNotFound, "close: channel was never opened")
	}
	err := c.port.Close()
	c.port = nil
	return err
}
