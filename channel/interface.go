package channel

import (
	"github.com/smclab/gosmc/lib/smc"
)

// --------------------------------------------------------------------------
// OS Collaborator Interfaces
// --------------------------------------------------------------------------

// ServicePort is the OS-level connect/call/close triad this package builds
// on. A port wraps one opened connection to the controller service.
//
// Call is synchronous and blocking: it sends the fixed-size request buffer
// and fills the fixed-size response buffer in a single round trip, and
// must reject buffers whose sizes differ from the structure contract
// instead of truncating. There is no timeout or cancellation at this
// layer; bounded-time behavior is a caller concern.
type ServicePort interface {
	// Call issues one structured exchange under the given logical command
	// index. Both in and out must be exactly smc.FrameSize bytes.
	Call(index uint32, in []byte, out []byte) error
	// Close releases the connection. The result of the underlying release
	// is returned verbatim and never retried.
	Close() error
}

// Locator is the service-discovery collaborator: it finds the single
// matching controller service known to the operating system and opens a
// port to it. Per-candidate discovery resources (iterators, unopened
// device handles) are scoped inside Locate and released on every path;
// only the returned port survives, owned by the caller until Close.
type Locator interface {
	Locate() (ServicePort, error)
}

// --------------------------------------------------------------------------
// Exchange Interface
// --------------------------------------------------------------------------

// Exchanger is the request/response primitive the protocol layers consume.
// *Channel is the canonical implementation; tests substitute scripted
// fakes to observe exchange counts and inject faults.
type Exchanger interface {
	Exchange(req *smc.Request) (*smc.Response, error)
}
