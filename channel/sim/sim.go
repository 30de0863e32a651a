// Package sim provides an in-process simulated management controller. It
// implements the same ServicePort contract as a real kernel service port,
// so the whole protocol stack - channel, two-phase reads, enumeration,
// decoding - can be exercised without darwin hardware. The serve command
// also hosts a simulated device behind the remote agent for integration
// setups.
package sim

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/lib/smc"
)

var Logger = logger.GetLogger("sim")

// --------------------------------------------------------------------------
// Device
// --------------------------------------------------------------------------

// entry is one stored key with its type tag and payload.
type entry struct {
	tag  smc.TypeTag
	data []byte
}

// Device is an in-memory controller. The key table is a concurrent map;
// the enumeration order list is guarded separately because read-index
// needs stable positions.
type Device struct {
	table *xsync.MapOf[smc.Key, entry]

	mu     sync.Mutex
	order  []smc.Key
	closed bool
}

// New creates an empty simulated controller.
func New() *Device {
	return &Device{
		table: xsync.NewMapOf[smc.Key, entry](),
	}
}

// NewDemo creates a controller pre-seeded with a handful of plausible
// sensor keys, for local experimentation with the CLI.
func NewDemo() *Device {
	d := New()
	d.SetFloat(smc.MustKey("TC0P"), 42.5)  // CPU proximity temperature
	d.SetFloat(smc.MustKey("TG0P"), 38.25) // GPU proximity temperature
	d.SetFloat(smc.MustKey("F0Ac"), 1780)  // fan 0 actual speed
	d.Set(smc.MustKey("FNum"), smc.TagUint8, []byte{1})
	return d
}

// Set stores a key with an explicit type tag and payload. Payloads longer
// than the frame's payload buffer are truncated on store, matching the
// controller-side size limit.
func (d *Device) Set(key smc.Key, tag smc.TypeTag, data []byte) {
	if len(data) > smc.PayloadSize {
		data = data[:smc.PayloadSize]
	}
	stored := make([]byte, len(data))
	copy(stored, data)

	_, loaded := d.table.LoadAndStore(key, entry{tag: tag, data: stored})
	if !loaded {
		d.mu.Lock()
		d.order = append(d.order, key)
		d.mu.Unlock()
	}
}

// SetFloat stores a "flt " key with the platform (little-endian) byte
// representation of the value.
func (d *Device) SetFloat(key smc.Key, v float32) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
	d.Set(key, smc.TagFloat32, buf)
}

// keyAt returns the key at an enumeration index.
func (d *Device) keyAt(i uint32) (smc.Key, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(i) >= len(d.order) {
		return smc.Key{}, false
	}
	return d.order[i], true
}

// count returns the number of keys the device would report via "#KEY".
func (d *Device) count() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return uint32(len(d.order))
}

// --------------------------------------------------------------------------
// Interface Methods (docu see channel.ServicePort)
// --------------------------------------------------------------------------

func (d *Device) Call(index uint32, in []byte, out []byte) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return smc.NewError(smc.ErrCCommunication, "device is closed")
	}

	if index != channel.CommandIndex {
		return smc.NewError(smc.ErrCCommunication, fmt.Sprintf("unknown command index %d", index))
	}
	if len(out) != smc.FrameSize {
		return smc.NewError(smc.ErrCFrameSize, fmt.Sprintf("response buffer must be %d bytes, got %d", smc.FrameSize, len(out)))
	}

	req, err := smc.DecodeRequest(in)
	if err != nil {
		return err
	}

	resp, err := d.handle(req)
	if err != nil {
		return err
	}
	copy(out, resp.Encode())
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return smc.NewError(smc.ErrCCommunication, "device already closed")
	}
	d.closed = true
	return nil
}

// --------------------------------------------------------------------------
// Command Handling
// --------------------------------------------------------------------------

// handle dispatches one decoded request by its command selector.
func (d *Device) handle(req *smc.Request) (*smc.Response, error) {
	switch req.Data8 {
	case smc.CmdReadKeyInfo:
		return d.handleReadKeyInfo(req)
	case smc.CmdReadBytes:
		return d.handleReadBytes(req)
	case smc.CmdReadIndex:
		return d.handleReadIndex(req)
	default:
		return nil, smc.NewError(smc.ErrCCommunication, fmt.Sprintf("unsupported command selector %d", req.Data8))
	}
}

// lookup resolves a key, synthesizing the well-known "#KEY" entry from the
// table size.
func (d *Device) lookup(key smc.Key) (entry, bool) {
	if key == smc.KeyCount {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, d.count())
		return entry{tag: smc.TagUint32, data: buf}, true
	}
	return d.table.Load(key)
}

func (d *Device) handleReadKeyInfo(req *smc.Request) (*smc.Response, error) {
	e, ok := d.lookup(req.Key)
	if !ok {
		return nil, smc.NewError(smc.ErrCCommunication, fmt.Sprintf("key %s not found", req.Key))
	}

	return &smc.Response{
		Key: req.Key,
		Info: smc.KeyInfo{
			DataSize: uint32(len(e.data)),
			DataType: e.tag,
		},
	}, nil
}

func (d *Device) handleReadBytes(req *smc.Request) (*smc.Response, error) {
	e, ok := d.lookup(req.Key)
	if !ok {
		return nil, smc.NewError(smc.ErrCCommunication, fmt.Sprintf("key %s not found", req.Key))
	}

	// The controller only returns a correctly sized payload when told the
	// expected size up front. A stale or guessed size fails the call.
	if req.Info.DataSize != uint32(len(e.data)) {
		return nil, smc.NewError(smc.ErrCCommunication,
			fmt.Sprintf("key %s: requested %d payload bytes, key holds %d", req.Key, req.Info.DataSize, len(e.data)))
	}

	resp := &smc.Response{
		Key: req.Key,
		Info: smc.KeyInfo{
			DataSize: uint32(len(e.data)),
			DataType: e.tag,
		},
	}
	copy(resp.Bytes[:], e.data)
	return resp, nil
}

func (d *Device) handleReadIndex(req *smc.Request) (*smc.Response, error) {
	key, ok := d.keyAt(req.Data32)
	if !ok {
		return nil, smc.NewError(smc.ErrCCommunication, fmt.Sprintf("key index %d out of range", req.Data32))
	}
	return &smc.Response{Key: key}, nil
}

// --------------------------------------------------------------------------
// Locator
// --------------------------------------------------------------------------

// Locator opens a channel port to an in-process device. A nil device
// models the "no matching service" discovery outcome.
type Locator struct {
	Device *Device
}

// Locate implements channel.Locator.
func (l Locator) Locate() (channel.ServicePort, error) {
	if l.Device == nil {
		return nil, smc.NewError(smc.ErrCNotFound, "no simulated controller configured")
	}
	return l.Device, nil
}
