// Package client implements the key query protocol on top of a channel:
// the mandatory two-phase read (metadata lookup, then payload read), key
// enumeration through the well-known "#KEY" count and the read-index
// command, and a lenient convenience tier that trades error reporting for
// ergonomic defaults.
//
// Two API tiers exist deliberately. The Client methods form the strict
// tier: every failure is surfaced with its code and nothing is hidden.
// The Lenient wrapper is built strictly on top of the Client and maps
// every failure kind to a configured neutral default. Both share the same
// protocol logic; pick the tier that matches how much the caller cares
// about why a read failed.
package client

import (
	"encoding/binary"
	"fmt"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/lib/smc"
)

var Logger = logger.GetLogger("client")

// --------------------------------------------------------------------------
// Client (strict tier)
// --------------------------------------------------------------------------

// Client issues protocol operations through an Exchanger. It holds no
// state of its own: every read is a fresh exchange sequence, nothing is
// cached.
type Client struct {
	ch channel.Exchanger
}

// New creates a client on top of an open channel (or any Exchanger).
func New(ch channel.Exchanger) *Client {
	return &Client{ch: ch}
}

// ReadKey reads one value: first the key's metadata, then - told the
// learned size - its payload. The two round trips are mandatory in this
// order; the controller will not return a correctly sized payload without
// being told the expected size, and the size is not known a priori.
//
// Any non-success status from either exchange aborts the whole read and
// is returned verbatim. There is no partial result: a failed read means
// "no data", never "stale data".
func (c *Client) ReadKey(key smc.Key) (*smc.Value, error) {
	// Exchange #1: discover size and type.
	req := &smc.Request{Key: key, Data8: smc.CmdReadKeyInfo}
	resp, err := c.ch.Exchange(req)
	if err != nil {
		return nil, err
	}

	info := resp.Info
	if info.DataSize > smc.PayloadSize {
		return nil, smc.NewError(smc.ErrCCommunication,
			fmt.Sprintf("key %s reports %d payload bytes, limit is %d", key, info.DataSize, smc.PayloadSize))
	}

	// Exchange #2: fetch the payload, presenting the learned size.
	req = &smc.Request{
		Key:   key,
		Info:  smc.KeyInfo{DataSize: info.DataSize},
		Data8: smc.CmdReadBytes,
	}
	resp, err = c.ch.Exchange(req)
	if err != nil {
		return nil, err
	}

	return &smc.Value{Key: key, Info: info, Bytes: resp.Bytes}, nil
}

// ReadKeyString is ReadKey for a textual key.
func (c *Client) ReadKeyString(name string) (*smc.Value, error) {
	key, err := smc.ParseKey(name)
	if err != nil {
		return nil, err
	}
	return c.ReadKey(key)
}

// ReadFloat reads a key and strictly decodes it as a 32-bit float.
func (c *Client) ReadFloat(key smc.Key) (float32, error) {
	v, err := c.ReadKey(key)
	if err != nil {
		return 0, err
	}
	return v.Float32()
}

// --------------------------------------------------------------------------
// Enumeration
// --------------------------------------------------------------------------

// KeyCount reads the well-known "#KEY" key and interprets its payload as
// a big-endian unsigned count. The payload is decoded positionally
// regardless of the reported type tag; controllers report ui32 here, but
// the count is usable either way.
func (c *Client) KeyCount() (uint32, error) {
	v, err := c.ReadKey(smc.KeyCount)
	if err != nil {
		return 0, err
	}
	if v.Info.DataSize < 4 {
		return 0, smc.NewError(smc.ErrCTypeMismatch,
			fmt.Sprintf("key %s reports %d payload bytes, count needs 4", v.Key, v.Info.DataSize))
	}
	return binary.BigEndian.Uint32(v.Bytes[:4]), nil
}

// KeyAtIndex maps a numeric key index back to its textual key. This is a
// single one-phase exchange: the controller returns the key identifier
// directly in the frame's key field, so no size/type discovery applies.
func (c *Client) KeyAtIndex(index uint32) (smc.Key, error) {
	req := &smc.Request{Data8: smc.CmdReadIndex, Data32: index}
	resp, err := c.ch.Exchange(req)
	if err != nil {
		return smc.Key{}, err
	}
	return resp.Key, nil
}

// Keys enumerates the full key namespace by count plus indexed lookup.
func (c *Client) Keys() ([]smc.Key, error) {
	count, err := c.KeyCount()
	if err != nil {
		return nil, err
	}

	keys := make([]smc.Key, 0, count)
	for i := uint32(0); i < count; i++ {
		key, err := c.KeyAtIndex(i)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
