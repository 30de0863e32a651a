package client

// --------------------------------------------------------------------------
// Lenient Tier
// --------------------------------------------------------------------------

// Lenient is the convenience tier: every failure - communication and type
// mismatch alike - collapses to a neutral default value. This is a
// deliberate ergonomic trade-off for callers without an error channel
// (display loops, metric samplers); anything that needs to know why a
// read failed uses the Client directly.
type Lenient struct {
	c *Client

	// FloatDefault is returned by FloatValue on any failure. Zero unless
	// configured otherwise.
	FloatDefault float64
}

// NewLenient wraps a strict client.
func NewLenient(c *Client) *Lenient {
	return &Lenient{c: c}
}

// FloatValue reads a key and decodes it as a float, returning the default
// when the key cannot be read or does not carry a float payload.
func (l *Lenient) FloatValue(name string) float64 {
	v, err := l.c.ReadKeyString(name)
	if err != nil {
		Logger.Debugf("lenient float read of %q failed: %v", name, err)
		return l.FloatDefault
	}
	f, err := v.Float32()
	if err != nil {
		Logger.Debugf("lenient float decode of %q failed: %v", name, err)
		return l.FloatDefault
	}
	return float64(f)
}

// UintValue reads a key and decodes it as an unsigned integer, returning
// 0 on any failure.
func (l *Lenient) UintValue(name string) uint64 {
	v, err := l.c.ReadKeyString(name)
	if err != nil {
		Logger.Debugf("lenient uint read of %q failed: %v", name, err)
		return 0
	}
	n, err := v.Uint()
	if err != nil {
		Logger.Debugf("lenient uint decode of %q failed: %v", name, err)
		return 0
	}
	return n
}

// KeyCount returns the total key count, or 0 on any failure.
func (l *Lenient) KeyCount() uint32 {
	n, err := l.c.KeyCount()
	if err != nil {
		Logger.Debugf("lenient key count failed: %v", err)
		return 0
	}
	return n
}
