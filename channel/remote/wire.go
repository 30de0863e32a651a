package remote

import (
	"encoding/binary"
	"io"
	"net"
)

// The agent wire format is one frame per exchange, in both directions:
//
//	request:  4 bytes command index (big endian) | 4 bytes length | payload
//	response: 4 bytes status code (big endian)   | 4 bytes length | payload
//
// On success the response payload is the exchange frame; on failure the
// status carries an smc.ErrCode and the payload the error text.

const headerSize = 8

// maxPayload bounds what a peer may make us allocate. Exchange frames are
// tiny; anything larger is a protocol violation.
const maxPayload = 4096

// writeFrame writes one frame to the connection.
func writeFrame(conn net.Conn, tag uint32, data []byte) error {
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[:4], tag)
	binary.BigEndian.PutUint32(header[4:8], uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads one frame from the connection using the provided buffer.
// If the buffer is too small a temporary one is allocated.
func readFrame(conn net.Conn, buf []byte) (uint32, []byte, error) {
	if len(buf) < headerSize {
		buf = make([]byte, headerSize)
	}

	if _, err := io.ReadFull(conn, buf[:headerSize]); err != nil {
		return 0, nil, err
	}

	tag := binary.BigEndian.Uint32(buf[:4])
	contentLength := binary.BigEndian.Uint32(buf[4:8])

	if contentLength == 0 {
		return tag, []byte{}, nil
	}
	if contentLength > maxPayload {
		return 0, nil, io.ErrUnexpectedEOF
	}

	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}
	if _, err := io.ReadFull(conn, buf[:contentLength]); err != nil {
		return 0, nil, err
	}

	return tag, buf[:contentLength], nil
}
