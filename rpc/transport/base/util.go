package base

import (
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/openpeers/wirecall/rpc/common"
)

// frameHeaderSize is the size of the length prefix in front of every frame.
const frameHeaderSize = 4

// writeFrame writes one frame to the connection with the format:
// - 4 bytes: body length (uint32, big endian)
// - N bytes: body
// net.Buffers resumes partial writes until everything is flushed or the
// write deadline elapses.
func writeFrame(conn net.Conn, body []byte) error {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(body)))

	b := net.Buffers{header, body}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads one frame from the connection. The 4-byte length header
// is read first and validated against maxFrameSize before any buffer is
// allocated for the body, so a malicious peer cannot force an allocation
// proportional to a bogus declared length.
func readFrame(conn net.Conn, maxFrameSize int) ([]byte, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, classifyIOError(err, "read length header", conn.RemoteAddr().String())
	}

	length := binary.BigEndian.Uint32(header)
	// A length with the high bit set is negative for peers that treat the
	// field as signed; reject it together with everything over the limit.
	if int64(length) > int64(maxFrameSize) {
		return nil, common.Errorf(common.ErrProtocol,
			"peer declared frame length %d, limit is %d", length, maxFrameSize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, classifyIOError(err, "read body", conn.RemoteAddr().String())
	}
	return body, nil
}

// classifyIOError maps raw connection errors onto the error taxonomy.
// Deadline hits and unexpected peer closes land in the same I/O timeout
// category for the caller, an early close is logged distinctly.
func classifyIOError(err error, phase, endpoint string) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.WrapError(common.ErrIOTimeout, err, "i/o deadline exceeded during %s", phase)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		Logger.Warningf("peer %s closed the connection during %s: %v", endpoint, phase, err)
		return common.WrapError(common.ErrIOTimeout, err, "unexpected peer close during %s", phase)
	}
	return common.WrapError(common.ErrIOTimeout, err, "i/o failure during %s", phase)
}
