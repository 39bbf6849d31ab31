package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MessageReader reads length-prefixed CBOR messages from a stream
type MessageReader struct {
	reader io.Reader
	limits Limits
}

// NewMessageReader creates a new MessageReader
func NewMessageReader(r io.Reader) *MessageReader {
	return &MessageReader{
		reader: r,
		limits: DefaultLimits(),
	}
}

// SetLimits updates the reader's limits
func (mr *MessageReader) SetLimits(limits Limits) {
	mr.limits = limits.Normalize()
}

// ReadMessage reads a single message from the stream.
// io.EOF is returned unwrapped when the peer closed between messages.
func (mr *MessageReader) ReadMessage() (*Message, error) {
	// Read 4-byte length prefix (big-endian)
	var lengthBuf [4]byte
	if _, err := io.ReadFull(mr.reader, lengthBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBuf[:])

	// Enforce max_frame limit
	if int64(length) > int64(mr.limits.MaxFrame) {
		return nil, fmt.Errorf("frame size %d exceeds max_frame limit %d", length, mr.limits.MaxFrame)
	}

	// Hard limit check
	if int64(length) > int64(MaxFrameHardLimit) {
		return nil, fmt.Errorf("frame size %d exceeds hard limit %d", length, MaxFrameHardLimit)
	}

	frameBuf := make([]byte, length)
	if _, err := io.ReadFull(mr.reader, frameBuf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return DecodeMessage(frameBuf)
}

// MessageWriter writes length-prefixed CBOR messages to a stream
type MessageWriter struct {
	writer io.Writer
	limits Limits
}

// NewMessageWriter creates a new MessageWriter
func NewMessageWriter(w io.Writer) *MessageWriter {
	return &MessageWriter{
		writer: w,
		limits: DefaultLimits(),
	}
}

// SetLimits updates the writer's limits
func (mw *MessageWriter) SetLimits(limits Limits) {
	mw.limits = limits.Normalize()
}

// WriteMessage writes a single message to the stream
func (mw *MessageWriter) WriteMessage(kind MessageKind, payload any) error {
	frameBuf, err := EncodeMessage(kind, payload)
	if err != nil {
		return err
	}

	// Enforce max_frame limit
	if len(frameBuf) > mw.limits.MaxFrame {
		return fmt.Errorf("encoded %s frame size %d exceeds max_frame limit %d", kind, len(frameBuf), mw.limits.MaxFrame)
	}

	// Hard limit check
	if len(frameBuf) > MaxFrameHardLimit {
		return fmt.Errorf("encoded %s frame size %d exceeds hard limit %d", kind, len(frameBuf), MaxFrameHardLimit)
	}

	// One write per frame: 4-byte length prefix (big-endian) + CBOR body
	buf := make([]byte, 4+len(frameBuf))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(frameBuf)))
	copy(buf[4:], frameBuf)
	_, err = mw.writer.Write(buf)
	return err
}
