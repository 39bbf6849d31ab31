package ipc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type setValuePayload struct {
	_        struct{} `cbor:",toarray"`
	Key      []byte
	IsDelete bool
	Value    []byte
}

// TEST201: Every message kind has a name; unknown kinds are marked
func Test201_message_kind_names(t *testing.T) {
	names := map[MessageKind]string{
		MessageVersion:    "VERSION",
		MessageInvoke:     "INVOKE",
		MessageResult:     "RESULT",
		MessageGetValue:   "GETVALUE",
		MessageSetValue:   "SETVALUE",
		MessageCall:       "CALL",
		MessageEvent:      "EVENT",
		MessageGetInfo:    "GETINFO",
		MessageGetBalance: "GETBALANCE",
		MessageGetAPI:     "GETAPI",
		MessageLog:        "LOG",
		MessageClose:      "CLOSE",
	}
	for k, name := range names {
		assert.Equal(t, name, k.String())
	}
	assert.Equal(t, "UNKNOWN(12)", MessageKind(12).String())
}

// TEST202: Message body is the CBOR array [kind, payload]
func Test202_message_body_layout(t *testing.T) {
	data, err := EncodeMessage(MessageGetValue, []byte{0xaa})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0x03, 0x41, 0xaa}, data)

	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, MessageGetValue, msg.Kind)

	var key []byte
	require.NoError(t, msg.Unmarshal(&key))
	assert.Equal(t, []byte{0xaa}, key)
}

// TEST203: Structured payloads survive a writer/reader round trip
func Test203_reader_writer_roundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewMessageWriter(&buf)
	r := NewMessageReader(&buf)

	require.NoError(t, w.WriteMessage(MessageSetValue, setValuePayload{Key: []byte("k"), IsDelete: true, Value: []byte{}}))
	require.NoError(t, w.WriteMessage(MessageClose, nil))

	msg, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, MessageSetValue, msg.Kind)
	var sv setValuePayload
	require.NoError(t, msg.Unmarshal(&sv))
	assert.Equal(t, []byte("k"), sv.Key)
	assert.True(t, sv.IsDelete)

	msg, err = r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, MessageClose, msg.Kind)

	_, err = r.ReadMessage()
	assert.Equal(t, io.EOF, err, "clean EOF between frames")
}

// TEST204: Oversize frames are rejected on both sides
func Test204_frame_limits(t *testing.T) {
	var buf bytes.Buffer
	w := NewMessageWriter(&buf)
	w.SetLimits(Limits{MaxFrame: 16})
	err := w.WriteMessage(MessageGetValue, make([]byte, 64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_frame")
	assert.Equal(t, 0, buf.Len(), "nothing written for a rejected frame")

	big := NewMessageWriter(&buf)
	require.NoError(t, big.WriteMessage(MessageGetValue, make([]byte, 64)))
	r := NewMessageReader(&buf)
	r.SetLimits(Limits{MaxFrame: 16})
	_, err = r.ReadMessage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_frame")
}

// TEST205: A frame cut short is an unexpected EOF, not a clean close
func Test205_truncated_frame(t *testing.T) {
	data, err := EncodeMessage(MessageGetInfo, []byte{})
	require.NoError(t, err)
	frame := append([]byte{0, 0, 0, byte(len(data))}, data[:len(data)-1]...)

	_, err = NewMessageReader(bytes.NewReader(frame)).ReadMessage()
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

// TEST206: Bodies that are not [kind, payload] are rejected
func Test206_malformed_body(t *testing.T) {
	_, err := DecodeMessage([]byte{0x01})
	assert.Error(t, err)

	bad, err := cbor.Marshal([]any{uint64(1)})
	require.NoError(t, err)
	_, err = DecodeMessage(bad)
	assert.Error(t, err)
}

// TEST207: Limits normalise to defaults and the hard limit
func Test207_limits_normalize(t *testing.T) {
	assert.Equal(t, DefaultMaxFrame, Limits{}.Normalize().MaxFrame)
	assert.Equal(t, MaxFrameHardLimit, Limits{MaxFrame: MaxFrameHardLimit * 2}.Normalize().MaxFrame)
	assert.Equal(t, 1024, Limits{MaxFrame: 1024}.Normalize().MaxFrame)
}

// TEST208: Client request/reply over a pipe
func Test208_client_send_and_receive(t *testing.T) {
	local, remote := net.Pipe()
	client := NewClient(local)
	peer := NewClient(remote)
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		msg, err := peer.Receive()
		if err != nil {
			done <- err
			return
		}
		var key []byte
		if err := msg.Unmarshal(&key); err != nil {
			done <- err
			return
		}
		done <- peer.Send(MessageGetValue, []any{true, append(key, '!')})
	}()

	msg, err := client.SendAndReceive(MessageGetValue, []byte("key"))
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, MessageGetValue, msg.Kind)

	var reply struct {
		_     struct{} `cbor:",toarray"`
		Found bool
		Value []byte
	}
	require.NoError(t, msg.Unmarshal(&reply))
	assert.True(t, reply.Found)
	assert.Equal(t, []byte("key!"), reply.Value)

	require.NoError(t, peer.Close())
	_, err = client.Receive()
	assert.Equal(t, io.EOF, err)
}

// TEST209: Dial reaches a unix socket listener
func Test209_dial_unix(t *testing.T) {
	dir, err := os.MkdirTemp("", "eeproxy")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	sock := filepath.Join(dir, "ee.sock")

	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan *Client, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- NewClient(conn)
	}()

	client, err := Dial(context.Background(), "unix", sock)
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	require.NotNil(t, server)
	defer server.Close()

	go client.Send(MessageVersion, []any{uint64(1), 42, "python"})
	msg, err := server.Receive()
	require.NoError(t, err)
	assert.Equal(t, MessageVersion, msg.Kind)

	_, err = Dial(context.Background(), "unix", filepath.Join(dir, "missing.sock"))
	assert.Error(t, err)
}
