package ipc

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
)

// Client is one connection to the service manager. Reads are expected from a
// single goroutine; writes are serialised.
type Client struct {
	conn   io.ReadWriteCloser
	reader *MessageReader
	writer *MessageWriter
	wmu    sync.Mutex
}

// NewClient wraps an established stream.
func NewClient(conn io.ReadWriteCloser) *Client {
	return &Client{
		conn:   conn,
		reader: NewMessageReader(conn),
		writer: NewMessageWriter(conn),
	}
}

// Dial connects to the service manager. network is "unix" or "tcp".
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s %s: %w", network, addr, err)
	}
	return NewClient(conn), nil
}

// SetLimits applies limits to both directions.
func (c *Client) SetLimits(limits Limits) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.reader.SetLimits(limits)
	c.writer.SetLimits(limits)
}

// Send writes one message.
func (c *Client) Send(kind MessageKind, payload any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.writer.WriteMessage(kind, payload); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

// Receive blocks for the next message.
func (c *Client) Receive() (*Message, error) {
	msg, err := c.reader.ReadMessage()
	if err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, fmt.Errorf("receive: %w", err)
	}
	return msg, nil
}

// SendAndReceive sends a request and blocks for the next message, whatever its kind.
func (c *Client) SendAndReceive(kind MessageKind, payload any) (*Message, error) {
	if err := c.Send(kind, payload); err != nil {
		return nil, err
	}
	return c.Receive()
}

// Close closes the underlying stream.
func (c *Client) Close() error {
	return c.conn.Close()
}
