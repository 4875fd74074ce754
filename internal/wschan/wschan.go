// Package wschan carries JSON-RPC messages over a coder/websocket
// connection. Both the daemon's push endpoint and the aquacli client use it
// as their jrpc2 channel.
package wschan

import (
	"context"

	cws "github.com/coder/websocket"
)

// ReadLimit bounds a single JSON-RPC message. Reminder payloads are small.
const ReadLimit = 64 << 10

// Channel adapts a websocket connection to the jrpc2 channel.Channel
// interface. One text message is one JSON-RPC message.
type Channel struct {
	conn *cws.Conn
	ctx  context.Context
}

// New wraps conn. Reads and writes stop when ctx ends.
func New(ctx context.Context, conn *cws.Conn) *Channel {
	conn.SetReadLimit(ReadLimit)
	return &Channel{conn: conn, ctx: ctx}
}

// Send writes one message.
func (c *Channel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

// Recv reads one message. Binary frames are rejected.
func (c *Channel) Recv() ([]byte, error) {
	typ, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return nil, err
	}
	if typ != cws.MessageText {
		c.conn.Close(cws.StatusUnsupportedData, "text frames only")
		return nil, ErrBinaryFrame
	}
	return data, nil
}

// Close shuts down the connection with a normal closure status.
func (c *Channel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}
