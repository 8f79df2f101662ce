package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/protocol"
)

const writeTimeout = 5 * time.Second

// Conn is a viewer connection to one map.
type Conn struct {
	ws     *websocket.Conn
	mirror *Mirror
	wmu    sync.Mutex
	log    *logging.Logger
}

// Dial connects to the websocket endpoint of a map, for example
// ws://localhost:8080/ws/map_0.
func Dial(ctx context.Context, url string, log *logging.Logger) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("dial %s: map not found", url)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Conn{
		ws:     ws,
		mirror: NewMirror(),
		log:    logging.OrDefault(log).WithComponent("client"),
	}, nil
}

// Mirror returns the local copy of the view.
func (c *Conn) Mirror() *Mirror { return c.mirror }

// Run reads frames into the mirror until the connection closes or ctx is
// cancelled. changed is called after every applied frame. A server error
// frame ends Run with a *RemoteError.
func (c *Conn) Run(ctx context.Context, changed func(protocol.Type)) error {
	stop := context.AfterFunc(ctx, func() { c.ws.Close() })
	defer stop()

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		f, err := protocol.Parse(data)
		if err != nil {
			c.log.Warn("bad frame: %v", err)
			continue
		}
		if err := c.mirror.Apply(f); err != nil {
			var re *RemoteError
			if errors.As(err, &re) {
				return re
			}
			c.log.Warn("apply %s: %v", f.Type, err)
			if err := c.Resync(); err != nil {
				return err
			}
			continue
		}
		if changed != nil {
			changed(f.Type)
		}
	}
}

// Resync asks the server for a full update.
func (c *Conn) Resync() error {
	return c.send(&protocol.Frame{Type: protocol.TypeResync})
}

// Ping sends an application level ping; the server answers with a ping.
func (c *Conn) Ping() error {
	return c.send(&protocol.Frame{Type: protocol.TypePing})
}

func (c *Conn) send(f *protocol.Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.BinaryMessage, b)
}

// Close sends a close message and closes the connection.
func (c *Conn) Close() error {
	c.wmu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	c.wmu.Unlock()
	return c.ws.Close()
}
