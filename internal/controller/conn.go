package controller

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/moveefy/server/internal/domain"
)

const writeWait = 10 * time.Second

// wsConn adapts a websocket to domain.Conn. Writes go through a bounded queue
// drained by writePump, so Send never blocks the caller.
type wsConn struct {
	id        string
	ws        *websocket.Conn
	send      chan *Output
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(id string, ws *websocket.Conn, sendBuffer int) *wsConn {
	return &wsConn{
		id:   id,
		ws:   ws,
		send: make(chan *Output, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *wsConn) Id() string { return c.id }

func (c *wsConn) Send(ev domain.Event) error {
	return c.write(outputFromEvent(ev))
}

func (c *wsConn) write(output *Output) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- output:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump, which closes the websocket and so ends the read
// loop. It is safe to call any number of times from any goroutine.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})

	return nil
}

func (c controller) writePump(ctx context.Context, conn *wsConn) {
	ticker := time.NewTicker(c.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		conn.ws.Close()
	}()

	for {
		select {
		case output := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteJSON(output); err != nil {
				c.logger.InfoContext(ctx, "failed to write message", "error", err)
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "failed to write ping", "error", err)
				conn.Close()
				return
			}
		case <-conn.done:
			conn.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}

func (c controller) readPump(ctx context.Context, conn *wsConn) {
	defer conn.Close()

	conn.ws.SetReadLimit(c.cfg.ReadLimit)
	conn.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.InfoContext(ctx, "unexpected close", "error", err)
			}
			return
		}

		if err := c.wsmux.Dispatch(ctx, conn, data); err != nil {
			c.handleDispatchError(ctx, conn, err)
		}
	}
}
