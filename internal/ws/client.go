package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Client struct {
	conn *websocket.Conn
	hub  *Hub
	send chan []byte
	done chan struct{}

	userID   int64
	clientID int64
	isAdmin  bool
	remoteIP string

	// rooms this connection joined; guarded by hub.mu
	rooms map[string]bool
	// set by the hub on unregister, guarded by hub.mu; the send channel is
	// never closed so a broadcast that snapshotted this connection before the
	// close cannot panic
	closed bool

	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, userID, clientID int64, isAdmin bool, remoteIP string) *Client {
	return &Client{
		conn:     conn,
		hub:      h,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
		userID:   userID,
		clientID: clientID,
		isAdmin:  isAdmin,
		remoteIP: remoteIP,
		rooms:    make(map[string]bool),
	}
}

func (c *Client) readPump() {
	defer c.Close()
	c.conn.SetReadLimit(8 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		// the request context dies with the upgrade handler, so frames get
		// their own
		c.hub.handleInbound(context.Background(), c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.unregister(c)
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
