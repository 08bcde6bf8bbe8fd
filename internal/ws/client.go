package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Client is one connected dashboard. Dashboards only listen; inbound frames
// are drained for pong/close handling and otherwise discarded.
type Client struct {
	ws      *websocket.Conn
	send    chan []byte
	logger  *zap.Logger
	onClose func(*Client)
}

func newClient(ws *websocket.Conn, logger *zap.Logger, onClose func(*Client)) *Client {
	return &Client{
		ws:      ws,
		send:    make(chan []byte, 16),
		logger:  logger,
		onClose: onClose,
	}
}

func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer c.cleanup()
	c.ws.SetReadLimit(512)
	c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue drops the message when the client cannot keep up; live updates are
// periodic, so a missed one is replaced by the next tick anyway.
func (c *Client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping live update, client buffer full")
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Client) cleanup() {
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c)
	}
}
