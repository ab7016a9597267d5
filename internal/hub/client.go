package hub

import (
	"encoding/json"
	"strings"
	"time"

	applogger "AquaWatch/pkg/logger"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client is one websocket subscriber.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string

	// closed is guarded by the hub mutex. Once set, send is closed and no
	// goroutine may enqueue to it.
	closed bool
}

type controlMessage struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

// readPump consumes inbound frames. The only application-level inbound
// message is the textual "ping"; everything else is ignored. Read errors
// end the subscription.
func (c *Client) readPump() {
	defer c.hub.remove(c)

	timeout := c.hub.opts.HeartbeatTimeout
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * timeout))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * timeout))

		if strings.TrimSpace(string(data)) == "ping" {
			pong, _ := json.Marshal(controlMessage{Type: "pong", TS: time.Now().Unix()})
			if !c.hub.enqueue(c, pong) {
				// dropped or buffer full; the reply is best-effort
				continue
			}
		}
	}
}

// writePump drains the send buffer and emits keep-alives when the
// connection sits idle past the heartbeat timeout.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.opts.HeartbeatTimeout)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.log.Debug("websocket write failed",
					applogger.String("remote", c.remote),
					applogger.Error(err))
				c.hub.remove(c)
				return
			}
		case <-ticker.C:
			keepAlive, _ := json.Marshal(controlMessage{Type: "keep-alive", TS: time.Now().Unix()})
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, keepAlive); err != nil {
				c.hub.remove(c)
				return
			}
		}
	}
}
