package websocket

import (
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Filter narrows the notices a subscriber receives. The zero value lets
// everything through.
type Filter struct {
	Types    map[string]struct{}
	ClauseID string
}

// ParseFilter builds a Filter from a comma-separated type list and an
// optional clause id.
func ParseFilter(types, clauseID string) Filter {
	f := Filter{ClauseID: strings.TrimSpace(clauseID)}
	for _, t := range strings.Split(types, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if f.Types == nil {
			f.Types = make(map[string]struct{})
		}
		f.Types[t] = struct{}{}
	}
	return f
}

// Matches reports whether n passes the filter. Notices without a clause id
// never match a clause-scoped filter.
func (f Filter) Matches(n Notice) bool {
	if len(f.Types) > 0 {
		if _, ok := f.Types[n.Type]; !ok {
			return false
		}
	}
	if f.ClauseID != "" {
		id, _ := n.Data["clause_id"].(string)
		return id == f.ClauseID
	}
	return true
}

// Client is one subscriber connection registered with the hub.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Filter Filter
	// Send is closed by the hub.
	Send chan []byte
}

// readPump only tracks liveness; subscribers never send commands.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Debug("HUB", "Subscriber dropped", map[string]interface{}{"error": err.Error()})
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
