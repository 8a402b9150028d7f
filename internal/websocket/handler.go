package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers c with the hub under filter and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, filter Filter) {
	client := &Client{Hub: hub, Conn: c, Filter: filter, Send: make(chan []byte, sendBuffer)}
	hub.register <- client

	go client.writePump()
	client.readPump()
}
