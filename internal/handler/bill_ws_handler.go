package handler

import (
	"peoples-bill-be/internal/pkg/logger"
	internalWS "peoples-bill-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// BillSocketHandler streams live bill notices (clause approval changes and
// clustering results) to anonymous subscribers.
type BillSocketHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewBillSocketHandler(hub *internalWS.Hub, log logger.ILogger) *BillSocketHandler {
	return &BillSocketHandler{hub: hub, logger: log}
}

// ServeWs upgrades the request and keeps the connection registered with the
// hub until the peer goes away. ?types=VOTE_RECORDED,CLAUSE_DRAFTED and
// ?clause_id=<uuid> narrow the stream.
func (h *BillSocketHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	filter := internalWS.ParseFilter(c.Query("types"), c.Query("clause_id"))
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Debug("WEBSOCKET", "Bill subscriber connected", map[string]interface{}{
			"remote":    conn.RemoteAddr().String(),
			"clause_id": filter.ClauseID,
			"types":     len(filter.Types),
		})
		internalWS.ServeWs(h.hub, conn, filter)
		h.logger.Debug("WEBSOCKET", "Bill subscriber disconnected", map[string]interface{}{"clients": h.hub.ClientCount()})
	})(c)
}

func (h *BillSocketHandler) RegisterRoutes(app fiber.Router) {
	app.Get("/ws/bill", h.ServeWs)
}
