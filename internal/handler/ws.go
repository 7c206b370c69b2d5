package handler

import (
	"github.com/gin-gonic/gin"

	"RescueHub/pkg/response"
	"RescueHub/pkg/websocket"
)

// ServeWS upgrades `GET /ws/:user_id?token=...`. The token is validated
// before the upgrade so a bad credential gets a proper HTTP status
// instead of a dropped socket.
func (h *Handlers) ServeWS(c *gin.Context) {
	userID := c.Param("user_id")
	token := c.Query("token")
	if token == "" {
		response.Unauthorized(c, "token query parameter is required")
		return
	}

	claims, err := h.tokens.Parse(token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}
	if claims.UserID != userID {
		response.Forbidden(c, "token does not belong to this user")
		return
	}

	if err := websocket.Serve(h.hub, c.Writer, c.Request, userID); err != nil {
		// Upgrade failures already wrote to the connection.
		return
	}
}
