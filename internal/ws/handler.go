package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klerio/helpdesk/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, restrict to configured origins.
		return true
	},
}

// Handler upgrades the single multiplexed realtime endpoint. The token comes
// from the query string because browsers cannot set headers on websocket
// handshakes.
func Handler(h *Hub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := c.Query("token")
		if tok == "" {
			if cookie, err := c.Cookie("token"); err == nil {
				tok = cookie
			}
		}
		claims, err := auth.ParseJWT(tok, jwtSecret)
		if err != nil {
			c.String(http.StatusUnauthorized, "invalid token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := newClient(h, conn,
			claims.UserID,
			claims.ClientID,
			claims.Role == auth.RoleAdmin,
			c.ClientIP(),
		)
		h.register(client)
		go client.writePump()
		go client.readPump()
	}
}
