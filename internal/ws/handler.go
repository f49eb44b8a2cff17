package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/ws"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

type wsConn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	Close() error
}

// deadlineListener bounds each hub write and drops the connection once a
// write fails, which ends its read loop.
type deadlineListener struct {
	conn wsConn
	wait time.Duration
}

func (l *deadlineListener) WriteJSON(v interface{}) error {
	err := l.conn.SetWriteDeadline(time.Now().Add(l.wait))
	if err == nil {
		err = l.conn.WriteJSON(v)
	}
	if err != nil {
		l.conn.Close()
	}
	return err
}

type wsHandler struct {
	notificationHub *ws.WebSocketNotificationHub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func RegisterRoutes(rg *gin.RouterGroup, hub *ws.WebSocketNotificationHub, auth gin.HandlerFunc) {
	handler := wsHandler{
		notificationHub: hub,
	}

	routes := rg.Group("/ws")
	routes.GET("/battles", auth, handler.serveBattles)
}

func (wsh *wsHandler) serveBattles(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade ws connection")
		return
	}
	defer conn.Close()

	listener := &deadlineListener{conn: conn, wait: writeWait}
	wsh.notificationHub.RegisterListener(ws.BattlesTopic, listener)
	defer wsh.notificationHub.UnregisterListener(ws.BattlesTopic, listener)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Info().Err(err).Str("remoteAddr", conn.RemoteAddr().String()).Msg("Ws connection closed")
			return
		}
	}
}
