package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/chat-relay/internal/adapter/realtime"
)

// RealtimePath é o endpoint STOMP, em WebSocket puro ou SockJS
const RealtimePath = "/ws-chat"

// RegisterRealtimeRoutes registra o endpoint WebSocket do STOMP e as rotas SockJS
func RegisterRealtimeRoutes(r *gin.Engine, server *realtime.Server) {
	r.GET(RealtimePath, server.ServeWS)
	r.Any(RealtimePath+"/*path", server.ServeSockJS(RealtimePath))
}
