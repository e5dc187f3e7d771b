package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/chat-relay/internal/adapter/api/controller"
)

// RegisterChatRoutes registra as rotas REST do chat
func RegisterChatRoutes(r *gin.RouterGroup, chatController *controller.ChatController) {
	r.POST("/send", chatController.SendMessage)
	r.GET("/messages/:groupId", chatController.GetMessages)
}
