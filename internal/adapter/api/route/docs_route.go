package route

import (
	"github.com/gin-gonic/gin"
	_ "github.com/hugohenrick/chat-relay/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterDocsRoutes registra a interface do Swagger
func RegisterDocsRoutes(r *gin.Engine) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
