package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/chat-relay/internal/adapter/api/dto"
	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/hugohenrick/chat-relay/pkg/logger"
)

// MessagePublisher publica mensagens no broker
type MessagePublisher interface {
	Publish(ctx context.Context, message *chat.Message) error
}

// ChatController gerencia as requisições REST do chat
type ChatController struct {
	publisher  MessagePublisher
	repository chat.Repository
	logger     logger.Logger
}

// NewChatController cria uma nova instância de ChatController
func NewChatController(publisher MessagePublisher, repository chat.Repository, logger logger.Logger) *ChatController {
	return &ChatController{
		publisher:  publisher,
		repository: repository,
		logger:     logger,
	}
}

// SendMessage publica uma mensagem no tópico do chat
// @Summary Enviar mensagem
// @Description Publica a mensagem no broker e aguarda a confirmação. O timestamp é definido pelo servidor.
// @Tags chat
// @Accept json
// @Produce json
// @Param message body dto.MessageRequest true "Mensagem"
// @Success 200
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /send [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	var req dto.MessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	message := req.ToMessage()
	c.logger.Info("mensagem recebida", "sender", message.Sender, "groupId", message.GroupID)

	if err := c.publisher.Publish(ctx.Request.Context(), &message); err != nil {
		if errors.Is(err, chat.ErrPublishFailed) {
			ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao enviar mensagem", err.Error()))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro interno", err.Error()))
		return
	}

	ctx.Status(http.StatusOK)
}

// GetMessages retorna as mensagens recebidas do broker
// @Summary Listar mensagens
// @Description Retorna todas as mensagens recebidas. O groupId ainda não é usado como filtro.
// @Tags chat
// @Produce json
// @Param groupId path string true "ID do grupo"
// @Success 200 {array} dto.MessageResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /messages/{groupId} [get]
func (c *ChatController) GetMessages(ctx *gin.Context) {
	groupID := ctx.Param("groupId")

	messages, err := c.repository.List(ctx.Request.Context())
	if err != nil {
		c.logger.Error("erro ao listar mensagens", "groupId", groupID, "error", err)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao listar mensagens", err.Error()))
		return
	}

	c.logger.Debug("mensagens listadas", "groupId", groupID, "count", len(messages))
	ctx.JSON(http.StatusOK, dto.ToMessageListResponse(messages))
}
