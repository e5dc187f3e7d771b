package controller

import (
	"encoding/json"
	"fmt"

	"github.com/hugohenrick/chat-relay/internal/adapter/api/dto"
	"github.com/hugohenrick/chat-relay/internal/adapter/realtime"
	"github.com/hugohenrick/chat-relay/pkg/logger"
)

const (
	// GroupDestination é o destino compartilhado do broadcast do chat
	GroupDestination = "/topic/group"

	// UsernameAttribute é a chave do nome do usuário nos atributos da sessão
	UsernameAttribute = "username"
)

// RealtimeController trata as mensagens STOMP do chat
type RealtimeController struct {
	logger logger.Logger
}

// NewRealtimeController cria uma nova instância de RealtimeController
func NewRealtimeController(logger logger.Logger) *RealtimeController {
	return &RealtimeController{logger: logger}
}

// Register associa os destinos /app do chat ao servidor STOMP
func (c *RealtimeController) Register(server *realtime.Server) {
	server.Handle("/sendMessage", GroupDestination, c.BroadcastGroupMessage)
	server.Handle("/newUser", GroupDestination, c.AddUser)
}

// BroadcastGroupMessage devolve a mensagem sem alterações para todos os assinantes do grupo
func (c *RealtimeController) BroadcastGroupMessage(session *realtime.Session, body []byte) (interface{}, error) {
	message, err := decodeMessage(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("mensagem de grupo recebida", "session", session.ID(), "sender", message.Sender)
	return message, nil
}

// AddUser grava o remetente na sessão e repassa a mensagem aos assinantes do grupo
func (c *RealtimeController) AddUser(session *realtime.Session, body []byte) (interface{}, error) {
	message, err := decodeMessage(body)
	if err != nil {
		return nil, err
	}

	session.SetAttribute(UsernameAttribute, message.Sender)
	c.logger.Info("usuário entrou no chat", "session", session.ID(), "username", message.Sender)
	return message, nil
}

func decodeMessage(body []byte) (dto.RealtimeMessage, error) {
	var message dto.RealtimeMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return dto.RealtimeMessage{}, fmt.Errorf("payload inválido: %w", err)
	}
	return message, nil
}
