package dto

import (
	"github.com/hugohenrick/chat-relay/internal/domain/chat"
)

// MessageRequest representa a mensagem enviada pelo cliente.
// O timestamp informado é ignorado e substituído pelo horário do servidor.
type MessageRequest struct {
	Sender    string `json:"sender" example:"alice"`
	Content   string `json:"content" example:"olá"`
	Timestamp string `json:"timestamp,omitempty"`
	GroupID   string `json:"groupId" example:"g1"`
}

// MessageResponse representa uma mensagem devolvida pela API
type MessageResponse struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	GroupID   string `json:"groupId"`
}

// ToMessage converte a requisição em um modelo de domínio
func (r MessageRequest) ToMessage() chat.Message {
	return chat.Message{
		Sender:    r.Sender,
		Content:   r.Content,
		Timestamp: r.Timestamp,
		GroupID:   r.GroupID,
	}
}

// ToMessageResponse converte um modelo de domínio em uma resposta DTO
func ToMessageResponse(m chat.Message) MessageResponse {
	return MessageResponse{
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		GroupID:   m.GroupID,
	}
}

// ToMessageListResponse converte uma lista de mensagens; nunca retorna nil
func ToMessageListResponse(messages []chat.Message) []MessageResponse {
	response := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, ToMessageResponse(m))
	}
	return response
}
