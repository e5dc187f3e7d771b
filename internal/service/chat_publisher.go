package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/hugohenrick/chat-relay/internal/infrastructure/broker"
	"github.com/hugohenrick/chat-relay/pkg/logger"
)

// ChatPublisher carimba e publica mensagens no tópico do chat
type ChatPublisher struct {
	producer broker.Producer
	timeout  time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// NewChatPublisher cria uma nova instância de ChatPublisher.
// Um timeout zero deixa a espera limitada apenas pelo contexto recebido.
func NewChatPublisher(producer broker.Producer, timeout time.Duration, logger logger.Logger) *ChatPublisher {
	return &ChatPublisher{
		producer: producer,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// Publish sobrescreve o timestamp da mensagem e aguarda a confirmação do broker.
// Qualquer falha é devolvida envolvendo chat.ErrPublishFailed, sem novas tentativas.
func (p *ChatPublisher) Publish(ctx context.Context, message *chat.Message) error {
	message.Stamp(p.now())

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.producer.Publish(ctx, *message); err != nil {
		p.logger.Error("erro ao publicar mensagem", "sender", message.Sender, "groupId", message.GroupID, "error", err)
		return fmt.Errorf("%w: %v", chat.ErrPublishFailed, err)
	}

	p.logger.Debug("mensagem publicada", "sender", message.Sender, "groupId", message.GroupID, "timestamp", message.Timestamp)
	return nil
}
