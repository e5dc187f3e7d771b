package service

import (
	"context"
	"fmt"

	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/hugohenrick/chat-relay/internal/infrastructure/broker"
	"github.com/hugohenrick/chat-relay/pkg/logger"
)

// ChatListener mantém o buffer de mensagens alimentado pelo tópico do chat
type ChatListener struct {
	consumer   broker.Consumer
	repository chat.Repository
	logger     logger.Logger
}

// NewChatListener cria uma nova instância de ChatListener
func NewChatListener(consumer broker.Consumer, repository chat.Repository, logger logger.Logger) *ChatListener {
	return &ChatListener{
		consumer:   consumer,
		repository: repository,
		logger:     logger,
	}
}

// Run consome o tópico até o contexto ser cancelado
func (l *ChatListener) Run(ctx context.Context) error {
	l.logger.Info("listener de mensagens iniciado")

	if err := l.consumer.Consume(ctx, l.handle); err != nil {
		return fmt.Errorf("listener de mensagens interrompido: %w", err)
	}

	l.logger.Info("listener de mensagens encerrado")
	return nil
}

func (l *ChatListener) handle(ctx context.Context, message chat.Message) error {
	l.logger.Debug("mensagem recebida do broker", "sender", message.Sender, "groupId", message.GroupID)
	return l.repository.Append(ctx, message)
}
