//go:generate go run go.uber.org/mock/mockgen -source=broker.go -destination=../../mocks/mock_broker.go -package=mocks

// Package broker contém os clientes de broker usados para publicar e consumir mensagens de chat
package broker

import (
	"context"
	"errors"

	"github.com/hugohenrick/chat-relay/internal/domain/chat"
)

// ErrClosed ocorre ao usar um cliente de broker já encerrado
var ErrClosed = errors.New("cliente de broker encerrado")

// Producer publica mensagens em um tópico
type Producer interface {
	// Publish envia a mensagem e bloqueia até a confirmação do broker
	Publish(ctx context.Context, message chat.Message) error
	Close() error
}

// Handler processa uma mensagem consumida
type Handler func(ctx context.Context, message chat.Message) error

// Consumer consome mensagens de um tópico para um grupo de consumidores fixo
type Consumer interface {
	// Consume bloqueia entregando mensagens ao handler até o contexto ser cancelado
	Consume(ctx context.Context, handler Handler) error
	Close() error
}
