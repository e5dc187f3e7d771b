package chat

import (
	"context"
)

// Repository define a interface do buffer de mensagens recebidas do broker
type Repository interface {
	// Append adiciona uma mensagem ao final do buffer
	Append(ctx context.Context, message Message) error

	// List retorna uma cópia de todas as mensagens na ordem de chegada
	List(ctx context.Context) ([]Message, error)

	// Len retorna quantas mensagens estão no buffer
	Len() int

	// Close encerra o buffer; novas mensagens passam a ser rejeitadas
	Close() error
}
