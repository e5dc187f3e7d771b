package repository

import (
	"context"
	"sync"

	"github.com/hugohenrick/chat-relay/internal/domain/chat"
)

// MemoryChatRepository mantém em memória as mensagens consumidas do broker
type MemoryChatRepository struct {
	mu       sync.RWMutex
	messages []chat.Message
	limit    int
	closed   bool
}

// NewMemoryChatRepository cria um novo buffer de mensagens.
// Um limite menor ou igual a zero mantém o buffer sem limite.
func NewMemoryChatRepository(limit int) *MemoryChatRepository {
	return &MemoryChatRepository{
		messages: make([]chat.Message, 0),
		limit:    limit,
	}
}

// Append adiciona uma mensagem ao buffer, descartando a mais antiga quando o limite é atingido
func (r *MemoryChatRepository) Append(_ context.Context, message chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return chat.ErrRepositoryClosed
	}

	r.messages = append(r.messages, message)
	if r.limit > 0 && len(r.messages) > r.limit {
		// Copiar para liberar o array antigo
		trimmed := make([]chat.Message, r.limit)
		copy(trimmed, r.messages[len(r.messages)-r.limit:])
		r.messages = trimmed
	}

	return nil
}

// List retorna uma cópia das mensagens na ordem de chegada
func (r *MemoryChatRepository) List(ctx context.Context) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]chat.Message, len(r.messages))
	copy(result, r.messages)
	return result, nil
}

// Len retorna a quantidade de mensagens no buffer
func (r *MemoryChatRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}

// Close impede novas inclusões; as leituras continuam funcionando
func (r *MemoryChatRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
