package broker

import (
	"context"
	"sync"

	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/hugohenrick/chat-relay/pkg/logger"
)

// MemoryBroker é um tópico em memória com offsets por grupo de consumidores.
// Serve para execução local sem infraestrutura e para testes.
type MemoryBroker struct {
	mu      sync.Mutex
	log     [][]byte
	offsets map[string]int
	notify  chan struct{}
	codec   Codec
	closed  bool
}

// NewMemoryBroker cria um novo tópico em memória
func NewMemoryBroker(codec Codec) *MemoryBroker {
	return &MemoryBroker{
		offsets: make(map[string]int),
		notify:  make(chan struct{}),
		codec:   codec,
	}
}

// Publish adiciona a mensagem ao log do tópico
func (b *MemoryBroker) Publish(ctx context.Context, message chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := b.codec.Encode(message)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.log = append(b.log, data)
	close(b.notify)
	b.notify = make(chan struct{})
	return nil
}

// Close encerra o tópico e libera os consumidores bloqueados
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.notify)
	}
	return nil
}

// Consumer cria um consumidor para o grupo informado
func (b *MemoryBroker) Consumer(groupID string, log logger.Logger) *MemoryConsumer {
	return &MemoryConsumer{broker: b, groupID: groupID, logger: log}
}

// next retorna a próxima mensagem do grupo ou um canal para aguardar novas mensagens
func (b *MemoryBroker) next(groupID string) ([]byte, <-chan struct{}, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	offset := b.offsets[groupID]
	if offset < len(b.log) {
		b.offsets[groupID] = offset + 1
		return b.log[offset], nil, false
	}
	return nil, b.notify, b.closed
}

// MemoryConsumer consome o tópico em memória
type MemoryConsumer struct {
	broker  *MemoryBroker
	groupID string
	logger  logger.Logger
}

// Consume entrega as mensagens ao handler até o contexto ser cancelado ou o tópico fechar
func (c *MemoryConsumer) Consume(ctx context.Context, handler Handler) error {
	for {
		data, wait, closed := c.broker.next(c.groupID)
		if data == nil {
			if closed {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-wait:
				continue
			}
		}

		message, err := c.broker.codec.Decode(data)
		if err != nil {
			c.logger.Error("erro ao desserializar mensagem", "groupId", c.groupID, "error", err)
			continue
		}

		if err := handler(ctx, message); err != nil {
			c.logger.Error("erro ao processar mensagem", "groupId", c.groupID, "error", err)
		}
	}
}

// Close não tem efeito; o ciclo de vida pertence ao MemoryBroker
func (c *MemoryConsumer) Close() error {
	return nil
}
