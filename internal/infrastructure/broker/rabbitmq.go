package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/hugohenrick/chat-relay/pkg/logger"
	"github.com/rabbitmq/amqp091-go"
)

const (
	rabbitConnAttempts = 5
	rabbitPrefetch     = 64
	rabbitConsumerName = "chat-relay-listener"
)

// rabbitBackoffStep é o incremento da espera entre tentativas de conexão
var rabbitBackoffStep = time.Second

// DialRabbitMQ conecta ao RabbitMQ tentando novamente com espera crescente.
// Não espera depois da última tentativa e desiste se o contexto for cancelado.
func DialRabbitMQ(ctx context.Context, uri string, log logger.Logger) (*amqp091.Connection, error) {
	backoff := rabbitBackoffStep

	var lastErr error
	for i := 1; i <= rabbitConnAttempts; i++ {
		conn, err := amqp091.Dial(uri)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if i == rabbitConnAttempts {
			break
		}

		log.Warn("falha ao conectar no rabbitmq, nova tentativa em breve", "attempt", i, "backoff", backoff.String(), "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("conexão com o rabbitmq cancelada: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff += rabbitBackoffStep
	}

	return nil, fmt.Errorf("não foi possível conectar ao rabbitmq após %d tentativas: %w", rabbitConnAttempts, lastErr)
}

// EnsureRabbitTopology declara o exchange do tópico e a fila do grupo de consumidores.
// O tópico vira um exchange fanout e cada grupo de consumidores uma fila durável ligada a ele.
func EnsureRabbitTopology(conn *amqp091.Connection, topic, groupID string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("erro ao abrir canal: %w", err)
	}

	err = ch.ExchangeDeclare(
		topic,
		amqp091.ExchangeFanout,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("erro ao declarar exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		groupID,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("erro ao declarar fila: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", topic, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("erro ao ligar fila ao exchange: %w", err)
	}

	if err := ch.Close(); err != nil {
		return fmt.Errorf("erro ao fechar canal: %w", err)
	}

	return nil
}

// RabbitMQProducer publica mensagens com confirmação do broker
type RabbitMQProducer struct {
	mu       sync.Mutex
	channel  *amqp091.Channel
	exchange string
	codec    Codec
}

// NewRabbitMQProducer cria um produtor com publisher confirms habilitado
func NewRabbitMQProducer(conn *amqp091.Connection, exchange string, codec Codec) (*RabbitMQProducer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir canal: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("erro ao habilitar confirmações: %w", err)
	}

	return &RabbitMQProducer{channel: ch, exchange: exchange, codec: codec}, nil
}

// Publish envia a mensagem e aguarda o ack do broker
func (p *RabbitMQProducer) Publish(ctx context.Context, message chat.Message) error {
	body, err := p.codec.Encode(message)
	if err != nil {
		return fmt.Errorf("erro ao serializar mensagem: %w", err)
	}

	p.mu.Lock()
	confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, p.exchange, "", false, false, amqp091.Publishing{
		Headers:      amqp091.Table{},
		ContentType:  p.codec.ContentType(),
		DeliveryMode: amqp091.Transient,
		Timestamp:    time.Now(),
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("erro ao enviar mensagem ao rabbitmq: %w", err)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("erro ao aguardar confirmação do rabbitmq: %w", err)
	}
	if !acked {
		return fmt.Errorf("mensagem recusada pelo rabbitmq")
	}

	return nil
}

// Close encerra o canal do produtor
func (p *RabbitMQProducer) Close() error {
	return p.channel.Close()
}

// RabbitMQConsumer consome a fila do grupo de consumidores
type RabbitMQConsumer struct {
	channel *amqp091.Channel
	queue   string
	codec   Codec
	logger  logger.Logger
}

// NewRabbitMQConsumer cria um consumidor para a fila informada
func NewRabbitMQConsumer(conn *amqp091.Connection, queue string, codec Codec, log logger.Logger) (*RabbitMQConsumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir canal: %w", err)
	}

	if err := ch.Qos(rabbitPrefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("erro ao definir QoS: %w", err)
	}

	return &RabbitMQConsumer{channel: ch, queue: queue, codec: codec, logger: log}, nil
}

// Consume entrega as mensagens ao handler até o contexto ser cancelado ou o canal fechar
func (c *RabbitMQConsumer) Consume(ctx context.Context, handler Handler) error {
	c.logger.Info("iniciando consumo do rabbitmq", "queue", c.queue)

	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, rabbitConsumerName, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("erro ao iniciar consumo: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("canal de entregas do rabbitmq foi fechado")
			}

			message, err := c.codec.Decode(d.Body)
			if err != nil {
				c.logger.Error("erro ao desserializar mensagem do rabbitmq", "deliveryTag", d.DeliveryTag, "error", err)
				_ = d.Nack(false, false)
				continue
			}

			if err := handler(ctx, message); err != nil {
				c.logger.Error("erro ao processar mensagem do rabbitmq", "deliveryTag", d.DeliveryTag, "error", err)
			}

			if err := d.Ack(false); err != nil {
				c.logger.Error("erro ao confirmar mensagem do rabbitmq", "deliveryTag", d.DeliveryTag, "error", err)
			}
		}
	}
}

// Close encerra o canal do consumidor
func (c *RabbitMQConsumer) Close() error {
	return c.channel.Close()
}
