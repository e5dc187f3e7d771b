package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/hugohenrick/chat-relay/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig contém as configurações de conexão com o Kafka
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaProducer publica mensagens em um tópico Kafka de forma síncrona
type KafkaProducer struct {
	writer *kafka.Writer
	codec  Codec
}

// NewKafkaProducer cria um novo produtor Kafka.
// As mensagens não têm chave, então a partição é escolhida pelo balanceador.
func NewKafkaProducer(cfg KafkaConfig, codec Codec) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.RoundRobin{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{writer: writer, codec: codec}
}

// Publish envia a mensagem e aguarda a confirmação do líder da partição
func (p *KafkaProducer) Publish(ctx context.Context, message chat.Message) error {
	value, err := p.codec.Encode(message)
	if err != nil {
		return fmt.Errorf("erro ao serializar mensagem: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Value: value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(p.codec.ContentType())},
		},
	})
	if err != nil {
		return fmt.Errorf("erro ao enviar mensagem ao kafka: %w", err)
	}

	return nil
}

// Close encerra o produtor
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer consome um tópico Kafka dentro de um grupo de consumidores
type KafkaConsumer struct {
	reader *kafka.Reader
	codec  Codec
	logger logger.Logger
}

// NewKafkaConsumer cria um novo consumidor Kafka.
// Os offsets são confirmados pelo próprio reader a cada mensagem lida.
func NewKafkaConsumer(cfg KafkaConfig, codec Codec, log logger.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})

	return &KafkaConsumer{reader: reader, codec: codec, logger: log}
}

// Consume lê mensagens até o contexto ser cancelado
func (c *KafkaConsumer) Consume(ctx context.Context, handler Handler) error {
	c.logger.Info("iniciando consumo do kafka", "topic", c.reader.Config().Topic, "groupId", c.reader.Config().GroupID)

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("erro ao ler mensagem do kafka: %w", err)
		}

		message, err := c.codec.Decode(m.Value)
		if err != nil {
			c.logger.Error("erro ao desserializar mensagem do kafka", "partition", m.Partition, "offset", m.Offset, "error", err)
			continue
		}

		if err := handler(ctx, message); err != nil {
			c.logger.Error("erro ao processar mensagem do kafka", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

// Close encerra o consumidor
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
