package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugohenrick/chat-relay/internal/config"
	"github.com/hugohenrick/chat-relay/pkg/logger"
)

// Clients agrupa o produtor e o consumidor criados para o driver configurado
type Clients struct {
	Producer Producer
	Consumer Consumer
	closers  []func() error
}

// NewClients cria os clientes do broker de acordo com a configuração.
// O contexto limita apenas a conexão inicial.
func NewClients(ctx context.Context, cfg config.BrokerConfig, log logger.Logger) (*Clients, error) {
	codec, err := NewCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverKafka:
		kafkaCfg := KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.Topic, GroupID: cfg.GroupID}
		producer := NewKafkaProducer(kafkaCfg, codec)
		consumer := NewKafkaConsumer(kafkaCfg, codec, log)
		return &Clients{
			Producer: producer,
			Consumer: consumer,
			closers:  []func() error{producer.Close, consumer.Close},
		}, nil

	case config.DriverRabbitMQ:
		conn, err := DialRabbitMQ(ctx, cfg.RabbitURL, log)
		if err != nil {
			return nil, err
		}

		if err := EnsureRabbitTopology(conn, cfg.Topic, cfg.GroupID); err != nil {
			_ = conn.Close()
			return nil, err
		}

		producer, err := NewRabbitMQProducer(conn, cfg.Topic, codec)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}

		consumer, err := NewRabbitMQConsumer(conn, cfg.GroupID, codec, log)
		if err != nil {
			_ = producer.Close()
			_ = conn.Close()
			return nil, err
		}

		return &Clients{
			Producer: producer,
			Consumer: consumer,
			closers:  []func() error{producer.Close, consumer.Close, conn.Close},
		}, nil

	case config.DriverMemory:
		memory := NewMemoryBroker(codec)
		return &Clients{
			Producer: memory,
			Consumer: memory.Consumer(cfg.GroupID, log),
			closers:  []func() error{memory.Close},
		}, nil

	default:
		return nil, fmt.Errorf("driver de broker desconhecido: %q", cfg.Driver)
	}
}

// Close encerra todos os clientes na ordem em que foram criados
func (c *Clients) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
