package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)

	req.Equal(8080, cfg.HTTP.Port)
	req.Equal("0.0.0.0:8080", cfg.HTTP.Address())
	req.Equal([]string{"*"}, cfg.HTTP.AllowedOrigins)
	req.Equal(DriverKafka, cfg.Broker.Driver)
	req.Equal("json", cfg.Broker.Codec)
	req.Equal([]string{"localhost:9092"}, cfg.Broker.KafkaBrokers)
	req.Equal("kafka-chat", cfg.Broker.Topic)
	req.Equal("kafka-sandbox", cfg.Broker.GroupID)
	req.Equal(10*time.Second, cfg.Broker.PublishTimeout)
	req.Equal(0, cfg.BufferLimit)
}

func TestLoad_FromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("BROKER_DRIVER", "rabbitmq")
	t.Setenv("BROKER_CODEC", "msgpack")
	t.Setenv("KAFKA_TOPIC", "chat")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,http://example.com")
	t.Setenv("PUBLISH_TIMEOUT", "2s")

	cfg, err := Load()
	req.NoError(err)

	req.Equal(DriverRabbitMQ, cfg.Broker.Driver)
	req.Equal("msgpack", cfg.Broker.Codec)
	req.Equal("chat", cfg.Broker.Topic)
	req.Equal(9090, cfg.HTTP.Port)
	req.Equal([]string{"http://localhost:3000", "http://example.com"}, cfg.HTTP.AllowedOrigins)
	req.Equal(2*time.Second, cfg.Broker.PublishTimeout)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("BROKER_DRIVER", "nats")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_NegativeBufferLimit(t *testing.T) {
	t.Setenv("BUFFER_LIMIT", "-1")

	_, err := Load()
	require.Error(t, err)
}
