package broker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

const unreachableRabbitURL = "amqp://guest:guest@" + unreachableBroker + "/"

func withBackoffStep(t *testing.T, step time.Duration) {
	t.Helper()
	previous := rabbitBackoffStep
	rabbitBackoffStep = step
	t.Cleanup(func() { rabbitBackoffStep = previous })
}

func TestDialRabbitMQ_GivesUpAfterMaxAttempts(t *testing.T) {
	req := require.New(t)
	withBackoffStep(t, 10*time.Millisecond)

	start := time.Now()
	conn, err := DialRabbitMQ(context.Background(), unreachableRabbitURL, testLogger())
	req.Nil(conn)
	req.Error(err)
	req.Contains(err.Error(), "5 tentativas")

	// 10+20+30+40ms de espera; nenhuma depois da última tentativa
	req.Less(time.Since(start), time.Second)
}

func TestDialRabbitMQ_StopsWhenContextIsCancelled(t *testing.T) {
	req := require.New(t)
	withBackoffStep(t, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := DialRabbitMQ(ctx, unreachableRabbitURL, testLogger())
	req.ErrorIs(err, context.Canceled)
	req.Less(time.Since(start), time.Second)
}

// rabbitURL retorna a URL de RABBITMQ_TEST_URL ou pula o teste
func rabbitURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("RABBITMQ_TEST_URL")
	if url == "" {
		t.Skip("RABBITMQ_TEST_URL não definido")
	}
	return url
}

func TestRabbitMQ_PublishAndConsumeSkipsUndecodable(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := DialRabbitMQ(ctx, rabbitURL(t), testLogger())
	req.NoError(err)
	defer conn.Close()

	topic := "chat-test-" + uuid.NewString()
	group := "chat-test-" + uuid.NewString()
	req.NoError(EnsureRabbitTopology(conn, topic, group))

	producer, err := NewRabbitMQProducer(conn, topic, JSONCodec{})
	req.NoError(err)
	defer producer.Close()

	raw, err := conn.Channel()
	req.NoError(err)
	defer raw.Close()

	req.NoError(producer.Publish(ctx, chat.Message{Sender: "alice", Content: "1"}))
	req.NoError(raw.PublishWithContext(ctx, topic, "", false, false, amqp091.Publishing{Body: []byte("not json")}))
	req.NoError(producer.Publish(ctx, chat.Message{Sender: "bob", Content: "2"}))

	consumer, err := NewRabbitMQConsumer(conn, group, JSONCodec{}, testLogger())
	req.NoError(err)
	defer consumer.Close()

	got := collectWithin(t, consumer, 2, 5*time.Second)
	req.Len(got, 2)
	req.Equal("1", got[0].Content)
	req.Equal("2", got[1].Content)
}
