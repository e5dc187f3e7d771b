package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hugohenrick/chat-relay/internal/adapter/repository"
	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/hugohenrick/chat-relay/internal/infrastructure/broker"
	"github.com/hugohenrick/chat-relay/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func startListener(t *testing.T, consumer broker.Consumer, repo chat.Repository) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	listener := NewChatListener(consumer, repo, testLogger())
	go func() { done <- listener.Run(ctx) }()
	return cancel, done
}

func TestChatListener_PublishedMessageReachesBuffer(t *testing.T) {
	req := require.New(t)
	memory := broker.NewMemoryBroker(broker.JSONCodec{})
	defer memory.Close()
	repo := repository.NewMemoryChatRepository(0)

	cancel, done := startListener(t, memory.Consumer("kafka-sandbox", testLogger()), repo)
	defer cancel()

	publisher := NewChatPublisher(memory, time.Second, testLogger())
	req.NoError(publisher.Publish(context.Background(), &chat.Message{Sender: "alice", Content: "hi", GroupID: "g1"}))

	req.Eventually(func() bool { return repo.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	messages, err := repo.List(context.Background())
	req.NoError(err)
	req.Equal("alice", messages[0].Sender)
	req.Equal("hi", messages[0].Content)
	req.Equal("g1", messages[0].GroupID)
	req.NotEmpty(messages[0].Timestamp)

	cancel()
	req.NoError(<-done)
}

func TestChatListener_ConcurrentPublishesAreAllBuffered(t *testing.T) {
	req := require.New(t)
	memory := broker.NewMemoryBroker(broker.JSONCodec{})
	defer memory.Close()
	repo := repository.NewMemoryChatRepository(0)

	cancel, _ := startListener(t, memory.Consumer("kafka-sandbox", testLogger()), repo)
	defer cancel()

	publisher := NewChatPublisher(memory, time.Second, testLogger())
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = publisher.Publish(context.Background(), &chat.Message{Sender: "user", Content: fmt.Sprintf("msg-%d", i)})
		}(i)
	}
	wg.Wait()

	req.Eventually(func() bool { return repo.Len() == n }, 2*time.Second, 10*time.Millisecond)

	messages, err := repo.List(context.Background())
	req.NoError(err)
	seen := make(map[string]bool, n)
	for _, m := range messages {
		seen[m.Content] = true
	}
	req.Len(seen, n)
}

func TestChatListener_FailedPublishAppendsNothing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)
	producer.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	memory := broker.NewMemoryBroker(broker.JSONCodec{})
	defer memory.Close()
	repo := repository.NewMemoryChatRepository(0)
	cancel, _ := startListener(t, memory.Consumer("kafka-sandbox", testLogger()), repo)
	defer cancel()

	publisher := NewChatPublisher(producer, time.Second, testLogger())
	err := publisher.Publish(context.Background(), &chat.Message{Sender: "alice"})
	req.ErrorIs(err, chat.ErrPublishFailed)

	time.Sleep(50 * time.Millisecond)
	req.Equal(0, repo.Len())
}

func TestChatListener_ReturnsConsumerFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	consumer := mocks.NewMockConsumer(ctrl)
	consumer.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	listener := NewChatListener(consumer, repository.NewMemoryChatRepository(0), testLogger())
	err := listener.Run(context.Background())

	req.Error(err)
	req.Contains(err.Error(), "connection refused")
}
