package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hugohenrick/chat-relay/internal/adapter/api/dto"
	"github.com/hugohenrick/chat-relay/internal/config"
	"github.com/hugohenrick/chat-relay/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{
		LogLevel: "error",
		HTTP: config.HTTPConfig{
			GinMode:        "test",
			AllowedOrigins: []string{"*"},
			WSSendBuffer:   16,
		},
		Broker: config.BrokerConfig{
			Driver:         config.DriverMemory,
			Codec:          "json",
			Topic:          "kafka-chat",
			GroupID:        "kafka-sandbox",
			PublishTimeout: time.Second,
		},
	}

	app, err := NewApp(context.Background(), cfg, logger.NewLoggerWithOutput("error", io.Discard))
	require.NoError(t, err)
	app.SetupRoutes("/api")
	t.Cleanup(app.Close)
	return app
}

func getMessages(t *testing.T, app *App, group string) []dto.MessageResponse {
	t.Helper()
	w := httptest.NewRecorder()
	app.GetRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/messages/"+group, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var messages []dto.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	return messages
}

func TestApp_PublishedMessageIsListed(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := app.StartListener(ctx)
	defer func() {
		cancel()
		<-done
	}()

	req.Empty(getMessages(t, app, "g1"))

	r := httptest.NewRequest(http.MethodPost, "/api/send", strings.NewReader(`{"sender":"alice","content":"hi","groupId":"g1"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.GetRouter().ServeHTTP(w, r)
	req.Equal(http.StatusOK, w.Code)

	req.Eventually(func() bool { return len(getMessages(t, app, "anything")) == 1 }, 2*time.Second, 10*time.Millisecond)

	messages := getMessages(t, app, "g1")
	req.Equal("alice", messages[0].Sender)
	req.NotEmpty(messages[0].Timestamp)
}

func TestApp_Health(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.GetRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	req.Equal(http.StatusOK, w.Code)
	var health dto.HealthResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &health))
	req.Equal("ok", health.Status)
	req.Equal(0, health.Buffered)
}

func TestApp_StartStopsOnContextCancel(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)
	app.config.HTTP.Host = "127.0.0.1"
	app.config.HTTP.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(3 * time.Second):
		req.Fail("Start should return after the context is cancelled")
	}
}
