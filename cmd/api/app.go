package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/chat-relay/internal/adapter/api/controller"
	"github.com/hugohenrick/chat-relay/internal/adapter/api/dto"
	"github.com/hugohenrick/chat-relay/internal/adapter/api/route"
	"github.com/hugohenrick/chat-relay/internal/adapter/realtime"
	"github.com/hugohenrick/chat-relay/internal/adapter/repository"
	"github.com/hugohenrick/chat-relay/internal/config"
	"github.com/hugohenrick/chat-relay/internal/infrastructure/broker"
	"github.com/hugohenrick/chat-relay/internal/service"
	"github.com/hugohenrick/chat-relay/pkg/logger"
	"github.com/hugohenrick/chat-relay/pkg/middleware"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 5 * time.Second
)

// App representa a aplicação e suas dependências
type App struct {
	config             *config.Config
	logger             logger.Logger
	router             *gin.Engine
	clients            *broker.Clients
	chatRepository     *repository.MemoryChatRepository
	chatListener       *service.ChatListener
	realtimeServer     *realtime.Server
	chatController     *controller.ChatController
	realtimeController *controller.RealtimeController
}

// NewApp cria uma nova instância do aplicativo
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	// Criar clientes do broker
	clients, err := broker.NewClients(ctx, cfg.Broker, log)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar clientes do broker: %w", err)
	}

	// Criar buffer de mensagens
	chatRepo := repository.NewMemoryChatRepository(cfg.BufferLimit)

	// Criar serviços
	publisher := service.NewChatPublisher(clients.Producer, cfg.Broker.PublishTimeout, log)
	listener := service.NewChatListener(clients.Consumer, chatRepo, log)

	// Criar servidor STOMP
	realtimeServer := realtime.NewServer(realtime.NewSimpleBroker(), cfg.HTTP.AllowedOrigins, cfg.HTTP.WSSendBuffer, log)

	// Criar controllers
	chatController := controller.NewChatController(publisher, chatRepo, log)
	realtimeController := controller.NewRealtimeController(log)
	realtimeController.Register(realtimeServer)

	// Configurar router com modo correto
	gin.SetMode(cfg.HTTP.GinMode)
	router := gin.New()

	// Configurar CORS e outros middlewares globais
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.HTTP.AllowedOrigins))

	return &App{
		config:             cfg,
		logger:             log,
		router:             router,
		clients:            clients,
		chatRepository:     chatRepo,
		chatListener:       listener,
		realtimeServer:     realtimeServer,
		chatController:     chatController,
		realtimeController: realtimeController,
	}, nil
}

// SetupRoutes configura as rotas da aplicação
func (a *App) SetupRoutes(basePath string) {
	api := a.router.Group(basePath)

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status:   "ok",
			Version:  version,
			Buffered: a.chatRepository.Len(),
			Sessions: a.realtimeServer.SessionCount(),
		})
	})

	route.RegisterChatRoutes(api, a.chatController)
	route.RegisterRealtimeRoutes(a.router, a.realtimeServer)
	route.RegisterDocsRoutes(a.router)
}

// GetRouter retorna o router da aplicação
func (a *App) GetRouter() *gin.Engine {
	return a.router
}

// StartListener inicia o consumo do tópico em segundo plano.
// O canal retornado recebe o resultado quando o listener termina.
func (a *App) StartListener(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- a.chatListener.Run(ctx)
	}()
	return done
}

// Start atende HTTP e consome o broker até o contexto ser cancelado
func (a *App) Start(ctx context.Context) error {
	listenerCtx, cancelListener := context.WithCancel(ctx)
	defer cancelListener()
	listenerDone := a.StartListener(listenerCtx)

	srv := &http.Server{
		Addr:              a.config.HTTP.Address(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("servidor HTTP iniciado", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("erro no servidor HTTP: %w", err)
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("encerrando aplicação...")
	case err := <-serverErr:
		runErr = err
	case err := <-listenerDone:
		if err != nil {
			runErr = err
		} else {
			runErr = errors.New("listener de mensagens terminou inesperadamente")
		}
		listenerDone = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("erro ao encerrar servidor HTTP", "error", err)
	}

	cancelListener()
	if listenerDone != nil {
		if err := <-listenerDone; err != nil {
			a.logger.Error("erro ao encerrar listener", "error", err)
		}
	}

	return runErr
}

// Close libera os recursos da aplicação
func (a *App) Close() {
	if a.clients != nil {
		if err := a.clients.Close(); err != nil {
			a.logger.Error("erro ao fechar clientes do broker", "error", err)
		}
	}
	if a.chatRepository != nil {
		_ = a.chatRepository.Close()
	}
}
