// Package realtime implementa o canal STOMP sobre WebSocket usado pelo chat em tempo real
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
	"github.com/hugohenrick/chat-relay/pkg/logger"
	"github.com/igm/sockjs-go/v3/sockjs"
	"github.com/samber/lo"
)

const (
	// AppPrefix identifica destinos tratados por um MessageHandler
	AppPrefix = "/app"
	// TopicPrefix identifica destinos de broadcast
	TopicPrefix = "/topic"

	serverName      = "chat-relay/1.0"
	maxFrameSize    = 64 * 1024
	jsonContentType = "application/json"
)

var supportedVersions = []string{"1.2", "1.1", "1.0"}

// errProtocol indica uma violação do protocolo; a sessão é encerrada depois do ERROR
var errProtocol = errors.New("violação do protocolo STOMP")

// MessageHandler trata o corpo de um SEND para um destino /app.
// O valor retornado é serializado em JSON e enviado ao destino SendTo.
type MessageHandler func(session *Session, body []byte) (interface{}, error)

type mapping struct {
	sendTo  string
	handler MessageHandler
}

// Server aceita conexões WebSocket e conduz as sessões STOMP
type Server struct {
	broker      *SimpleBroker
	upgrader    websocket.Upgrader
	checkOrigin func(r *http.Request) bool
	sendBuffer  int
	logger      logger.Logger

	mu       sync.RWMutex
	mappings map[string]mapping
	sessions atomic.Int64
}

// NewServer cria um novo servidor STOMP.
// Uma lista de origens contendo "*" aceita qualquer origem.
func NewServer(broker *SimpleBroker, allowedOrigins []string, sendBuffer int, log logger.Logger) *Server {
	s := &Server{
		broker:     broker,
		sendBuffer: sendBuffer,
		logger:     log,
		mappings:   make(map[string]mapping),
	}

	s.checkOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowedOrigins, "*") || lo.Contains(allowedOrigins, origin)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		Subprotocols:    []string{"v12.stomp", "v11.stomp", "v10.stomp"},
		CheckOrigin:     s.checkOrigin,
	}

	return s
}

// Handle registra o handler de um destino /app (sem o prefixo) e o destino de resposta
func (s *Server) Handle(destination, sendTo string, handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[destination] = mapping{sendTo: sendTo, handler: handler}
}

// SessionCount retorna o número de sessões abertas
func (s *Server) SessionCount() int {
	return int(s.sessions.Load())
}

// ServeWS faz o upgrade da requisição e atende a sessão até a desconexão
func (s *Server) ServeWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("erro ao fazer upgrade para websocket", "error", err)
		return
	}

	s.serve(newWebsocketTransport(conn), "websocket")
}

// SockJSHandler atende o protocolo SockJS sob o prefixo informado (ex.: /ws-chat)
func (s *Server) SockJSHandler(prefix string) http.Handler {
	opts := sockjs.DefaultOptions
	opts.WebsocketUpgrader = &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	return sockjs.NewHandler(prefix, opts, func(session sockjs.Session) {
		s.serve(&sockjsTransport{session: session}, "sockjs")
	})
}

// ServeSockJS atende as rotas SockJS sob o prefixo. Um pedido de upgrade na raiz
// do prefixo (ex.: /ws-chat/) é tratado como WebSocket puro.
func (s *Server) ServeSockJS(prefix string) gin.HandlerFunc {
	handler := s.SockJSHandler(prefix)
	return func(c *gin.Context) {
		if strings.TrimPrefix(c.Request.URL.Path, prefix) == "/" && websocket.IsWebSocketUpgrade(c.Request) {
			s.ServeWS(c)
			return
		}
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// serve conduz a sessão STOMP até a desconexão
func (s *Server) serve(conn transport, kind string) {
	session := newSession(conn, s.sendBuffer, s.logger)
	s.sessions.Add(1)
	s.logger.Info("sessão aberta", "session", session.ID(), "transport", kind, "remote", conn.RemoteAddr())

	go session.writePump()
	s.readLoop(session)

	s.broker.RemoveSession(session)
	session.close()
	s.sessions.Add(-1)
	s.logger.Info("sessão encerrada", "session", session.ID(), "transport", kind)
}

func (s *Server) readLoop(session *Session) {
	connected := false
	for {
		f, err := session.conn.ReadFrame()
		if err != nil {
			var parseErr *frameError
			if errors.As(err, &parseErr) {
				s.sendError(session, nil, "frame inválido", parseErr.Error())
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("conexão interrompida", "session", session.ID(), "error", err)
			}
			return
		}
		if f == nil {
			// heart-beat do cliente
			continue
		}

		if !connected {
			if f.Command != frame.CONNECT && f.Command != frame.STOMP {
				s.sendError(session, f, "sessão não conectada", "o primeiro frame deve ser CONNECT")
				return
			}
			if err := s.connect(session, f); err != nil {
				return
			}
			connected = true
			continue
		}

		if err := s.dispatch(session, f); err != nil {
			if errors.Is(err, errProtocol) {
				return
			}
			s.sendError(session, f, "erro ao processar mensagem", err.Error())
			continue
		}

		s.sendReceipt(session, f)
		if f.Command == frame.DISCONNECT {
			return
		}
	}
}

func (s *Server) connect(session *Session, f *frame.Frame) error {
	version := "1.0"
	if accept, ok := f.Header.Contains(frame.AcceptVersion); ok {
		offered := strings.Split(accept, ",")
		found := false
		for _, v := range supportedVersions {
			if lo.Contains(offered, v) {
				version, found = v, true
				break
			}
		}
		if !found {
			s.sendError(session, f, "versão não suportada", "versões suportadas: "+strings.Join(supportedVersions, ","))
			return errProtocol
		}
	}

	session.enqueue(frame.New(frame.CONNECTED,
		frame.Version, version,
		frame.HeartBeat, "0,0",
		frame.Server, serverName,
		frame.Session, session.ID(),
	))
	return nil
}

func (s *Server) dispatch(session *Session, f *frame.Frame) error {
	switch f.Command {
	case frame.SUBSCRIBE:
		destination := f.Header.Get(frame.Destination)
		if destination == "" {
			s.sendError(session, f, "destino obrigatório", "SUBSCRIBE sem header destination")
			return errProtocol
		}
		id := f.Header.Get(frame.Id)
		if id == "" {
			id = destination
		}
		s.broker.Subscribe(session, id, destination)
		s.logger.Debug("assinatura registrada", "session", session.ID(), "id", id, "destination", destination)
		return nil

	case frame.UNSUBSCRIBE:
		id := f.Header.Get(frame.Id)
		if id == "" {
			id = f.Header.Get(frame.Destination)
		}
		s.broker.Unsubscribe(session, id)
		return nil

	case frame.SEND:
		return s.handleSend(session, f)

	case frame.DISCONNECT:
		return nil

	case frame.ACK, frame.NACK, frame.BEGIN, frame.COMMIT, frame.ABORT:
		// Sem suporte a transações ou ack explícito; os frames são aceitos e ignorados
		return nil

	default:
		s.sendError(session, f, "comando desconhecido", f.Command)
		return errProtocol
	}
}

func (s *Server) handleSend(session *Session, f *frame.Frame) error {
	destination := f.Header.Get(frame.Destination)

	switch {
	case strings.HasPrefix(destination, AppPrefix+"/"):
		route := strings.TrimPrefix(destination, AppPrefix)

		s.mu.RLock()
		m, ok := s.mappings[route]
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("nenhum handler para o destino %s", destination)
		}

		result, err := m.handler(session, f.Body)
		if err != nil {
			return err
		}

		body, err := encodeJSON(result)
		if err != nil {
			return fmt.Errorf("erro ao serializar resposta: %w", err)
		}

		s.broker.Broadcast(m.sendTo, jsonContentType, body)
		return nil

	case strings.HasPrefix(destination, TopicPrefix+"/"):
		contentType := f.Header.Get(frame.ContentType)
		if contentType == "" {
			contentType = jsonContentType
		}
		s.broker.Broadcast(destination, contentType, f.Body)
		return nil

	default:
		return fmt.Errorf("destino inválido: %q", destination)
	}
}

func (s *Server) sendReceipt(session *Session, f *frame.Frame) {
	receipt, ok := f.Header.Contains(frame.Receipt)
	if !ok {
		return
	}
	session.enqueue(frame.New(frame.RECEIPT, frame.ReceiptId, receipt))
}

func (s *Server) sendError(session *Session, f *frame.Frame, message, details string) {
	s.logger.Warn("erro na sessão STOMP", "session", session.ID(), "message", message, "details", details)

	body := []byte(details)
	errFrame := frame.New(frame.ERROR,
		frame.Message, message,
		frame.ContentType, "text/plain",
		frame.ContentLength, strconv.Itoa(len(body)),
	)
	if f != nil {
		if receipt, ok := f.Header.Contains(frame.Receipt); ok {
			errFrame.Header.Add(frame.ReceiptId, receipt)
		}
	}
	errFrame.Body = body
	session.enqueue(errFrame)
}

func encodeJSON(v interface{}) ([]byte, error) {
	if raw, ok := v.([]byte); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
