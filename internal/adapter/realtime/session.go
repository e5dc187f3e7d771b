package realtime

import (
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/hugohenrick/chat-relay/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session representa a conexão de um cliente STOMP
type Session struct {
	id     string
	conn   transport
	send   chan *frame.Frame
	done   chan struct{}
	once   sync.Once
	logger logger.Logger

	mu         sync.RWMutex
	attributes map[string]interface{}
}

func newSession(conn transport, sendBuffer int, log logger.Logger) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 1
	}

	return &Session{
		id:         uuid.NewString(),
		conn:       conn,
		send:       make(chan *frame.Frame, sendBuffer),
		done:       make(chan struct{}),
		logger:     log,
		attributes: make(map[string]interface{}),
	}
}

// ID retorna o identificador da sessão
func (s *Session) ID() string {
	return s.id
}

// SetAttribute grava um atributo na sessão
func (s *Session) SetAttribute(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[key] = value
}

// Attribute lê um atributo da sessão
func (s *Session) Attribute(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.attributes[key]
	return value, ok
}

// enqueue coloca o frame na fila de saída sem bloquear.
// Com a fila cheia o frame é descartado apenas para esta sessão.
func (s *Session) enqueue(f *frame.Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- f:
		return true
	default:
		s.logger.Warn("fila de saída cheia, frame descartado", "session", s.id, "command", f.Command)
		return false
	}
}

// close sinaliza o fim da sessão; o writePump envia os frames pendentes e fecha a conexão
func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// writePump é o único goroutine que escreve na conexão
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f := <-s.send:
			if err := s.conn.WriteFrame(f); err != nil {
				s.logger.Debug("erro ao escrever frame", "session", s.id, "error", err)
				s.close()
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				s.close()
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			s.flush()
			_ = s.conn.Close()
			return
		}
	}
}

// flush escreve o que ainda estiver na fila, como RECEIPT de DISCONNECT ou ERROR
func (s *Session) flush() {
	for {
		select {
		case f := <-s.send:
			if err := s.conn.WriteFrame(f); err != nil {
				return
			}
		default:
			return
		}
	}
}
