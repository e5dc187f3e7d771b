package realtime

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
	"github.com/igm/sockjs-go/v3/sockjs"
)

// transport carrega um frame STOMP por mensagem do meio subjacente.
// ReadFrame retorna (nil, nil) para heart-beats do cliente.
type transport interface {
	ReadFrame() (*frame.Frame, error)
	WriteFrame(f *frame.Frame) error
	Ping() error
	Close() error
	RemoteAddr() string
}

// frameError indica uma mensagem que não contém um frame STOMP válido
type frameError struct {
	err error
}

func (e *frameError) Error() string {
	return e.err.Error()
}

func (e *frameError) Unwrap() error {
	return e.err
}

// parseFrame lê um frame de uma mensagem; mensagem vazia ou só com EOL é heart-beat
func parseFrame(r io.Reader) (*frame.Frame, error) {
	f, err := frame.NewReader(r).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &frameError{err: err}
	}
	return f, nil
}

type websocketTransport struct {
	conn *websocket.Conn
}

func newWebsocketTransport(conn *websocket.Conn) *websocketTransport {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &websocketTransport{conn: conn}
}

func (t *websocketTransport) ReadFrame() (*frame.Frame, error) {
	_, r, err := t.conn.NextReader()
	if err != nil {
		return nil, err
	}
	return parseFrame(r)
}

func (t *websocketTransport) WriteFrame(f *frame.Frame) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))

	w, err := t.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := frame.NewWriter(w).Write(f); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

func (t *websocketTransport) Ping() error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *websocketTransport) Close() error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return t.conn.Close()
}

func (t *websocketTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// sockjsTransport atende clientes SockJS; cada mensagem SockJS carrega um frame
type sockjsTransport struct {
	session sockjs.Session
}

func (t *sockjsTransport) ReadFrame() (*frame.Frame, error) {
	msg, err := t.session.Recv()
	if err != nil {
		return nil, err
	}
	if len(msg) > maxFrameSize {
		return nil, &frameError{err: errors.New("frame excede o tamanho máximo")}
	}
	return parseFrame(strings.NewReader(msg))
}

func (t *sockjsTransport) WriteFrame(f *frame.Frame) error {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return err
	}
	return t.session.Send(buf.String())
}

// Ping não faz nada; o SockJS envia os próprios heart-beats
func (t *sockjsTransport) Ping() error {
	return nil
}

func (t *sockjsTransport) Close() error {
	return t.session.Close(1000, "Normal closure")
}

func (t *sockjsTransport) RemoteAddr() string {
	if r := t.session.Request(); r != nil {
		return r.RemoteAddr
	}
	return ""
}
