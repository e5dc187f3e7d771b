// Package stomptest fornece um cliente STOMP mínimo para testes do servidor realtime
package stomptest

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const readTimeout = 2 * time.Second

// Client é um cliente STOMP sobre WebSocket usado nos testes
type Client struct {
	t    testing.TB
	conn *websocket.Conn
}

// Dial conecta no endpoint WebSocket; aceita URLs http:// de um httptest.Server
func Dial(t testing.TB, url string) *Client {
	t.Helper()

	url = strings.Replace(url, "http://", "ws://", 1)
	dialer := websocket.Dialer{Subprotocols: []string{"v12.stomp"}}
	conn, resp, err := dialer.Dial(url, http.Header{})
	if err != nil {
		t.Fatalf("erro ao conectar em %s: %v", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c := &Client{t: t, conn: conn}
	t.Cleanup(c.Close)
	return c
}

// Send envia um frame com os headers informados em pares chave/valor
func (c *Client) Send(command string, body []byte, headers ...string) {
	c.t.Helper()

	f := frame.New(command, headers...)
	f.Body = body

	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		c.t.Fatalf("erro ao abrir writer: %v", err)
	}
	if err := frame.NewWriter(w).Write(f); err != nil {
		c.t.Fatalf("erro ao escrever frame: %v", err)
	}
	if err := w.Close(); err != nil {
		c.t.Fatalf("erro ao enviar frame: %v", err)
	}
}

// SendRaw envia bytes arbitrários em uma mensagem de texto
func (c *Client) SendRaw(data string) {
	c.t.Helper()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(data)); err != nil {
		c.t.Fatalf("erro ao enviar mensagem: %v", err)
	}
}

// Read aguarda o próximo frame do servidor
func (c *Client) Read() *frame.Frame {
	c.t.Helper()

	f, err := c.TryRead(readTimeout)
	if err != nil {
		c.t.Fatalf("erro ao ler frame: %v", err)
	}
	return f
}

// TryRead lê o próximo frame respeitando o timeout informado
func (c *Client) TryRead(timeout time.Duration) (*frame.Frame, error) {
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
		_, r, err := c.conn.NextReader()
		if err != nil {
			return nil, err
		}

		f, err := frame.NewReader(r).Read()
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
	}
}

// Connect envia CONNECT e exige a resposta CONNECTED
func (c *Client) Connect() *frame.Frame {
	c.t.Helper()

	c.Send(frame.CONNECT, nil, frame.AcceptVersion, "1.1,1.2", frame.Host, "localhost")
	f := c.Read()
	if f.Command != frame.CONNECTED {
		c.t.Fatalf("esperado CONNECTED, recebido %s: %s", f.Command, f.Body)
	}
	return f
}

// Subscribe assina o destino e aguarda o RECEIPT correspondente
func (c *Client) Subscribe(id, destination string) {
	c.t.Helper()

	receipt := uuid.NewString()
	c.Send(frame.SUBSCRIBE, nil, frame.Id, id, frame.Destination, destination, frame.Receipt, receipt)
	c.ExpectReceipt(receipt)
}

// ExpectReceipt exige que o próximo frame seja o RECEIPT informado
func (c *Client) ExpectReceipt(receipt string) {
	c.t.Helper()

	f := c.Read()
	if f.Command != frame.RECEIPT || f.Header.Get(frame.ReceiptId) != receipt {
		c.t.Fatalf("esperado RECEIPT %s, recebido %s", receipt, f.Command)
	}
}

// Close encerra a conexão
func (c *Client) Close() {
	_ = c.conn.Close()
}
