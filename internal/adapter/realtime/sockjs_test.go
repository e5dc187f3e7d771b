package realtime

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hugohenrick/chat-relay/internal/adapter/realtime/stomptest"
	"github.com/hugohenrick/chat-relay/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newSockJSTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := NewServer(NewSimpleBroker(), []string{"*"}, 16, logger.NewLoggerWithOutput("error", io.Discard))
	router := gin.New()
	router.GET("/ws-chat", server.ServeWS)
	router.Any("/ws-chat/*path", server.ServeSockJS("/ws-chat"))

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return server, ts
}

// sockjsClient fala STOMP pelo transporte websocket do SockJS
type sockjsClient struct {
	t       *testing.T
	conn    *websocket.Conn
	pending []string
}

func dialSockJS(t *testing.T, baseURL string) *sockjsClient {
	t.Helper()

	url := strings.Replace(baseURL, "http://", "ws://", 1) + "/ws-chat/000/" + uuid.NewString()[:8] + "/websocket"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	c := &sockjsClient{t: t, conn: conn}
	require.Equal(t, "o", c.readRaw())
	return c
}

func (c *sockjsClient) readRaw() string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	return string(data)
}

func (c *sockjsClient) send(command string, body []byte, headers ...string) {
	c.t.Helper()

	f := frame.New(command, headers...)
	f.Body = body

	var buf bytes.Buffer
	require.NoError(c.t, frame.NewWriter(&buf).Write(f))
	payload, err := json.Marshal([]string{buf.String()})
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, payload))
}

func (c *sockjsClient) read() *frame.Frame {
	c.t.Helper()

	for len(c.pending) == 0 {
		raw := c.readRaw()
		switch {
		case raw == "h":
			continue
		case strings.HasPrefix(raw, "a"):
			var messages []string
			require.NoError(c.t, json.Unmarshal([]byte(raw[1:]), &messages))
			c.pending = append(c.pending, messages...)
		default:
			c.t.Fatalf("mensagem SockJS inesperada: %s", raw)
		}
	}

	msg := c.pending[0]
	c.pending = c.pending[1:]

	f, err := frame.NewReader(strings.NewReader(msg)).Read()
	require.NoError(c.t, err)
	require.NotNil(c.t, f)
	return f
}

func TestServer_SockJSInfo(t *testing.T) {
	req := require.New(t)
	_, ts := newSockJSTestServer(t)

	resp, err := http.Get(ts.URL + "/ws-chat/info")
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	var info map[string]interface{}
	req.NoError(json.NewDecoder(resp.Body).Decode(&info))
	req.Equal(true, info["websocket"])
}

func TestServer_SockJSSessionSpeaksStomp(t *testing.T) {
	req := require.New(t)
	server, ts := newSockJSTestServer(t)

	client := dialSockJS(t, ts.URL)
	client.send(frame.CONNECT, nil, frame.AcceptVersion, "1.1,1.2", frame.Host, "localhost")
	connected := client.read()
	req.Equal(frame.CONNECTED, connected.Command)
	req.Equal("1.2", connected.Header.Get(frame.Version))

	client.send(frame.SUBSCRIBE, nil, frame.Id, "sub-0", frame.Destination, "/topic/group", frame.Receipt, "r1")
	receipt := client.read()
	req.Equal(frame.RECEIPT, receipt.Command)
	req.Equal("r1", receipt.Header.Get(frame.ReceiptId))
	req.Equal(1, server.broker.SubscriberCount("/topic/group"))

	client.send(frame.SEND, []byte(`{"sender":"alice"}`), frame.Destination, "/topic/group")
	msg := client.read()
	req.Equal(frame.MESSAGE, msg.Command)
	req.Equal("sub-0", msg.Header.Get(frame.Subscription))
	req.JSONEq(`{"sender":"alice"}`, string(msg.Body))
}

func TestServer_SockJSAndWebsocketShareTopics(t *testing.T) {
	req := require.New(t)
	_, ts := newSockJSTestServer(t)

	plain := stomptest.Dial(t, ts.URL+"/ws-chat")
	plain.Connect()
	plain.Subscribe("sub-0", "/topic/group")

	client := dialSockJS(t, ts.URL)
	client.send(frame.CONNECT, nil, frame.AcceptVersion, "1.2")
	req.Equal(frame.CONNECTED, client.read().Command)
	client.send(frame.SEND, []byte(`{"sender":"bob"}`), frame.Destination, "/topic/group")

	f := plain.Read()
	req.Equal(frame.MESSAGE, f.Command)
	req.JSONEq(`{"sender":"bob"}`, string(f.Body))
}

func TestServer_UpgradeAtPrefixRootIsPlainWebsocket(t *testing.T) {
	req := require.New(t)
	_, ts := newSockJSTestServer(t)

	client := stomptest.Dial(t, ts.URL+"/ws-chat/")
	connected := client.Connect()
	req.Equal(frame.CONNECTED, connected.Command)
}
