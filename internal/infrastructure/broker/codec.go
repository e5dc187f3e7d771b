package broker

import (
	"encoding/json"
	"fmt"

	"github.com/hugohenrick/chat-relay/internal/domain/chat"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec converte mensagens de chat para o formato trafegado no broker
type Codec interface {
	Encode(message chat.Message) ([]byte, error)
	Decode(data []byte) (chat.Message, error)
	ContentType() string
}

// NewCodec retorna o codec pelo nome configurado
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("codec desconhecido: %q", name)
	}
}

// JSONCodec serializa mensagens em JSON
type JSONCodec struct{}

func (JSONCodec) Encode(message chat.Message) ([]byte, error) {
	return json.Marshal(message)
}

func (JSONCodec) Decode(data []byte) (chat.Message, error) {
	var message chat.Message
	err := json.Unmarshal(data, &message)
	return message, err
}

func (JSONCodec) ContentType() string { return "application/json" }

// MsgpackCodec serializa mensagens em msgpack
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(message chat.Message) ([]byte, error) {
	return msgpack.Marshal(&message)
}

func (MsgpackCodec) Decode(data []byte) (chat.Message, error) {
	var message chat.Message
	err := msgpack.Unmarshal(data, &message)
	return message, err
}

func (MsgpackCodec) ContentType() string { return "application/x-msgpack" }
