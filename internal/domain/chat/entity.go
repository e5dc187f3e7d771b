package chat

import "time"

// TimestampLayout é o formato textual usado no carimbo de data/hora das mensagens
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Message representa uma mensagem de chat trafegada pelo broker e pelo WebSocket
type Message struct {
	Sender    string `json:"sender" msgpack:"sender"`
	Content   string `json:"content" msgpack:"content"`
	Timestamp string `json:"timestamp" msgpack:"timestamp"`
	GroupID   string `json:"groupId" msgpack:"groupId"`
}

// Stamp sobrescreve o timestamp da mensagem com o horário do servidor
func (m *Message) Stamp(now time.Time) {
	m.Timestamp = now.Format(TimestampLayout)
}
