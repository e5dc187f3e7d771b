package dto

// RealtimeMessage é a mensagem trocada pelo canal STOMP.
// Campos vazios são omitidos para que o payload seja devolvido como foi recebido.
type RealtimeMessage struct {
	Sender    string `json:"sender,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
}
