package chat

import "errors"

// Erros comuns relacionados ao chat
var (
	// ErrRepositoryClosed ocorre ao adicionar mensagens depois do encerramento do buffer
	ErrRepositoryClosed = errors.New("buffer de mensagens encerrado")

	// ErrPublishFailed ocorre quando o broker não confirma o envio da mensagem
	ErrPublishFailed = errors.New("falha ao publicar mensagem no broker")
)
