package realtime

import (
	"strconv"
	"sync"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// subscription liga um id de assinatura do cliente a um destino
type subscription struct {
	session     *Session
	id          string
	destination string
}

// SimpleBroker mantém as assinaturas por destino e faz o broadcast dos frames MESSAGE
type SimpleBroker struct {
	mu            sync.RWMutex
	byDestination map[string]map[*subscription]struct{}
	bySession     map[*Session]map[string]*subscription
}

// NewSimpleBroker cria um novo broker em memória para os destinos STOMP
func NewSimpleBroker() *SimpleBroker {
	return &SimpleBroker{
		byDestination: make(map[string]map[*subscription]struct{}),
		bySession:     make(map[*Session]map[string]*subscription),
	}
}

// Subscribe registra a assinatura id da sessão no destino.
// Reusar um id substitui a assinatura anterior.
func (b *SimpleBroker) Subscribe(session *Session, id, destination string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.unsubscribeLocked(session, id)

	sub := &subscription{session: session, id: id, destination: destination}
	if b.byDestination[destination] == nil {
		b.byDestination[destination] = make(map[*subscription]struct{})
	}
	b.byDestination[destination][sub] = struct{}{}

	if b.bySession[session] == nil {
		b.bySession[session] = make(map[string]*subscription)
	}
	b.bySession[session][id] = sub
}

// Unsubscribe remove a assinatura id da sessão
func (b *SimpleBroker) Unsubscribe(session *Session, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unsubscribeLocked(session, id)
}

func (b *SimpleBroker) unsubscribeLocked(session *Session, id string) bool {
	sub, ok := b.bySession[session][id]
	if !ok {
		return false
	}

	delete(b.bySession[session], id)
	if len(b.bySession[session]) == 0 {
		delete(b.bySession, session)
	}

	delete(b.byDestination[sub.destination], sub)
	if len(b.byDestination[sub.destination]) == 0 {
		delete(b.byDestination, sub.destination)
	}
	return true
}

// RemoveSession remove todas as assinaturas da sessão
func (b *SimpleBroker) RemoveSession(session *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range lo.Keys(b.bySession[session]) {
		b.unsubscribeLocked(session, id)
	}
}

// SubscriberCount retorna quantas assinaturas existem no destino
func (b *SimpleBroker) SubscriberCount(destination string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byDestination[destination])
}

// Broadcast envia o corpo a todas as assinaturas do destino e retorna quantas receberam
func (b *SimpleBroker) Broadcast(destination, contentType string, body []byte) int {
	b.mu.RLock()
	subs := lo.Keys(b.byDestination[destination])
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		f := frame.New(frame.MESSAGE,
			frame.Destination, destination,
			frame.Subscription, sub.id,
			frame.MessageId, uuid.NewString(),
			frame.ContentType, contentType,
			frame.ContentLength, strconv.Itoa(len(body)),
		)
		f.Body = body

		if sub.session.enqueue(f) {
			delivered++
		}
	}
	return delivered
}
