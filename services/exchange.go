package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"assistant-telegram/models"
	"assistant-telegram/platform"
)

// ErrorBubbleText replaces the pending placeholder when the assistant call
// fails. The user message stays; the user resends manually.
const ErrorBubbleText = "Erro ao obter resposta do assistente."

// ErrReplyPending rejects a send while one is already outstanding.
var ErrReplyPending = errors.New("a reply is already pending for this conversation")

// Modal identifies a side-effect view the assistant asked the client to open.
type Modal string

const (
	ModalSchedule Modal = "schedule"
	ModalMenu     Modal = "menu"
	ModalOrder    Modal = "order"
)

// Assistant is the remote chat endpoint. Satisfied by *platform.Client.
type Assistant interface {
	SendChat(ctx context.Context, userID, restaurantID, message string) (*platform.ChatReply, error)
}

type exchangeState int

const (
	stateComposing exchangeState = iota
	stateAwaitingReply
)

// Exchange runs the send/reply round trip for one conversation. Invariant:
// at most one outstanding assistant request per conversation; a second Send
// while AwaitingReply fails with ErrReplyPending.
type Exchange struct {
	key       models.ConversationKey
	store     *ConversationStore
	assistant Assistant

	mu    sync.Mutex
	state exchangeState
}

func NewExchange(store *ConversationStore, assistant Assistant, key models.ConversationKey) *Exchange {
	return &Exchange{key: key, store: store, assistant: assistant}
}

// Send appends the user message and a pending placeholder, calls the
// assistant, and resolves the placeholder with the server reply or the fixed
// error bubble. It returns the updated sequence and the modals the reply
// asked for, in schedule, menu, order. Blank input is a no-op. The user
// message is never rolled back; remote failures surface as the error bubble,
// not as an error.
func (e *Exchange) Send(ctx context.Context, text string) ([]models.ChatMessage, []Modal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return e.store.Load(ctx, e.key), nil, nil
	}

	e.mu.Lock()
	if e.state == stateAwaitingReply {
		e.mu.Unlock()
		return nil, nil, ErrReplyPending
	}
	e.state = stateAwaitingReply
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.state = stateComposing
		e.mu.Unlock()
	}()

	// Make sure the sequence is hydrated before appending, so an append on a
	// fresh session cannot clobber cached history.
	e.store.Load(ctx, e.key)

	userMsg := models.ChatMessage{
		ID:        NewLocalMessageID(),
		Kind:      models.MessageUser,
		Text:      text,
		CreatedAt: time.Now(),
	}
	placeholder := models.ChatMessage{
		ID:        NewLocalMessageID(),
		Kind:      models.MessagePending,
		CreatedAt: time.Now(),
	}
	e.store.Append(ctx, e.key, userMsg, placeholder)

	reply, err := e.assistant.SendChat(ctx, e.key.UserID, e.key.RestaurantID, text)
	if err != nil {
		seq := e.store.Resolve(ctx, e.key, placeholder.ID, models.ChatMessage{
			ID:        NewLocalMessageID(),
			Kind:      models.MessageAssistant,
			Text:      ErrorBubbleText,
			CreatedAt: time.Now(),
		})
		return seq, nil, nil
	}

	// Identifier, text and timestamp come from the server, not invented here.
	seq := e.store.Resolve(ctx, e.key, placeholder.ID, models.ChatMessage{
		ID:        reply.ID,
		Kind:      models.MessageAssistant,
		Text:      reply.Message,
		CreatedAt: reply.CreatedAt,
	})

	var modals []Modal
	if reply.Schedule {
		modals = append(modals, ModalSchedule)
	}
	if reply.Menu {
		modals = append(modals, ModalMenu)
	}
	if reply.Order {
		modals = append(modals, ModalOrder)
	}
	return seq, modals, nil
}

// Sending reports whether a request is currently outstanding, used to
// disable the send affordance.
func (e *Exchange) Sending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateAwaitingReply
}
