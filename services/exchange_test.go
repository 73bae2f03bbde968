package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"assistant-telegram/models"
	"assistant-telegram/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssistant struct {
	reply *platform.ChatReply
	err   error
	calls int
	block chan struct{} // when set, SendChat waits until it is closed
}

func (f *fakeAssistant) SendChat(ctx context.Context, userID, restaurantID, message string) (*platform.ChatReply, error) {
	f.calls++
	if f.block != nil {
		<-f.block
	}
	return f.reply, f.err
}

func newTestExchange(assistant Assistant) (*Exchange, *ConversationStore) {
	store := NewConversationStore(newMemRepo(), &fakeHistory{})
	store.Load(context.Background(), testKey)
	return NewExchange(store, assistant, testKey), store
}

func TestSendRoundTrip(t *testing.T) {
	assistant := &fakeAssistant{reply: &platform.ChatReply{
		ID:        "srv1",
		Message:   "Temos hambúrguer e refrigerante.",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	ex, _ := newTestExchange(assistant)

	seq, modals, err := ex.Send(context.Background(), "o que vocês têm?")
	require.NoError(t, err)
	assert.Empty(t, modals)

	// greeting + user message + resolved reply
	require.Len(t, seq, 3)
	for _, m := range seq {
		assert.False(t, m.Pending(), "no pending marker may survive resolution")
	}
	assert.Equal(t, models.MessageUser, seq[1].Kind)
	assert.Equal(t, "o que vocês têm?", seq[1].Text)

	last := seq[2]
	assert.Equal(t, "srv1", last.ID, "reply identity comes from the server")
	assert.Equal(t, models.MessageAssistant, last.Kind)
	assert.Equal(t, assistant.reply.Message, last.Text)
	assert.Equal(t, assistant.reply.CreatedAt, last.CreatedAt)
}

func TestSendBlankInputIsNoOp(t *testing.T) {
	assistant := &fakeAssistant{}
	ex, _ := newTestExchange(assistant)

	seq, modals, err := ex.Send(context.Background(), "   \n\t ")
	require.NoError(t, err)
	assert.Empty(t, modals)
	assert.Len(t, seq, 1, "blank input must not append anything")
	assert.Zero(t, assistant.calls)
}

func TestSendFailureKeepsUserMessageAndShowsErrorBubble(t *testing.T) {
	ex, _ := newTestExchange(&fakeAssistant{err: errors.New("timeout")})

	seq, modals, err := ex.Send(context.Background(), "oi")
	require.NoError(t, err, "remote failures surface as the error bubble, not an error")
	assert.Empty(t, modals)

	require.Len(t, seq, 3)
	assert.Equal(t, models.MessageUser, seq[1].Kind, "optimistic user message is never rolled back")
	last := seq[2]
	assert.Equal(t, models.MessageAssistant, last.Kind)
	assert.Equal(t, ErrorBubbleText, last.Text)
	for _, m := range seq {
		assert.False(t, m.Pending())
	}
}

func TestSendFailureThenRetrySucceeds(t *testing.T) {
	assistant := &fakeAssistant{err: errors.New("timeout")}
	ex, _ := newTestExchange(assistant)

	_, _, err := ex.Send(context.Background(), "oi")
	require.NoError(t, err)

	// state must be back to composing; a manual resend goes through
	assistant.err = nil
	assistant.reply = &platform.ChatReply{ID: "srv2", Message: "olá!", CreatedAt: time.Now()}
	seq, _, err := ex.Send(context.Background(), "oi de novo")
	require.NoError(t, err)
	assert.Equal(t, "srv2", seq[len(seq)-1].ID)
}

func TestSendModalTriggersFireInOrder(t *testing.T) {
	tests := []struct {
		name  string
		reply platform.ChatReply
		want  []Modal
	}{
		{"none", platform.ChatReply{ID: "a"}, nil},
		{"schedule_only", platform.ChatReply{ID: "a", Schedule: true}, []Modal{ModalSchedule}},
		{"schedule_and_menu", platform.ChatReply{ID: "a", Schedule: true, Menu: true}, []Modal{ModalSchedule, ModalMenu}},
		{"all_three", platform.ChatReply{ID: "a", Schedule: true, Menu: true, Order: true}, []Modal{ModalSchedule, ModalMenu, ModalOrder}},
		{"order_only", platform.ChatReply{ID: "a", Order: true}, []Modal{ModalOrder}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := tt.reply
			ex, _ := newTestExchange(&fakeAssistant{reply: &reply})
			_, modals, err := ex.Send(context.Background(), "oi")
			require.NoError(t, err)
			assert.Equal(t, tt.want, modals)
		})
	}
}

func TestSendRejectsConcurrentRequest(t *testing.T) {
	assistant := &fakeAssistant{
		reply: &platform.ChatReply{ID: "srv1", Message: "olá", CreatedAt: time.Now()},
		block: make(chan struct{}),
	}
	ex, _ := newTestExchange(assistant)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = ex.Send(context.Background(), "primeira")
	}()

	// wait for the first send to be in flight
	deadline := time.After(2 * time.Second)
	for !ex.Sending() {
		select {
		case <-deadline:
			t.Fatal("first send never reached the awaiting-reply state")
		case <-time.After(5 * time.Millisecond):
		}
	}

	_, _, err := ex.Send(context.Background(), "segunda")
	assert.ErrorIs(t, err, ErrReplyPending)

	close(assistant.block)
	<-done
	assert.False(t, ex.Sending())
	assert.Equal(t, 1, assistant.calls, "the rejected send must not reach the assistant")
}
