package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"assistant-telegram/db"
	"assistant-telegram/models"
)

// GreetingText seeds every fresh conversation so the sequence is never empty.
const GreetingText = "Olá! Sou o assistente virtual do restaurante. Como posso ajudá-lo hoje?"

func NewGreeting() models.ChatMessage {
	return models.ChatMessage{
		ID:        NewLocalMessageID(),
		Kind:      models.MessageAssistant,
		Text:      GreetingText,
		CreatedAt: time.Now(),
	}
}

// HistoryFetcher loads remote conversation history. Satisfied by *platform.Client.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, userID, restaurantID string) ([]models.ChatMessage, error)
}

// ConversationRepo is the local cache: one serialized message sequence per
// (user, restaurant) pair.
type ConversationRepo interface {
	Load(ctx context.Context, key models.ConversationKey) ([]models.ChatMessage, bool, error)
	Save(ctx context.Context, key models.ConversationKey, msgs []models.ChatMessage) error
	Delete(ctx context.Context, key models.ConversationKey) error
}

// ConversationStore owns the in-memory message sequences and keeps the local
// cache in sync. Load falls back to remote history, then to the greeting;
// it never returns an error to the caller.
type ConversationStore struct {
	repo   ConversationRepo
	remote HistoryFetcher

	mu   sync.Mutex
	seqs map[models.ConversationKey][]models.ChatMessage
}

func NewConversationStore(repo ConversationRepo, remote HistoryFetcher) *ConversationStore {
	return &ConversationStore{
		repo:   repo,
		remote: remote,
		seqs:   make(map[models.ConversationKey][]models.ChatMessage),
	}
}

// Load returns the conversation for key: in-memory sequence, else the cached
// row, else remote history, else a single greeting. Fails soft on every path.
func (s *ConversationStore) Load(ctx context.Context, key models.ConversationKey) []models.ChatMessage {
	s.mu.Lock()
	if seq, ok := s.seqs[key]; ok {
		defer s.mu.Unlock()
		return copyMessages(seq)
	}
	s.mu.Unlock()

	seq, ok, err := s.repo.Load(ctx, key)
	if err != nil || !ok || len(seq) == 0 {
		seq = s.loadRemote(ctx, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[key] = seq
	return copyMessages(seq)
}

func (s *ConversationStore) loadRemote(ctx context.Context, key models.ConversationKey) []models.ChatMessage {
	msgs, err := s.remote.FetchHistory(ctx, key.UserID, key.RestaurantID)
	if err != nil || len(msgs) == 0 {
		return []models.ChatMessage{NewGreeting()}
	}
	return msgs
}

// Append adds messages to the sequence and persists the whole blob. Pending
// placeholders are kept in memory but never written to the cache.
func (s *ConversationStore) Append(ctx context.Context, key models.ConversationKey, msgs ...models.ChatMessage) []models.ChatMessage {
	s.mu.Lock()
	seq := append(s.seqs[key], msgs...)
	s.seqs[key] = seq
	out := copyMessages(seq)
	s.mu.Unlock()

	s.persist(ctx, key, out)
	return out
}

// Resolve removes the message with id and appends replacement in its stead,
// used to swap a pending placeholder for the real (or error) reply.
func (s *ConversationStore) Resolve(ctx context.Context, key models.ConversationKey, id string, replacement models.ChatMessage) []models.ChatMessage {
	s.mu.Lock()
	old := s.seqs[key]
	seq := make([]models.ChatMessage, 0, len(old))
	for _, m := range old {
		if m.ID != id {
			seq = append(seq, m)
		}
	}
	seq = append(seq, replacement)
	s.seqs[key] = seq
	out := copyMessages(seq)
	s.mu.Unlock()

	s.persist(ctx, key, out)
	return out
}

// Clear resets the conversation to a single fresh greeting and removes the
// cache entry. Destructive; callers confirm with the user first.
func (s *ConversationStore) Clear(ctx context.Context, key models.ConversationKey) []models.ChatMessage {
	seq := []models.ChatMessage{NewGreeting()}
	s.mu.Lock()
	s.seqs[key] = seq
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, key); err != nil {
		logWarn("delete conversation cache", err)
	}
	return copyMessages(seq)
}

func (s *ConversationStore) persist(ctx context.Context, key models.ConversationKey, seq []models.ChatMessage) {
	persisted := seq[:0:0]
	for _, m := range seq {
		if !m.Pending() {
			persisted = append(persisted, m)
		}
	}
	if err := s.repo.Save(ctx, key, persisted); err != nil {
		logWarn("save conversation cache", err)
	}
}

func copyMessages(seq []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(seq))
	copy(out, seq)
	return out
}

// PgConversations stores each sequence as a JSON blob keyed by the composite
// (user_id, restaurant_id) primary key.
type PgConversations struct{}

func (PgConversations) Load(ctx context.Context, key models.ConversationKey) ([]models.ChatMessage, bool, error) {
	var blob []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT messages FROM conversations
		WHERE user_id = $1 AND restaurant_id = $2`,
		key.UserID, key.RestaurantID,
	).Scan(&blob)
	if err != nil {
		// No row (or unreadable row): treat as a cache miss.
		return nil, false, nil
	}
	var msgs []models.ChatMessage
	if err := json.Unmarshal(blob, &msgs); err != nil {
		return nil, false, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return msgs, true, nil
}

func (PgConversations) Save(ctx context.Context, key models.ConversationKey, msgs []models.ChatMessage) error {
	blob, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO conversations (user_id, restaurant_id, messages, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, restaurant_id) DO UPDATE SET
			messages = $3,
			updated_at = now()`,
		key.UserID, key.RestaurantID, blob,
	)
	return err
}

func (PgConversations) Delete(ctx context.Context, key models.ConversationKey) error {
	_, err := db.Pool.Exec(ctx, `
		DELETE FROM conversations WHERE user_id = $1 AND restaurant_id = $2`,
		key.UserID, key.RestaurantID,
	)
	return err
}
