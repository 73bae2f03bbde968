package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"assistant-telegram/models"
)

type memRepo struct {
	mu      sync.Mutex
	rows    map[models.ConversationKey][]models.ChatMessage
	saveErr error
	deletes int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[models.ConversationKey][]models.ChatMessage)}
}

func (r *memRepo) Load(ctx context.Context, key models.ConversationKey) ([]models.ChatMessage, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs, ok := r.rows[key]
	return msgs, ok, nil
}

func (r *memRepo) Save(ctx context.Context, key models.ConversationKey, msgs []models.ChatMessage) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[key] = msgs
	return nil
}

func (r *memRepo) Delete(ctx context.Context, key models.ConversationKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, key)
	r.deletes++
	return nil
}

type fakeHistory struct {
	msgs []models.ChatMessage
	err  error
}

func (f *fakeHistory) FetchHistory(ctx context.Context, userID, restaurantID string) ([]models.ChatMessage, error) {
	return f.msgs, f.err
}

var testKey = models.ConversationKey{UserID: "u1", RestaurantID: "r1"}

func TestLoadEmptyEverywhereSeedsGreeting(t *testing.T) {
	store := NewConversationStore(newMemRepo(), &fakeHistory{})

	seq := store.Load(context.Background(), testKey)
	if len(seq) != 1 {
		t.Fatalf("sequence length = %d, want 1", len(seq))
	}
	if seq[0].Text != GreetingText || seq[0].Kind != models.MessageAssistant {
		t.Errorf("seed message = %+v, want assistant greeting", seq[0])
	}
}

func TestLoadFailsSoftOnRemoteError(t *testing.T) {
	store := NewConversationStore(newMemRepo(), &fakeHistory{err: errors.New("network down")})

	seq := store.Load(context.Background(), testKey)
	if len(seq) != 1 || seq[0].Text != GreetingText {
		t.Fatalf("remote failure must yield the greeting, got %+v", seq)
	}
}

func TestLoadPrefersCachedRow(t *testing.T) {
	repo := newMemRepo()
	cached := []models.ChatMessage{
		{ID: "1", Kind: models.MessageAssistant, Text: GreetingText},
		{ID: "2", Kind: models.MessageUser, Text: "oi"},
	}
	repo.rows[testKey] = cached
	store := NewConversationStore(repo, &fakeHistory{err: errors.New("must not be called")})

	seq := store.Load(context.Background(), testKey)
	if len(seq) != 2 || seq[1].Text != "oi" {
		t.Fatalf("cached sequence not used: %+v", seq)
	}
}

func TestLoadFallsBackToRemoteHistory(t *testing.T) {
	remote := &fakeHistory{msgs: []models.ChatMessage{
		{ID: "h1", Kind: models.MessageUser, Text: "quero um lanche", CreatedAt: time.Now()},
		{ID: "h2", Kind: models.MessageAssistant, Text: "claro!", CreatedAt: time.Now()},
	}}
	store := NewConversationStore(newMemRepo(), remote)

	seq := store.Load(context.Background(), testKey)
	if len(seq) != 2 || seq[0].ID != "h1" || seq[1].ID != "h2" {
		t.Fatalf("remote history not used: %+v", seq)
	}
}

func TestAppendPersistsWholeSequence(t *testing.T) {
	repo := newMemRepo()
	store := NewConversationStore(repo, &fakeHistory{})
	store.Load(context.Background(), testKey)

	seq := store.Append(context.Background(), testKey, models.ChatMessage{
		ID: "m1", Kind: models.MessageUser, Text: "oi",
	})
	if len(seq) != 2 {
		t.Fatalf("sequence length = %d, want 2", len(seq))
	}
	saved, ok, _ := repo.Load(context.Background(), testKey)
	if !ok || len(saved) != 2 {
		t.Fatalf("persisted blob = %+v, want full sequence", saved)
	}
}

func TestPendingPlaceholdersNeverPersisted(t *testing.T) {
	repo := newMemRepo()
	store := NewConversationStore(repo, &fakeHistory{})
	store.Load(context.Background(), testKey)

	store.Append(context.Background(), testKey,
		models.ChatMessage{ID: "m1", Kind: models.MessageUser, Text: "oi"},
		models.ChatMessage{ID: "p1", Kind: models.MessagePending},
	)

	saved, _, _ := repo.Load(context.Background(), testKey)
	for _, m := range saved {
		if m.Pending() {
			t.Fatalf("pending placeholder leaked into the cache: %+v", saved)
		}
	}
	if len(saved) != 2 { // greeting + user message
		t.Errorf("persisted length = %d, want 2", len(saved))
	}
}

func TestResolveSwapsPlaceholder(t *testing.T) {
	store := NewConversationStore(newMemRepo(), &fakeHistory{})
	store.Load(context.Background(), testKey)
	store.Append(context.Background(), testKey,
		models.ChatMessage{ID: "m1", Kind: models.MessageUser, Text: "oi"},
		models.ChatMessage{ID: "p1", Kind: models.MessagePending},
	)

	seq := store.Resolve(context.Background(), testKey, "p1", models.ChatMessage{
		ID: "srv1", Kind: models.MessageAssistant, Text: "olá!",
	})
	for _, m := range seq {
		if m.ID == "p1" {
			t.Error("placeholder still present after resolve")
		}
	}
	if last := seq[len(seq)-1]; last.ID != "srv1" {
		t.Errorf("last message = %+v, want server reply", last)
	}
}

func TestClearLeavesExactlyOneGreeting(t *testing.T) {
	repo := newMemRepo()
	store := NewConversationStore(repo, &fakeHistory{})
	store.Load(context.Background(), testKey)
	for i := 0; i < 10; i++ {
		store.Append(context.Background(), testKey, models.ChatMessage{
			ID: NewLocalMessageID(), Kind: models.MessageUser, Text: "oi",
		})
	}

	seq := store.Clear(context.Background(), testKey)
	if len(seq) != 1 || seq[0].Text != GreetingText {
		t.Fatalf("after clear: %+v, want single greeting", seq)
	}
	if repo.deletes != 1 {
		t.Errorf("cache deletes = %d, want 1", repo.deletes)
	}
	if _, ok, _ := repo.Load(context.Background(), testKey); ok {
		t.Error("cache entry should be gone after clear")
	}
}

func TestDistinctKeysIsolated(t *testing.T) {
	store := NewConversationStore(newMemRepo(), &fakeHistory{})
	other := models.ConversationKey{UserID: "u1", RestaurantID: "r2"}
	store.Load(context.Background(), testKey)
	store.Load(context.Background(), other)

	store.Append(context.Background(), testKey, models.ChatMessage{
		ID: "m1", Kind: models.MessageUser, Text: "só aqui",
	})

	if seq := store.Load(context.Background(), other); len(seq) != 1 {
		t.Errorf("other conversation grew to %d messages, want 1", len(seq))
	}
}
