package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/model"
	"github.com/AdityaRoy101/Real-Time-Production-Grade-Chat-Application-Backend/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------
// In-memory fakes implementing the repo interfaces
// -----------------------------------------------------------------

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return "", repo.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	f.users[user.ID.Hex()] = user
	return user.ID.Hex(), nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) FindSummaries(ctx context.Context, ids []string) ([]model.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summaries := make([]model.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			summaries = append(summaries, u.Summary())
		}
	}
	return summaries, nil
}

func (f *fakeUserRepo) ListOthers(ctx context.Context, excludeID string) ([]model.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summaries := make([]model.UserSummary, 0, len(f.users))
	for id, u := range f.users {
		if id != excludeID {
			summaries = append(summaries, u.Summary())
		}
	}
	return summaries, nil
}

func (f *fakeUserRepo) SetOnline(ctx context.Context, userID string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.Online = online
	if !online {
		u.LastActive = time.Now()
	}
	return nil
}

// fakeConversationRepo enforces pair uniqueness under a lock, the way
// the real store does with its unique pair_key index.
type fakeConversationRepo struct {
	mu     sync.Mutex
	byPair map[string]*model.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byPair: make(map[string]*model.Conversation)}
}

func (f *fakeConversationRepo) GetOrCreate(ctx context.Context, a, b string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := model.PairKey(a, b)
	if existing, ok := f.byPair[key]; ok {
		clone := *existing
		return &clone, nil
	}
	now := time.Now()
	conversation := &model.Conversation{
		ID:           primitive.NewObjectID(),
		Participants: []string{a, b},
		PairKey:      key,
		UnreadCount:  map[string]int{a: 0, b: 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byPair[key] = conversation
	clone := *conversation
	return &clone, nil
}

func (f *fakeConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byPair {
		if c.ID.Hex() == id {
			clone := *c
			return &clone, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeConversationRepo) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Conversation
	for _, c := range f.byPair {
		if c.HasParticipant(userID) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ti, tj := time.Time{}, time.Time{}
		if result[i].LastMessage != nil {
			ti = result[i].LastMessage.Timestamp
		}
		if result[j].LastMessage != nil {
			tj = result[j].LastMessage.Timestamp
		}
		return ti.After(tj)
	})
	return result, nil
}

func (f *fakeConversationRepo) UpdateSummary(ctx context.Context, id string, last model.LastMessage, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byPair {
		if c.ID.Hex() == id {
			lastCopy := last
			c.LastMessage = &lastCopy
			c.UnreadCount[recipientID]++
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeConversationRepo) ResetUnread(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byPair {
		if c.ID.Hex() == id {
			c.UnreadCount[userID] = 0
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeConversationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byPair)
}

func (f *fakeConversationRepo) get(id string) *model.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byPair {
		if c.ID.Hex() == id {
			clone := *c
			return &clone
		}
	}
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []model.Message
}

func (f *fakeMessageRepo) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	if msg.MessageType == "" {
		msg.MessageType = model.MessageTypeText
	}
	msg.Read = false
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	f.messages = append(f.messages, *msg)
	clone := *msg
	return &clone, nil
}

func (f *fakeMessageRepo) ListBefore(ctx context.Context, conversationID string, before time.Time, limit int64) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.Message
	for _, m := range f.messages {
		if m.ConversationID.Hex() == conversationID && m.CreatedAt.Before(before) {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, conversationID, readerID string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var read []model.Message
	for i := range f.messages {
		m := &f.messages[i]
		if m.ConversationID.Hex() != conversationID || m.Sender == readerID {
			continue
		}
		m.Read = true
		read = append(read, *m)
	}
	return read, nil
}

func (f *fakeMessageRepo) seed(msg model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	f.messages = append(f.messages, msg)
}

func (f *fakeMessageRepo) all() []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Message(nil), f.messages...)
}

// -----------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------

func testUsers() (*model.User, *model.User) {
	alice := &model.User{ID: primitive.NewObjectID(), Name: "Alice", Email: "alice@example.com"}
	bob := &model.User{ID: primitive.NewObjectID(), Name: "Bob", Email: "bob@example.com"}
	return alice, bob
}

func newTestChatService(users ...*model.User) (ChatService, *fakeConversationRepo, *fakeMessageRepo, *fakeUserRepo) {
	conversations := newFakeConversationRepo()
	messages := &fakeMessageRepo{}
	userRepo := newFakeUserRepo(users...)
	svc := NewChatService(conversations, messages, userRepo, zap.NewNop())
	return svc, conversations, messages, userRepo
}

// -----------------------------------------------------------------
// Tests
// -----------------------------------------------------------------

func TestGetOrCreateConversationIdempotent(t *testing.T) {
	alice, bob := testUsers()
	svc, conversations, _, _ := newTestChatService(alice, bob)
	ctx := context.Background()

	first, err := svc.GetOrCreateConversation(ctx, alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)

	// Same pair from either direction resolves to the same document.
	second, err := svc.GetOrCreateConversation(ctx, bob.ID.Hex(), alice.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, conversations.count())
	assert.Equal(t, map[string]int{alice.ID.Hex(): 0, bob.ID.Hex(): 0}, first.UnreadCount)
	assert.Len(t, first.ParticipantDetails, 2)
}

func TestGetOrCreateConversationConcurrent(t *testing.T) {
	alice, bob := testUsers()
	svc, conversations, _, _ := newTestChatService(alice, bob)

	const racers = 32
	ids := make(chan string, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID.Hex(), bob.ID.Hex()
			if i%2 == 1 {
				a, b = b, a
			}
			view, err := svc.GetOrCreateConversation(context.Background(), a, b)
			if err == nil {
				ids <- view.ID.Hex()
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	assert.Equal(t, 1, conversations.count())

	var unique map[string]struct{} = make(map[string]struct{})
	total := 0
	for id := range ids {
		unique[id] = struct{}{}
		total++
	}
	assert.Equal(t, racers, total)
	assert.Len(t, unique, 1)
}

func TestGetOrCreateConversationUnknownUser(t *testing.T) {
	alice, bob := testUsers()
	svc, conversations, _, _ := newTestChatService(alice, bob)
	ctx := context.Background()

	_, err := svc.GetOrCreateConversation(ctx, alice.ID.Hex(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = svc.GetOrCreateConversation(ctx, alice.ID.Hex(), "bogus")
	assert.ErrorIs(t, err, ErrUnknownUser)

	// No pair document may persist for a participant that does not
	// exist; it would break conversation listing for the real user.
	assert.Equal(t, 0, conversations.count())
}

func TestGetOrCreateConversationRejectsSelf(t *testing.T) {
	alice, bob := testUsers()
	svc, _, _, _ := newTestChatService(alice, bob)

	_, err := svc.GetOrCreateConversation(context.Background(), alice.ID.Hex(), alice.ID.Hex())
	assert.ErrorIs(t, err, ErrBadParticipants)
}

func TestSendMessageUpdatesSummaryAndUnread(t *testing.T) {
	alice, bob := testUsers()
	svc, conversations, _, _ := newTestChatService(alice, bob)
	ctx := context.Background()

	view, err := svc.GetOrCreateConversation(ctx, alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)
	convID := view.ID.Hex()

	result, err := svc.SendMessage(ctx, convID, alice.ID.Hex(), bob.ID.Hex(), "hi", "", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Created)
	assert.Equal(t, convID, result.ConversationID)
	assert.Equal(t, "Alice", result.Message.SenderInfo.Name)

	stored := conversations.get(convID)
	require.NotNil(t, stored)
	require.NotNil(t, stored.LastMessage)
	assert.Equal(t, "hi", stored.LastMessage.Content)
	assert.Equal(t, alice.ID.Hex(), stored.LastMessage.Sender)
	assert.Equal(t, result.Message.CreatedAt, stored.LastMessage.Timestamp)
	assert.Equal(t, 1, stored.UnreadCount[bob.ID.Hex()])
	assert.Equal(t, 0, stored.UnreadCount[alice.ID.Hex()])

	// A second message advances the summary and the recipient counter.
	result, err = svc.SendMessage(ctx, convID, alice.ID.Hex(), bob.ID.Hex(), "there", "", nil, nil)
	require.NoError(t, err)

	stored = conversations.get(convID)
	assert.Equal(t, "there", stored.LastMessage.Content)
	assert.Equal(t, result.Message.CreatedAt, stored.LastMessage.Timestamp)
	assert.Equal(t, 2, stored.UnreadCount[bob.ID.Hex()])
	assert.Equal(t, 0, stored.UnreadCount[alice.ID.Hex()])
}

func TestSendMessageMaterialisesVirtualConversation(t *testing.T) {
	alice, bob := testUsers()
	svc, conversations, messages, _ := newTestChatService(alice, bob)
	ctx := context.Background()

	result, err := svc.SendMessage(ctx, "temp-12345", alice.ID.Hex(), bob.ID.Hex(), "hello", "", nil, nil)
	require.NoError(t, err)

	require.NotNil(t, result.Created)
	assert.Equal(t, result.Created.ID.Hex(), result.ConversationID)
	assert.Equal(t, 1, conversations.count())

	all := messages.all()
	require.Len(t, all, 1)
	assert.Equal(t, result.ConversationID, all[0].ConversationID.Hex())
	assert.False(t, all[0].Read)
}

func TestSendMessageValidation(t *testing.T) {
	alice, bob := testUsers()
	svc, _, _, _ := newTestChatService(alice, bob)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "temp-1", alice.ID.Hex(), bob.ID.Hex(), "", "", nil, nil)
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.SendMessage(ctx, "temp-1", alice.ID.Hex(), primitive.NewObjectID().Hex(), "hi", "", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = svc.SendMessage(ctx, "temp-1", alice.ID.Hex(), bob.ID.Hex(), "hi", "carrier-pigeon", nil, nil)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	alice, bob := testUsers()
	carol := &model.User{ID: primitive.NewObjectID(), Name: "Carol", Email: "carol@example.com"}
	svc, _, _, _ := newTestChatService(alice, bob, carol)
	ctx := context.Background()

	view, err := svc.GetOrCreateConversation(ctx, alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, view.ID.Hex(), carol.ID.Hex(), bob.ID.Hex(), "hi", "", nil, nil)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMarkConversationRead(t *testing.T) {
	alice, bob := testUsers()
	svc, conversations, messages, _ := newTestChatService(alice, bob)
	ctx := context.Background()

	view, err := svc.GetOrCreateConversation(ctx, alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)
	convID := view.ID.Hex()

	for i := 0; i < 3; i++ {
		_, err = svc.SendMessage(ctx, convID, alice.ID.Hex(), bob.ID.Hex(), "msg", "", nil, nil)
		require.NoError(t, err)
	}
	_, err = svc.SendMessage(ctx, convID, bob.ID.Hex(), alice.ID.Hex(), "reply", "", nil, nil)
	require.NoError(t, err)

	receipt, err := svc.MarkConversationRead(ctx, convID, bob.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, receipt.UpdatedIDs, 3)
	assert.Equal(t, []string{alice.ID.Hex()}, receipt.SenderIDs)

	stored := conversations.get(convID)
	assert.Equal(t, 0, stored.UnreadCount[bob.ID.Hex()])
	// Alice still has Bob's reply unread.
	assert.Equal(t, 1, stored.UnreadCount[alice.ID.Hex()])

	for _, m := range messages.all() {
		if m.Sender == alice.ID.Hex() {
			assert.True(t, m.Read)
		} else {
			assert.False(t, m.Read, "reader's own messages must not be flipped")
		}
	}

	// Idempotent: running the receipt again leaves the counter at 0.
	_, err = svc.MarkConversationRead(ctx, convID, bob.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, conversations.get(convID).UnreadCount[bob.ID.Hex()])
}

func TestMarkConversationReadVirtualID(t *testing.T) {
	alice, bob := testUsers()
	svc, _, _, _ := newTestChatService(alice, bob)

	receipt, err := svc.MarkConversationRead(context.Background(), "temp-9", bob.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, receipt.UpdatedIDs)
}

func TestGetMessagesPaginationChain(t *testing.T) {
	alice, bob := testUsers()
	svc, _, messages, _ := newTestChatService(alice, bob)
	ctx := context.Background()

	convID := primitive.NewObjectID()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var contents []string
	for i := 0; i < 120; i++ {
		sender := alice.ID.Hex()
		if i%2 == 1 {
			sender = bob.ID.Hex()
		}
		content := fmt.Sprintf("msg-%03d", i)
		contents = append(contents, content)
		messages.seed(model.Message{
			ConversationID: convID,
			Sender:         sender,
			Content:        content,
			MessageType:    model.MessageTypeText,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
	}

	cursor := base.Add(time.Hour)
	var collected []string

	page, err := svc.GetMessages(ctx, convID.Hex(), cursor, 50)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 50)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextPage)
	for _, m := range page.Messages {
		collected = append(collected, m.Content)
	}

	page, err = svc.GetMessages(ctx, convID.Hex(), *page.NextPage, 50)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 50)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextPage)
	for _, m := range page.Messages {
		collected = append(collected, m.Content)
	}

	page, err = svc.GetMessages(ctx, convID.Hex(), *page.NextPage, 50)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 20)
	assert.False(t, page.HasMore)
	for _, m := range page.Messages {
		collected = append(collected, m.Content)
	}

	// Pages walk backward; each page is chronological, so the chain
	// reassembles the full history oldest-first.
	expected := append(append(append([]string{}, contents[70:]...), contents[20:70]...), contents[:20]...)
	assert.Equal(t, expected, collected)

	sorted := append([]string(nil), collected...)
	sort.Strings(sorted)
	original := append([]string(nil), contents...)
	sort.Strings(original)
	assert.Equal(t, original, sorted)
}

func TestGetMessagesVirtualIDShortCircuits(t *testing.T) {
	alice, bob := testUsers()
	svc, _, messages, _ := newTestChatService(alice, bob)

	messages.seed(model.Message{ConversationID: primitive.NewObjectID(), Sender: alice.ID.Hex(), Content: "x", CreatedAt: time.Now()})

	page, err := svc.GetMessages(context.Background(), "temp-abc123", time.Now(), 50)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextPage)
}

// A non-hex, non-virtual conversation id must be rejected outright; it
// must never widen a read or a read-receipt update beyond the
// conversation it names.
func TestMalformedConversationIDRejected(t *testing.T) {
	alice, bob := testUsers()
	svc, _, messages, _ := newTestChatService(alice, bob)
	ctx := context.Background()

	view, err := svc.GetOrCreateConversation(ctx, alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, view.ID.Hex(), alice.ID.Hex(), bob.ID.Hex(), "hi", "", nil, nil)
	require.NoError(t, err)

	_, err = svc.GetMessages(ctx, "not-a-hex-id", time.Now(), 50)
	assert.ErrorIs(t, err, ErrUnknownConversation)

	_, err = svc.MarkConversationRead(ctx, "not-a-hex-id", bob.ID.Hex())
	assert.ErrorIs(t, err, ErrUnknownConversation)
	for _, m := range messages.all() {
		assert.False(t, m.Read, "messages in other conversations must stay unread")
	}

	_, err = svc.SendMessage(ctx, "not-a-hex-id", alice.ID.Hex(), bob.ID.Hex(), "hi", "", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownConversation)
}

func TestGetMessagesEmptyConversation(t *testing.T) {
	alice, bob := testUsers()
	svc, _, _, _ := newTestChatService(alice, bob)

	page, err := svc.GetMessages(context.Background(), primitive.NewObjectID().Hex(), time.Now(), 50)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextPage)
}

func TestSetOnlinePassesThrough(t *testing.T) {
	alice, bob := testUsers()
	svc, _, _, users := newTestChatService(alice, bob)
	ctx := context.Background()

	require.NoError(t, svc.SetOnline(ctx, alice.ID.Hex(), true))
	stored, err := users.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.Online)

	require.NoError(t, svc.SetOnline(ctx, alice.ID.Hex(), false))
	stored, err = users.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.Online)

	err = svc.SetOnline(ctx, primitive.NewObjectID().Hex(), true)
	assert.True(t, errors.Is(err, repo.ErrNotFound))
}
