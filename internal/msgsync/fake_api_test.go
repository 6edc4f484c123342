package msgsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/classline/classline/internal/models"
)

// fakeAPI is an in-memory stand-in for the platform API. Messages are
// held ascending by creation time per conversation; GetConversation
// serves pages windowed from the newest end, exactly like the server.
type fakeAPI struct {
	mu            sync.Mutex
	conversations []models.ConversationSummary
	messages      map[string][]models.Message
	unreadTotal   int

	listErr error
	getErr  error
	sendErr error
	markErr error

	listCalls int
	getCalls  map[string]int
	markCalls int

	// beforeGet, when set, runs after the page is computed but before
	// it is returned. Tests use it to hold a fetch in flight.
	beforeGet func(id string, offset int)
	// beforeList mirrors beforeGet for the conversation list.
	beforeList func(offset int)

	nextID int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		messages: make(map[string][]models.Message),
		getCalls: make(map[string]int),
	}
}

var fakeBase = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// seedConversation adds a conversation with count messages one minute apart.
func (f *fakeAPI) seedConversation(id string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations = append(f.conversations, models.ConversationSummary{
		ID:            id,
		ParentID:      "parent-1",
		TeacherID:     "teacher-1",
		LastMessageAt: fakeBase.Add(time.Duration(count) * time.Minute),
		UnreadCount:   count,
		CreatedAt:     fakeBase,
	})
	msgs := make([]models.Message, 0, count)
	for i := 0; i < count; i++ {
		msgs = append(msgs, models.Message{
			ID:             fmt.Sprintf("%s-msg-%03d", id, i),
			ConversationID: id,
			SenderID:       "teacher-1",
			Content:        fmt.Sprintf("message %d", i),
			CreatedAt:      fakeBase.Add(time.Duration(i) * time.Minute),
		})
	}
	f.messages[id] = msgs
}

// appendMessage adds one message after the newest existing one.
func (f *fakeAPI) appendMessage(conversationID, senderID, content string) models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendMessageLocked(conversationID, senderID, content)
}

func (f *fakeAPI) appendMessageLocked(conversationID, senderID, content string) models.Message {
	f.nextID++
	existing := f.messages[conversationID]
	at := fakeBase
	if n := len(existing); n > 0 {
		at = existing[n-1].CreatedAt.Add(time.Minute)
	}
	msg := models.Message{
		ID:             fmt.Sprintf("%s-new-%03d", conversationID, f.nextID),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      at,
	}
	f.messages[conversationID] = append(existing, msg)
	return msg
}

func (f *fakeAPI) ListConversations(ctx context.Context, offset, limit int) ([]models.ConversationSummary, error) {
	f.mu.Lock()
	f.listCalls++
	err := f.listErr
	var page []models.ConversationSummary
	if err == nil {
		end := offset + limit
		if end > len(f.conversations) {
			end = len(f.conversations)
		}
		if offset < end {
			page = append(page, f.conversations[offset:end]...)
		}
	}
	hook := f.beforeList
	f.mu.Unlock()

	if hook != nil {
		hook(offset)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (f *fakeAPI) GetConversation(ctx context.Context, id string, offset, limit int) (*models.ConversationPage, error) {
	f.mu.Lock()
	f.getCalls[id]++
	err := f.getErr
	var page *models.ConversationPage
	if err == nil {
		all := f.messages[id]
		total := len(all)
		end := total - offset
		if end < 0 {
			end = 0
		}
		start := end - limit
		if start < 0 {
			start = 0
		}
		page = &models.ConversationPage{
			Messages:       append([]models.Message(nil), all[start:end]...),
			MessagesTotal:  total,
			MessagesOffset: offset,
			MessagesLimit:  limit,
		}
	}
	hook := f.beforeGet
	f.mu.Unlock()

	if hook != nil {
		hook(id, offset)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, conversationID, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	msg := f.appendMessageLocked(conversationID, "parent-1", content)
	return &msg, nil
}

func (f *fakeAPI) CreateConversation(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationDetail, error) {
	f.mu.Lock()
	id := fmt.Sprintf("conv-%03d", len(f.conversations)+1)
	f.conversations = append(f.conversations, models.ConversationSummary{
		ID:        id,
		ParentID:  "parent-1",
		TeacherID: req.RecipientID,
		StudentID: req.StudentID,
		Subject:   req.Subject,
		CreatedAt: fakeBase,
	})
	msg := f.appendMessageLocked(id, "parent-1", req.InitialMessage)
	detail := &models.ConversationDetail{
		ConversationSummary: f.conversations[len(f.conversations)-1],
		Messages:            []models.Message{msg},
	}
	f.mu.Unlock()
	return detail, nil
}

func (f *fakeAPI) MarkConversationRead(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	msgs := f.messages[conversationID]
	now := fakeBase.Add(24 * time.Hour)
	for i := range msgs {
		if !msgs[i].IsRead {
			msgs[i].IsRead = true
			msgs[i].ReadAt = &now
		}
	}
	for i := range f.conversations {
		if f.conversations[i].ID == conversationID {
			f.conversations[i].UnreadCount = 0
		}
	}
	return nil
}

func (f *fakeAPI) GetUnreadCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unreadTotal, nil
}

func (f *fakeAPI) getCallCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls[id]
}

func (f *fakeAPI) setGetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

func (f *fakeAPI) setBeforeGet(hook func(id string, offset int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeGet = hook
}

// newTestStores wires a full engine graph over the fake.
func newTestStores(f *fakeAPI, pageSize int) (*ConversationListStore, *ReadStateTracker, *ActiveThreadStore) {
	list := NewConversationListStore(f, pageSize)
	reader := NewReadStateTracker(f, list)
	thread := NewActiveThreadStore(f, pageSize, reader, list)
	return list, reader, thread
}
