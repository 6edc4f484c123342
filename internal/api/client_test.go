package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classline/classline/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{BaseURL: server.URL, Token: "test-token"})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://api.example.edu/"})
	require.NoError(t, err)
	require.Equal(t, "https://api.example.edu", client.baseURL)
}

func TestListConversationsSendsAuthAndPaging(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/conversations", r.URL.Path)
		require.Equal(t, "30", r.URL.Query().Get("limit"))
		require.Equal(t, "0", r.URL.Query().Get("offset"))
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))

		_ = json.NewEncoder(w).Encode([]models.ConversationSummary{
			{ID: "conv-a", ParentID: "parent-1", TeacherID: "teacher-1", LastMessageAt: now},
		})
	})

	items, err := client.ListConversations(context.Background(), 0, 30)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "conv-a", items[0].ID)
}

func TestGetConversationReturnsPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations/conv-a", r.URL.Path)
		require.Equal(t, "30", r.URL.Query().Get("offset"))
		_ = json.NewEncoder(w).Encode(models.ConversationPage{
			Messages:       []models.Message{{ID: "msg-1", ConversationID: "conv-a"}},
			MessagesTotal:  45,
			MessagesOffset: 30,
			MessagesLimit:  30,
		})
	})

	page, err := client.GetConversation(context.Background(), "conv-a", 30, 30)
	require.NoError(t, err)
	require.Equal(t, 45, page.MessagesTotal)
	require.Len(t, page.Messages, 1)
}

func TestGetConversationRequiresID(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://api.example.edu"})
	require.NoError(t, err)
	_, err = client.GetConversation(context.Background(), "  ", 0, 30)
	require.Error(t, err)
}

func TestSendMessagePostsContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/conversations/conv-a/messages", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "hello", body["content"])

		_ = json.NewEncoder(w).Encode(models.Message{ID: "msg-9", ConversationID: "conv-a", Content: "hello"})
	})

	msg, err := client.SendMessage(context.Background(), "conv-a", "hello")
	require.NoError(t, err)
	require.Equal(t, "msg-9", msg.ID)
}

func TestMarkConversationRead(t *testing.T) {
	var called bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/conversations/conv-a/read", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.MarkConversationRead(context.Background(), "conv-a"))
	require.True(t, called)
}

func TestGetUnreadCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages/unread-count", r.URL.Path)
		_, _ = w.Write([]byte(`{"total_unread": 7}`))
	})

	total, err := client.GetUnreadCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, total)
}

func TestCreateConversationValidatesRequest(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://api.example.edu"})
	require.NoError(t, err)

	_, err = client.CreateConversation(context.Background(), models.CreateConversationRequest{InitialMessage: "hi"})
	require.Error(t, err, "recipient required")

	_, err = client.CreateConversation(context.Background(), models.CreateConversationRequest{RecipientID: "teacher-1"})
	require.Error(t, err, "initial message required")
}

func TestErrorResponsesDecodeToAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "conversation not found"}`))
	})

	_, err := client.GetConversation(context.Background(), "conv-x", 0, 30)
	require.Error(t, err)
	require.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "conversation not found", apiErr.Message)
}

func TestErrorWithoutBodyFallsBackToStatusText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListConversations(context.Background(), 0, 30)
	require.Error(t, err)
	require.True(t, IsUnauthorized(err))
}
