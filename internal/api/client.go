// Package api implements the HTTP client for the school-communication
// platform API. Only the messaging endpoints are covered; everything
// else the platform offers is outside this client's concern.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classline/classline/internal/logging"
	"github.com/classline/classline/internal/models"
)

const defaultTimeout = 15 * time.Second

// Config holds client connection settings.
type Config struct {
	// BaseURL is the platform API root, e.g. https://api.example.edu.
	BaseURL string

	// Token is the bearer token used on every request.
	Token string

	// Timeout bounds each request (default 15s).
	Timeout time.Duration
}

// Client talks to the platform messaging API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a platform API client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.Component("api"),
	}, nil
}

// ListConversations returns conversation summaries ordered by
// last-message time descending.
func (c *Client) ListConversations(ctx context.Context, offset, limit int) ([]models.ConversationSummary, error) {
	path := fmt.Sprintf("/conversations?offset=%d&limit=%d", offset, limit)
	var out []models.ConversationSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConversation returns one page of a conversation's messages.
// Offset 0 is the newest page; offset N is the next-older batch
// starting N back from the newest.
func (c *Client) GetConversation(ctx context.Context, id string, offset, limit int) (*models.ConversationPage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("conversation id required")
	}
	path := fmt.Sprintf("/conversations/%s?offset=%d&limit=%d", url.PathEscape(id), offset, limit)
	var page models.ConversationPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateConversation starts a new conversation and returns it with the
// first message included.
func (c *Client) CreateConversation(ctx context.Context, req models.CreateConversationRequest) (*models.ConversationDetail, error) {
	if strings.TrimSpace(req.RecipientID) == "" {
		return nil, fmt.Errorf("recipient id required")
	}
	if strings.TrimSpace(req.InitialMessage) == "" {
		return nil, fmt.Errorf("initial message required")
	}
	var detail models.ConversationDetail
	if err := c.do(ctx, http.MethodPost, "/conversations", req, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SendMessage commits a message and returns the server-timestamped copy.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*models.Message, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("conversation id required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message content required")
	}
	body := map[string]string{"content": content}
	path := fmt.Sprintf("/conversations/%s/messages", url.PathEscape(conversationID))
	var msg models.Message
	if err := c.do(ctx, http.MethodPost, path, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkConversationRead marks all unread messages in a conversation read.
func (c *Client) MarkConversationRead(ctx context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("conversation id required")
	}
	path := fmt.Sprintf("/conversations/%s/read", url.PathEscape(conversationID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// GetUnreadCount returns the aggregate unread message count.
func (c *Client) GetUnreadCount(ctx context.Context) (int, error) {
	var payload struct {
		TotalUnread int `json:"total_unread"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages/unread-count", nil, &payload); err != nil {
		return 0, err
	}
	return payload.TotalUnread, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", logging.Redact(path)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(data) > 0 {
		var payload struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(data, &payload); jsonErr == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode)
	}
	return apiErr
}
