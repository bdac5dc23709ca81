// Package chatclient implements the buyer/vendor side of the marketplace
// messaging boundary: a small REST client plus an explicit view-model that
// handles the conversation directory, per-conversation history, optimistic
// sending, and unread reconciliation.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrServerRejected marks a well-formed failure response (success: false).
// The send pipeline treats it exactly like a transport failure.
var ErrServerRejected = errors.New("rejected by server")

// Conversation is one directory entry. Its id is the counterparty's id; the
// directory is always scoped to "my conversations".
type Conversation struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	Unread        int       `json:"unread"`
	Online        bool      `json:"online"`
}

// MessageState tracks a message through the optimistic send pipeline.
type MessageState int

const (
	// MessageConfirmed is the terminal state of a server-issued message.
	MessageConfirmed MessageState = iota
	// MessagePending marks a locally-rendered message whose submission is
	// still in flight. Its id carries the temp prefix.
	MessagePending
)

type Message struct {
	ID          string       `json:"id"`
	SenderID    string       `json:"sender_id"`
	ReceiverID  string       `json:"receiver_id"`
	Content     string       `json:"content"`
	OrderID     string       `json:"order_id,omitempty"`
	Attachment  *Attachment  `json:"attachment,omitempty"`
	Read        bool         `json:"read"`
	CreatedAt   time.Time    `json:"created_at"`
	DisplayTime string       `json:"-"`
	State       MessageState `json:"-"`
}

// RoleFor derives the display role by comparing the sender to the local
// account. Derived at render time, never stored.
func (m *Message) RoleFor(ownerID string) string {
	if m.SenderID == ownerID {
		return "self"
	}
	return "counterparty"
}

// SendRequest is the POST /v1/messages body.
type SendRequest struct {
	SenderID   string      `json:"senderId"`
	ReceiverID string      `json:"receiverId"`
	Content    string      `json:"content"`
	OrderID    string      `json:"orderId,omitempty"`
	Subject    string      `json:"subject,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// API is the server boundary the view-model depends on.
type API interface {
	Conversations(ctx context.Context, ownerID string) ([]*Conversation, error)
	History(ctx context.Context, ownerID, counterpartyID string) ([]*Message, error)
	Send(ctx context.Context, req SendRequest) (*Message, error)
	MarkRead(ctx context.Context, ownerID, counterpartyID string) error
}

// Client is the HTTP implementation of API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Success       bool            `json:"success"`
	Conversations []*Conversation `json:"conversations"`
	Messages      []*Message      `json:"messages"`
	Message       json.RawMessage `json:"message"`
}

// reason decodes the failure message of a success:false envelope.
func (e *envelope) reason() string {
	var reason string
	if err := json.Unmarshal(e.Message, &reason); err != nil || reason == "" {
		return "request failed"
	}
	return reason
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("malformed response (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrServerRejected, env.reason())
	}

	return &env, nil
}

func (c *Client) Conversations(ctx context.Context, ownerID string) ([]*Conversation, error) {
	query := url.Values{"ownerId": {ownerID}}
	env, err := c.doRequest(ctx, http.MethodGet, "/v1/messages", query, nil)
	if err != nil {
		return nil, err
	}
	return env.Conversations, nil
}

func (c *Client) History(ctx context.Context, ownerID, counterpartyID string) ([]*Message, error) {
	query := url.Values{"ownerId": {ownerID}, "counterpartyId": {counterpartyID}}
	env, err := c.doRequest(ctx, http.MethodGet, "/v1/messages", query, nil)
	if err != nil {
		return nil, err
	}
	return env.Messages, nil
}

func (c *Client) Send(ctx context.Context, req SendRequest) (*Message, error) {
	env, err := c.doRequest(ctx, http.MethodPost, "/v1/messages", nil, req)
	if err != nil {
		return nil, err
	}

	var message Message
	if err := json.Unmarshal(env.Message, &message); err != nil {
		return nil, fmt.Errorf("malformed message in response: %w", err)
	}
	return &message, nil
}

func (c *Client) MarkRead(ctx context.Context, ownerID, counterpartyID string) error {
	query := url.Values{"ownerId": {ownerID}, "counterpartyId": {counterpartyID}}
	_, err := c.doRequest(ctx, http.MethodPut, "/v1/messages/read", query, nil)
	return err
}
