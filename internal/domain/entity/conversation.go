package entity

import "time"

// Conversation is the per-owner view of a thread returned by the directory:
// its id is the counterparty's id because the directory is always scoped to
// "my conversations". Derived on read, never stored.
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
