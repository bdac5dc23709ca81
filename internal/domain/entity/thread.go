package entity

import "time"

// Thread is the stored root of a two-party conversation, optionally scoped
// to one order. It is created implicitly the first time any message is
// exchanged between the pair and never deleted by clients.
type Thread struct {
	ID            string         `json:"id" firestore:"id"`
	Participants  []string       `json:"participants" firestore:"participants"`
	OrderID       string         `json:"order_id,omitempty" firestore:"orderId,omitempty"`
	Subject       string         `json:"subject,omitempty" firestore:"subject,omitempty"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"` // userID -> undelivered-to-reader count
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// Counterparty returns the other participant of a two-party thread.
func (t *Thread) Counterparty(userID string) string {
	for _, p := range t.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether userID belongs to the thread.
func (t *Thread) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
