package entity

import "time"

type Message struct {
	ID         string      `json:"id" firestore:"id"`
	ThreadID   string      `json:"thread_id" firestore:"threadId"`
	SenderID   string      `json:"sender_id" firestore:"senderId"`
	ReceiverID string      `json:"receiver_id" firestore:"receiverId"`
	Content    string      `json:"content" firestore:"content"`
	OrderID    string      `json:"order_id,omitempty" firestore:"orderId,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty" firestore:"attachment,omitempty"`
	Read       bool        `json:"read" firestore:"read"`
	CreatedAt  time.Time   `json:"created_at" firestore:"createdAt"`
}

// Attachment is a descriptor for a file already accepted by the upload
// pipeline. It is never mutated after creation.
type Attachment struct {
	URL  string `json:"url" firestore:"url"`
	Name string `json:"name" firestore:"name"`
	Type string `json:"type" firestore:"type"`
	Size int64  `json:"size" firestore:"size"`
}
