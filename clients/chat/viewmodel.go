package chatclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// tempIDPrefix distinguishes client-issued ids from server-issued ones.
const tempIDPrefix = "tmp-"

const displayTimeLayout = "15:04"

// ChatView is the view-model backing a conversation screen. It owns the
// cached directory and per-conversation message lists, and runs the
// optimistic send pipeline. One ChatView per mounted view; tear it down with
// the view.
//
// All state is cached client-side with a single logical writer; a full
// LoadDirectory/Open is the recovery path when the cache drifts.
type ChatView struct {
	mu      sync.Mutex
	api     API
	ownerID string
	policy  AttachmentPolicy

	directory []*Conversation
	messages  map[string][]*Message
	selected  string
	inflight  map[string]bool
}

func NewChatView(api API, ownerID string) *ChatView {
	return &ChatView{
		api:      api,
		ownerID:  ownerID,
		policy:   DefaultAttachmentPolicy(),
		messages: make(map[string][]*Message),
		inflight: make(map[string]bool),
	}
}

// LoadDirectory fetches the conversation directory and replaces the cached
// set. On first successful load the most recent conversation is selected if
// nothing is selected yet. A fetch failure keeps the previous cache intact
// so the caller can offer a retry.
func (v *ChatView) LoadDirectory(ctx context.Context) error {
	conversations, err := v.api.Conversations(ctx, v.ownerID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.directory = conversations
	if v.selected == "" && len(conversations) > 0 {
		v.selected = conversations[0].ID
	}

	return nil
}

// Open selects a conversation and fetches its full history. A successful
// fetch means the owner has now seen everything in the conversation, so its
// unread counter is zeroed locally; the server is told best-effort. On
// failure the previously displayed list is retained and the error surfaced;
// retry is up to the user.
func (v *ChatView) Open(ctx context.Context, counterpartyID string) error {
	v.mu.Lock()
	v.selected = counterpartyID
	v.mu.Unlock()

	history, err := v.api.History(ctx, v.ownerID, counterpartyID)
	if err != nil {
		return err
	}

	for _, m := range history {
		m.State = MessageConfirmed
		m.DisplayTime = m.CreatedAt.Format(displayTimeLayout)
	}

	v.mu.Lock()
	v.messages[counterpartyID] = history
	for _, conv := range v.directory {
		if conv.ID == counterpartyID {
			conv.Unread = 0
			break
		}
	}
	v.mu.Unlock()

	// Unread bookkeeping is best-effort; the local reset above is what the
	// user sees.
	_ = v.api.MarkRead(ctx, v.ownerID, counterpartyID)

	return nil
}

// Send runs the optimistic pipeline for a plain text message.
func (v *ChatView) Send(ctx context.Context, content string) error {
	return v.send(ctx, content, nil)
}

// SendWithAttachment validates the attachment against the policy before it
// may enter the pipeline. A rejection is synchronous and never reaches the
// network.
func (v *ChatView) SendWithAttachment(ctx context.Context, content string, att Attachment) error {
	if err := v.policy.Validate(att); err != nil {
		return err
	}
	return v.send(ctx, content, &att)
}

// send is the optimistic pipeline: render a pending message synchronously,
// submit, then either confirm the entry in place or roll it back. Empty
// content, no selection, or a send already in flight for the conversation
// are silent no-ops.
func (v *ChatView) send(ctx context.Context, content string, att *Attachment) error {
	content = strings.TrimSpace(content)

	v.mu.Lock()
	if content == "" || v.selected == "" || v.ownerID == "" {
		v.mu.Unlock()
		return nil
	}

	counterpartyID := v.selected
	if v.inflight[counterpartyID] {
		v.mu.Unlock()
		return nil
	}
	v.inflight[counterpartyID] = true

	var orderID string
	for _, conv := range v.directory {
		if conv.ID == counterpartyID {
			orderID = conv.OrderID
			break
		}
	}

	now := time.Now()
	tempID := tempIDPrefix + uuid.New().String()
	pending := &Message{
		ID:          tempID,
		SenderID:    v.ownerID,
		ReceiverID:  counterpartyID,
		Content:     content,
		OrderID:     orderID,
		Attachment:  att,
		Read:        false,
		CreatedAt:   now,
		DisplayTime: now.Format(displayTimeLayout),
		State:       MessagePending,
	}
	v.messages[counterpartyID] = append(v.messages[counterpartyID], pending)
	v.mu.Unlock()

	confirmed, err := v.api.Send(ctx, SendRequest{
		SenderID:   v.ownerID,
		ReceiverID: counterpartyID,
		Content:    content,
		OrderID:    orderID,
		Attachment: att,
	})

	// Reconciliation is keyed by conversation id + temp id: a send that
	// resolves after the user switched conversations still lands on the
	// right list.
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.inflight, counterpartyID)

	if err != nil {
		v.removePending(counterpartyID, tempID)
		return err
	}

	confirmed.State = MessageConfirmed
	confirmed.DisplayTime = confirmed.CreatedAt.Format(displayTimeLayout)
	v.confirmPending(counterpartyID, tempID, confirmed)
	v.touchDirectory(counterpartyID, confirmed)

	return nil
}

// confirmPending swaps the pending entry for the authoritative one, matched
// by temp id, keeping its list position. No re-sort happens on the swap.
func (v *ChatView) confirmPending(counterpartyID, tempID string, confirmed *Message) {
	list := v.messages[counterpartyID]
	for i, m := range list {
		if m.ID == tempID {
			list[i] = confirmed
			return
		}
	}
}

// removePending drops the pending entry by temp id, leaving no failed ghost
// in the list.
func (v *ChatView) removePending(counterpartyID, tempID string) {
	list := v.messages[counterpartyID]
	for i, m := range list {
		if m.ID == tempID {
			v.messages[counterpartyID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// touchDirectory updates the affected conversation's preview in place and
// moves it to the front, without re-fetching the directory. A counterparty
// not in the directory yet (first message ever) gets a new entry.
func (v *ChatView) touchDirectory(counterpartyID string, message *Message) {
	for i, conv := range v.directory {
		if conv.ID != counterpartyID {
			continue
		}
		conv.LastMessage = message.Content
		conv.LastMessageAt = message.CreatedAt
		copy(v.directory[1:i+1], v.directory[:i])
		v.directory[0] = conv
		return
	}

	v.directory = append([]*Conversation{{
		ID:            counterpartyID,
		LastMessage:   message.Content,
		LastMessageAt: message.CreatedAt,
	}}, v.directory...)
}

// Directory returns a snapshot of the cached directory for rendering.
func (v *ChatView) Directory() []Conversation {
	v.mu.Lock()
	defer v.mu.Unlock()

	snapshot := make([]Conversation, len(v.directory))
	for i, conv := range v.directory {
		snapshot[i] = *conv
	}
	return snapshot
}

// Messages returns a snapshot of the selected conversation's displayed list,
// ordered by creation time ascending.
func (v *ChatView) Messages() []Message {
	v.mu.Lock()
	defer v.mu.Unlock()

	list := v.messages[v.selected]
	snapshot := make([]Message, len(list))
	for i, m := range list {
		snapshot[i] = *m
	}
	return snapshot
}

// Selected returns the selected conversation id, or "" when none.
func (v *ChatView) Selected() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// Sending reports whether a send is in flight for the selected conversation.
// The composer disables its input while this is true.
func (v *ChatView) Sending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inflight[v.selected]
}

// Unread returns the cached unread count for one conversation.
func (v *ChatView) Unread(counterpartyID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, conv := range v.directory {
		if conv.ID == counterpartyID {
			return conv.Unread
		}
	}
	return 0
}
