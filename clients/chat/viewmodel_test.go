package chatclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI lets each test script the server boundary.
type fakeAPI struct {
	conversations func(ctx context.Context, ownerID string) ([]*Conversation, error)
	history       func(ctx context.Context, ownerID, counterpartyID string) ([]*Message, error)
	send          func(ctx context.Context, req SendRequest) (*Message, error)
	markRead      func(ctx context.Context, ownerID, counterpartyID string) error

	sendCalls     int
	markReadCalls []string
}

func (f *fakeAPI) Conversations(ctx context.Context, ownerID string) ([]*Conversation, error) {
	if f.conversations == nil {
		return []*Conversation{}, nil
	}
	return f.conversations(ctx, ownerID)
}

func (f *fakeAPI) History(ctx context.Context, ownerID, counterpartyID string) ([]*Message, error) {
	if f.history == nil {
		return []*Message{}, nil
	}
	return f.history(ctx, ownerID, counterpartyID)
}

func (f *fakeAPI) Send(ctx context.Context, req SendRequest) (*Message, error) {
	f.sendCalls++
	if f.send == nil {
		return confirmedFor(req, uuid.New().String(), time.Now()), nil
	}
	return f.send(ctx, req)
}

func (f *fakeAPI) MarkRead(ctx context.Context, ownerID, counterpartyID string) error {
	f.markReadCalls = append(f.markReadCalls, counterpartyID)
	if f.markRead == nil {
		return nil
	}
	return f.markRead(ctx, ownerID, counterpartyID)
}

func confirmedFor(req SendRequest, id string, at time.Time) *Message {
	return &Message{
		ID:         id,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		OrderID:    req.OrderID,
		Attachment: req.Attachment,
		CreatedAt:  at,
	}
}

func directoryFixture() []*Conversation {
	return []*Conversation{
		{ID: "u1", Username: "toko_ria", Unread: 3, LastMessage: "Hi", LastMessageAt: time.Now()},
		{ID: "u2", Username: "budi88", Unread: 0, LastMessage: "Thanks", LastMessageAt: time.Now().Add(-time.Hour)},
	}
}

func TestLoadDirectoryAutoSelectsMostRecent(t *testing.T) {
	api := &fakeAPI{
		conversations: func(ctx context.Context, ownerID string) ([]*Conversation, error) {
			return directoryFixture(), nil
		},
	}
	view := NewChatView(api, "me")

	require.NoError(t, view.LoadDirectory(context.Background()))
	assert.Equal(t, "u1", view.Selected())
	assert.Len(t, view.Directory(), 2)
}

func TestLoadDirectoryEmptyIsNotAnError(t *testing.T) {
	view := NewChatView(&fakeAPI{}, "me")

	require.NoError(t, view.LoadDirectory(context.Background()))
	assert.Empty(t, view.Directory())
	assert.Equal(t, "", view.Selected())
}

func TestLoadDirectoryKeepsExplicitSelection(t *testing.T) {
	api := &fakeAPI{
		conversations: func(ctx context.Context, ownerID string) ([]*Conversation, error) {
			return directoryFixture(), nil
		},
	}
	view := NewChatView(api, "me")

	require.NoError(t, view.Open(context.Background(), "u2"))
	require.NoError(t, view.LoadDirectory(context.Background()))
	assert.Equal(t, "u2", view.Selected())
}

func TestLoadDirectoryFailureRetainsCache(t *testing.T) {
	calls := 0
	api := &fakeAPI{
		conversations: func(ctx context.Context, ownerID string) ([]*Conversation, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("network down")
			}
			return directoryFixture(), nil
		},
	}
	view := NewChatView(api, "me")

	require.NoError(t, view.LoadDirectory(context.Background()))
	require.Error(t, view.LoadDirectory(context.Background()))
	assert.Len(t, view.Directory(), 2, "failed refresh must keep the previous directory")
}

func TestOpenResetsUnreadForThatConversationOnly(t *testing.T) {
	api := &fakeAPI{
		conversations: func(ctx context.Context, ownerID string) ([]*Conversation, error) {
			return directoryFixture(), nil
		},
	}
	view := NewChatView(api, "me")
	require.NoError(t, view.LoadDirectory(context.Background()))

	require.NoError(t, view.Open(context.Background(), "u1"))

	assert.Equal(t, 0, view.Unread("u1"))
	assert.Equal(t, 0, view.Unread("u2"))
	assert.Equal(t, []string{"u1"}, api.markReadCalls)
}

func TestOpenFailureRetainsDisplayedMessages(t *testing.T) {
	good := true
	api := &fakeAPI{
		history: func(ctx context.Context, ownerID, counterpartyID string) ([]*Message, error) {
			if !good {
				return nil, errors.New("timeout")
			}
			return []*Message{
				{ID: "m1", SenderID: "u1", ReceiverID: "me", Content: "Hi", CreatedAt: time.Now()},
			}, nil
		},
	}
	view := NewChatView(api, "me")

	require.NoError(t, view.Open(context.Background(), "u1"))
	require.Len(t, view.Messages(), 1)

	good = false
	require.Error(t, view.Open(context.Background(), "u1"))
	assert.Len(t, view.Messages(), 1, "fetch failure must retain the previous list")
}

func TestSendRendersPendingBeforeSubmitCompletes(t *testing.T) {
	view := NewChatView(nil, "me")

	var pendingSeen Message
	api := &fakeAPI{
		send: func(ctx context.Context, req SendRequest) (*Message, error) {
			messages := view.Messages()
			require.Len(t, messages, 1, "pending entry must be rendered before the network call")
			pendingSeen = messages[0]
			return confirmedFor(req, "m99", time.Now()), nil
		},
	}
	view.api = api

	require.NoError(t, view.Open(context.Background(), "u1"))
	require.NoError(t, view.Send(context.Background(), "Hello"))

	assert.Equal(t, MessagePending, pendingSeen.State)
	assert.True(t, len(pendingSeen.ID) > len(tempIDPrefix) && pendingSeen.ID[:len(tempIDPrefix)] == tempIDPrefix)
	assert.Equal(t, "Hello", pendingSeen.Content)
	assert.Equal(t, "self", pendingSeen.RoleFor("me"))
	assert.False(t, pendingSeen.Read)

	messages := view.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "m99", messages[0].ID)
	assert.Equal(t, MessageConfirmed, messages[0].State)
	assert.Equal(t, "Hello", messages[0].Content)
}

func TestSendConfirmationPreservesPosition(t *testing.T) {
	base := time.Now()
	seeded := []*Message{
		{ID: "m1", SenderID: "u1", ReceiverID: "me", Content: "first", CreatedAt: base.Add(-2 * time.Minute)},
		{ID: "m2", SenderID: "me", ReceiverID: "u1", Content: "second", CreatedAt: base.Add(-time.Minute)},
	}
	api := &fakeAPI{
		history: func(ctx context.Context, ownerID, counterpartyID string) ([]*Message, error) {
			return seeded, nil
		},
		send: func(ctx context.Context, req SendRequest) (*Message, error) {
			return confirmedFor(req, "m3", base), nil
		},
	}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))

	require.NoError(t, view.Send(context.Background(), "third"))

	messages := view.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{messages[0].ID, messages[1].ID, messages[2].ID})
	assert.Equal(t, "third", messages[2].Content)
	// Only the confirmed entry changed; the rest are untouched.
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
}

func TestSendOrderingAcrossManySends(t *testing.T) {
	base := time.Now()
	serverSeq := 0
	api := &fakeAPI{
		send: func(ctx context.Context, req SendRequest) (*Message, error) {
			serverSeq++
			return confirmedFor(req, fmt.Sprintf("m%d", serverSeq), base.Add(time.Duration(serverSeq)*time.Second)), nil
		},
	}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))

	for i := 0; i < 5; i++ {
		require.NoError(t, view.Send(context.Background(), fmt.Sprintf("msg %d", i)))
	}

	messages := view.Messages()
	require.Len(t, messages, 5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("msg %d", i), messages[i].Content)
		if i > 0 {
			assert.True(t, !messages[i].CreatedAt.Before(messages[i-1].CreatedAt),
				"creation timestamps must be ascending")
		}
	}
}

func TestSendFailureRollsBackOptimisticEntry(t *testing.T) {
	api := &fakeAPI{
		send: func(ctx context.Context, req SendRequest) (*Message, error) {
			return nil, errors.New("connection reset")
		},
	}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))
	before := len(view.Messages())

	err := view.Send(context.Background(), "Hello")

	require.Error(t, err)
	assert.Len(t, view.Messages(), before, "no residual entry after a failed send")
	assert.False(t, view.Sending())
}

func TestSendServerRejectionRollsBackLikeTransportFailure(t *testing.T) {
	api := &fakeAPI{
		send: func(ctx context.Context, req SendRequest) (*Message, error) {
			return nil, fmt.Errorf("%w: receiver not found", ErrServerRejected)
		},
	}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))

	err := view.Send(context.Background(), "Hello")

	require.ErrorIs(t, err, ErrServerRejected)
	assert.Empty(t, view.Messages())
}

func TestSendValidationFailuresAreSilentNoops(t *testing.T) {
	api := &fakeAPI{}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))

	require.NoError(t, view.Send(context.Background(), "   "))
	assert.Zero(t, api.sendCalls)
	assert.Empty(t, view.Messages())

	noSelection := NewChatView(api, "me")
	require.NoError(t, noSelection.Send(context.Background(), "Hello"))
	assert.Zero(t, api.sendCalls)

	noIdentity := NewChatView(api, "")
	require.NoError(t, noIdentity.Open(context.Background(), "u1"))
	require.NoError(t, noIdentity.Send(context.Background(), "Hello"))
	assert.Zero(t, api.sendCalls)
}

func TestSendsAreSerializedPerConversation(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &fakeAPI{
		send: func(ctx context.Context, req SendRequest) (*Message, error) {
			close(started)
			<-release
			return confirmedFor(req, "m1", time.Now()), nil
		},
	}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))

	done := make(chan error, 1)
	go func() {
		done <- view.Send(context.Background(), "first")
	}()
	<-started

	assert.True(t, view.Sending())

	// Second submit while the first is in flight is a no-op.
	require.NoError(t, view.Send(context.Background(), "second"))
	assert.Equal(t, 1, api.sendCalls)
	assert.Len(t, view.Messages(), 1)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, view.Sending())
	assert.Len(t, view.Messages(), 1)
}

func TestReconciliationTargetsTheOriginatingConversation(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &fakeAPI{
		send: func(ctx context.Context, req SendRequest) (*Message, error) {
			close(started)
			<-release
			return confirmedFor(req, "m50", time.Now()), nil
		},
	}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))

	done := make(chan error, 1)
	go func() {
		done <- view.Send(context.Background(), "for u1")
	}()
	<-started

	// Switch to another conversation while the send is in flight.
	require.NoError(t, view.Open(context.Background(), "u2"))

	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, view.Messages(), "the confirmed message must not land on u2's list")

	directory := view.Directory()
	require.NotEmpty(t, directory)
	assert.Equal(t, "u1", directory[0].ID)
	assert.Equal(t, "for u1", directory[0].LastMessage)
}

func TestSendUpdatesDirectoryPreviewInPlace(t *testing.T) {
	sentAt := time.Now()
	api := &fakeAPI{
		conversations: func(ctx context.Context, ownerID string) ([]*Conversation, error) {
			return directoryFixture(), nil
		},
		send: func(ctx context.Context, req SendRequest) (*Message, error) {
			return confirmedFor(req, "m9", sentAt), nil
		},
	}
	view := NewChatView(api, "me")
	require.NoError(t, view.LoadDirectory(context.Background()))
	require.NoError(t, view.Open(context.Background(), "u2"))

	require.NoError(t, view.Send(context.Background(), "see you"))

	directory := view.Directory()
	require.Len(t, directory, 2)
	assert.Equal(t, "u2", directory[0].ID, "the affected conversation moves to the front")
	assert.Equal(t, "see you", directory[0].LastMessage)
	assert.Equal(t, sentAt.Unix(), directory[0].LastMessageAt.Unix())
	assert.Equal(t, "u1", directory[1].ID)
}

func TestSendWithAttachmentRejectedBeforePipeline(t *testing.T) {
	api := &fakeAPI{}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))

	err := view.SendWithAttachment(context.Background(), "see file", Attachment{
		URL:  "https://cdn.example.com/a.exe",
		Name: "a.exe",
		Type: "application/x-msdownload",
		Size: 1024,
	})

	require.ErrorIs(t, err, ErrAttachmentRejected)
	assert.Zero(t, api.sendCalls, "rejected attachments never reach the network")
	assert.Empty(t, view.Messages())
}

func TestSendWithValidAttachmentRidesThePipeline(t *testing.T) {
	api := &fakeAPI{}
	view := NewChatView(api, "me")
	require.NoError(t, view.Open(context.Background(), "u1"))

	att := Attachment{
		URL:  "https://cdn.example.com/receipt.pdf",
		Name: "receipt.pdf",
		Type: "application/pdf",
		Size: 120_000,
	}
	require.NoError(t, view.SendWithAttachment(context.Background(), "receipt attached", att))

	messages := view.Messages()
	require.Len(t, messages, 1)
	require.NotNil(t, messages[0].Attachment)
	assert.Equal(t, "receipt.pdf", messages[0].Attachment.Name)
}
