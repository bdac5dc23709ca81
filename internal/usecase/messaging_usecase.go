package usecase

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"lapakin/internal/domain/entity"
	"lapakin/internal/domain/repository"
	"lapakin/internal/infrastructure/ratelimit"
	ws "lapakin/internal/infrastructure/websocket"
	"lapakin/pkg/errors"
)

type MessagingUseCase struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	wsManager   *ws.Manager
	rateLimiter *ratelimit.RateLimiter
}

func NewMessagingUseCase(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	wsManager *ws.Manager,
) *MessagingUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessagingUseCase{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		wsManager:   wsManager,
		rateLimiter: rateLimiter,
	}
}

type SendMessageInput struct {
	ReceiverID string
	Content    string
	OrderID    string
	Subject    string
	Attachment *entity.Attachment
}

// ListConversations returns the owner's conversations ordered by last-message
// time descending. Each entry is keyed by the counterparty's id; an owner with
// no threads gets an empty list, not an error.
func (uc *MessagingUseCase) ListConversations(ctx context.Context, ownerID string) ([]*entity.Conversation, error) {
	threads, err := uc.messageRepo.ListThreadsByUserID(ctx, ownerID)
	if err != nil {
		log.Printf("ListConversations Error: Failed to list threads for user %s: %v", ownerID, err)
		return nil, err
	}

	conversations := make([]*entity.Conversation, 0, len(threads))

	for _, thread := range threads {
		counterpartyID := thread.Counterparty(ownerID)
		if counterpartyID == "" {
			continue
		}

		conv := &entity.Conversation{
			ID:            counterpartyID,
			Subject:       thread.Subject,
			OrderID:       thread.OrderID,
			LastMessage:   thread.LastMessage,
			LastMessageAt: thread.LastMessageAt,
			Unread:        thread.UnreadCount[ownerID],
			Online:        uc.wsManager.IsOnline(counterpartyID),
		}

		counterparty, err := uc.userRepo.GetByID(ctx, counterpartyID)
		if err == nil {
			conv.Username = counterparty.Username
			conv.AvatarURL = counterparty.AvatarURL
		} else {
			log.Printf("ListConversations Warning: Counterparty %s not found for thread %s: %v", counterpartyID, thread.ID, err)
		}

		conversations = append(conversations, conv)
	}

	return conversations, nil
}

// GetConversationMessages returns the full history between the owner and one
// counterparty, ascending by creation time. A pair that has never exchanged a
// message yields an empty history. Pure read: the unread reset is a separate
// step (MarkConversationRead), applied by the client after a successful fetch.
func (uc *MessagingUseCase) GetConversationMessages(ctx context.Context, ownerID, counterpartyID string) ([]*entity.Message, error) {
	thread, err := uc.messageRepo.GetThreadByParticipants(ctx, ownerID, counterpartyID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return []*entity.Message{}, nil
		}
		log.Printf("GetConversationMessages Error: Failed to find thread for %s/%s: %v", ownerID, counterpartyID, err)
		return nil, err
	}

	messages, err := uc.messageRepo.ListMessagesByThread(ctx, thread.ID)
	if err != nil {
		log.Printf("GetConversationMessages Error: Failed to get messages for thread %s: %v", thread.ID, err)
		return nil, err
	}

	if messages == nil {
		messages = []*entity.Message{}
	}

	return messages, nil
}

// SendMessage persists a message from sender to receiver, creating the thread
// implicitly on first contact, and returns the authoritative entity with its
// server-issued id and timestamp. The receiver's unread counter is incremented;
// the sender's never is.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		log.Printf("SendMessage Rate Limited: User %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.BadRequest("Message content is required", nil)
	}

	if senderID == input.ReceiverID {
		log.Printf("SendMessage Error: User %s attempted to message themselves", senderID)
		return nil, errors.BadRequest("You cannot send a message to yourself", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, input.ReceiverID); err != nil {
		log.Printf("SendMessage Error: Receiver %s not found: %v", input.ReceiverID, err)
		return nil, errors.NotFound("Receiver", err)
	}

	thread, err := uc.messageRepo.GetThreadByParticipants(ctx, senderID, input.ReceiverID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			log.Printf("SendMessage Error: Failed to search for thread: %v", err)
			return nil, err
		}

		thread = &entity.Thread{
			Participants:  []string{senderID, input.ReceiverID},
			OrderID:       input.OrderID,
			Subject:       input.Subject,
			UnreadCount:   make(map[string]int),
			LastMessageAt: time.Now(),
		}
		if err := uc.messageRepo.CreateThread(ctx, thread); err != nil {
			log.Printf("SendMessage Error: Failed to create thread for %s/%s: %v", senderID, input.ReceiverID, err)
			return nil, err
		}
	}

	message := &entity.Message{
		ThreadID:   thread.ID,
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Content:    content,
		OrderID:    input.OrderID,
		Attachment: input.Attachment,
		Read:       false,
	}

	if err := uc.messageRepo.CreateMessage(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to create message for thread %s: %v", thread.ID, err)
		return nil, err
	}

	thread.LastMessage = content
	thread.LastMessageAt = message.CreatedAt
	if thread.UnreadCount == nil {
		thread.UnreadCount = make(map[string]int)
	}
	thread.UnreadCount[input.ReceiverID]++

	if err := uc.messageRepo.UpdateThread(ctx, thread); err != nil {
		log.Printf("SendMessage Error: Failed to update thread %s with last message: %v", thread.ID, err)
		return nil, err
	}

	if err := uc.userRepo.UpdateLastSeen(ctx, senderID); err != nil {
		log.Printf("SendMessage Warning: Failed to update last seen for %s: %v", senderID, err)
	}

	uc.notifyNewMessage(senderID, message)

	return message, nil
}

// MarkConversationRead zeroes the owner's unread counter for one conversation
// and flags the delivered messages as read. A pair with no thread is a no-op.
func (uc *MessagingUseCase) MarkConversationRead(ctx context.Context, ownerID, counterpartyID string) error {
	thread, err := uc.messageRepo.GetThreadByParticipants(ctx, ownerID, counterpartyID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil
		}
		log.Printf("MarkConversationRead Error: Failed to find thread for %s/%s: %v", ownerID, counterpartyID, err)
		return err
	}

	if thread.UnreadCount == nil {
		thread.UnreadCount = make(map[string]int)
	}
	thread.UnreadCount[ownerID] = 0

	if err := uc.messageRepo.UpdateThread(ctx, thread); err != nil {
		log.Printf("MarkConversationRead Error: Failed to update thread %s for user %s: %v", thread.ID, ownerID, err)
		return err
	}

	if err := uc.messageRepo.MarkThreadMessagesRead(ctx, thread.ID, ownerID); err != nil {
		log.Printf("MarkConversationRead Error: Failed to flag messages read in thread %s: %v", thread.ID, err)
		return err
	}

	return nil
}

// notifyNewMessage pushes a best-effort notification to the receiver. From
// the receiver's point of view the conversation id is the sender's id.
func (uc *MessagingUseCase) notifyNewMessage(senderID string, message *entity.Message) {
	notification := map[string]interface{}{
		"type":            "new_message",
		"conversation_id": senderID,
		"message":         message,
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("notifyNewMessage Error: Failed to marshal notification: %v", err)
		return
	}

	uc.wsManager.SendToUser(message.ReceiverID, payload)
}
