package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakin/internal/domain/entity"
	"lapakin/internal/domain/repository"
	"lapakin/pkg/errors"
	"lapakin/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) CreateThread(ctx context.Context, thread *entity.Thread) error {
	if thread.ID == "" {
		thread.ID = uuid.New().String()
	}

	now := time.Now()
	thread.CreatedAt = now
	thread.UpdatedAt = now

	_, err := r.client.Collection("threads").Doc(thread.ID).Set(ctx, thread)
	if err != nil {
		return errors.Internal("Failed to create thread", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetThreadByParticipants(ctx context.Context, userID1, userID2 string) (*entity.Thread, error) {
	query := r.client.Collection("threads").Where("participants", "array-contains", userID1)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while querying threads for user %s: %v", userID1, err)
		return nil, errors.Internal("Failed to query threads", err)
	}

	for _, doc := range docs {
		var thread entity.Thread
		if err := doc.DataTo(&thread); err != nil {
			continue // Skip malformed documents
		}
		if len(thread.Participants) == 2 && thread.HasParticipant(userID2) {
			return &thread, nil
		}
	}

	return nil, errors.NotFound("Thread", nil)
}

func (r *firestoreMessageRepository) ListThreadsByUserID(ctx context.Context, userID string) ([]*entity.Thread, error) {
	query := r.client.Collection("threads").
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageAt", firestore.Desc)

	iter := query.Documents(ctx)
	var threads []*entity.Thread

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating threads for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to iterate threads", err)
		}

		var thread entity.Thread
		if err := doc.DataTo(&thread); err != nil {
			logger.Warn("Skipping malformed thread document for user %s: %v", userID, err)
			continue
		}

		threads = append(threads, &thread)
	}

	return threads, nil
}

func (r *firestoreMessageRepository) UpdateThread(ctx context.Context, thread *entity.Thread) error {
	thread.UpdatedAt = time.Now()

	_, err := r.client.Collection("threads").Doc(thread.ID).Set(ctx, thread)
	if err != nil {
		return errors.Internal("Failed to update thread", err)
	}

	return nil
}

func (r *firestoreMessageRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	message.CreatedAt = time.Now()

	_, err := r.client.Collection("threads").Doc(message.ThreadID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) ListMessagesByThread(ctx context.Context, threadID string) ([]*entity.Message, error) {
	query := r.client.Collection("threads").Doc(threadID).Collection("messages").OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for thread %s: %v", threadID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for thread %s: %v", threadID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreMessageRepository) MarkThreadMessagesRead(ctx context.Context, threadID, readerID string) error {
	query := r.client.Collection("threads").Doc(threadID).Collection("messages").
		Where("receiverId", "==", readerID).
		Where("read", "==", false)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return errors.Internal("Failed to query unread messages", err)
	}

	for _, doc := range docs {
		if _, err := doc.Ref.Update(ctx, []firestore.Update{{Path: "read", Value: true}}); err != nil {
			logger.Error("Failed to mark message %s read in thread %s: %v", doc.Ref.ID, threadID, err)
			return errors.Internal("Failed to update message read flag", err)
		}
	}

	return nil
}
