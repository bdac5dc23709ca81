package repository

import (
	"context"

	"lapakin/internal/domain/entity"
)

type MessageRepository interface {
	// Thread methods
	CreateThread(ctx context.Context, thread *entity.Thread) error
	GetThreadByParticipants(ctx context.Context, userID1, userID2 string) (*entity.Thread, error)
	ListThreadsByUserID(ctx context.Context, userID string) ([]*entity.Thread, error)
	UpdateThread(ctx context.Context, thread *entity.Thread) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessagesByThread(ctx context.Context, threadID string) ([]*entity.Message, error)
	MarkThreadMessagesRead(ctx context.Context, threadID, readerID string) error
}
