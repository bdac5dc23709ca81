package handler

import (
	"github.com/labstack/echo/v4"

	"lapakin/internal/domain/entity"
	"lapakin/internal/usecase"
	"lapakin/pkg/errors"
	"lapakin/pkg/response"
)

type MessageHandler struct {
	messagingUseCase *usecase.MessagingUseCase
}

func NewMessageHandler(messagingUseCase *usecase.MessagingUseCase) *MessageHandler {
	return &MessageHandler{
		messagingUseCase: messagingUseCase,
	}
}

type sendMessageRequest struct {
	SenderID   string             `json:"senderId" validate:"required"`
	ReceiverID string             `json:"receiverId" validate:"required"`
	Content    string             `json:"content" validate:"required"`
	OrderID    string             `json:"orderId,omitempty"`
	Subject    string             `json:"subject,omitempty"`
	Attachment *attachmentRequest `json:"attachment,omitempty"`
}

type attachmentRequest struct {
	URL  string `json:"url" validate:"required,url"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
	Size int64  `json:"size" validate:"required,min=1"`
}

// GetMessages serves both directory and history reads on the same resource:
// without counterpartyId it returns the owner's conversations, with it the
// full message history for that pair. Pure reads either way.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	ownerID := c.QueryParam("ownerId")
	if ownerID == "" {
		return response.Error(c, errors.BadRequest("ownerId is required", nil))
	}

	uid := c.Get("uid").(string)
	if ownerID != uid {
		return response.Error(c, errors.Forbidden("You may only read your own conversations", nil))
	}

	counterpartyID := c.QueryParam("counterpartyId")
	if counterpartyID == "" {
		conversations, err := h.messagingUseCase.ListConversations(c.Request().Context(), ownerID)
		if err != nil {
			return response.Error(c, err)
		}
		return response.Conversations(c, conversations)
	}

	messages, err := h.messagingUseCase.GetConversationMessages(c.Request().Context(), ownerID, counterpartyID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Messages(c, messages)
}

// SendMessage creates a message and returns the authoritative entity with
// its server-issued id and creation timestamp.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)
	if req.SenderID != uid {
		return response.Error(c, errors.Forbidden("senderId must match the authenticated account", nil))
	}

	var attachment *entity.Attachment
	if req.Attachment != nil {
		attachment = &entity.Attachment{
			URL:  req.Attachment.URL,
			Name: req.Attachment.Name,
			Type: req.Attachment.Type,
			Size: req.Attachment.Size,
		}
	}

	message, err := h.messagingUseCase.SendMessage(c.Request().Context(), uid, usecase.SendMessageInput{
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		OrderID:    req.OrderID,
		Subject:    req.Subject,
		Attachment: attachment,
	})

	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// MarkRead zeroes the owner's unread counter for one conversation. Clients
// call it best-effort after a history fetch; the local reset does not wait
// for it.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	ownerID := c.QueryParam("ownerId")
	counterpartyID := c.QueryParam("counterpartyId")
	if ownerID == "" || counterpartyID == "" {
		return response.Error(c, errors.BadRequest("ownerId and counterpartyId are required", nil))
	}

	uid := c.Get("uid").(string)
	if ownerID != uid {
		return response.Error(c, errors.Forbidden("You may only mark your own conversations read", nil))
	}

	if err := h.messagingUseCase.MarkConversationRead(c.Request().Context(), ownerID, counterpartyID); err != nil {
		return response.Error(c, err)
	}

	return response.OK(c)
}
