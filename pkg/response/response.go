package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "lapakin/pkg/errors"
)

// Envelope is the wire shape shared by every messaging endpoint. The
// Message field carries the created message object on a successful send
// and the human-readable reason on failure.
type Envelope struct {
	Success       bool        `json:"success"`
	Conversations interface{} `json:"conversations,omitempty"`
	Messages      interface{} `json:"messages,omitempty"`
	Message       interface{} `json:"message,omitempty"`
}

func Conversations(c echo.Context, conversations interface{}) error {
	return c.JSON(http.StatusOK, Envelope{
		Success:       true,
		Conversations: conversations,
	})
}

func Messages(c echo.Context, messages interface{}) error {
	return c.JSON(http.StatusOK, Envelope{
		Success:  true,
		Messages: messages,
	})
}

func Created(c echo.Context, message interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{
		Success: true,
		Message: message,
	})
}

func OK(c echo.Context) error {
	return c.JSON(http.StatusOK, Envelope{Success: true})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, Envelope{
			Success: false,
			Message: appErr.Message,
		})
	}

	return c.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Message: "An unexpected error occurred",
	})
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	message := "Invalid input data"

	for _, err := range validationErr {
		field := strings.ToLower(err.Field())

		switch err.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + err.Param()
		case "max":
			message = field + " must be at most " + err.Param()
		case "url":
			message = field + " must be a valid URL"
		default:
			message = field + " is invalid"
		}
		break
	}

	return c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
	})
}
