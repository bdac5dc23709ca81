package handler

import (
	"github.com/labstack/echo/v4"

	"lapakin/internal/infrastructure/firebase"
	"lapakin/pkg/errors"
	"lapakin/pkg/response"
)

type DevTokenHandler struct {
	firebaseAuth *firebase.FirebaseAuthClient
}

func NewDevTokenHandler(firebaseAuth *firebase.FirebaseAuthClient) *DevTokenHandler {
	return &DevTokenHandler{
		firebaseAuth: firebaseAuth,
	}
}

// GenerateToken mints a token for an arbitrary uid. Registered only on the
// development router.
func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	uid := c.QueryParam("uid")
	if uid == "" {
		return response.Error(c, errors.BadRequest("uid is required", nil))
	}

	token, err := h.firebaseAuth.GenerateDevToken(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to generate token", err))
	}

	return response.Created(c, map[string]string{
		"uid":   uid,
		"token": token,
	})
}
