package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "communityhub/internal/delivery/http/helpers"
	"communityhub/internal/delivery/http/middleware"
	"communityhub/internal/domain"
)

type MessageController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

func NewMessageController(logger *slog.Logger, svc domain.NotificationService) *MessageController {
	return &MessageController{
		Logger:  logger,
		Service: svc,
	}
}

// MarkReadResponse is the data payload for POST /me/messages/{messageID}/read (200).
type MarkReadResponse struct {
	Status string `json:"status"`
}

// ListMyMessages godoc
// @Summary List my system messages
// @Description Returns the authenticated user's system messages, newest first.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data is an array of messages"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/messages [get]
func (c *MessageController) ListMyMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	messages, err := c.Service.ListMyMessages(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	if messages == nil {
		messages = []*domain.SystemMessage{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, messages)
}

// MarkMessageRead godoc
// @Summary Mark a system message as read
// @Description Marks one of the authenticated user's messages as read.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/messages/{messageID}/read [post]
func (c *MessageController) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if messageID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing messageID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.MarkMessageRead(r.Context(), messageID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "message not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, MarkReadResponse{Status: "read"})
}
