package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/chat"
)

// SendMessageRequest leaves sender and content checks to the service so the
// error message stays the same for every client.
type SendMessageRequest struct {
	SenderID    *uuid.UUID `json:"sender_id"`
	SenderRole  *string    `json:"sender_role"`
	Content     string     `json:"content"`
	MessageType string     `json:"message_type"`
}

type ChatHandler struct {
	service  chat.Service
	validate *validator.Validate
}

func NewChatHandler(service chat.Service) *ChatHandler {
	return &ChatHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *ChatHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/v1/chats", h.handleListChats)
	router.Get("/api/v1/chats/{id}/messages", h.handleListMessages)
	router.Post("/api/v1/chats/{id}/messages", h.handleSendMessage)
}

func (h *ChatHandler) handleListChats(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, chat.DefaultPageLimit, chat.MaxPageLimit)
	chats, err := h.service.ListChats(r.Context(), page, limit)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"chats": chats, "page": page, "limit": limit})
}

func (h *ChatHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var before int64
	if raw := r.URL.Query().Get("before"); raw != "" {
		before, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, apperr.Validation("before must be a message id"))
			return
		}
	}

	page, err := h.service.ListMessages(r.Context(), chatID, before, queryInt(r, "limit", chat.DefaultPageLimit))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, page)
}

func (h *ChatHandler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req SendMessageRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	msg, err := h.service.SendMessage(r.Context(), chatID, chat.SendInput{
		SenderID:    req.SenderID,
		SenderRole:  req.SenderRole,
		Content:     req.Content,
		MessageType: req.MessageType,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, map[string]any{"message": msg})
}
