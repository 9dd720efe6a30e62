package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/wings-of-wisdom/internal/chat"
	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "validation_error", "message is required")
	case errors.Is(err, chat.ErrMessageTooLong):
		respondError(w, http.StatusBadRequest, "validation_error", "message is too long")
	case errors.Is(err, chat.ErrInvalidConvID):
		respondError(w, http.StatusBadRequest, "validation_error", "invalid conversation id")
	case errors.Is(err, chat.ErrConversationNotFound):
		respondError(w, http.StatusNotFound, "not_found", "conversation not found")
	default:
		slog.Error("chat operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "chat is unavailable")
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	reply, err := s.chat.Reply(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		respondChatError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	widget, err := s.chat.Widget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondChatError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, widget)
}

func (s *Server) handleToggleChat(w http.ResponseWriter, r *http.Request) {
	widget, err := s.chat.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondChatError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, widget)
}
