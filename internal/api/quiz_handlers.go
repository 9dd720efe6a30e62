package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
	"github.com/terra-clan/wings-of-wisdom/internal/quiz"
)

// answerResponse pairs the outcome of a submission with the new session state
type answerResponse struct {
	Result models.AnswerResult `json:"result"`
	State  models.QuizState    `json:"state"`
}

// respondQuizError maps quiz errors to API errors
func respondQuizError(w http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, quiz.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "quiz session not found")
	case errors.Is(err, quiz.ErrInvalidOption):
		respondError(w, http.StatusBadRequest, "validation_error", "index must be between 0 and 3")
	case errors.Is(err, quiz.ErrNoSelection):
		respondError(w, http.StatusConflict, "conflict", "select an option before submitting")
	case errors.Is(err, quiz.ErrFinished):
		respondError(w, http.StatusConflict, "conflict", "quiz already finished")
	case errors.Is(err, quiz.ErrNotFinished):
		respondError(w, http.StatusConflict, "conflict", "quiz not finished yet")
	default:
		slog.Error("quiz operation failed", "error", err, "session_id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "quiz operation failed")
	}
}

func decodeAnswer(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req models.AnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return 0, false
	}
	if req.Index == nil {
		respondError(w, http.StatusBadRequest, "validation_error", "index is required")
		return 0, false
	}
	return *req.Index, true
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.StartQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session, err := s.quiz.Start(r.Context(), req.Nickname)
	if err != nil {
		respondQuizError(w, err, "")
		return
	}

	respondJSON(w, http.StatusCreated, session.State())
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := s.quiz.Get(r.Context(), id)
	if err != nil {
		respondQuizError(w, err, id)
		return
	}

	respondJSON(w, http.StatusOK, session.State())
}

func (s *Server) handleSelectOption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, ok := decodeAnswer(w, r)
	if !ok {
		return
	}

	session, err := s.quiz.Select(r.Context(), id, index)
	if err != nil {
		respondQuizError(w, err, id)
		return
	}

	respondJSON(w, http.StatusOK, session.State())
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, result, err := s.quiz.Submit(r.Context(), id)
	if err != nil {
		respondQuizError(w, err, id)
		return
	}

	respondJSON(w, http.StatusOK, answerResponse{Result: result, State: session.State()})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, ok := decodeAnswer(w, r)
	if !ok {
		return
	}

	session, result, err := s.quiz.Answer(r.Context(), id, index)
	if err != nil {
		respondQuizError(w, err, id)
		return
	}

	respondJSON(w, http.StatusOK, answerResponse{Result: result, State: session.State()})
}

func (s *Server) handleRestartQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := s.quiz.Restart(r.Context(), id)
	if err != nil {
		respondQuizError(w, err, id)
		return
	}

	respondJSON(w, http.StatusOK, session.State())
}

func (s *Server) handleQuizResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	score, err := s.quiz.Result(r.Context(), id)
	if err != nil {
		respondQuizError(w, err, id)
		return
	}

	respondJSON(w, http.StatusOK, score)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10, 1, 100)

	entries, err := s.quiz.Leaderboard(r.Context(), limit)
	if err != nil {
		slog.Error("failed to load leaderboard", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load leaderboard")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}
