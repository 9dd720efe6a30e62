// Package quiz runs the single-choice Nobel quiz and keeps its sessions.
package quiz

import (
	"errors"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

var (
	ErrNoSelection     = errors.New("no option selected")
	ErrFinished        = errors.New("quiz already finished")
	ErrNotFinished     = errors.New("quiz not finished")
	ErrInvalidOption   = errors.New("option index out of range")
	ErrInvalidQuestion = errors.New("question index out of range")
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrNoQuestions     = errors.New("quiz has no questions")
)

// Engine holds the ordered question set shared by all sessions
type Engine struct {
	questions []models.QuizQuestion
}

// NewEngine creates an engine over a validated question list
func NewEngine(questions []models.QuizQuestion) (*Engine, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	qs := make([]models.QuizQuestion, len(questions))
	for i, q := range questions {
		if len(q.Options) != models.OptionsPerQuestion {
			return nil, ErrInvalidOption
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, ErrInvalidOption
		}
		q.Options = append([]string(nil), q.Options...)
		qs[i] = q
	}
	return &Engine{questions: qs}, nil
}

// Len returns the number of questions
func (e *Engine) Len() int {
	return len(e.questions)
}

// Question returns the view of question index without its answer
func (e *Engine) Question(index int) (models.QuestionView, error) {
	if index < 0 || index >= len(e.questions) {
		return models.QuestionView{}, ErrInvalidQuestion
	}
	q := e.questions[index]
	return models.QuestionView{
		Index:   index,
		Number:  index + 1,
		Total:   len(e.questions),
		Prompt:  q.Prompt,
		Options: append([]string(nil), q.Options...),
	}, nil
}

// NewSession starts a session at the first question
func (e *Engine) NewSession(id, nickname string) *Session {
	s := &Session{ID: id, Nickname: nickname}
	s.engine = e
	return s
}

// Attach binds a session restored from a store to this engine
func (e *Engine) Attach(s *Session) {
	s.engine = e
}
