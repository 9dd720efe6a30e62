package quiz

import (
	"time"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// Session is one visitor's progress through the quiz.
// Invariant: 0 <= Score <= CurrentIndex <= engine.Len().
type Session struct {
	ID            string     `json:"id"`
	Nickname      string     `json:"nickname,omitempty"`
	CurrentIndex  int        `json:"current_index"`
	Score         int        `json:"score"`
	SelectedIndex *int       `json:"selected_index,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`

	engine *Engine
}

// Finished reports whether every question has been answered
func (s *Session) Finished() bool {
	return s.CurrentIndex >= s.engine.Len()
}

// Select records the pending choice for the current question
func (s *Session) Select(index int) error {
	if s.Finished() {
		return ErrFinished
	}
	if index < 0 || index >= len(s.engine.questions[s.CurrentIndex].Options) {
		return ErrInvalidOption
	}
	s.SelectedIndex = &index
	return nil
}

// Submit scores the pending choice and advances to the next question
func (s *Session) Submit() (models.AnswerResult, error) {
	if s.Finished() {
		return models.AnswerResult{}, ErrFinished
	}
	if s.SelectedIndex == nil {
		return models.AnswerResult{}, ErrNoSelection
	}

	selected := *s.SelectedIndex
	correct := s.engine.questions[s.CurrentIndex].CorrectIndex
	if selected == correct {
		s.Score++
	}
	s.CurrentIndex++
	s.SelectedIndex = nil

	return models.AnswerResult{
		SelectedIndex: selected,
		CorrectIndex:  correct,
		Correct:       selected == correct,
		Finished:      s.Finished(),
		Score:         s.Score,
	}, nil
}

// Restart returns the session to the first question with a zero score
func (s *Session) Restart() {
	s.CurrentIndex = 0
	s.Score = 0
	s.SelectedIndex = nil
	s.FinishedAt = nil
}

// Current returns the question awaiting an answer
func (s *Session) Current() (models.QuestionView, error) {
	if s.Finished() {
		return models.QuestionView{}, ErrFinished
	}
	return s.engine.Question(s.CurrentIndex)
}

// Result returns the final tally
func (s *Session) Result() (models.QuizScore, error) {
	if !s.Finished() {
		return models.QuizScore{}, ErrNotFinished
	}
	total := s.engine.Len()
	return models.QuizScore{
		Score:      s.Score,
		Total:      total,
		Percentage: s.Score * 100 / total,
	}, nil
}

// State builds the API view of the session
func (s *Session) State() models.QuizState {
	st := models.QuizState{
		ID:            s.ID,
		Nickname:      s.Nickname,
		Status:        models.QuizAwaitingAnswer,
		CurrentIndex:  s.CurrentIndex,
		Score:         s.Score,
		Total:         s.engine.Len(),
		SelectedIndex: s.SelectedIndex,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Finished() {
		st.Status = models.QuizFinished
		if res, err := s.Result(); err == nil {
			st.Result = &res
		}
		return st
	}
	if q, err := s.Current(); err == nil {
		st.Question = &q
	}
	return st
}

// clone returns a deep copy of the session
func (s *Session) clone() *Session {
	c := *s
	if s.SelectedIndex != nil {
		v := *s.SelectedIndex
		c.SelectedIndex = &v
	}
	if s.FinishedAt != nil {
		v := *s.FinishedAt
		c.FinishedAt = &v
	}
	return &c
}
