package models

import "time"

// OptionsPerQuestion is the fixed number of choices of every question
const OptionsPerQuestion = 4

// QuizQuestion is a static single-choice question
type QuizQuestion struct {
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"-" yaml:"correct_index"`
}

// QuestionView is what the client renders; it never carries the answer
type QuestionView struct {
	Index   int      `json:"index"`
	Number  int      `json:"number"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// AnswerResult reports the outcome of one submission
type AnswerResult struct {
	SelectedIndex int  `json:"selected_index"`
	CorrectIndex  int  `json:"correct_index"`
	Correct       bool `json:"correct"`
	Finished      bool `json:"finished"`
	Score         int  `json:"score"`
}

// QuizScore is the final tally of a finished session
type QuizScore struct {
	Score      int `json:"score"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// QuizResult is a finished session recorded for the leaderboard
type QuizResult struct {
	SessionID  string    `json:"session_id"`
	Nickname   string    `json:"nickname"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	FinishedAt time.Time `json:"finished_at"`
}

// Percentage returns the score as an integer percentage
func (r QuizResult) Percentage() int {
	if r.Total <= 0 {
		return 0
	}
	return r.Score * 100 / r.Total
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank       int       `json:"rank"`
	Nickname   string    `json:"nickname"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	FinishedAt time.Time `json:"finished_at"`
}

// StartQuizRequest represents a request to start a quiz
type StartQuizRequest struct {
	Nickname string `json:"nickname,omitempty"`
}

// AnswerRequest carries an option index
type AnswerRequest struct {
	Index *int `json:"index"`
}

// QuizStatus is the state of a quiz session
type QuizStatus string

const (
	QuizAwaitingAnswer QuizStatus = "awaiting_answer"
	QuizFinished       QuizStatus = "finished"
)

// QuizState is the API view of a session
type QuizState struct {
	ID            string        `json:"id"`
	Nickname      string        `json:"nickname,omitempty"`
	Status        QuizStatus    `json:"status"`
	CurrentIndex  int           `json:"current_index"`
	Score         int           `json:"score"`
	Total         int           `json:"total"`
	SelectedIndex *int          `json:"selected_index"`
	Question      *QuestionView `json:"question,omitempty"`
	Result        *QuizScore    `json:"result,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
