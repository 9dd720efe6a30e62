package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/wings-of-wisdom/internal/content"
	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// answer key of the embedded question set
var correctAnswers = []int{0, 2, 0, 0, 1}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	l := content.NewLoader()
	require.NoError(t, l.LoadEmbedded())
	e, err := NewEngine(l.Questions())
	require.NoError(t, err)
	return e
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = NewEngine([]models.QuizQuestion{{Prompt: "q", Options: []string{"a", "b"}}})
	assert.ErrorIs(t, err, ErrInvalidOption)

	e := newTestEngine(t)
	assert.Equal(t, 5, e.Len())
}

func TestEngineQuestion(t *testing.T) {
	e := newTestEngine(t)

	q, err := e.Question(0)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Index)
	assert.Equal(t, 1, q.Number)
	assert.Equal(t, 5, q.Total)
	assert.Equal(t, "Who was the first woman to win a Nobel Prize?", q.Prompt)
	assert.Len(t, q.Options, 4)

	q.Options[0] = "changed"
	again, err := e.Question(0)
	require.NoError(t, err)
	assert.Equal(t, "Marie Curie", again.Options[0])

	_, err = e.Question(5)
	assert.ErrorIs(t, err, ErrInvalidQuestion)
	_, err = e.Question(-1)
	assert.ErrorIs(t, err, ErrInvalidQuestion)
}

func TestSessionPerfectRun(t *testing.T) {
	s := newTestEngine(t).NewSession("s1", "")

	for i, idx := range correctAnswers {
		require.NoError(t, s.Select(idx))
		res, err := s.Submit()
		require.NoError(t, err)
		assert.True(t, res.Correct)
		assert.Equal(t, idx, res.CorrectIndex)
		assert.Equal(t, i+1, res.Score)
		assert.Equal(t, i == len(correctAnswers)-1, res.Finished)
	}

	score, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, models.QuizScore{Score: 5, Total: 5, Percentage: 100}, score)
}

func TestSessionWrongAnswer(t *testing.T) {
	s := newTestEngine(t).NewSession("s1", "")

	require.NoError(t, s.Select(3))
	res, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, models.AnswerResult{SelectedIndex: 3, CorrectIndex: 0, Correct: false, Score: 0}, res)
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Nil(t, s.SelectedIndex)
}

func TestSessionSubmitWithoutSelection(t *testing.T) {
	s := newTestEngine(t).NewSession("s1", "")

	_, err := s.Submit()
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, 0, s.Score)
}

func TestSessionSelect(t *testing.T) {
	s := newTestEngine(t).NewSession("s1", "")

	assert.ErrorIs(t, s.Select(4), ErrInvalidOption)
	assert.ErrorIs(t, s.Select(-1), ErrInvalidOption)
	assert.Nil(t, s.SelectedIndex)

	require.NoError(t, s.Select(1))
	require.NoError(t, s.Select(2))
	require.NotNil(t, s.SelectedIndex)
	assert.Equal(t, 2, *s.SelectedIndex)
}

func TestSessionFinished(t *testing.T) {
	s := newTestEngine(t).NewSession("s1", "")
	for range correctAnswers {
		require.NoError(t, s.Select(1))
		_, err := s.Submit()
		require.NoError(t, err)
	}

	assert.True(t, s.Finished())
	assert.ErrorIs(t, s.Select(0), ErrFinished)
	_, err := s.Submit()
	assert.ErrorIs(t, err, ErrFinished)
	_, err = s.Current()
	assert.ErrorIs(t, err, ErrFinished)

	score, err := s.Result()
	require.NoError(t, err)
	// only the last question has correct index 1
	assert.Equal(t, models.QuizScore{Score: 1, Total: 5, Percentage: 20}, score)
}

func TestSessionResultBeforeFinish(t *testing.T) {
	s := newTestEngine(t).NewSession("s1", "")
	_, err := s.Result()
	assert.ErrorIs(t, err, ErrNotFinished)
}

func TestSessionRestart(t *testing.T) {
	s := newTestEngine(t).NewSession("s1", "")
	for _, idx := range correctAnswers[:3] {
		require.NoError(t, s.Select(idx))
		_, err := s.Submit()
		require.NoError(t, err)
	}
	require.NoError(t, s.Select(1))

	s.Restart()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, 0, s.Score)
	assert.Nil(t, s.SelectedIndex)

	q, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, 1, q.Number)
}

func TestSessionInvariant(t *testing.T) {
	e := newTestEngine(t)
	s := e.NewSession("s1", "")

	// alternate right and wrong picks across two passes
	for pass := 0; pass < 2; pass++ {
		for i, idx := range correctAnswers {
			pick := idx
			if i%2 == pass {
				pick = (idx + 1) % models.OptionsPerQuestion
			}
			require.NoError(t, s.Select(pick))
			_, err := s.Submit()
			require.NoError(t, err)
			assert.True(t, 0 <= s.Score && s.Score <= s.CurrentIndex && s.CurrentIndex <= e.Len())
		}
		s.Restart()
	}
}

func TestSessionState(t *testing.T) {
	s := newTestEngine(t).NewSession("s1", "ada")

	st := s.State()
	assert.Equal(t, models.QuizAwaitingAnswer, st.Status)
	require.NotNil(t, st.Question)
	assert.Equal(t, 1, st.Question.Number)
	assert.Nil(t, st.Result)

	for _, idx := range correctAnswers {
		require.NoError(t, s.Select(idx))
		_, err := s.Submit()
		require.NoError(t, err)
	}

	st = s.State()
	assert.Equal(t, models.QuizFinished, st.Status)
	assert.Nil(t, st.Question)
	require.NotNil(t, st.Result)
	assert.Equal(t, 100, st.Result.Percentage)
}

type fakeResults struct {
	mu      sync.Mutex
	results []*models.QuizResult
	saves   int
	err     error
}

func (f *fakeResults) SaveQuizResult(_ context.Context, r *models.QuizResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves++
	for i, existing := range f.results {
		if existing.SessionID == r.SessionID {
			f.results[i] = r
			return nil
		}
	}
	f.results = append(f.results, r)
	return nil
}

func (f *fakeResults) ListQuizResults(_ context.Context, limit int) ([]*models.QuizResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results, nil
}

func newTestManager(t *testing.T, results ResultStore) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewManager(newTestEngine(t), store, results, time.Hour), store
}

func TestManagerFlow(t *testing.T) {
	ctx := context.Background()
	results := &fakeResults{}
	m, _ := newTestManager(t, results)

	s, err := m.Start(ctx, "  Marie  ")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Marie", s.Nickname)

	for i, idx := range correctAnswers {
		_, err := m.Select(ctx, s.ID, idx)
		require.NoError(t, err)
		got, res, err := m.Submit(ctx, s.ID)
		require.NoError(t, err)
		assert.True(t, res.Correct)
		assert.Equal(t, i+1, got.CurrentIndex)
	}

	score, err := m.Result(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, score.Percentage)

	require.Len(t, results.results, 1)
	assert.Equal(t, s.ID, results.results[0].SessionID)
	assert.Equal(t, 5, results.results[0].Score)

	board, err := m.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "Marie", board[0].Nickname)
	assert.Equal(t, 1, board[0].Rank)
}

func TestManagerAnswer(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	s, err := m.Start(ctx, "")
	require.NoError(t, err)

	_, res, err := m.Answer(ctx, s.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.Correct)

	_, _, err = m.Answer(ctx, s.ID, 9)
	assert.ErrorIs(t, err, ErrInvalidOption)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentIndex)
}

func TestManagerSubmitWithoutSelectionKeepsState(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	s, err := m.Start(ctx, "")
	require.NoError(t, err)

	_, _, err = m.Submit(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNoSelection)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentIndex)
}

func TestManagerRestart(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	s, err := m.Start(ctx, "")
	require.NoError(t, err)
	_, _, err = m.Answer(ctx, s.ID, 0)
	require.NoError(t, err)

	got, err := m.Restart(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentIndex)
	assert.Equal(t, 0, got.Score)
}

func TestManagerRestartAndFinishAgainKeepsOneResult(t *testing.T) {
	ctx := context.Background()
	results := &fakeResults{}
	m, _ := newTestManager(t, results)

	s, err := m.Start(ctx, "Ada")
	require.NoError(t, err)

	for round := 0; round < 3; round++ {
		if round > 0 {
			_, err := m.Restart(ctx, s.ID)
			require.NoError(t, err)
		}
		for _, idx := range correctAnswers {
			_, _, err := m.Answer(ctx, s.ID, idx)
			require.NoError(t, err)
		}
	}

	assert.Equal(t, 3, results.saves)
	require.Len(t, results.results, 1)
	assert.Equal(t, s.ID, results.results[0].SessionID)

	board, err := m.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "Ada", board[0].Nickname)
	assert.Equal(t, 5, board[0].Score)
}

func TestManagerUnknownSession(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Select(ctx, "missing", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = m.Submit(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerRecordFailureDoesNotFailSubmit(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, &fakeResults{err: errors.New("db down")})

	s, err := m.Start(ctx, "")
	require.NoError(t, err)
	for _, idx := range correctAnswers {
		_, _, err := m.Answer(ctx, s.ID, idx)
		require.NoError(t, err)
	}

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Finished())
	assert.NotNil(t, got.FinishedAt)
}

func TestManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, nil)

	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	s, err := m.Start(ctx, "")
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = m.Get(ctx, s.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	purged, err := m.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Equal(t, 0, store.Len())
}

func TestManagerConcurrentSubmits(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	s, err := m.Start(ctx, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = m.Answer(ctx, s.ID, 0)
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentIndex)
	assert.LessOrEqual(t, got.Score, got.CurrentIndex)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := newTestEngine(t)

	s := e.NewSession("s1", "")
	require.NoError(t, store.Save(ctx, s))
	s.Score = 3

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Score)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRank(t *testing.T) {
	base := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	results := []*models.QuizResult{
		{Nickname: "late-perfect", Score: 5, Total: 5, FinishedAt: base.Add(time.Hour)},
		{Nickname: "half", Score: 2, Total: 4, FinishedAt: base},
		{Nickname: "early-perfect", Score: 5, Total: 5, FinishedAt: base},
		{Nickname: "", Score: 1, Total: 5, FinishedAt: base},
		{Nickname: "more-questions", Score: 4, Total: 8, FinishedAt: base.Add(time.Minute)},
	}

	board := Rank(results, 0)
	names := make([]string, len(board))
	for i, e := range board {
		names[i] = e.Nickname
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, []string{"early-perfect", "late-perfect", "more-questions", "half", "Anonymous"}, names)

	assert.Len(t, Rank(results, 2), 2)
	assert.Empty(t, Rank(nil, 5))
}
