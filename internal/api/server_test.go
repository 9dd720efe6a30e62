package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/wings-of-wisdom/internal/catalog"
	"github.com/terra-clan/wings-of-wisdom/internal/chat"
	"github.com/terra-clan/wings-of-wisdom/internal/config"
	"github.com/terra-clan/wings-of-wisdom/internal/contact"
	"github.com/terra-clan/wings-of-wisdom/internal/content"
	"github.com/terra-clan/wings-of-wisdom/internal/countdown"
	"github.com/terra-clan/wings-of-wisdom/internal/models"
	"github.com/terra-clan/wings-of-wisdom/internal/quiz"
	"github.com/terra-clan/wings-of-wisdom/internal/scheduler"
	"github.com/terra-clan/wings-of-wisdom/internal/services"
	"github.com/terra-clan/wings-of-wisdom/internal/storage"
)

const testAdminKey = "wow_admin_test_key"

type fixture struct {
	server   *Server
	repo     *storage.SQLiteRepository
	registry *services.Registry
}

func newFixture(t *testing.T, ceremony time.Time) *fixture {
	t.Helper()
	ctx := context.Background()

	loader := content.NewLoader()
	require.NoError(t, loader.LoadEmbedded())

	repo, err := storage.NewSQLiteRepository(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.EnsureApiClient(ctx, &models.ApiClient{
		Name: "admin", ApiKey: testAdminKey, IsActive: true, Permissions: []string{"contact:read"},
	}))
	require.NoError(t, repo.EnsureApiClient(ctx, &models.ApiClient{
		Name: "reader", ApiKey: "wow_reader_test_key", IsActive: true, Permissions: []string{"stats:read"},
	}))

	engine, err := quiz.NewEngine(loader.Questions())
	require.NoError(t, err)

	registry := services.NewRegistry()
	registry.Register(services.NewPingProbe("database", repo.Ping))

	s := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, Deps{
		Catalog:        catalog.New(loader.Laureates()),
		Content:        loader,
		Quiz:           quiz.NewManager(engine, quiz.NewMemoryStore(), repo, time.Hour),
		Chat:           chat.NewAssistant(nil, chat.NewMemoryConversationStore(), time.Hour),
		Contact:        contact.NewService(repo),
		Event:          countdown.NewEvent(ceremony),
		Registry:       registry,
		Clients:        repo,
		Scheduler:      scheduler.NewClock(),
		SearchDebounce: 100 * time.Millisecond,
	})

	return &fixture{server: s, repo: repo, registry: registry}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func future() time.Time {
	return time.Now().Add(48 * time.Hour)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestReady(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	f.registry.Register(services.NewPingProbe("redis", func(context.Context) error {
		return errors.New("connection refused")
	}))
	code, env = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_ready", env.Error.Code)
	assert.Contains(t, env.Error.Message, "redis")
}

type laureateList struct {
	Laureates []models.Laureate `json:"laureates"`
	Total     int               `json:"total"`
}

func TestSearchLaureates(t *testing.T) {
	f := newFixture(t, future())

	tests := []struct {
		query string
		names []string
	}{
		{"?q=women", []string{"Narges Mohammadi"}},
		{"?category=physics&year=2024", []string{"Pierre Agostini"}},
		{"?category=physics", []string{"Takaaki Kajita", "Rainer Weiss", "Pierre Agostini"}},
		{"?year=2020", []string{"Emmanuelle Charpentier"}},
		{"?q=zzzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, env := f.do(t, http.MethodGet, "/api/v1/laureates"+tt.query, nil)
			require.Equal(t, http.StatusOK, code)

			list := decodeData[laureateList](t, env)
			names := make([]string, 0, len(list.Laureates))
			for _, l := range list.Laureates {
				names = append(names, l.Name)
			}
			assert.Equal(t, tt.names, names)
			assert.Equal(t, len(tt.names), list.Total)
		})
	}

	code, env := f.do(t, http.MethodGet, "/api/v1/laureates", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 10, decodeData[laureateList](t, env).Total)

	// no match encodes as an empty array
	_, env = f.do(t, http.MethodGet, "/api/v1/laureates?q=zzzz", nil)
	assert.Contains(t, string(env.Data), `"laureates":[]`)
}

func TestLaureateFilters(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodGet, "/api/v1/laureates/filters", nil)
	require.Equal(t, http.StatusOK, code)

	var filters struct {
		Categories []map[string]string `json:"categories"`
		Years      []int               `json:"years"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &filters))
	assert.Len(t, filters.Categories, 6)
	assert.Equal(t, "physics", filters.Categories[0]["value"])
	assert.Equal(t, []int{2015, 2016, 2017, 2018, 2019, 2020, 2021, 2022, 2023, 2024}, filters.Years)
}

func TestGetLaureate(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodGet, "/api/v1/laureates/"+url.PathEscape("Svante Pääbo"), nil)
	require.Equal(t, http.StatusOK, code)

	var got struct {
		Laureate models.Laureate      `json:"laureate"`
		Content  *models.ContentEntry `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 2022, got.Laureate.Year)
	require.NotNil(t, got.Content)
	assert.Equal(t, "paabo", got.Content.ID)

	code, env = f.do(t, http.MethodGet, "/api/v1/laureates/Nobody", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestGetLaureateDecodesNameOnce(t *testing.T) {
	f := newFixture(t, future())
	f.server.catalog = catalog.New(append(f.server.catalog.All(),
		models.Laureate{Name: "Fifty%41 Percent", Year: 2024, Category: models.CategoryPeace, ContentID: "mohammadi"},
		models.Laureate{Name: "Conor O'Neil", Year: 2024, Category: models.CategoryPeace, ContentID: "mohammadi"},
	))

	for _, tt := range []struct{ path, name string }{
		{url.PathEscape("Fifty%41 Percent"), "Fifty%41 Percent"},
		// non-canonical escaping makes the request carry a RawPath
		{"Conor%20O%27Ne%69l", "Conor O'Neil"},
		{"Svante%20P%C3%A4%C3%A4bo", "Svante Pääbo"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, http.MethodGet, "/api/v1/laureates/"+tt.path, nil)
			require.Equal(t, http.StatusOK, code)

			var got struct {
				Laureate models.Laureate `json:"laureate"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &got))
			assert.Equal(t, tt.name, got.Laureate.Name)
		})
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, code)

	stats := decodeData[models.CatalogStats](t, env)
	assert.Equal(t, 10, stats.Laureates)
	assert.Equal(t, 6, stats.Categories)
}

func TestContent(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodGet, "/api/v1/content/history/dynamite", nil)
	require.Equal(t, http.StatusOK, code)
	entry := decodeData[models.ContentEntry](t, env)
	assert.Equal(t, "dynamite", entry.ID)
	assert.NotEmpty(t, entry.Title)

	code, env = f.do(t, http.MethodGet, "/api/v1/content/team", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 5, list.Total)

	code, _ = f.do(t, http.MethodGet, "/api/v1/content/history/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/content/recipes/x", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRandomQuoteAndCountdown(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodGet, "/api/v1/quotes/random", nil)
	require.Equal(t, http.StatusOK, code)
	quote := decodeData[models.Quote](t, env)
	assert.NotEmpty(t, quote.Text)

	code, env = f.do(t, http.MethodGet, "/api/v1/events/countdown", nil)
	require.Equal(t, http.StatusOK, code)
	b := decodeData[countdown.Breakdown](t, env)
	assert.False(t, b.Started)
	assert.True(t, b.Days == 1 || b.Days == 2)
}

func TestQuizFlow(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodPost, "/api/v1/quiz/sessions", models.StartQuizRequest{Nickname: "Marie"})
	require.Equal(t, http.StatusCreated, code)
	state := decodeData[models.QuizState](t, env)
	require.NotNil(t, state.Question)
	assert.Equal(t, 1, state.Question.Number)
	assert.Equal(t, models.QuizAwaitingAnswer, state.Status)
	base := "/api/v1/quiz/sessions/" + state.ID

	// submit without a selection is rejected and changes nothing
	code, env = f.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", env.Error.Code)

	code, env = f.do(t, http.MethodPost, base+"/select", map[string]int{"index": 7})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", env.Error.Code)

	code, _ = f.do(t, http.MethodPost, base+"/select", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPost, base+"/select", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, code)
	state = decodeData[models.QuizState](t, env)
	require.NotNil(t, state.SelectedIndex)
	assert.Equal(t, 0, *state.SelectedIndex)

	code, env = f.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, code)
	ans := decodeData[answerResponse](t, env)
	assert.True(t, ans.Result.Correct)
	assert.Equal(t, 1, ans.State.CurrentIndex)

	code, _ = f.do(t, http.MethodGet, base+"/result", nil)
	assert.Equal(t, http.StatusConflict, code)

	for _, idx := range []int{2, 0, 0, 1} {
		code, env = f.do(t, http.MethodPost, base+"/answer", map[string]int{"index": idx})
		require.Equal(t, http.StatusOK, code)
	}
	ans = decodeData[answerResponse](t, env)
	assert.True(t, ans.Result.Finished)
	assert.Equal(t, models.QuizFinished, ans.State.Status)

	code, env = f.do(t, http.MethodGet, base+"/result", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.QuizScore{Score: 5, Total: 5, Percentage: 100}, decodeData[models.QuizScore](t, env))

	code, _ = f.do(t, http.MethodPost, base+"/answer", map[string]int{"index": 0})
	assert.Equal(t, http.StatusConflict, code)

	code, env = f.do(t, http.MethodGet, "/api/v1/quiz/leaderboard", nil)
	require.Equal(t, http.StatusOK, code)
	var board struct {
		Entries []models.LeaderboardEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &board))
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Marie", board.Entries[0].Nickname)
	assert.Equal(t, 100, board.Entries[0].Percentage)

	code, env = f.do(t, http.MethodPost, base+"/restart", nil)
	require.Equal(t, http.StatusOK, code)
	state = decodeData[models.QuizState](t, env)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, 0, state.Score)

	// finishing again after a restart replaces the session's leaderboard row
	for _, idx := range []int{1, 2, 0, 0, 1} {
		code, _ = f.do(t, http.MethodPost, base+"/answer", map[string]int{"index": idx})
		require.Equal(t, http.StatusOK, code)
	}
	code, env = f.do(t, http.MethodGet, "/api/v1/quiz/leaderboard", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &board))
	require.Len(t, board.Entries, 1)
	assert.Equal(t, 4, board.Entries[0].Score)
	assert.Equal(t, 80, board.Entries[0].Percentage)

	code, _ = f.do(t, http.MethodGet, "/api/v1/quiz/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestChat(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodPost, "/api/v1/chat", models.ChatRequest{Message: "Tell me about Einstein"})
	require.Equal(t, http.StatusOK, code)
	reply := decodeData[models.ChatReply](t, env)
	assert.Equal(t, chat.SourceFallback, reply.Source)
	assert.Contains(t, reply.Text, "1921")
	require.NotEmpty(t, reply.ConversationID)

	code, env = f.do(t, http.MethodPost, "/api/v1/chat/"+reply.ConversationID+"/toggle", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decodeData[models.ChatWidget](t, env).Open)

	code, env = f.do(t, http.MethodGet, "/api/v1/chat/"+reply.ConversationID, nil)
	require.Equal(t, http.StatusOK, code)
	widget := decodeData[models.ChatWidget](t, env)
	assert.True(t, widget.Open)
	assert.Len(t, widget.Messages, 2)

	code, env = f.do(t, http.MethodPost, "/api/v1/chat", models.ChatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", env.Error.Code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/chat/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestContact(t *testing.T) {
	f := newFixture(t, future())

	code, env := f.do(t, http.MethodPost, "/api/v1/contact", models.ContactRequest{Name: "A", Email: "nope"})
	require.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "Name must be at least 2 characters", env.Error.Message)
	assert.Len(t, env.Error.Fields, 4)

	code, env = f.do(t, http.MethodPost, "/api/v1/contact", models.ContactRequest{
		Name:    strings.Repeat("a", 201),
		Email:   "ada@example.org",
		Subject: strings.Repeat("s", 101),
		Message: "When does the ceremony start?",
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	require.Len(t, env.Error.Fields, 2)
	assert.Equal(t, "name", env.Error.Fields[0].Field)
	assert.Equal(t, "subject", env.Error.Fields[1].Field)

	code, env = f.do(t, http.MethodPost, "/api/v1/contact", models.ContactRequest{
		Name:    "Ada Lovelace",
		Email:   "ada@example.org",
		Subject: "general",
		Message: "When does the ceremony start?",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, string(env.Data), "Message sent successfully!")

	code, env = f.do(t, http.MethodGet, "/api/v1/admin/contact", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", env.Error.Code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/admin/contact", nil, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = f.do(t, http.MethodGet, "/api/v1/admin/contact", nil, "X-API-Key", "wow_reader_test_key")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", env.Error.Code)

	code, env = f.do(t, http.MethodGet, "/api/v1/admin/contact", nil, "Authorization", "Bearer "+testAdminKey)
	require.Equal(t, http.StatusOK, code)
	var inbox struct {
		Messages []models.ContactMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inbox))
	require.Len(t, inbox.Messages, 1)
	assert.Equal(t, "ada@example.org", inbox.Messages[0].Email)
}

func TestInvalidJSON(t *testing.T) {
	f := newFixture(t, future())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestSearchWebSocket(t *testing.T) {
	f := newFixture(t, future())
	srv := httptest.NewServer(f.server.Router())
	defer srv.Close()

	conn := dial(t, srv, "/ws/search")

	for _, q := range []string{"w", "wo", "women"} {
		require.NoError(t, conn.WriteJSON(ClientFrame{Type: "query", Query: q}))
	}

	var frame SearchFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "results", frame.Type)
	assert.Equal(t, "women", frame.Query)
	assert.Equal(t, 1, frame.Total)
	require.Len(t, frame.Results, 1)
	assert.Equal(t, "Narges Mohammadi", frame.Results[0].Name)

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "bogus"}))
	var errFrame ErrorFrame
	require.NoError(t, conn.ReadJSON(&errFrame))
	assert.Equal(t, "error", errFrame.Type)
}

func TestChatWebSocket(t *testing.T) {
	f := newFixture(t, future())
	srv := httptest.NewServer(f.server.Router())
	defer srv.Close()

	conn := dial(t, srv, "/ws/chat")

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "message", Message: "hello"}))

	var typing, reply ChatFrame
	require.NoError(t, conn.ReadJSON(&typing))
	assert.Equal(t, "typing", typing.Type)
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "reply", reply.Type)
	assert.Equal(t, chat.SourceFallback, reply.Source)
	assert.NotEmpty(t, reply.ConversationID)
	assert.True(t, strings.HasPrefix(reply.Text, "Hello!"))

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "toggle"}))
	var toggled ChatFrame
	require.NoError(t, conn.ReadJSON(&toggled))
	assert.Equal(t, "open", toggled.Type)
	assert.Equal(t, reply.ConversationID, toggled.ConversationID)

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "message", Message: " "}))
	require.NoError(t, conn.ReadJSON(&typing))
	var errFrame ErrorFrame
	require.NoError(t, conn.ReadJSON(&errFrame))
	assert.Equal(t, "message is required", errFrame.Data)
}

func TestCountdownWebSocket(t *testing.T) {
	t.Run("upcoming", func(t *testing.T) {
		f := newFixture(t, future())
		srv := httptest.NewServer(f.server.Router())
		defer srv.Close()

		conn := dial(t, srv, "/ws/countdown")
		var frame CountdownFrame
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, "countdown", frame.Type)
		assert.False(t, frame.Started)
	})

	t.Run("started", func(t *testing.T) {
		f := newFixture(t, time.Now().Add(-time.Hour))
		srv := httptest.NewServer(f.server.Router())
		defer srv.Close()

		conn := dial(t, srv, "/ws/countdown")
		var frame CountdownFrame
		require.NoError(t, conn.ReadJSON(&frame))
		assert.True(t, frame.Started)
		assert.Equal(t, countdown.StartedMessage, frame.Message)

		// the server closes the socket after the started frame
		_, _, err := conn.ReadMessage()
		assert.Error(t, err)
	})
}
