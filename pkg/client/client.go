package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// Client is a Go SDK for the wings-of-wisdom API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAPIKey sets the key sent to admin endpoints
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// NewClient creates a new wings-of-wisdom client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FieldError is one failed contact form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is an error envelope returned by the server
type APIError struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// LaureateDetail is a catalog record with its modal content
type LaureateDetail struct {
	Laureate models.Laureate      `json:"laureate"`
	Content  *models.ContentEntry `json:"content"`
}

// AnswerResponse is the outcome of a submitted answer
type AnswerResponse struct {
	Result models.AnswerResult `json:"result"`
	State  models.QuizState    `json:"state"`
}

// Countdown is the time left until the ceremony
type Countdown struct {
	Days    int64  `json:"days"`
	Hours   int64  `json:"hours"`
	Minutes int64  `json:"minutes"`
	Seconds int64  `json:"seconds"`
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
	Target  string `json:"target"`
}

// SearchOptions filters the laureate catalog
type SearchOptions struct {
	Query    string
	Category string
	Year     int
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// SearchLaureates filters the laureate catalog
func (c *Client) SearchLaureates(ctx context.Context, opts SearchOptions) ([]models.Laureate, error) {
	q := url.Values{}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Year > 0 {
		q.Set("year", strconv.Itoa(opts.Year))
	}

	path := "/api/v1/laureates"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var data struct {
		Laureates []models.Laureate `json:"laureates"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Laureates, nil
}

// GetLaureate retrieves a laureate by exact name
func (c *Client) GetLaureate(ctx context.Context, name string) (*LaureateDetail, error) {
	var data LaureateDetail
	if err := c.do(ctx, http.MethodGet, "/api/v1/laureates/"+url.PathEscape(name), nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Stats retrieves the homepage counters
func (c *Client) Stats(ctx context.Context) (*models.CatalogStats, error) {
	var data models.CatalogStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetContent retrieves one modal entry
func (c *Client) GetContent(ctx context.Context, kind models.ContentKind, id string) (*models.ContentEntry, error) {
	path := fmt.Sprintf("/api/v1/content/%s/%s", kind, url.PathEscape(id))
	var data models.ContentEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// RandomQuote retrieves a random inspirational quote
func (c *Client) RandomQuote(ctx context.Context) (*models.Quote, error) {
	var data models.Quote
	if err := c.do(ctx, http.MethodGet, "/api/v1/quotes/random", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Countdown retrieves the time left until the ceremony
func (c *Client) Countdown(ctx context.Context) (*Countdown, error) {
	var data Countdown
	if err := c.do(ctx, http.MethodGet, "/api/v1/events/countdown", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// StartQuiz opens a quiz session
func (c *Client) StartQuiz(ctx context.Context, nickname string) (*models.QuizState, error) {
	return c.quizState(ctx, http.MethodPost, "/api/v1/quiz/sessions", models.StartQuizRequest{Nickname: nickname})
}

// GetQuiz retrieves a quiz session
func (c *Client) GetQuiz(ctx context.Context, id string) (*models.QuizState, error) {
	return c.quizState(ctx, http.MethodGet, quizPath(id, ""), nil)
}

// SelectOption marks an option without submitting it
func (c *Client) SelectOption(ctx context.Context, id string, index int) (*models.QuizState, error) {
	return c.quizState(ctx, http.MethodPost, quizPath(id, "/select"), models.AnswerRequest{Index: &index})
}

// SubmitAnswer submits the selected option
func (c *Client) SubmitAnswer(ctx context.Context, id string) (*AnswerResponse, error) {
	var data AnswerResponse
	if err := c.do(ctx, http.MethodPost, quizPath(id, "/submit"), nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Answer selects and submits in one call
func (c *Client) Answer(ctx context.Context, id string, index int) (*AnswerResponse, error) {
	var data AnswerResponse
	if err := c.do(ctx, http.MethodPost, quizPath(id, "/answer"), models.AnswerRequest{Index: &index}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// RestartQuiz resets a session to the first question
func (c *Client) RestartQuiz(ctx context.Context, id string) (*models.QuizState, error) {
	return c.quizState(ctx, http.MethodPost, quizPath(id, "/restart"), nil)
}

// QuizResult retrieves the final score of a finished session
func (c *Client) QuizResult(ctx context.Context, id string) (*models.QuizScore, error) {
	var data models.QuizScore
	if err := c.do(ctx, http.MethodGet, quizPath(id, "/result"), nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Leaderboard retrieves the best finished quizzes
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	path := "/api/v1/quiz/leaderboard"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var data struct {
		Entries []models.LeaderboardEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Entries, nil
}

// Chat sends a message to the assistant
func (c *Client) Chat(ctx context.Context, conversationID, message string) (*models.ChatReply, error) {
	req := models.ChatRequest{ConversationID: conversationID, Message: message}
	var data models.ChatReply
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ToggleChat opens or closes the chat widget
func (c *Client) ToggleChat(ctx context.Context, conversationID string) (*models.ChatWidget, error) {
	var data models.ChatWidget
	path := fmt.Sprintf("/api/v1/chat/%s/toggle", url.PathEscape(conversationID))
	if err := c.do(ctx, http.MethodPost, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SubmitContact sends the contact form; validation failures return an *APIError with Fields set
func (c *Client) SubmitContact(ctx context.Context, req models.ContactRequest) (string, error) {
	var data struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/contact", req, &data); err != nil {
		return "", err
	}
	return data.ID, nil
}

// ListContactMessages retrieves the contact inbox (requires an API key)
func (c *Client) ListContactMessages(ctx context.Context, subject string, limit int) ([]*models.ContactMessage, error) {
	q := url.Values{}
	if subject != "" {
		q.Set("subject", subject)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/admin/contact"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var data struct {
		Messages []*models.ContactMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Messages, nil
}

func (c *Client) quizState(ctx context.Context, method, path string, body interface{}) (*models.QuizState, error) {
	var data models.QuizState
	if err := c.do(ctx, method, path, body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func quizPath(id, suffix string) string {
	return "/api/v1/quiz/sessions/" + url.PathEscape(id) + suffix
}

// do performs an HTTP request and unwraps the response envelope into out
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if !result.Success || resp.StatusCode >= 400 {
		if result.Error == nil {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		result.Error.Status = resp.StatusCode
		return result.Error
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
