package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/wings-of-wisdom/internal/chat"
	"github.com/terra-clan/wings-of-wisdom/internal/countdown"
	"github.com/terra-clan/wings-of-wisdom/internal/models"
	"github.com/terra-clan/wings-of-wisdom/internal/scheduler"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	wsWriteWait   = 5 * time.Second
	wsMaxFrame    = 8 << 10
	chatReplyWait = 30 * time.Second
)

// ClientFrame is a message sent by the browser
type ClientFrame struct {
	Type           string `json:"type"`
	Query          string `json:"query,omitempty"`
	Category       string `json:"category,omitempty"`
	Year           string `json:"year,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message,omitempty"`
}

// SearchFrame carries live search results
type SearchFrame struct {
	Type    string            `json:"type"`
	Query   string            `json:"query"`
	Results []models.Laureate `json:"results"`
	Total   int               `json:"total"`
}

// ChatFrame carries typing notices and replies
type ChatFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`
	Source         string `json:"source,omitempty"`
}

// CountdownFrame carries one countdown tick
type CountdownFrame struct {
	Type string `json:"type"`
	countdown.Breakdown
}

// ErrorFrame reports a rejected client frame
type ErrorFrame struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// wsConn serializes writes to a socket
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal websocket frame", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send websocket frame", "error", err)
		return err
	}
	return nil
}

func (c *wsConn) sendError(message string) {
	c.send(ErrorFrame{Type: "error", Data: message})
}

func (c *wsConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
	c.conn.Close()
}

// readFrames decodes client frames until the socket closes
func readFrames(conn *websocket.Conn, handle func(ClientFrame)) {
	conn.SetReadLimit(wsMaxFrame)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			slog.Debug("invalid message format", "error", err)
			handle(ClientFrame{Type: "invalid"})
			continue
		}
		handle(frame)
	}
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*wsConn, bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return nil, false
	}
	// the server read timeout must not end long-lived sockets
	conn.SetReadDeadline(time.Time{})
	return &wsConn{conn: conn}, true
}

// handleSearchWS runs the catalog filter for the last query typed in a
// quiet period of searchDebounce
func (s *Server) handleSearchWS(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer ws.close()

	slog.Info("search websocket connected", "remote_addr", r.RemoteAddr)

	debouncer := scheduler.NewDebouncer(s.scheduler, s.searchDebounce)
	defer debouncer.Stop()

	readFrames(ws.conn, func(frame ClientFrame) {
		if frame.Type != "query" {
			ws.sendError("unsupported frame type")
			return
		}
		debouncer.Trigger(func() {
			results := s.catalog.Search(frame.Query, frame.Category, frame.Year)
			ws.send(SearchFrame{
				Type:    "results",
				Query:   frame.Query,
				Results: results,
				Total:   len(results),
			})
		})
	})

	slog.Info("search websocket disconnected", "remote_addr", r.RemoteAddr)
}

// handleChatWS answers each message frame with a typing notice and then a reply
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer ws.close()

	slog.Info("chat websocket connected", "remote_addr", r.RemoteAddr)

	conversationID := r.URL.Query().Get("conversation_id")

	readFrames(ws.conn, func(frame ClientFrame) {
		if frame.ConversationID != "" {
			conversationID = frame.ConversationID
		}

		switch frame.Type {
		case "message":
			ws.send(ChatFrame{Type: "typing", ConversationID: conversationID})

			ctx, cancel := context.WithTimeout(r.Context(), chatReplyWait)
			reply, err := s.chat.Reply(ctx, conversationID, frame.Message)
			cancel()
			if err != nil {
				ws.sendError(chatErrorMessage(err))
				return
			}
			conversationID = reply.ConversationID
			ws.send(ChatFrame{
				Type:           "reply",
				ConversationID: reply.ConversationID,
				Text:           reply.Text,
				Source:         reply.Source,
			})
		case "toggle":
			widget, err := s.chat.Toggle(r.Context(), conversationID)
			if err != nil {
				ws.sendError(chatErrorMessage(err))
				return
			}
			conversationID = widget.ID
			state := "closed"
			if widget.Open {
				state = "open"
			}
			ws.send(ChatFrame{Type: state, ConversationID: widget.ID})
		default:
			ws.sendError("unsupported frame type")
		}
	})

	slog.Info("chat websocket disconnected", "remote_addr", r.RemoteAddr)
}

// handleCountdownWS pushes the ceremony countdown every second until it starts
func (s *Server) handleCountdownWS(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer ws.close()

	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	tick := func() {
		b := s.event.Now()
		if err := ws.send(CountdownFrame{Type: "countdown", Breakdown: b}); err != nil || b.Started {
			stop()
		}
	}

	tick()
	handle := s.scheduler.Every(time.Second, tick)
	defer handle.Cancel()

	// drain client frames so close messages are noticed
	go func() {
		readFrames(ws.conn, func(ClientFrame) {})
		stop()
	}()

	<-done
}

func chatErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return "message is required"
	case errors.Is(err, chat.ErrMessageTooLong):
		return "message is too long"
	case errors.Is(err, chat.ErrInvalidConvID):
		return "invalid conversation id"
	default:
		slog.Error("chat websocket reply failed", "error", err)
		return "chat is unavailable"
	}
}
