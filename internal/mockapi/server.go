// Package mockapi serves an in-memory rendition of the back-office support
// endpoints for local development and integration tests. State lives for
// the lifetime of the process; nothing is persisted.
package mockapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/fitdeskhq/fitdesk/internal/support"
)

// Server is the in-memory support backend.
type Server struct {
	mu            sync.RWMutex
	conversations map[string]*support.Conversation
	now           func() time.Time

	// DisableStart makes POST /conversations answer 501, exercising the
	// client-side start-conversation fallback.
	DisableStart bool
}

// Option tweaks server construction.
type Option func(*Server)

// WithNow injects the clock used for server-assigned timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithoutStartConversation disables the explicit create capability.
func WithoutStartConversation() Option {
	return func(s *Server) { s.DisableStart = true }
}

func New(opts ...Option) *Server {
	s := &Server{
		conversations: make(map[string]*support.Conversation),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router for the support surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/support/conversations", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleStart)
		r.Post("/{id}/messages", s.handleSendMessage)
		r.Post("/{id}/read", s.handleMarkRead)
		r.Put("/{id}/status", s.handleSetStatus)
	})
	return r
}

// Seed loads conversations wholesale, normalizing each. Intended for demos
// and tests.
func (s *Server) Seed(conversations ...support.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range conversations {
		c := conv.Clone()
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Status == "" {
			c.Status = support.StatusActive
		}
		c.Normalize()
		s.conversations[c.ID] = &c
	}
}

// AddParticipantMessage appends an inbound customer message, bumping the
// unread count. Lets tests and demos drive the other side of a thread.
func (s *Server) AddParticipantMessage(conversationID, content string) (support.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return support.Message{}, support.ErrNotFound
	}
	message := support.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Author:         support.AuthorParticipant,
		Content:        content,
		CreatedAt:      s.now(),
	}
	conv.AppendMessage(message)
	conv.UnreadForStaff++
	return message, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	status, err := support.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	s.mu.RLock()
	out := make([]support.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		if conv.Status == status {
			out = append(out, conv.Clone())
		}
	}
	s.mu.RUnlock()

	// Deterministic listing: most recent activity first.
	sortConversations(out)
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if s.DisableStart {
		respondError(w, http.StatusNotImplemented, "starting conversations is not supported")
		return
	}
	var payload struct {
		ParticipantID string `json:"participantId"`
		Text          string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	text := strings.TrimSpace(payload.Text)
	if payload.ParticipantID == "" || text == "" {
		respondError(w, http.StatusBadRequest, "participantId and text are required")
		return
	}

	now := s.now()
	conv := support.Conversation{
		ID:          uuid.NewString(),
		Participant: support.Participant{ID: payload.ParticipantID},
		Status:      support.StatusActive,
	}
	conv.AppendMessage(support.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Author:         support.AuthorStaff,
		Content:        text,
		CreatedAt:      now,
	})

	s.mu.Lock()
	stored := conv.Clone()
	s.conversations[conv.ID] = &stored
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload struct {
		Text    string `json:"text"`
		LocalID string `json:"localId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	s.mu.Lock()
	conv, ok := s.conversations[id]
	if !ok {
		s.mu.Unlock()
		respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	// Correlation-id dedup: a retried send returns the already persisted
	// message instead of creating a twin.
	if payload.LocalID != "" {
		for _, existing := range conv.Messages {
			if existing.LocalID == payload.LocalID {
				out := existing
				s.mu.Unlock()
				respondJSON(w, http.StatusOK, out)
				return
			}
		}
	}
	message := support.Message{
		ID:             uuid.NewString(),
		LocalID:        payload.LocalID,
		ConversationID: id,
		Author:         support.AuthorStaff,
		Content:        text,
		CreatedAt:      s.now(),
	}
	conv.AppendMessage(message)
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, message)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	conv, ok := s.conversations[id]
	if ok {
		conv.UnreadForStaff = 0
	}
	s.mu.Unlock()
	if !ok {
		respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	to, err := support.ParseStatus(payload.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}

	s.mu.Lock()
	conv, ok := s.conversations[id]
	if !ok {
		s.mu.Unlock()
		respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err := support.Transition(conv.Status, to); err != nil {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	conv.Status = to
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func sortConversations(list []support.Conversation) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].LastMessageAt.Equal(list[j].LastMessageAt) {
			return list[i].LastMessageAt.After(list[j].LastMessageAt)
		}
		return list[i].ID < list[j].ID
	})
}
