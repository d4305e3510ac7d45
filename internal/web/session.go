package web

import (
	"net/http"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/domain"
	"github.com/cianmurphy/decksched/internal/engine"
)

// session is one learner's in-flight study run: a queue of card states.
// Requeued deadline cards re-enter at the back with their session-scoped
// state (failure counter, regressed step) intact, without touching the
// store's canonical scheduling fields.
type session struct {
	id    string
	queue []domain.Card
}

// sessionStore guards the live sessions. It is the single serialized-access
// container for in-session card state, so reviews of one card cannot
// interleave.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

type startSessionRequest struct {
	DeckID string `json:"deck_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	cards, err := s.db.ListCards(req.DeckID)
	if err != nil {
		s.internalError(w, "listing cards", err)
		return
	}
	decks, err := s.db.ListDecks()
	if err != nil {
		s.internalError(w, "listing decks", err)
		return
	}

	due := engine.DueCards(cards, decks, dates.Today(), req.DeckID)

	id, err := gonanoid.New()
	if err != nil {
		s.internalError(w, "minting session id", err)
		return
	}

	s.sessions.mu.Lock()
	s.sessions.sessions[id] = &session{id: id, queue: due}
	s.sessions.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": id,
		"due_count":  len(due),
	})
}

func (s *Server) handleSessionNext(w http.ResponseWriter, r *http.Request) {
	s.sessions.mu.Lock()
	defer s.sessions.mu.Unlock()

	sess, ok := s.sessions.sessions[r.PathValue("sessionID")]
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if len(sess.queue) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"done": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"done":      false,
		"remaining": len(sess.queue),
		"card":      s.cardToView(sess.queue[0], dates.Today()),
	})
}

type sessionReviewRequest struct {
	Rating domain.Rating `json:"rating"`
}

// handleSessionReview rates the card at the head of the session queue. A
// persisted outcome is written through to the store; a requeue re-enters the
// session queue and stores only the history append.
func (s *Server) handleSessionReview(w http.ResponseWriter, r *http.Request) {
	var req sessionReviewRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.sessions.mu.Lock()
	defer s.sessions.mu.Unlock()

	sess, ok := s.sessions.sessions[r.PathValue("sessionID")]
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if len(sess.queue) == 0 {
		http.Error(w, "session has no cards left", http.StatusConflict)
		return
	}

	card := sess.queue[0]
	today := dates.Today()
	result, err := s.engine.ReviewCard(card, req.Rating, today)
	if err != nil {
		badRequest(w, err)
		return
	}

	switch res := result.(type) {
	case engine.Persist:
		if err := s.db.UpdateCardScheduling(res.Card); err != nil {
			s.internalError(w, "persisting review", err)
			return
		}
		if err := s.db.AppendReviewLog(res.Log); err != nil {
			s.internalError(w, "appending review log", err)
			return
		}
		sess.queue = sess.queue[1:]
		writeJSON(w, http.StatusOK, map[string]any{
			"requeued":  false,
			"card":      s.cardToView(res.Card, today),
			"remaining": len(sess.queue),
		})

	case engine.Requeue:
		if err := s.db.UpdateCardHistory(res.Session.ID, res.History); err != nil {
			s.internalError(w, "persisting history", err)
			return
		}
		sess.queue = append(sess.queue[1:], res.Session)
		writeJSON(w, http.StatusOK, map[string]any{
			"requeued":  true,
			"card":      s.cardToView(res.Session, today),
			"remaining": len(sess.queue),
		})
	}
}
