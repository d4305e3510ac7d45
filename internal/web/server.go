// Package web exposes the scheduling engine over a JSON HTTP API: deck and
// card management, due listings, study sessions with in-session requeues,
// and card-source administration.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cianmurphy/decksched/internal/dates"
	"github.com/cianmurphy/decksched/internal/deadline"
	"github.com/cianmurphy/decksched/internal/domain"
	"github.com/cianmurphy/decksched/internal/engine"
	"github.com/cianmurphy/decksched/internal/source"
	"github.com/cianmurphy/decksched/internal/storage"
)

const dateLayout = "2006-01-02"

// Server holds the dependencies for the HTTP API.
type Server struct {
	db       *storage.DB
	engine   *engine.Engine
	syncer   *source.Syncer
	router   *http.ServeMux
	validate *validator.Validate
	sessions *sessionStore
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, eng *engine.Engine, syncer *source.Syncer) *Server {
	s := &Server{
		db:       db,
		engine:   eng,
		syncer:   syncer,
		router:   http.NewServeMux(),
		validate: validator.New(),
		sessions: newSessionStore(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Decks
	s.router.HandleFunc("GET /api/decks", s.handleListDecks)
	s.router.HandleFunc("POST /api/decks", s.handleCreateDeck)
	s.router.HandleFunc("DELETE /api/decks/{deckID}", s.handleDeleteDeck)
	s.router.HandleFunc("PUT /api/decks/{deckID}/deadline", s.handleEditDeadline)
	s.router.HandleFunc("POST /api/decks/{deckID}/convert", s.handleConvertDeck)
	s.router.HandleFunc("POST /api/decks/{deckID}/prompt-shown", s.handlePromptShown)

	// Cards
	s.router.HandleFunc("POST /api/decks/{deckID}/cards", s.handleCreateCard)
	s.router.HandleFunc("GET /api/cards/{cardID}", s.handleGetCard)
	s.router.HandleFunc("DELETE /api/cards/{cardID}", s.handleDeleteCard)

	// Scheduling
	s.router.HandleFunc("GET /api/due", s.handleDue)

	// Study sessions
	s.router.HandleFunc("POST /api/sessions", s.handleStartSession)
	s.router.HandleFunc("GET /api/sessions/{sessionID}/next", s.handleSessionNext)
	s.router.HandleFunc("POST /api/sessions/{sessionID}/review", s.handleSessionReview)

	// Sources
	s.router.HandleFunc("GET /api/sources", s.handleListSources)
	s.router.HandleFunc("POST /api/sources", s.handleAddSource)
	s.router.HandleFunc("DELETE /api/sources/{sourceID}", s.handleDeleteSource)
	s.router.HandleFunc("POST /api/sync", s.handleSync)
}

// deckView is the JSON shape of a deck, with derived day flags.
type deckView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Mode           string `json:"mode"`
	Deadline       string `json:"deadline,omitempty"`
	FinalReviewDay bool   `json:"final_review_day"`
	EmergencyDay   bool   `json:"emergency_day"`
	PromptDue      bool   `json:"prompt_due"`
}

func deckToView(d domain.Deck, today time.Time) deckView {
	v := deckView{
		ID:   d.ID,
		Name: d.Name,
		Mode: string(d.Mode),
	}
	if d.Deadline != nil {
		v.Deadline = d.Deadline.Format(dateLayout)
		v.FinalReviewDay = deadline.IsFinalReviewDay(*d.Deadline, today)
		v.EmergencyDay = deadline.IsEmergencyDay(*d.Deadline, today)
	}
	v.PromptDue = engine.ShouldPromptDeadlinePassed(d, today)
	return v
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.db.ListDecks()
	if err != nil {
		s.internalError(w, "listing decks", err)
		return
	}
	today := dates.Today()
	views := make([]deckView, 0, len(decks))
	for _, d := range decks {
		views = append(views, deckToView(d, today))
	}
	writeJSON(w, http.StatusOK, views)
}

type createDeckRequest struct {
	Name     string `json:"name" validate:"required"`
	Mode     string `json:"mode" validate:"required,oneof=deadline memory_model"`
	Deadline string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if !s.decode(w, r, &req) {
		return
	}

	deck := domain.Deck{Name: req.Name, Mode: domain.Mode(req.Mode)}
	if req.Deadline != "" {
		dl, _ := time.Parse(dateLayout, req.Deadline)
		deck.Deadline = &dl
	}
	if err := deck.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	today := dates.Today()
	if deck.Deadline != nil && dates.DaysBetween(today, *deck.Deadline) < 1 {
		badRequest(w, domain.ErrInvalidDeadline)
		return
	}

	if err := s.db.InsertDeck(&deck); err != nil {
		s.internalError(w, "inserting deck", err)
		return
	}
	writeJSON(w, http.StatusCreated, deckToView(deck, today))
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteDeck(r.PathValue("deckID")); err != nil {
		s.internalError(w, "deleting deck", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type editDeadlineRequest struct {
	Deadline string `json:"deadline" validate:"required,datetime=2006-01-02"`
}

func (s *Server) handleEditDeadline(w http.ResponseWriter, r *http.Request) {
	var req editDeadlineRequest
	if !s.decode(w, r, &req) {
		return
	}
	newDeadline, _ := time.Parse(dateLayout, req.Deadline)

	deck, cards, ok := s.deckWithCards(w, r.PathValue("deckID"))
	if !ok {
		return
	}

	today := dates.Today()
	newDeck, newCards, err := s.engine.EditDeadline(*deck, cards, newDeadline, today)
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := s.db.ApplyDeckChange(newDeck, newCards); err != nil {
		s.internalError(w, "applying deadline edit", err)
		return
	}
	writeJSON(w, http.StatusOK, deckToView(newDeck, today))
}

type convertDeckRequest struct {
	Mode     string `json:"mode" validate:"required,oneof=deadline memory_model"`
	Deadline string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleConvertDeck(w http.ResponseWriter, r *http.Request) {
	var req convertDeckRequest
	if !s.decode(w, r, &req) {
		return
	}
	var newDeadline *time.Time
	if req.Deadline != "" {
		dl, _ := time.Parse(dateLayout, req.Deadline)
		newDeadline = &dl
	}

	deck, cards, ok := s.deckWithCards(w, r.PathValue("deckID"))
	if !ok {
		return
	}

	today := dates.Today()
	newDeck, newCards, err := s.engine.ConvertDeckMode(*deck, cards, domain.Mode(req.Mode), newDeadline, today)
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := s.db.ApplyDeckChange(newDeck, newCards); err != nil {
		s.internalError(w, "applying conversion", err)
		return
	}
	writeJSON(w, http.StatusOK, deckToView(newDeck, today))
}

func (s *Server) handlePromptShown(w http.ResponseWriter, r *http.Request) {
	deck, err := s.db.GetDeck(r.PathValue("deckID"))
	if err != nil {
		s.notFoundOrError(w, err)
		return
	}
	deck.DeadlinePromptShown = true
	if err := s.db.UpdateDeck(*deck); err != nil {
		s.internalError(w, "updating deck", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createCardRequest struct {
	Front string   `json:"front" validate:"required"`
	Back  string   `json:"back" validate:"required"`
	Media []string `json:"media"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if !s.decode(w, r, &req) {
		return
	}

	deck, err := s.db.GetDeck(r.PathValue("deckID"))
	if err != nil {
		s.notFoundOrError(w, err)
		return
	}

	card, err := s.engine.ScheduleCardCreation(*deck, dates.Today())
	if err != nil {
		badRequest(w, err)
		return
	}
	card.Front = req.Front
	card.Back = req.Back
	card.Media = req.Media

	if err := s.db.InsertCard(&card, nil); err != nil {
		s.internalError(w, "inserting card", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.cardToView(card, dates.Today()))
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.db.GetCard(r.PathValue("cardID"))
	if err != nil {
		s.notFoundOrError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cardToView(*card, dates.Today()))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteCard(r.PathValue("cardID")); err != nil {
		s.internalError(w, "deleting card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDue(w http.ResponseWriter, r *http.Request) {
	deckID := r.URL.Query().Get("deck")

	cards, err := s.db.ListCards(deckID)
	if err != nil {
		s.internalError(w, "listing cards", err)
		return
	}
	decks, err := s.db.ListDecks()
	if err != nil {
		s.internalError(w, "listing decks", err)
		return
	}

	today := dates.Today()
	due := engine.DueCards(cards, decks, today, deckID)
	views := make([]cardView, 0, len(due))
	for _, c := range due {
		views = append(views, s.cardToView(c, today))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		s.internalError(w, "listing sources", err)
		return
	}
	type sourceView struct {
		ID   int64  `json:"id"`
		Path string `json:"path"`
		Type string `json:"type"`
		Deck string `json:"deck,omitempty"`
	}
	views := make([]sourceView, 0, len(sources))
	for _, src := range sources {
		views = append(views, sourceView{ID: src.ID, Path: src.Path, Type: src.Type, Deck: src.DeckName})
	}
	writeJSON(w, http.StatusOK, views)
}

type addSourceRequest struct {
	Path string `json:"path" validate:"required"`
	Deck string `json:"deck"`
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.db.InsertSource(req.Path, source.TypeOf(req.Path), req.Deck)
	if err != nil {
		s.internalError(w, "inserting source", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("sourceID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid source ID", http.StatusBadRequest)
		return
	}
	if err := s.db.DeleteSource(id); err != nil {
		s.internalError(w, "deleting source", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.syncer.RunSync(dates.Today()); err != nil {
		s.internalError(w, "running sync", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deckWithCards loads a deck and its full card set, writing the HTTP error
// itself when it fails.
func (s *Server) deckWithCards(w http.ResponseWriter, deckID string) (*domain.Deck, []domain.Card, bool) {
	deck, err := s.db.GetDeck(deckID)
	if err != nil {
		s.notFoundOrError(w, err)
		return nil, nil, false
	}
	cards, err := s.db.ListCards(deckID)
	if err != nil {
		s.internalError(w, "listing cards", err)
		return nil, nil, false
	}
	return deck, cards, true
}

// decode unmarshals and validates a JSON request body, writing the HTTP
// error itself when it fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	slog.Error(action, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) notFoundOrError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.internalError(w, "lookup", err)
}

func badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}
