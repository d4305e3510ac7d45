// Package storage persists decks, cards, and the review log in sqlite. The
// scheduling engine never touches this package; callers read snapshots here,
// run the engine, and write the returned deltas back.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/cianmurphy/decksched/internal/domain"
)

// ErrNotFound is returned when a requested deck or card does not exist.
var ErrNotFound = errors.New("storage: not found")

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// newID mints a short public identifier.
func newID() (string, error) {
	return gonanoid.New()
}

// InsertDeck stores a new deck, minting an ID if the deck has none.
func (db *DB) InsertDeck(deck *domain.Deck) error {
	if deck.ID == "" {
		id, err := newID()
		if err != nil {
			return fmt.Errorf("failed to mint deck id: %w", err)
		}
		deck.ID = id
	}
	if deck.CreatedAt.IsZero() {
		deck.CreatedAt = time.Now()
	}

	_, err := db.conn.Exec(`
		INSERT INTO decks (id, name, mode, deadline, deadline_prompt_shown, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		deck.ID,
		deck.Name,
		string(deck.Mode),
		nullTime(deck.Deadline),
		deck.DeadlinePromptShown,
		deck.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deck %s: %w", deck.Name, err)
	}
	return nil
}

// GetDeck retrieves a deck by ID.
func (db *DB) GetDeck(id string) (*domain.Deck, error) {
	row := db.conn.QueryRow(`
		SELECT id, name, mode, deadline, deadline_prompt_shown, created_at
		FROM decks WHERE id = ?
	`, id)
	return scanDeck(row)
}

// GetDeckByName retrieves a deck by its unique name.
func (db *DB) GetDeckByName(name string) (*domain.Deck, error) {
	row := db.conn.QueryRow(`
		SELECT id, name, mode, deadline, deadline_prompt_shown, created_at
		FROM decks WHERE name = ?
	`, name)
	return scanDeck(row)
}

// ListDecks retrieves all decks.
func (db *DB) ListDecks() ([]domain.Deck, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, mode, deadline, deadline_prompt_shown, created_at
		FROM decks ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, *d)
	}
	return decks, rows.Err()
}

// UpdateDeck writes a deck's mode, deadline, and prompt flag.
func (db *DB) UpdateDeck(deck domain.Deck) error {
	res, err := db.conn.Exec(`
		UPDATE decks SET name = ?, mode = ?, deadline = ?, deadline_prompt_shown = ?
		WHERE id = ?
	`,
		deck.Name,
		string(deck.Mode),
		nullTime(deck.Deadline),
		deck.DeadlinePromptShown,
		deck.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deck %s: %w", deck.ID, err)
	}
	return requireRow(res, deck.ID)
}

// DeleteDeck removes a deck and every card in it, in one transaction.
func (db *DB) DeleteDeck(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete of deck %s: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards WHERE deck_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cards of deck %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM decks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete deck %s: %w", id, err)
	}
	return tx.Commit()
}

// ApplyDeckChange writes a deck delta and all of its card deltas as a single
// transaction. Mode conversions and deadline edits go through here so no
// partial-deck state is ever observable.
func (db *DB) ApplyDeckChange(deck domain.Deck, cards []domain.Card) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin deck change for %s: %w", deck.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE decks SET mode = ?, deadline = ?, deadline_prompt_shown = ?
		WHERE id = ?
	`, string(deck.Mode), nullTime(deck.Deadline), deck.DeadlinePromptShown, deck.ID); err != nil {
		return fmt.Errorf("failed to update deck %s: %w", deck.ID, err)
	}

	for _, card := range cards {
		if err := updateCardScheduling(tx, card); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AppendReviewLog stores one persisted review event.
func (db *DB) AppendReviewLog(log domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_log (card_id, rating, reviewed_at)
		VALUES (?, ?, ?)
	`, log.CardID, int(log.Rating), log.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append review log for card %s: %w", log.CardID, err)
	}
	return nil
}

// ReviewLogForCard retrieves a card's review events, oldest first.
func (db *DB) ReviewLogForCard(cardID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT card_id, rating, reviewed_at
		FROM review_log WHERE card_id = ? ORDER BY reviewed_at
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review log for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var l domain.ReviewLog
		var rating int
		if err := rows.Scan(&l.CardID, &rating, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		l.Rating = domain.Rating(rating)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (*domain.Deck, error) {
	var d domain.Deck
	var mode string
	var dl sql.NullTime
	err := row.Scan(&d.ID, &d.Name, &mode, &dl, &d.DeadlinePromptShown, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan deck: %w", err)
	}
	d.Mode = domain.Mode(mode)
	if dl.Valid {
		t := dl.Time
		d.Deadline = &t
	}
	return &d, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
