package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cianmurphy/decksched/internal/domain"
)

const cardColumns = `id, deck_id, front, back, media, hash, mode, due_date,
	deadline, offsets, step, mastery,
	stability, difficulty, last_review, review_count, lapse_count,
	history, created_at`

// InsertCard stores a new card, minting an ID if the card has none. A
// non-nil sourceID marks the card as owned by an import source.
func (db *DB) InsertCard(card *domain.Card, sourceID *int64) error {
	if card.ID == "" {
		id, err := newID()
		if err != nil {
			return fmt.Errorf("failed to mint card id: %w", err)
		}
		card.ID = id
	}
	if err := card.Validate(); err != nil {
		return fmt.Errorf("refusing to insert card %s: %w", card.ID, err)
	}

	cols := cardFields(*card)
	var src sql.NullInt64
	if sourceID != nil {
		src = sql.NullInt64{Int64: *sourceID, Valid: true}
	}

	_, err := db.conn.Exec(`
		INSERT INTO cards (id, deck_id, front, back, media, hash, mode, due_date,
			deadline, offsets, step, mastery,
			stability, difficulty, last_review, review_count, lapse_count,
			history, source_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID, card.DeckID, card.Front, card.Back, strings.Join(card.Media, "\n"),
		nullString(card.Hash), string(card.Mode), card.DueDate(),
		cols.deadline, cols.offsets, cols.step, cols.mastery,
		cols.stability, cols.difficulty, cols.lastReview, cols.reviewCount, cols.lapseCount,
		encodeHistory(card.History), src, card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// GetCard retrieves a card by ID.
func (db *DB) GetCard(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	return scanCard(row)
}

// FindCardByHash retrieves a source-owned card by its content hash, or nil
// if no such card exists.
func (db *DB) FindCardByHash(hash string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE hash = ?`, hash)
	card, err := scanCard(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return card, err
}

// ListCards retrieves all cards, or a single deck's cards when deckID is
// non-empty.
func (db *DB) ListCards(deckID string) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards`
	var args []any
	if deckID != "" {
		query += ` WHERE deck_id = ?`
		args = append(args, deckID)
	}
	query += ` ORDER BY created_at`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// GetCardsBySourceID retrieves all cards owned by an import source.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]domain.Card, error) {
	rows, err := db.conn.Query(`SELECT `+cardColumns+` FROM cards WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// UpdateCardScheduling writes a card's scheduling delta: mode, state block,
// history, and due date. Content fields are untouched.
func (db *DB) UpdateCardScheduling(card domain.Card) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin card update for %s: %w", card.ID, err)
	}
	defer tx.Rollback()

	if err := updateCardScheduling(tx, card); err != nil {
		return err
	}
	return tx.Commit()
}

func updateCardScheduling(tx *sql.Tx, card domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("refusing to update card %s: %w", card.ID, err)
	}
	cols := cardFields(card)

	res, err := tx.Exec(`
		UPDATE cards SET mode = ?, due_date = ?,
			deadline = ?, offsets = ?, step = ?, mastery = ?,
			stability = ?, difficulty = ?, last_review = ?, review_count = ?, lapse_count = ?,
			history = ?
		WHERE id = ?
	`,
		string(card.Mode), card.DueDate(),
		cols.deadline, cols.offsets, cols.step, cols.mastery,
		cols.stability, cols.difficulty, cols.lastReview, cols.reviewCount, cols.lapseCount,
		encodeHistory(card.History),
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	return requireRow(res, card.ID)
}

// UpdateCardHistory writes only the trailing rating history. This is the
// persistence path for session requeues, whose scheduling fields must not
// be stored.
func (db *DB) UpdateCardHistory(cardID string, history []domain.Rating) error {
	res, err := db.conn.Exec(`UPDATE cards SET history = ? WHERE id = ?`,
		encodeHistory(history), cardID)
	if err != nil {
		return fmt.Errorf("failed to update history for card %s: %w", cardID, err)
	}
	return requireRow(res, cardID)
}

// DeleteCard removes a card by ID.
func (db *DB) DeleteCard(id string) error {
	_, err := db.conn.Exec(`DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

// DeleteCardByHash removes a source-owned card by its content hash.
func (db *DB) DeleteCardByHash(hash string) error {
	_, err := db.conn.Exec(`DELETE FROM cards WHERE hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("failed to delete card with hash %s: %w", hash, err)
	}
	return nil
}

// cardColumnValues holds the nullable column representations of a card's
// mode-specific state block.
type cardColumnValues struct {
	deadline    sql.NullTime
	offsets     sql.NullString
	step        sql.NullInt64
	mastery     sql.NullString
	stability   sql.NullFloat64
	difficulty  sql.NullFloat64
	lastReview  sql.NullTime
	reviewCount sql.NullInt64
	lapseCount  sql.NullInt64
}

func cardFields(card domain.Card) cardColumnValues {
	var cols cardColumnValues
	if card.Deadline != nil {
		cols.deadline = sql.NullTime{Time: card.Deadline.Deadline, Valid: true}
		cols.offsets = sql.NullString{String: encodeInts(card.Deadline.Offsets), Valid: true}
		cols.step = sql.NullInt64{Int64: int64(card.Deadline.Step), Valid: true}
		cols.mastery = sql.NullString{String: string(card.Deadline.Mastery), Valid: true}
	}
	if card.Memory != nil {
		cols.stability = sql.NullFloat64{Float64: card.Memory.Stability, Valid: true}
		cols.difficulty = sql.NullFloat64{Float64: card.Memory.Difficulty, Valid: true}
		cols.lastReview = nullTime(card.Memory.LastReview)
		cols.reviewCount = sql.NullInt64{Int64: int64(card.Memory.ReviewCount), Valid: true}
		cols.lapseCount = sql.NullInt64{Int64: int64(card.Memory.LapseCount), Valid: true}
	}
	return cols
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var c domain.Card
	var media, mode, history string
	var hash sql.NullString
	var due time.Time
	var cols cardColumnValues

	err := row.Scan(
		&c.ID, &c.DeckID, &c.Front, &c.Back, &media, &hash, &mode, &due,
		&cols.deadline, &cols.offsets, &cols.step, &cols.mastery,
		&cols.stability, &cols.difficulty, &cols.lastReview, &cols.reviewCount, &cols.lapseCount,
		&history, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}

	if media != "" {
		c.Media = strings.Split(media, "\n")
	}
	c.Hash = hash.String
	c.Mode = domain.Mode(mode)
	c.History = decodeHistory(history)

	switch c.Mode {
	case domain.ModeDeadline:
		offsets, err := decodeInts(cols.offsets.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt offsets for card %s: %w", c.ID, err)
		}
		c.Deadline = &domain.DeadlineState{
			Deadline: cols.deadline.Time,
			Offsets:  offsets,
			Step:     int(cols.step.Int64),
			Due:      due,
			Mastery:  domain.MasteryLabel(cols.mastery.String),
		}
	case domain.ModeMemoryModel:
		ms := &domain.MemoryState{
			Stability:   cols.stability.Float64,
			Difficulty:  cols.difficulty.Float64,
			ReviewCount: int(cols.reviewCount.Int64),
			LapseCount:  int(cols.lapseCount.Int64),
			Due:         due,
		}
		if cols.lastReview.Valid {
			t := cols.lastReview.Time
			ms.LastReview = &t
		}
		c.Memory = ms
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt card %s: %w", c.ID, err)
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func encodeInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func decodeInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func encodeHistory(history []domain.Rating) string {
	vals := make([]int, len(history))
	for i, r := range history {
		vals[i] = int(r)
	}
	return encodeInts(vals)
}

func decodeHistory(s string) []domain.Rating {
	vals, err := decodeInts(s)
	if err != nil || len(vals) == 0 {
		return nil
	}
	history := make([]domain.Rating, len(vals))
	for i, v := range vals {
		history[i] = domain.Rating(v)
	}
	return history
}
