package storage

const schema = `
-- Decks group cards sharing one scheduling mode.
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    mode TEXT NOT NULL,
    deadline DATETIME,
    deadline_prompt_shown INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

-- Cards carry exactly one scheduling block, selected by mode. The unused
-- block's columns stay NULL.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    media TEXT NOT NULL DEFAULT '',
    hash TEXT,
    mode TEXT NOT NULL,
    due_date DATETIME NOT NULL,

    deadline DATETIME,
    offsets TEXT,
    step INTEGER,
    mastery TEXT,

    stability REAL,
    difficulty REAL,
    last_review DATETIME,
    review_count INTEGER,
    lapse_count INTEGER,

    history TEXT NOT NULL DEFAULT '',
    source_id INTEGER,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(deck_id) REFERENCES decks(id),
    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_id);
CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(due_date);

-- One row per persisted review; session-only requeues are never logged.
CREATE TABLE IF NOT EXISTS review_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    rating INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id)
);

-- Sources track where cards are imported from: a local directory or a git
-- repository of markdown card files.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    deck_name TEXT,
    last_scanned DATETIME
);
`
