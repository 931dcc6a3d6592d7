package storage

const schema = `
-- Deck origins, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);

-- Vocabulary entries parsed from decks, keyed by content fingerprint.
CREATE TABLE IF NOT EXISTS subjects (
    id TEXT PRIMARY KEY,
    arabic TEXT NOT NULL,
    transliteration TEXT NOT NULL DEFAULT '',
    translation TEXT NOT NULL DEFAULT '',
    example TEXT NOT NULL DEFAULT ''
);

-- Which sources carry a subject. A subject shared by several decks has one row per source.
CREATE TABLE IF NOT EXISTS subject_sources (
    subject_id TEXT NOT NULL,
    source_id INTEGER NOT NULL,

    PRIMARY KEY(subject_id, source_id),
    FOREIGN KEY(subject_id) REFERENCES subjects(id) ON DELETE CASCADE,
    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_subject_sources_source_id ON subject_sources(source_id);

-- SM-2 scheduling state. Priority is derived and never stored.
CREATE TABLE IF NOT EXISTS review_items (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL UNIQUE,
    ease_factor REAL NOT NULL,
    interval_days INTEGER NOT NULL,
    repetitions INTEGER NOT NULL DEFAULT 0,
    next_review_at DATETIME NOT NULL,
    last_reviewed_at DATETIME,
    last_quality INTEGER,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(subject_id) REFERENCES subjects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_review_items_next_review_at ON review_items(next_review_at);

CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id TEXT NOT NULL,
    quality INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,
    response_ms INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(item_id) REFERENCES review_items(id) ON DELETE CASCADE
);
`
