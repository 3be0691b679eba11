package store

// schema is the SQLite database layout. Every statement is idempotent, so
// running it on an existing database is a no-op migration.
const schema = `
CREATE TABLE IF NOT EXISTS knowledge (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id     TEXT NOT NULL,
    source_title  TEXT NOT NULL DEFAULT '',
    content       TEXT NOT NULL,
    matched_terms TEXT NOT NULL DEFAULT 'null',
    sentence_type TEXT NOT NULL DEFAULT 'general',
    confidence    REAL NOT NULL DEFAULT 0,
    source_tag    TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_knowledge_source ON knowledge(source_id);
CREATE INDEX IF NOT EXISTS idx_knowledge_confidence ON knowledge(confidence);

CREATE TABLE IF NOT EXISTS term_stats (
    term       TEXT NOT NULL,
    category   TEXT NOT NULL,
    frequency  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (term, category)
);

CREATE TABLE IF NOT EXISTS predictions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    birth_date  TEXT NOT NULL,
    birth_hour  INTEGER NOT NULL DEFAULT -1,
    numbers     TEXT NOT NULL,
    confidence  REAL NOT NULL,
    method      TEXT NOT NULL,
    enhanced    INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL
);
`
