package sqlite

// Schema is the base schema for the SQLite reference store.
// All statements are idempotent so opening an existing database is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
    workspace_id TEXT NOT NULL,
    id           TEXT NOT NULL,
    type         TEXT NOT NULL,
    created_at   TEXT NOT NULL,
    data         TEXT NOT NULL DEFAULT '{}',
    metadata     TEXT NOT NULL DEFAULT '{}',
    PRIMARY KEY (workspace_id, id)
);

CREATE INDEX IF NOT EXISTS idx_records_workspace_type
    ON records(workspace_id, type);

CREATE INDEX IF NOT EXISTS idx_records_workspace_created
    ON records(workspace_id, created_at);

CREATE TABLE IF NOT EXISTS record_links (
    workspace_id TEXT NOT NULL,
    from_id      TEXT NOT NULL,
    to_id        TEXT NOT NULL,
    created_at   TEXT NOT NULL,
    PRIMARY KEY (workspace_id, from_id, to_id)
);

CREATE INDEX IF NOT EXISTS idx_record_links_from
    ON record_links(workspace_id, from_id);
`
