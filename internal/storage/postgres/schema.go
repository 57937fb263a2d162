package postgres

// Schema is the base schema for the PostgreSQL reference store.
// All statements are idempotent (IF NOT EXISTS) so re-applying is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
    workspace_id TEXT NOT NULL,
    id           TEXT NOT NULL,
    type         TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    data         JSONB NOT NULL DEFAULT '{}',
    metadata     JSONB NOT NULL DEFAULT '{}',
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
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (workspace_id, from_id, to_id)
);

CREATE INDEX IF NOT EXISTS idx_record_links_from
    ON record_links(workspace_id, from_id);
`
