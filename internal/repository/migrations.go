package repository

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS media_items (
    id                  BIGSERIAL PRIMARY KEY,
    source_url          TEXT NOT NULL,
    local_path          TEXT NOT NULL DEFAULT '',
    filename            VARCHAR(512) NOT NULL DEFAULT '',
    status              VARCHAR(50) NOT NULL DEFAULT 'queued',
    selected            BOOLEAN NOT NULL DEFAULT FALSE,
    error_message       TEXT NOT NULL DEFAULT '',
    telegram_message_id VARCHAR(100) NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_media_items_status ON media_items(status);
CREATE INDEX IF NOT EXISTS idx_media_items_created_at ON media_items(created_at DESC);

CREATE TABLE IF NOT EXISTS job_history (
    id            BIGSERIAL PRIMARY KEY,
    media_item_id BIGINT,
    action        VARCHAR(64) NOT NULL,
    status        VARCHAR(32) NOT NULL,
    detail        TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_job_history_created_at ON job_history(created_at DESC);
`

// Migrate initializes the schema. Safe to run on every startup.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
