package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the database schema for the Bandly API. Statements are
// idempotent so Migrate can run at every startup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	display_name  VARCHAR(255) NOT NULL DEFAULT '',
	photo_url     TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id        UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	display_name   VARCHAR(255) NOT NULL DEFAULT '',
	photo_url      TEXT NOT NULL DEFAULT '',
	status         VARCHAR(32) NOT NULL DEFAULT 'Musician',
	region         VARCHAR(8) NOT NULL DEFAULT '',
	instruments    TEXT[] NOT NULL DEFAULT '{}',
	bio            TEXT NOT NULL DEFAULT '',
	band_id        UUID,
	band_name      VARCHAR(63) NOT NULL DEFAULT '',
	band_logo_url  TEXT NOT NULL DEFAULT '',
	band_joined_at TIMESTAMPTZ,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_profiles_status ON profiles(status);

CREATE TABLE IF NOT EXISTS bands (
	id         UUID PRIMARY KEY,
	name       VARCHAR(63) NOT NULL,
	region     VARCHAR(8) NOT NULL DEFAULT '',
	genres     TEXT[] NOT NULL DEFAULT '{}',
	bio        TEXT NOT NULL DEFAULT '',
	photo_url  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS band_members (
	band_id      UUID NOT NULL REFERENCES bands(id) ON DELETE CASCADE,
	user_id      UUID NOT NULL,
	role         VARCHAR(20) NOT NULL CHECK (role IN ('admin', 'member')),
	display_name VARCHAR(255) NOT NULL DEFAULT '',
	photo_url    TEXT NOT NULL DEFAULT '',
	invite_id    UUID,
	joined_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (band_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_band_members_user_id ON band_members(user_id);

CREATE TABLE IF NOT EXISTS band_invites (
	id                  UUID PRIMARY KEY,
	band_id             UUID NOT NULL REFERENCES bands(id) ON DELETE CASCADE,
	band_name           VARCHAR(63) NOT NULL DEFAULT '',
	inviter_id          UUID NOT NULL,
	inviter_name        VARCHAR(255) NOT NULL DEFAULT '',
	invitee_email       VARCHAR(255) NOT NULL,
	invitee_email_lower VARCHAR(255) NOT NULL,
	status              VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'accepted', 'revoked')),
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at          TIMESTAMPTZ NOT NULL,
	accepted_at         TIMESTAMPTZ,
	accepted_by         UUID
);

CREATE INDEX IF NOT EXISTS idx_band_invites_email_lower ON band_invites(invitee_email_lower);
CREATE INDEX IF NOT EXISTS idx_band_invites_band_id ON band_invites(band_id);
`

// Migrate applies the database schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
