package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS bases (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    location   TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bases_name_active
    ON bases(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'logistics_officer'
                  CHECK (role IN ('admin', 'base_commander', 'logistics_officer')),
    base_id       INTEGER REFERENCES bases(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS equipment_types (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    category   TEXT NOT NULL,
    photo      BLOB,
    photo_mime TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS assets (
    id                INTEGER PRIMARY KEY,
    base_id           INTEGER NOT NULL REFERENCES bases(id),
    equipment_type_id INTEGER NOT NULL REFERENCES equipment_types(id),
    name              TEXT NOT NULL,
    serial_number     TEXT NOT NULL UNIQUE,
    status            TEXT NOT NULL DEFAULT 'in_storage'
                      CHECK (status IN ('in_storage', 'in_use', 'under_maintenance', 'decommissioned')),
    quantity          INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
    created_by        INTEGER REFERENCES users(id),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assets_base ON assets(base_id);

CREATE TABLE IF NOT EXISTS asset_stock (
    base_id            INTEGER NOT NULL REFERENCES bases(id),
    equipment_type_id  INTEGER NOT NULL REFERENCES equipment_types(id),
    quantity_total     INTEGER NOT NULL DEFAULT 0 CHECK (quantity_total >= 0),
    quantity_available INTEGER NOT NULL DEFAULT 0 CHECK (quantity_available >= 0),
    quantity_reserved  INTEGER NOT NULL DEFAULT 0 CHECK (quantity_reserved >= 0),
    version            INTEGER NOT NULL DEFAULT 0,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (base_id, equipment_type_id),
    CHECK (quantity_available + quantity_reserved <= quantity_total)
);

CREATE TABLE IF NOT EXISTS assignments (
    id                   INTEGER PRIMARY KEY,
    asset_id             INTEGER NOT NULL REFERENCES assets(id),
    base_id              INTEGER NOT NULL REFERENCES bases(id),
    equipment_type_id    INTEGER NOT NULL REFERENCES equipment_types(id),
    assigned_to          TEXT NOT NULL,
    assigned_by          INTEGER REFERENCES users(id),
    quantity             INTEGER NOT NULL CHECK (quantity > 0),
    status               TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'returned')),
    notes                TEXT,
    assignment_date      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    expected_return_date DATETIME,
    returned_at          DATETIME
);

CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status, base_id);

CREATE TABLE IF NOT EXISTS transfers (
    id                INTEGER PRIMARY KEY,
    from_base_id      INTEGER NOT NULL REFERENCES bases(id),
    to_base_id        INTEGER NOT NULL REFERENCES bases(id),
    equipment_type_id INTEGER NOT NULL REFERENCES equipment_types(id),
    quantity          INTEGER NOT NULL CHECK (quantity > 0),
    status            TEXT NOT NULL DEFAULT 'pending'
                      CHECK (status IN ('pending', 'approved', 'rejected', 'completed')),
    notes             TEXT,
    transfer_date     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    requested_by      INTEGER REFERENCES users(id),
    decided_by        INTEGER REFERENCES users(id),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (from_base_id <> to_base_id)
);

CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status);

CREATE TABLE IF NOT EXISTS expenditures (
    id                INTEGER PRIMARY KEY,
    asset_id          INTEGER NOT NULL REFERENCES assets(id),
    base_id           INTEGER NOT NULL REFERENCES bases(id),
    equipment_type_id INTEGER NOT NULL REFERENCES equipment_types(id),
    quantity          INTEGER NOT NULL CHECK (quantity > 0),
    reason            TEXT,
    recorded_by       INTEGER REFERENCES users(id),
    expended_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ledger_events (
    id                INTEGER PRIMARY KEY,
    event_id          TEXT NOT NULL UNIQUE,
    kind              TEXT NOT NULL,
    base_id           INTEGER NOT NULL,
    equipment_type_id INTEGER NOT NULL,
    delta_total       INTEGER NOT NULL,
    delta_available   INTEGER NOT NULL,
    delta_reserved    INTEGER NOT NULL,
    ref_type          TEXT NOT NULL,
    ref_id            INTEGER NOT NULL,
    actor_id          INTEGER,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ledger_events_stock
    ON ledger_events(base_id, equipment_type_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: look up assets by serial number for the asset form.
	`CREATE INDEX IF NOT EXISTS idx_assets_serial ON assets(serial_number)`,
	// Migration 2: ledger audit listing is always newest first.
	`CREATE INDEX IF NOT EXISTS idx_ledger_events_created ON ledger_events(created_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
