package database

import (
	"fmt"

	"go.uber.org/zap"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations is the ordered schema history. New changes append a new entry;
// applied versions are tracked in schema_migrations and never re-run.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_purchase_requests",
		SQL: `
			CREATE TABLE IF NOT EXISTS purchase_requests (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				description TEXT NOT NULL,
				amount TEXT NOT NULL DEFAULT '0',
				status TEXT NOT NULL DEFAULT 'PENDING',
				required_approval_levels INTEGER NOT NULL DEFAULT 2,
				created_by TEXT NOT NULL,
				proforma_invoice TEXT NOT NULL DEFAULT '',
				purchase_order TEXT NOT NULL DEFAULT '',
				receipt TEXT NOT NULL DEFAULT '',
				version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_requests_created_by ON purchase_requests(created_by);
			CREATE INDEX IF NOT EXISTS idx_requests_status ON purchase_requests(status);
		`,
	},
	{
		Version: 2,
		Name:    "create_request_items",
		SQL: `
			CREATE TABLE IF NOT EXISTS request_items (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id INTEGER NOT NULL REFERENCES purchase_requests(id) ON DELETE CASCADE,
				item_name TEXT NOT NULL,
				qty INTEGER NOT NULL CHECK (qty >= 1),
				price TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_items_request ON request_items(request_id);
		`,
	},
	{
		Version: 3,
		Name:    "create_approval_steps",
		SQL: `
			CREATE TABLE IF NOT EXISTS approval_steps (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id INTEGER NOT NULL REFERENCES purchase_requests(id) ON DELETE CASCADE,
				level INTEGER NOT NULL CHECK (level >= 1),
				approver_id TEXT NOT NULL,
				status TEXT NOT NULL,
				comments TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL,
				UNIQUE (request_id, level)
			);
			CREATE INDEX IF NOT EXISTS idx_steps_request ON approval_steps(request_id);
		`,
	},
	{
		Version: 4,
		Name:    "create_finance_notes",
		SQL: `
			CREATE TABLE IF NOT EXISTS finance_notes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id INTEGER NOT NULL REFERENCES purchase_requests(id) ON DELETE CASCADE,
				finance_user_id TEXT NOT NULL,
				note TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_notes_request ON finance_notes(request_id);
		`,
	},
	{
		Version: 5,
		Name:    "create_approval_policies",
		SQL: `
			CREATE TABLE IF NOT EXISTS approval_policies (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				min_amount TEXT NOT NULL DEFAULT '0',
				max_amount TEXT NOT NULL DEFAULT '999999999',
				required_approval_levels INTEGER NOT NULL DEFAULT 2,
				active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
}

// Migrator handles database migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

func (m *Migrator) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := m.db.Exec(query)
	return err
}

func (m *Migrator) getAppliedMigrations() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// Run applies every pending migration in version order, each inside its own
// transaction together with its schema_migrations record.
func (m *Migrator) Run() error {
	m.logger.Info("Starting database migrations")

	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range Migrations {
		if applied[migration.Version] {
			m.logger.Debug("Skipping applied migration",
				zap.Int("version", migration.Version),
				zap.String("name", migration.Name))
			continue
		}

		m.logger.Info("Applying migration",
			zap.Int("version", migration.Version),
			zap.String("name", migration.Name))

		if err := m.applyMigration(migration); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w",
				migration.Version, migration.Name, err)
		}
	}

	m.logger.Info("Database migrations complete")
	return nil
}

func (m *Migrator) applyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version, migration.Name); err != nil {
		return err
	}
	return tx.Commit()
}
