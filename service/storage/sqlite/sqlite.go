// Package sqlite is a storage backend that records the physical catalog in
// a SQLite database file. The schema is managed with embedded goose
// migrations.
package sqlite

import (
	"database/sql"
	"embed"
	"log/slog"

	"github.com/aleph-zero/flutterddl/service/storage"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const driverName = "sqlite"

type Backend struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Adapter = (*Backend)(nil)

// Open opens (or creates) the catalog at path and migrates it to the latest
// schema. Use ":memory:" for a throwaway catalog.
func Open(path string, logger *slog.Logger) (*Backend, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite catalog %s", path)
	}
	// one connection: a single writer, and ":memory:" is per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite catalog")
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return New(db, logger), nil
}

// New wraps an already migrated connection.
func New(db *sql.DB, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{db: db, logger: logger}
}

func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return errors.Wrap(err, "failed to set migration dialect")
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return errors.Wrap(err, "failed to run catalog migrations")
	}
	return nil
}

func (b *Backend) CreateDatabase(name string) storage.Status {
	if _, found, err := b.databaseID(b.db, name); err != nil {
		return b.failure("create database", err)
	} else if found {
		return storage.DatabaseExists
	}

	if _, err := b.db.Exec(`INSERT INTO databases (name) VALUES (?)`, name); err != nil {
		return b.failure("create database", err)
	}
	return storage.Success
}

func (b *Backend) DropDatabase(name string) (status storage.Status) {
	tx, err := b.db.Begin()
	if err != nil {
		return b.failure("drop database", err)
	}
	defer func() {
		if status != storage.Success {
			_ = tx.Rollback()
		}
	}()

	id, found, err := b.databaseID(tx, name)
	if err != nil {
		return b.failure("drop database", err)
	}
	if !found {
		return storage.DatabaseMissing
	}

	for _, stmt := range []string{
		`DELETE FROM primary_keys WHERE database_id = ?`,
		`DELETE FROM tables WHERE database_id = ?`,
		`DELETE FROM databases WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return b.failure("drop database", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return b.failure("drop database", err)
	}
	return storage.Success
}

func (b *Backend) ListDatabases() ([]storage.Database, error) {
	rows, err := b.db.Query(`SELECT id, name FROM databases ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list databases")
	}
	defer rows.Close()

	var out []storage.Database
	for rows.Next() {
		var db storage.Database
		if err := rows.Scan(&db.ID, &db.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan database row")
		}
		out = append(out, db)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list databases")
	}
	return out, nil
}

func (b *Backend) CreateTable(database, table string, columns int) storage.Status {
	id, found, err := b.databaseID(b.db, database)
	if err != nil {
		return b.failure("create table", err)
	}
	if !found {
		return storage.DatabaseMissing
	}

	if _, found, err := b.tableColumns(b.db, id, table); err != nil {
		return b.failure("create table", err)
	} else if found {
		return storage.TableExists
	}

	if _, err := b.db.Exec(`INSERT INTO tables (database_id, name, columns) VALUES (?, ?, ?)`,
		id, table, columns); err != nil {
		return b.failure("create table", err)
	}
	return storage.Success
}

func (b *Backend) AlterAddPK(database, table string, ordinals []int) (status storage.Status) {
	tx, err := b.db.Begin()
	if err != nil {
		return b.failure("alter table", err)
	}
	defer func() {
		if status != storage.Success {
			_ = tx.Rollback()
		}
	}()

	id, found, err := b.databaseID(tx, database)
	if err != nil {
		return b.failure("alter table", err)
	}
	if !found {
		return storage.DatabaseMissing
	}

	columns, found, err := b.tableColumns(tx, id, table)
	if err != nil {
		return b.failure("alter table", err)
	}
	if !found {
		return storage.TableMissing
	}

	var existing int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM primary_keys WHERE database_id = ? AND table_name = ?`,
		id, table).Scan(&existing); err != nil {
		return b.failure("alter table", err)
	}
	if existing > 0 {
		return storage.PrimaryKeyExists
	}

	for _, ordinal := range ordinals {
		if ordinal < 0 || ordinal >= columns {
			return storage.ColumnOutOfRange
		}
	}

	for position, ordinal := range ordinals {
		if _, err := tx.Exec(`INSERT INTO primary_keys (database_id, table_name, position, ordinal) VALUES (?, ?, ?, ?)`,
			id, table, position, ordinal); err != nil {
			return b.failure("alter table", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return b.failure("alter table", err)
	}
	return storage.Success
}

func (b *Backend) Close() error {
	return errors.Wrap(b.db.Close(), "failed to close sqlite catalog")
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (b *Backend) databaseID(q querier, name string) (int, bool, error) {
	var id int
	err := q.QueryRow(`SELECT id FROM databases WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to look up database %s", name)
	}
	return id, true, nil
}

func (b *Backend) tableColumns(q querier, databaseID int, name string) (int, bool, error) {
	var columns int
	err := q.QueryRow(`SELECT columns FROM tables WHERE database_id = ? AND name = ?`,
		databaseID, name).Scan(&columns)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to look up table %s", name)
	}
	return columns, true, nil
}

func (b *Backend) failure(op string, err error) storage.Status {
	b.logger.Error("storage primitive failed", "op", op, "error", err)
	return storage.Failure
}
