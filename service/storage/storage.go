// Package storage defines the boundary between the DDL executor and a
// physical storage backend. Backends expose synchronous primitives that
// report their outcome as small integer status codes; interpreting those
// codes is the caller's business.
package storage

import "fmt"

type Status int

// Codes shared by every primitive.
const (
	Success Status = 0
	Failure Status = 1
)

// CreateDatabase.
const (
	DatabaseExists Status = 2
)

// DropDatabase, CreateTable and AlterAddPK.
const (
	DatabaseMissing Status = 2
)

// CreateTable.
const (
	TableExists Status = 3
)

// AlterAddPK.
const (
	TableMissing     Status = 3
	PrimaryKeyExists Status = 4
	ColumnOutOfRange Status = 5
)

func (s Status) String() string {
	return fmt.Sprintf("status(%d)", int(s))
}

type Adapter interface {
	CreateDatabase(name string) Status
	// DropDatabase is best effort; REPLACE ignores its result.
	DropDatabase(name string) Status
	// ListDatabases is the authoritative directory of databases and their ids.
	ListDatabases() ([]Database, error)
	CreateTable(database, table string, columns int) Status
	// AlterAddPK registers a primary key by column ordinal.
	AlterAddPK(database, table string, columns []int) Status
	Close() error
}

type Database struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

/* *** Storage Config *** */

const (
	EngineMemory = "memory"
	EngineSQLite = "sqlite"
)

type Config struct {
	Engine string
	Path   string
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{Engine: EngineMemory}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithEngine(engine string) Option {
	return func(config *Config) {
		config.Engine = engine
	}
}

func WithPath(path string) Option {
	return func(config *Config) {
		config.Path = path
	}
}
