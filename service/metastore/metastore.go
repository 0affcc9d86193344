// Package metastore holds the catalog symbol table: databases, tables,
// fields and user-defined types, plus the session's current database.
//
// The table is not safe for concurrent use. Callers serialise access.
package metastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aleph-zero/flutterddl/service/storage"
	log "github.com/go-chi/httplog/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const filename = "metastore.json"

type Service interface {
	Open() error
	Persist() error

	Add(symbol Symbol) error
	// DefineType inserts an enum, replacing any previous definition.
	DefineType(symbol *TypeSymbol)
	Lookup(kind Kind, name string, scope Scope) (Symbol, error)

	CurrentDatabase() (*DatabaseSymbol, error)
	UseDatabase(name string) error
	FieldsFromTable(table string) ([]*FieldSymbol, error)
	ReloadDatabases(ctx context.Context, lister DatabaseLister) error
	DropDatabase(name string) bool

	Databases() []*DatabaseSymbol
	Tables(database string) ([]*TableSymbol, error)
	Fields(database, table string) ([]*FieldSymbol, error)
	Types() []*TypeSymbol
	Symbols() []Symbol
	DatabaseName(table *TableSymbol) string
}

// DatabaseLister is the part of the storage adapter the symbol table
// resynchronises from.
type DatabaseLister interface {
	ListDatabases() ([]storage.Database, error)
}

type ServiceProvider struct {
	filestore *filestore
}

func NewService(cfg *Config) Service {
	return &ServiceProvider{
		filestore: newFileStore(cfg.Directory),
	}
}

type filestore struct {
	directory string
	Current   string            `json:"current_database,omitempty"`
	Databases []*DatabaseSymbol `json:"databases"`
	Tables    []*TableSymbol    `json:"tables"`
	Fields    []*FieldSymbol    `json:"fields"`
	Types     []*TypeSymbol     `json:"types"`
}

func newFileStore(directory string) *filestore {
	return &filestore{directory: directory}
}

// Open restores the last snapshot. A missing snapshot leaves the table empty.
func (s *ServiceProvider) Open() error {
	if s.filestore.directory == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(s.filestore.directory, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening filestore: %w", err)
	}

	if err = json.Unmarshal(data, s.filestore); err != nil {
		return fmt.Errorf("unmarshalling filestore: %w", err)
	}
	return nil
}

// Persist writes a snapshot. Without a directory the table is memory only.
func (s *ServiceProvider) Persist() error {
	if s.filestore.directory == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.filestore, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling filestore: %w", err)
	}

	if err := os.MkdirAll(s.filestore.directory, 0755); err != nil {
		return fmt.Errorf("creating filestore directory: %w", err)
	}

	path := filepath.Join(s.filestore.directory, filename)
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("persisting filestore: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persisting filestore: %w", err)
	}
	return nil
}

func (s *ServiceProvider) Add(symbol Symbol) error {
	fs := s.filestore

	switch sym := symbol.(type) {
	case *DatabaseSymbol:
		if fs.database(sym.Name) != nil {
			return duplicate(Database, sym.Name)
		}
		fs.Databases = append(fs.Databases, clone(sym))

	case *TableSymbol:
		db := fs.databaseByID(sym.DatabaseID)
		if db == nil {
			return Error{
				ErrorCode: NotFound,
				Message:   fmt.Sprintf("database with id %d does not exist", sym.DatabaseID),
			}
		}
		if fs.table(db.ID, sym.Name) != nil {
			return duplicate(Table, sym.Name)
		}
		fs.Tables = append(fs.Tables, clone(sym))

	case *FieldSymbol:
		db := fs.database(sym.Database)
		if db == nil {
			return notFound(Database, sym.Database)
		}
		if fs.table(db.ID, sym.Table) == nil {
			return notFound(Table, sym.Table)
		}
		existing := fs.fields(sym.Database, sym.Table)
		if slices.ContainsFunc(existing, func(f *FieldSymbol) bool { return f.Name == sym.Name }) {
			return duplicate(Field, sym.Name)
		}
		if sym.Index != len(existing) {
			return Error{
				ErrorCode: InvalidOrdinal,
				Message: fmt.Sprintf("field %s of table %s has ordinal %d, expected %d",
					sym.Name, sym.Table, sym.Index, len(existing)),
			}
		}
		fs.Fields = append(fs.Fields, clone(sym))

	case *TypeSymbol:
		if fs.typ(sym.Name) >= 0 {
			return duplicate(Type, sym.Name)
		}
		fs.Types = append(fs.Types, cloneType(sym))

	default:
		return fmt.Errorf("unsupported symbol %T", symbol)
	}
	return nil
}

func (s *ServiceProvider) DefineType(symbol *TypeSymbol) {
	fs := s.filestore
	sym := cloneType(symbol)
	sym.Name = NormalizeTypeName(sym.Name)

	if i := fs.typ(sym.Name); i >= 0 {
		fs.Types[i] = sym
		return
	}
	fs.Types = append(fs.Types, sym)
}

func (s *ServiceProvider) Lookup(kind Kind, name string, scope Scope) (Symbol, error) {
	fs := s.filestore

	switch kind {
	case Database:
		if db := fs.database(name); db != nil {
			return clone(db), nil
		}
		return nil, notFound(Database, name)

	case Table:
		db, err := s.scopeDatabase(scope)
		if err != nil {
			return nil, err
		}
		if t := fs.table(db.ID, name); t != nil {
			return clone(t), nil
		}
		return nil, notFound(Table, name)

	case Field:
		db, err := s.scopeDatabase(scope)
		if err != nil {
			return nil, err
		}
		if fs.table(db.ID, scope.Table) == nil {
			return nil, notFound(Table, scope.Table)
		}
		for _, f := range fs.fields(db.Name, scope.Table) {
			if f.Name == name {
				return clone(f), nil
			}
		}
		return nil, notFound(Field, name)

	case Type:
		if i := fs.typ(NormalizeTypeName(name)); i >= 0 {
			return cloneType(fs.Types[i]), nil
		}
		return nil, notFound(Type, name)

	default:
		return nil, fmt.Errorf("unsupported symbol kind %s", kind)
	}
}

func (s *ServiceProvider) CurrentDatabase() (*DatabaseSymbol, error) {
	fs := s.filestore
	if fs.Current == "" {
		return nil, Error{ErrorCode: NoDatabaseSelected, Message: "no database selected"}
	}
	db := fs.database(fs.Current)
	if db == nil {
		return nil, Error{
			ErrorCode: NoDatabaseSelected,
			Message:   fmt.Sprintf("current database %s no longer exists", fs.Current),
		}
	}
	return clone(db), nil
}

func (s *ServiceProvider) UseDatabase(name string) error {
	if s.filestore.database(name) == nil {
		return notFound(Database, name)
	}
	s.filestore.Current = name
	return nil
}

// FieldsFromTable returns copies of a table's fields, in ordinal order,
// from the current database.
func (s *ServiceProvider) FieldsFromTable(table string) ([]*FieldSymbol, error) {
	db, err := s.CurrentDatabase()
	if err != nil {
		return nil, err
	}
	return s.Fields(db.Name, table)
}

// ReloadDatabases replaces the database symbols with the storage listing.
// Owner and mode survive for names still present; tables and fields of
// databases that disappeared are dropped.
func (s *ServiceProvider) ReloadDatabases(ctx context.Context, lister DatabaseLister) error {
	listing, err := lister.ListDatabases()
	if err != nil {
		return fmt.Errorf("listing databases: %w", err)
	}

	fs := s.filestore
	previous := make(map[string]*DatabaseSymbol, len(fs.Databases))
	for _, db := range fs.Databases {
		previous[db.Name] = db
	}

	remap := make(map[int]int, len(listing))
	databases := make([]*DatabaseSymbol, 0, len(listing))
	for _, entry := range listing {
		db := &DatabaseSymbol{ID: entry.ID, Name: entry.Name, Mode: DefaultMode}
		if old, ok := previous[entry.Name]; ok {
			db.Owner = old.Owner
			db.Mode = old.Mode
			remap[old.ID] = entry.ID
			delete(previous, entry.Name)
		}
		databases = append(databases, db)
	}
	fs.Databases = databases

	for name := range previous {
		log.LogEntry(ctx).Info("Database vanished from storage", "database", name)
	}

	tables := fs.Tables[:0]
	for _, t := range fs.Tables {
		if id, ok := remap[t.DatabaseID]; ok {
			t.DatabaseID = id
			tables = append(tables, t)
		}
	}
	fs.Tables = tables

	fs.Fields = slices.DeleteFunc(fs.Fields, func(f *FieldSymbol) bool {
		return fs.database(f.Database) == nil
	})

	if fs.Current != "" && fs.database(fs.Current) == nil {
		fs.Current = ""
	}
	return nil
}

// DropDatabase forgets a database and everything it owns. It reports
// whether the database was known.
func (s *ServiceProvider) DropDatabase(name string) bool {
	fs := s.filestore
	db := fs.database(name)
	if db == nil {
		return false
	}

	fs.Databases = slices.DeleteFunc(fs.Databases, func(d *DatabaseSymbol) bool { return d.Name == name })
	fs.Tables = slices.DeleteFunc(fs.Tables, func(t *TableSymbol) bool { return t.DatabaseID == db.ID })
	fs.Fields = slices.DeleteFunc(fs.Fields, func(f *FieldSymbol) bool { return f.Database == name })
	if fs.Current == name {
		fs.Current = ""
	}
	return true
}

func (s *ServiceProvider) Databases() []*DatabaseSymbol {
	out := make([]*DatabaseSymbol, 0, len(s.filestore.Databases))
	for _, db := range s.filestore.Databases {
		out = append(out, clone(db))
	}
	return out
}

func (s *ServiceProvider) Tables(database string) ([]*TableSymbol, error) {
	db := s.filestore.database(database)
	if db == nil {
		return nil, notFound(Database, database)
	}

	var out []*TableSymbol
	for _, t := range s.filestore.Tables {
		if t.DatabaseID == db.ID {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

func (s *ServiceProvider) Fields(database, table string) ([]*FieldSymbol, error) {
	db := s.filestore.database(database)
	if db == nil {
		return nil, notFound(Database, database)
	}
	if s.filestore.table(db.ID, table) == nil {
		return nil, notFound(Table, table)
	}

	fields := s.filestore.fields(database, table)
	out := make([]*FieldSymbol, 0, len(fields))
	for _, f := range fields {
		out = append(out, clone(f))
	}
	return out, nil
}

func (s *ServiceProvider) Types() []*TypeSymbol {
	out := make([]*TypeSymbol, 0, len(s.filestore.Types))
	for _, t := range s.filestore.Types {
		out = append(out, cloneType(t))
	}
	return out
}

// Symbols lists every symbol: databases, then tables, fields and types.
func (s *ServiceProvider) Symbols() []Symbol {
	fs := s.filestore
	out := make([]Symbol, 0, len(fs.Databases)+len(fs.Tables)+len(fs.Fields)+len(fs.Types))
	for _, db := range fs.Databases {
		out = append(out, clone(db))
	}
	for _, t := range fs.Tables {
		out = append(out, clone(t))
	}
	for _, f := range fs.Fields {
		out = append(out, clone(f))
	}
	for _, t := range fs.Types {
		out = append(out, cloneType(t))
	}
	return out
}

// DatabaseName resolves a table symbol's owning database.
func (s *ServiceProvider) DatabaseName(table *TableSymbol) string {
	if db := s.filestore.databaseByID(table.DatabaseID); db != nil {
		return db.Name
	}
	return ""
}

func (s *ServiceProvider) scopeDatabase(scope Scope) (*DatabaseSymbol, error) {
	if scope.Database == "" {
		return s.CurrentDatabase()
	}
	if db := s.filestore.database(scope.Database); db != nil {
		return db, nil
	}
	return nil, notFound(Database, scope.Database)
}

func (fs *filestore) database(name string) *DatabaseSymbol {
	for _, db := range fs.Databases {
		if db.Name == name {
			return db
		}
	}
	return nil
}

func (fs *filestore) databaseByID(id int) *DatabaseSymbol {
	for _, db := range fs.Databases {
		if db.ID == id {
			return db
		}
	}
	return nil
}

func (fs *filestore) table(databaseID int, name string) *TableSymbol {
	for _, t := range fs.Tables {
		if t.DatabaseID == databaseID && t.Name == name {
			return t
		}
	}
	return nil
}

func (fs *filestore) fields(database, table string) []*FieldSymbol {
	var out []*FieldSymbol
	for _, f := range fs.Fields {
		if f.Database == database && f.Table == table {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b *FieldSymbol) int { return a.Index - b.Index })
	return out
}

func (fs *filestore) typ(name string) int {
	return slices.IndexFunc(fs.Types, func(t *TypeSymbol) bool { return t.Name == name })
}

func cloneType(t *TypeSymbol) *TypeSymbol {
	return &TypeSymbol{Name: t.Name, Values: slices.Clone(t.Values)}
}

var upper = cases.Upper(language.Und)

// NormalizeTypeName folds a user-defined type name to its catalog form.
func NormalizeTypeName(name string) string {
	return upper.String(strings.TrimSpace(name))
}

// DefaultMode is the mode of a database created without a MODE clause.
const DefaultMode = 1

/* *** Metastore Config *** */

type Config struct {
	Directory string
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithDirectory(directory string) Option {
	return func(config *Config) {
		config.Directory = directory
	}
}

/* *** Errors *** */

type ErrorCode int

const (
	DuplicateName ErrorCode = iota + 1
	NotFound
	NoDatabaseSelected
	InvalidOrdinal
)

type Error struct {
	ErrorCode ErrorCode
	Kind      Kind
	Message   string
	Err       error
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) Is(target error) bool {
	if other, ok := target.(Error); ok {
		ignoreErrorCode := other.ErrorCode == 0
		ignoreMessage := other.Message == ""
		matchErrorCode := other.ErrorCode == e.ErrorCode
		matchMessage := other.Message == e.Message

		return matchMessage && matchErrorCode || matchMessage && ignoreErrorCode || ignoreMessage && matchErrorCode
	}
	return false
}

func duplicate(kind Kind, name string) Error {
	return Error{
		ErrorCode: DuplicateName,
		Kind:      kind,
		Message:   fmt.Sprintf("%s %s already exists", kind, name),
	}
}

func notFound(kind Kind, name string) Error {
	return Error{
		ErrorCode: NotFound,
		Kind:      kind,
		Message:   fmt.Sprintf("%s %s does not exist", kind, name),
	}
}
