// Package index keeps a searchable catalog of every symbol the metastore
// knows about. The index lives in memory and is rebuilt from the symbol
// table after each successful statement.
package index

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aleph-zero/flutterddl/engine"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/telemetry"
	"github.com/blugelabs/bluge"
	log "github.com/go-chi/httplog/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	fieldKind     = "kind"
	fieldName     = "name"
	fieldSearch   = "search"
	fieldDatabase = "database"
	fieldTable    = "table"

	DefaultLimit = 100
)

type Service interface {
	Sync(ctx context.Context, meta metastore.Service) error
	Search(ctx context.Context, request SearchRequest) ([]*Entry, error)
	Close() error
}

// Entry is one indexed symbol.
type Entry struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Database string `json:"database,omitempty"`
	Table    string `json:"table,omitempty"`
}

func (e *Entry) id() string {
	return strings.Join([]string{e.Kind, e.Database, e.Table, e.Name}, "/")
}

type SearchRequest struct {
	// Prefix matches the start of a symbol name, ignoring case. Empty
	// matches everything.
	Prefix string
	Kind   string
	Limit  int
}

type ServiceProvider struct {
	lock    sync.RWMutex
	writer  *bluge.Writer
	indexed map[string]struct{}
}

func NewService() (*ServiceProvider, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("opening catalog index: %w", err)
	}
	return &ServiceProvider{
		writer:  writer,
		indexed: make(map[string]struct{}),
	}, nil
}

func Entries(meta metastore.Service) []*Entry {
	symbols := meta.Symbols()
	entries := make([]*Entry, 0, len(symbols))
	for _, symbol := range symbols {
		entry := &Entry{Kind: symbol.Kind().String(), Name: symbol.SymbolName()}
		switch sym := symbol.(type) {
		case *metastore.TableSymbol:
			entry.Database = meta.DatabaseName(sym)
		case *metastore.FieldSymbol:
			entry.Database = sym.Database
			entry.Table = sym.Table
		}
		entries = append(entries, entry)
	}
	return entries
}

// Sync makes the index mirror the symbol table.
func (s *ServiceProvider) Sync(ctx context.Context, meta metastore.Service) error {
	ctx, span := telemetry.StartSpan(ctx, "index.Sync", trace.WithAttributes(
		attribute.String("statementId", engine.StatementIdFromContext(ctx))))
	defer span.End()

	s.lock.Lock()
	defer s.lock.Unlock()

	entries := Entries(meta)
	current := make(map[string]struct{}, len(entries))

	batch := bluge.NewBatch()
	for _, entry := range entries {
		id := entry.id()
		current[id] = struct{}{}
		batch.Update(bluge.Identifier(id), newDocument(id, entry))
	}
	stale := 0
	for id := range s.indexed {
		if _, ok := current[id]; !ok {
			batch.Delete(bluge.Identifier(id))
			stale++
		}
	}

	if err := s.writer.Batch(batch); err != nil {
		log.LogEntry(ctx).Error("Writing catalog index failed", "error", err)
		return Error{ErrorCode: IndexWriterError, Message: "writing catalog index failed", Err: err}
	}
	s.indexed = current

	log.LogEntry(ctx).Debug("Catalog index synchronised", "symbols", len(entries), "removed", stale)
	span.AddEvent("index.sync", trace.WithAttributes(
		attribute.Int("symbols", len(entries)),
		attribute.Int("removed", stale)))
	return nil
}

func newDocument(id string, entry *Entry) *bluge.Document {
	doc := bluge.NewDocument(id)
	doc.AddField(bluge.NewKeywordField(fieldKind, entry.Kind).StoreValue())
	doc.AddField(bluge.NewKeywordField(fieldName, entry.Name).StoreValue().Sortable())
	doc.AddField(bluge.NewKeywordField(fieldSearch, strings.ToLower(entry.Name)))
	if entry.Database != "" {
		doc.AddField(bluge.NewKeywordField(fieldDatabase, entry.Database).StoreValue())
	}
	if entry.Table != "" {
		doc.AddField(bluge.NewKeywordField(fieldTable, entry.Table).StoreValue())
	}
	return doc
}

func (s *ServiceProvider) Search(ctx context.Context, request SearchRequest) ([]*Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "index.Search", trace.WithAttributes(
		attribute.String("prefix", request.Prefix),
		attribute.String("kind", request.Kind)))
	defer span.End()

	if request.Kind != "" {
		kind, err := metastore.ParseKind(request.Kind)
		if err != nil {
			return nil, Error{ErrorCode: InvalidRequest, Message: err.Error(), Err: err}
		}
		request.Kind = kind.String()
	}
	limit := request.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := bluge.NewBooleanQuery()
	if request.Prefix == "" {
		query.AddMust(bluge.NewMatchAllQuery())
	} else {
		query.AddMust(bluge.NewPrefixQuery(strings.ToLower(request.Prefix)).SetField(fieldSearch))
	}
	if request.Kind != "" {
		query.AddMust(bluge.NewTermQuery(request.Kind).SetField(fieldKind))
	}

	s.lock.RLock()
	reader, err := s.writer.Reader()
	s.lock.RUnlock()
	if err != nil {
		log.LogEntry(ctx).Error("Error creating index reader", "error", err)
		return nil, Error{ErrorCode: IndexReaderError, Message: "opening catalog index reader failed", Err: err}
	}
	defer reader.Close()

	req := bluge.NewTopNSearch(limit, query).SortBy([]string{fieldName, "_id"})
	dmi, err := reader.Search(ctx, req)
	if err != nil {
		log.LogEntry(ctx).Error("Error searching index", "error", err)
		return nil, Error{ErrorCode: IndexReaderError, Message: "searching catalog index failed", Err: err}
	}

	var entries []*Entry
	next, err := dmi.Next()
	for err == nil && next != nil {
		entry := &Entry{}
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case fieldKind:
				entry.Kind = string(value)
			case fieldName:
				entry.Name = string(value)
			case fieldDatabase:
				entry.Database = string(value)
			case fieldTable:
				entry.Table = string(value)
			}
			return true
		})
		if err != nil {
			break
		}
		entries = append(entries, entry)
		next, err = dmi.Next()
	}
	if err != nil {
		log.LogEntry(ctx).Error("Error iterating search results", "error", err)
		return nil, Error{ErrorCode: IndexReaderError, Message: "iterating catalog search results failed", Err: err}
	}

	return entries, nil
}

func (s *ServiceProvider) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writer.Close()
}

/* *** Errors *** */

type ErrorCode int

const (
	IndexWriterError ErrorCode = iota + 1
	IndexReaderError
	InvalidRequest
)

type Error struct {
	ErrorCode ErrorCode
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
		return other.ErrorCode == 0 || other.ErrorCode == e.ErrorCode
	}
	return false
}
