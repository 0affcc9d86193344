// Package query drives DDL scripts end to end: parse, execute against the
// session, persist the symbol table and refresh the catalog index.
// Scripts run one at a time.
package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aleph-zero/flutterddl/engine"
	"github.com/aleph-zero/flutterddl/engine/executor"
	"github.com/aleph-zero/flutterddl/engine/parser"
	"github.com/aleph-zero/flutterddl/service/index"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/service/storage"
	"github.com/aleph-zero/flutterddl/telemetry"
	log "github.com/go-chi/httplog/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Service interface {
	Execute(ctx context.Context, script string) (*ScriptResult, error)
	// View runs fn with exclusive access to the symbol table.
	View(fn func(meta metastore.Service) error) error
	Reload(ctx context.Context) error
}

type ServiceProvider struct {
	lock     sync.Mutex
	session  *executor.Session
	indexSvc index.Service
}

func NewService(metaSvc metastore.Service, storageSvc storage.Adapter, indexSvc index.Service) *ServiceProvider {
	return &ServiceProvider{
		session:  executor.NewSession(metaSvc, storageSvc),
		indexSvc: indexSvc,
	}
}

type ScriptResult struct {
	StatementId string             `json:"statement_id"`
	Duration    time.Duration      `json:"duration"`
	Results     []*executor.Result `json:"results"`
}

// Execute runs every statement of script in order. On failure the results
// of the statements that completed are returned alongside the error.
func (sp *ServiceProvider) Execute(ctx context.Context, script string) (*ScriptResult, error) {
	start := time.Now()
	statementId := engine.NewStatementId()
	ctx = engine.WithStatementId(ctx, statementId)

	ctx, span := telemetry.StartSpan(ctx, "query.Execute", trace.WithAttributes(
		attribute.String("statementId", statementId),
		attribute.String("db.query.text", script)))
	defer span.End()

	parsed, err := parser.Parse(script)
	if err != nil {
		log.LogEntry(ctx).Error("Error parsing script", "statementId", statementId, "error", err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	telemetry.SetAttributes(span, attribute.Int("statements", len(parsed.Statements)))

	sp.lock.Lock()
	defer sp.lock.Unlock()

	results, execErr := executor.ExecuteAll(ctx, sp.session, parsed)
	if execErr != nil {
		span.RecordError(execErr)
		span.SetStatus(codes.Error, execErr.Error())
	}

	// failed statements may have changed symbols too
	if err := sp.persist(ctx, statementId); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		execErr = errors.Join(execErr, err)
	}

	result := &ScriptResult{
		StatementId: statementId,
		Duration:    time.Since(start),
		Results:     results,
	}
	log.LogEntry(ctx).Info("Script executed",
		"statementId", statementId, "statements", len(parsed.Statements),
		"completed", len(results), "duration", result.Duration)
	return result, execErr
}

func (sp *ServiceProvider) persist(ctx context.Context, statementId string) error {
	if err := sp.session.Symbols.Persist(); err != nil {
		log.LogEntry(ctx).Error("Error persisting metastore", "statementId", statementId, "error", err)
		return fmt.Errorf("persisting metastore: %w", err)
	}
	if err := sp.indexSvc.Sync(ctx, sp.session.Symbols); err != nil {
		log.LogEntry(ctx).Error("Error indexing catalog", "statementId", statementId, "error", err)
		return fmt.Errorf("indexing catalog: %w", err)
	}
	return nil
}

func (sp *ServiceProvider) View(fn func(meta metastore.Service) error) error {
	sp.lock.Lock()
	defer sp.lock.Unlock()
	return fn(sp.session.Symbols)
}

// Reload resynchronises databases with storage and rebuilds the index.
func (sp *ServiceProvider) Reload(ctx context.Context) error {
	sp.lock.Lock()
	defer sp.lock.Unlock()

	if err := sp.session.Symbols.ReloadDatabases(ctx, sp.session.Storage); err != nil {
		return fmt.Errorf("reloading databases: %w", err)
	}
	if err := sp.indexSvc.Sync(ctx, sp.session.Symbols); err != nil {
		return fmt.Errorf("indexing catalog: %w", err)
	}
	log.LogEntry(ctx).Info("Catalog loaded", "databases", len(sp.session.Symbols.Databases()))
	return nil
}
