// Package executor applies parsed DDL statements to a session: it resolves
// and validates names against the symbol table, drives the storage adapter,
// and records the outcome as symbols.
//
// Every statement runs validate, then storage, then symbol mutation. A
// statement that fails leaves the symbol table as it found it.
package executor

import (
	"context"
	"time"

	"github.com/aleph-zero/flutterddl/engine"
	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/evaluator"
	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/aleph-zero/flutterddl/engine/types"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/service/storage"
	"github.com/aleph-zero/flutterddl/telemetry"
	log "github.com/go-chi/httplog/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Session is the state a script executes against. It is not safe for
// concurrent use.
type Session struct {
	Symbols metastore.Service
	Storage storage.Adapter
}

func NewSession(symbols metastore.Service, adapter storage.Adapter) *Session {
	return &Session{Symbols: symbols, Storage: adapter}
}

type Result struct {
	Statement string                 `json:"statement"`
	Message   string                 `json:"message,omitempty"`
	Field     *metastore.FieldSymbol `json:"field,omitempty"`
}

// ExecuteAll runs statements in document order and stops at the first
// error. Results of the statements that completed are returned either way.
func ExecuteAll(ctx context.Context, session *Session, script *ast.Script) ([]*Result, error) {
	results := make([]*Result, 0, len(script.Statements))
	for _, stmt := range script.Statements {
		result, err := Execute(ctx, session, stmt)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func Execute(ctx context.Context, session *Session, stmt ast.Statement) (*Result, error) {
	start := time.Now()
	name := statementName(stmt)

	ctx, span := telemetry.StartSpan(ctx, "executor.Execute", trace.WithAttributes(
		attribute.String("statementId", engine.StatementIdFromContext(ctx)),
		attribute.String("db.operation.name", name)))
	defer span.End()

	var result *Result
	var err error

	switch node := stmt.(type) {
	case *ast.CreateEnumNode:
		result, err = createEnum(ctx, session, node)
	case *ast.CreateDatabaseNode:
		result, err = createDatabase(ctx, session, node)
	case *ast.CreateTableNode:
		result, err = createTable(ctx, session, node)
	case *ast.TableFieldNode:
		var field *metastore.FieldSymbol
		if field, err = tableField(session, node); err == nil {
			result = &Result{Field: field}
		}
	case *ast.UseDatabaseNode:
		result, err = useDatabase(ctx, session, node)
	default:
		err = report.Semantic(report.FeatureNotSupported, stmt.Pos(), "unsupported statement %T", stmt)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.LogEntry(ctx).Error("Statement failed",
			"statement", name, "statementId", engine.StatementIdFromContext(ctx), "error", err)
		return nil, err
	}

	result.Statement = name
	log.LogEntry(ctx).Info("Statement executed",
		"statement", name, "statementId", engine.StatementIdFromContext(ctx),
		"duration", time.Since(start), "message", result.Message)
	return result, nil
}

func statementName(stmt ast.Statement) string {
	switch stmt.(type) {
	case *ast.CreateEnumNode:
		return "CREATE TYPE"
	case *ast.CreateDatabaseNode:
		return "CREATE DATABASE"
	case *ast.CreateTableNode:
		return "CREATE TABLE"
	case *ast.TableFieldNode:
		return "FIELD"
	case *ast.UseDatabaseNode:
		return "USE"
	default:
		return "UNKNOWN"
	}
}

// evaluateName folds a name expression; identifiers and string literals
// both yield their text.
func evaluateName(node ast.ExpressionNode) (string, error) {
	v, err := evaluator.Evaluate(node)
	if err != nil {
		return "", report.Semantic(report.InvalidParameterValue, node.Pos(), "%s", err).Wrap(err)
	}
	if v.Kind() != types.String {
		return "", report.Semantic(report.InvalidParameterValue, node.Pos(),
			"expected a name, found %s value '%s'", v.Kind(), v)
	}
	return v.AsString(), nil
}

func evaluateInteger(node ast.ExpressionNode) (int64, error) {
	v, err := evaluator.Evaluate(node)
	if err != nil {
		return 0, report.Semantic(report.InvalidParameterValue, node.Pos(), "%s", err).Wrap(err)
	}
	if v.Kind() != types.Integer {
		return 0, report.Semantic(report.InvalidParameterValue, node.Pos(),
			"expected an integer, found %s value '%s'", v.Kind(), v)
	}
	return v.AsInt64(), nil
}
