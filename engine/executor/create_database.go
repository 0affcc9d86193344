package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/service/storage"
	log "github.com/go-chi/httplog/v2"
)

func createDatabase(ctx context.Context, session *Session, node *ast.CreateDatabaseNode) (*Result, error) {
	name, err := evaluateName(node.Name)
	if err != nil {
		return nil, err
	}

	symbol := &metastore.DatabaseSymbol{Name: name, Mode: metastore.DefaultMode}
	if node.Owner != nil {
		if symbol.Owner, err = evaluateName(node.Owner); err != nil {
			return nil, err
		}
	}
	if node.Mode != nil {
		mode, err := evaluateInteger(node.Mode)
		if err != nil {
			return nil, err
		}
		symbol.Mode = int(mode)
	}

	if node.Replace {
		// a failed drop does not fail the statement; the create below decides
		status := session.Storage.DropDatabase(name)
		if status == storage.Success || status == storage.DatabaseMissing {
			session.Symbols.DropDatabase(name)
		}
		log.LogEntry(ctx).Debug("Replacing database", "database", name, "status", int(status))
	}

	status := session.Storage.CreateDatabase(name)
	switch status {
	case storage.Success:
		// the id is assigned by storage and filled in by the reload below
		if err := session.Symbols.Add(symbol); err != nil && !errors.Is(err, metastore.Error{ErrorCode: metastore.DuplicateName}) {
			return nil, report.Runtime(report.SystemError, "failed to record database %s", name).Wrap(err)
		}
	case storage.Failure:
		return nil, report.Runtime(report.SystemError, "storage failed to create database %s", name)
	case storage.DatabaseExists:
		if !node.IfNotExists {
			return nil, report.Runtime(report.DuplicateDatabase, "database %s already exists", name)
		}
		log.LogEntry(ctx).Info("Database already exists, skipping", "database", name)
	default:
		return nil, report.Runtime(report.SystemError, "storage returned %s creating database %s", status, name)
	}

	if err := session.Symbols.ReloadDatabases(ctx, session.Storage); err != nil {
		return nil, report.Runtime(report.SystemError, "failed to reload databases").Wrap(err)
	}

	return &Result{Message: fmt.Sprintf("Database '%s' was created successfully!", name)}, nil
}
