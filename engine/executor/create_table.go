package executor

import (
	"context"
	"fmt"
	"text/scanner"

	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/service/storage"
	log "github.com/go-chi/httplog/v2"
)

func createTable(ctx context.Context, session *Session, node *ast.CreateTableNode) (*Result, error) {
	db, err := session.Symbols.CurrentDatabase()
	if err != nil {
		return nil, report.Semantic(report.NoDatabaseSelected, node.Pos(),
			"no database selected for table %s", node.Name).Wrap(err)
	}

	if _, err := session.Symbols.Lookup(metastore.Table, node.Name, metastore.Scope{Database: db.Name}); err == nil {
		return nil, report.Semantic(report.DuplicateTable, node.Pos(),
			"table %s already exists in database %s", node.Name, db.Name)
	}

	fields := make([]*metastore.FieldSymbol, 0, len(node.Fields))
	positions := make([]scanner.Position, 0, len(node.Fields))
	for _, f := range node.Fields {
		field, err := tableField(session, f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		positions = append(positions, f.Pos())
	}

	if node.Inherits != nil {
		inherited, err := session.Symbols.Fields(db.Name, node.Inherits.Value)
		if err != nil {
			return nil, report.Semantic(report.UndefinedTable, node.Inherits.Pos(),
				"table %s does not exist", node.Inherits.Value).Wrap(err)
		}
		for _, f := range inherited {
			fields = append(fields, f)
			positions = append(positions, node.Inherits.Pos())
		}
	}

	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if _, ok := seen[f.Name]; ok {
			return nil, report.Semantic(report.DuplicateColumn, positions[i],
				"column %s specified more than once", f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	switch status := session.Storage.CreateTable(db.Name, node.Name, len(fields)); status {
	case storage.Success:
	case storage.Failure:
		return nil, report.Runtime(report.SystemError, "storage failed to create table %s", node.Name)
	case storage.DatabaseMissing:
		return nil, report.Runtime(report.DatabaseDoesNotExist, "database %s does not exist", db.Name)
	case storage.TableExists:
		return nil, report.Runtime(report.DuplicateTable, "table %s already exists", node.Name)
	default:
		return nil, report.Runtime(report.SystemError, "storage returned %s creating table %s", status, node.Name)
	}

	var keys []int
	for i, f := range fields {
		f.Database = db.Name
		f.Table = node.Name
		f.Index = i
		if f.PrimaryKey {
			keys = append(keys, i)
		}
	}

	pkStatus := storage.Success
	if len(keys) > 0 {
		pkStatus = session.Storage.AlterAddPK(db.Name, node.Name, keys)
	}

	table := &metastore.TableSymbol{DatabaseID: db.ID, Name: node.Name, Check: ast.Format(node.Check)}
	if err := session.Symbols.Add(table); err != nil {
		return nil, report.Runtime(report.SystemError, "failed to record table %s", node.Name).Wrap(err)
	}
	for _, f := range fields {
		if err := session.Symbols.Add(f); err != nil {
			return nil, report.Runtime(report.SystemError, "failed to record column %s", f.Name).Wrap(err)
		}
	}

	// storage keeps the table even when the primary key fails
	if pkStatus != storage.Success {
		return nil, report.Runtime(report.SystemError,
			"storage returned %s adding primary key %v to table %s", pkStatus, keys, node.Name)
	}

	log.LogEntry(ctx).Debug("Table created",
		"database", db.Name, "table", node.Name, "columns", len(fields), "primaryKey", keys)
	return &Result{Message: fmt.Sprintf("Table: %s created.", node.Name)}, nil
}
