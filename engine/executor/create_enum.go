package executor

import (
	"context"
	"fmt"

	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/evaluator"
	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/aleph-zero/flutterddl/engine/types"
	"github.com/aleph-zero/flutterddl/service/metastore"
	log "github.com/go-chi/httplog/v2"
)

// createEnum defines a user type. Storage is not involved, and defining a
// name twice replaces the earlier values.
func createEnum(ctx context.Context, session *Session, node *ast.CreateEnumNode) (*Result, error) {
	// field types resolve built-in names first
	if _, err := types.New(node.Name); err == nil {
		return nil, report.Semantic(report.DuplicateObject, node.Pos(),
			"type %s is a built-in type", metastore.NormalizeTypeName(node.Name))
	}

	values := make([]types.Value, 0, len(node.Values))
	for _, expr := range node.Values {
		v, err := evaluator.Evaluate(expr)
		if err != nil {
			return nil, report.Semantic(report.InvalidParameterValue, expr.Pos(), "%s", err).Wrap(err)
		}
		values = append(values, v)
	}

	symbol := metastore.NewTypeSymbol(node.Name, values)
	session.Symbols.DefineType(symbol)

	log.LogEntry(ctx).Debug("Enum defined", "type", symbol.Name, "values", len(symbol.Values))
	return &Result{Message: fmt.Sprintf("ENUM %s created.", symbol.Name)}, nil
}
