package executor

import (
	"context"
	"fmt"

	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/report"
)

func useDatabase(_ context.Context, session *Session, node *ast.UseDatabaseNode) (*Result, error) {
	name, err := evaluateName(node.Name)
	if err != nil {
		return nil, err
	}

	if err := session.Symbols.UseDatabase(name); err != nil {
		return nil, report.Semantic(report.DatabaseDoesNotExist, node.Name.Pos(),
			"database %s does not exist", name).Wrap(err)
	}
	return &Result{Message: fmt.Sprintf("Database '%s' selected.", name)}, nil
}
