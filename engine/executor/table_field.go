package executor

import (
	"github.com/aleph-zero/flutterddl/engine/ast"
	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/aleph-zero/flutterddl/engine/types"
	"github.com/aleph-zero/flutterddl/service/metastore"
)

// tableField builds a field draft. The table name and ordinal are filled
// in by the CREATE TABLE that owns the field.
func tableField(session *Session, node *ast.TableFieldNode) (*metastore.FieldSymbol, error) {
	name, err := evaluateName(node.Name)
	if err != nil {
		return nil, err
	}

	typ, typeName, err := resolveType(session, node.Type)
	if err != nil {
		return nil, err
	}

	var length int
	if node.Length != nil {
		n, err := evaluateInteger(node.Length)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, report.Semantic(report.InvalidParameterValue, node.Length.Pos(),
				"length for type %s must be non-negative, found %d", typeName, n)
		}
		length = int(n)
	}

	field := &metastore.FieldSymbol{
		Name:       name,
		Type:       typ,
		TypeName:   typeName,
		Length:     length,
		Nullable:   node.Nullable,
		PrimaryKey: node.PrimaryKey,
	}
	if db, err := session.Symbols.CurrentDatabase(); err == nil {
		field.Database = db.Name
	}
	return field, nil
}

// resolveType maps a declared type name to a built-in type, or to ENUM when
// it names a user-defined type. Built-in names win.
func resolveType(session *Session, node *ast.IdentifierNode) (types.Type, string, error) {
	if t, err := types.New(node.Value); err == nil && t != types.ENUM {
		return t, metastore.NormalizeTypeName(node.Value), nil
	}

	symbol, err := session.Symbols.Lookup(metastore.Type, node.Value, metastore.Scope{})
	if err != nil {
		return 0, "", report.Semantic(report.UndefinedObject, node.Pos(),
			"type %s does not exist", node.Value).Wrap(err)
	}
	return types.ENUM, symbol.SymbolName(), nil
}
