package metastore

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/aleph-zero/flutterddl/engine/types"
)

type Kind int

const (
	Database Kind = iota + 1
	Table
	Field
	Type
)

var kindNames = map[Kind]string{
	Database: "database",
	Table:    "table",
	Field:    "field",
	Type:     "type",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid symbol kind: %s", s)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	kind, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Symbol is a named entry of the catalog.
type Symbol interface {
	SymbolName() string
	Kind() Kind
}

type DatabaseSymbol struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
	Mode  int    `json:"mode"`
}

func (s *DatabaseSymbol) SymbolName() string { return s.Name }
func (s *DatabaseSymbol) Kind() Kind         { return Database }

type TableSymbol struct {
	DatabaseID int    `json:"database_id"`
	Name       string `json:"name"`
	// Check is the source text of the table's CHECK expression, if any.
	Check string `json:"check,omitempty"`
}

func (s *TableSymbol) SymbolName() string { return s.Name }
func (s *TableSymbol) Kind() Kind         { return Table }

// FieldSymbol describes one column of a table. TypeName carries the
// declared name and is the enum name when Type is types.ENUM.
type FieldSymbol struct {
	Database   string     `json:"database"`
	Table      string     `json:"table"`
	Index      int        `json:"index"`
	Name       string     `json:"name"`
	Type       types.Type `json:"type"`
	TypeName   string     `json:"type_name"`
	Length     int        `json:"length,omitempty"`
	Nullable   bool       `json:"nullable"`
	PrimaryKey bool       `json:"primary_key"`
}

func (s *FieldSymbol) SymbolName() string { return s.Name }
func (s *FieldSymbol) Kind() Kind         { return Field }

// TypeSymbol is a user-defined enum. Values keep declaration order.
type TypeSymbol struct {
	Name   string        `json:"name"`
	Values []types.Value `json:"values"`
}

func (s *TypeSymbol) SymbolName() string { return s.Name }
func (s *TypeSymbol) Kind() Kind         { return Type }

// Contains reports whether v is one of the enum's values.
func (s *TypeSymbol) Contains(v types.Value) bool {
	return slices.ContainsFunc(s.Values, v.Equal)
}

// NewTypeSymbol builds an enum from values in order, dropping repeats.
func NewTypeSymbol(name string, values []types.Value) *TypeSymbol {
	set := make([]types.Value, 0, len(values))
	for _, v := range values {
		if !slices.ContainsFunc(set, v.Equal) {
			set = append(set, v)
		}
	}
	return &TypeSymbol{Name: NormalizeTypeName(name), Values: set}
}

// Scope narrows table and field lookups. An empty Database means the
// current database.
type Scope struct {
	Database string
	Table    string
}

func clone[T any](s *T) *T {
	c := *s
	return &c
}
