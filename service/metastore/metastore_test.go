package metastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleph-zero/flutterddl/engine/types"
	"github.com/aleph-zero/flutterddl/service/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const data = "../../testdata/metastore"

type listing []storage.Database

func (l listing) ListDatabases() ([]storage.Database, error) { return l, nil }

type failingLister struct{}

func (failingLister) ListDatabases() ([]storage.Database, error) {
	return nil, errors.New("storage unavailable")
}

func TestServiceProvider_Open(t *testing.T) {
	teardown, _, meta := setupSuite(t, data)
	defer teardown(t)

	current, err := meta.CurrentDatabase()
	require.NoError(t, err)
	require.Equal(t, &DatabaseSymbol{ID: 1, Name: "sales", Owner: "admin", Mode: 2}, current)

	fields, err := meta.FieldsFromTable("orders")
	require.NoError(t, err)

	expected := []*FieldSymbol{
		{Database: "sales", Table: "orders", Index: 0, Name: "id", Type: types.INTEGER, TypeName: "INT", PrimaryKey: true},
		{Database: "sales", Table: "orders", Index: 1, Name: "total", Type: types.INTEGER, TypeName: "INT", Nullable: true},
		{Database: "sales", Table: "orders", Index: 2, Name: "feeling", Type: types.ENUM, TypeName: "MOOD", Nullable: true},
	}
	if diff := cmp.Diff(expected, fields); diff != "" {
		t.Errorf("fields do not match (-expected, +received):\n%s", diff)
	}

	sym, err := meta.Lookup(Type, "mood", Scope{})
	require.NoError(t, err)
	mood := sym.(*TypeSymbol)
	require.Equal(t, "MOOD", mood.Name)
	require.True(t, mood.Contains(types.StringValue("happy")))
	require.False(t, mood.Contains(types.StringValue("HAPPY")))
}

func TestServiceProvider_OpenMissingSnapshot(t *testing.T) {
	meta := NewService(NewConfig(WithDirectory(t.TempDir())))
	require.NoError(t, meta.Open())
	require.Empty(t, meta.Symbols())
}

func TestServiceProvider_AddAndPersist(t *testing.T) {
	teardown, dir, meta := setupSuite(t, data)
	defer teardown(t)

	require.NoError(t, meta.Add(&TableSymbol{DatabaseID: 1, Name: "items"}))
	require.NoError(t, meta.Add(&FieldSymbol{Database: "sales", Table: "items", Index: 0, Name: "sku", Type: types.TEXT, TypeName: "TEXT"}))
	require.NoError(t, meta.Persist())

	// read newly persisted metastore into a new service
	meta2 := NewService(NewConfig(WithDirectory(dir)))
	require.NoError(t, meta2.Open())

	if diff := cmp.Diff(meta.Symbols(), meta2.Symbols()); diff != "" {
		t.Errorf("symbols do not match (-expected, +received):\n%s", diff)
	}
}

func TestServiceProvider_AddDuplicates(t *testing.T) {
	teardown, _, meta := setupSuite(t, data)
	defer teardown(t)

	tests := []struct {
		name   string
		symbol Symbol
		code   ErrorCode
	}{
		{"database", &DatabaseSymbol{ID: 9, Name: "sales"}, DuplicateName},
		{"table", &TableSymbol{DatabaseID: 1, Name: "orders"}, DuplicateName},
		{"table in unknown database", &TableSymbol{DatabaseID: 42, Name: "orders"}, NotFound},
		{"field", &FieldSymbol{Database: "sales", Table: "orders", Index: 3, Name: "total"}, DuplicateName},
		{"field gap", &FieldSymbol{Database: "sales", Table: "orders", Index: 5, Name: "extra"}, InvalidOrdinal},
		{"field in unknown table", &FieldSymbol{Database: "sales", Table: "nope", Name: "x"}, NotFound},
		{"type", &TypeSymbol{Name: "MOOD"}, DuplicateName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := meta.Add(tt.symbol)
			require.ErrorIs(t, err, Error{ErrorCode: tt.code})
		})
	}

	// the same table name is fine in another database
	require.NoError(t, meta.Add(&TableSymbol{DatabaseID: 2, Name: "orders"}))
}

func TestServiceProvider_Lookup(t *testing.T) {
	teardown, _, meta := setupSuite(t, data)
	defer teardown(t)

	tests := []struct {
		kind  Kind
		name  string
		scope Scope
		err   error
	}{
		{Database, "sales", Scope{}, nil},
		{Database, "Sales", Scope{}, Error{ErrorCode: NotFound}},
		{Table, "orders", Scope{}, nil},
		{Table, "orders", Scope{Database: "sales"}, nil},
		{Table, "orders", Scope{Database: "hr"}, Error{ErrorCode: NotFound}},
		{Table, "orders", Scope{Database: "nope"}, Error{ErrorCode: NotFound}},
		{Field, "total", Scope{Table: "orders"}, nil},
		{Field, "missing", Scope{Table: "orders"}, Error{ErrorCode: NotFound}},
		{Field, "total", Scope{Table: "nope"}, Error{ErrorCode: NotFound}},
		{Type, "Mood", Scope{}, nil},
		{Type, "color", Scope{}, Error{ErrorCode: NotFound}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.kind, tt.name), func(t *testing.T) {
			sym, err := meta.Lookup(tt.kind, tt.name, tt.scope)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.kind, sym.Kind())
		})
	}
}

func TestServiceProvider_NoDatabaseSelected(t *testing.T) {
	meta := NewService(NewConfig())
	require.NoError(t, meta.Add(&DatabaseSymbol{ID: 1, Name: "sales"}))

	_, err := meta.CurrentDatabase()
	require.ErrorIs(t, err, Error{ErrorCode: NoDatabaseSelected})

	_, err = meta.Lookup(Table, "orders", Scope{})
	require.ErrorIs(t, err, Error{ErrorCode: NoDatabaseSelected})

	require.ErrorIs(t, meta.UseDatabase("hr"), Error{ErrorCode: NotFound})
	require.NoError(t, meta.UseDatabase("sales"))

	current, err := meta.CurrentDatabase()
	require.NoError(t, err)
	require.Equal(t, "sales", current.Name)
}

func TestServiceProvider_FieldsFromTableIsACopy(t *testing.T) {
	teardown, _, meta := setupSuite(t, data)
	defer teardown(t)

	fields, err := meta.FieldsFromTable("orders")
	require.NoError(t, err)
	fields[0].Name = "changed"
	fields[0].Table = "child"

	again, err := meta.FieldsFromTable("orders")
	require.NoError(t, err)
	require.Equal(t, "id", again[0].Name)
	require.Equal(t, "orders", again[0].Table)
}

func TestServiceProvider_DefineType(t *testing.T) {
	meta := NewService(NewConfig())

	meta.DefineType(NewTypeSymbol("mood", []types.Value{
		types.StringValue("sad"), types.StringValue("ok"), types.StringValue("sad"),
	}))
	meta.DefineType(NewTypeSymbol("color", []types.Value{types.StringValue("red")}))
	meta.DefineType(NewTypeSymbol("Mood", []types.Value{types.StringValue("happy")}))

	expected := []*TypeSymbol{
		{Name: "MOOD", Values: []types.Value{types.StringValue("happy")}},
		{Name: "COLOR", Values: []types.Value{types.StringValue("red")}},
	}
	if diff := cmp.Diff(expected, meta.Types()); diff != "" {
		t.Errorf("types do not match (-expected, +received):\n%s", diff)
	}
}

func TestNewTypeSymbol(t *testing.T) {
	sym := NewTypeSymbol(" mood ", []types.Value{
		types.StringValue("b"), types.StringValue("a"), types.StringValue("b"), types.IntegerValue(1),
	})
	require.Equal(t, "MOOD", sym.Name)
	require.Equal(t, []types.Value{types.StringValue("b"), types.StringValue("a"), types.IntegerValue(1)}, sym.Values)
}

func TestServiceProvider_ReloadDatabases(t *testing.T) {
	teardown, _, meta := setupSuite(t, data)
	defer teardown(t)

	// sales survives under a new id, hr vanishes, finance appears
	err := meta.ReloadDatabases(context.Background(), listing{
		{ID: 7, Name: "sales"},
		{ID: 8, Name: "finance"},
	})
	require.NoError(t, err)

	expected := []*DatabaseSymbol{
		{ID: 7, Name: "sales", Owner: "admin", Mode: 2},
		{ID: 8, Name: "finance", Mode: DefaultMode},
	}
	if diff := cmp.Diff(expected, meta.Databases()); diff != "" {
		t.Errorf("databases do not match (-expected, +received):\n%s", diff)
	}

	tables, err := meta.Tables("sales")
	require.NoError(t, err)
	require.Equal(t, []*TableSymbol{{DatabaseID: 7, Name: "orders", Check: "total > 0"}}, tables)

	current, err := meta.CurrentDatabase()
	require.NoError(t, err)
	require.Equal(t, 7, current.ID)

	// sales vanishes: its tables, fields and the selection go with it
	require.NoError(t, meta.ReloadDatabases(context.Background(), listing{{ID: 8, Name: "finance"}}))
	_, err = meta.Tables("sales")
	require.ErrorIs(t, err, Error{ErrorCode: NotFound})
	_, err = meta.CurrentDatabase()
	require.ErrorIs(t, err, Error{ErrorCode: NoDatabaseSelected})
	for _, sym := range meta.Symbols() {
		require.NotEqual(t, Field, sym.Kind())
		require.NotEqual(t, Table, sym.Kind())
	}
}

func TestServiceProvider_ReloadDatabasesError(t *testing.T) {
	teardown, _, meta := setupSuite(t, data)
	defer teardown(t)

	require.Error(t, meta.ReloadDatabases(context.Background(), failingLister{}))
	require.Len(t, meta.Databases(), 2)
}

func TestServiceProvider_DropDatabase(t *testing.T) {
	teardown, _, meta := setupSuite(t, data)
	defer teardown(t)

	require.False(t, meta.DropDatabase("nope"))
	require.True(t, meta.DropDatabase("sales"))

	_, err := meta.Lookup(Database, "sales", Scope{})
	require.ErrorIs(t, err, Error{ErrorCode: NotFound})
	_, err = meta.CurrentDatabase()
	require.ErrorIs(t, err, Error{ErrorCode: NoDatabaseSelected})

	// types are global and survive
	require.Len(t, meta.Types(), 1)
	require.Len(t, meta.Symbols(), 2)
}

func TestKind_JSON(t *testing.T) {
	for _, k := range []Kind{Database, Table, Field, Type} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}
	_, err := ParseKind("index")
	require.Error(t, err)
}

func setupSuite(tb testing.TB, testdata string) (func(tb testing.TB), string, Service) {
	dir, err := createTempMetastore(filepath.Join(testdata, "metastore.json"))
	if err != nil {
		tb.Fatal(err)
	}

	ms := NewService(NewConfig(WithDirectory(dir)))
	if err := ms.Open(); err != nil {
		tb.Fatal(err)
	}
	return func(tb testing.TB) { os.RemoveAll(dir) }, dir, ms
}

func createTempMetastore(srcFile string) (string, error) {
	tempDir, err := os.MkdirTemp("", "metastore-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	src, err := os.Open(srcFile)
	if err != nil {
		os.RemoveAll(tempDir)
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	destPath := filepath.Join(tempDir, "metastore.json")
	dest, err := os.Create(destPath)
	if err != nil {
		os.RemoveAll(tempDir)
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dest.Close()

	if _, err = io.Copy(dest, src); err != nil {
		os.RemoveAll(tempDir)
		return "", fmt.Errorf("failed to copy data: %w", err)
	}

	return tempDir, nil
}
