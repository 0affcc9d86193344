// Package memory is a storage backend that keeps the physical catalog in
// ordered in-memory trees. Nothing survives a restart.
package memory

import (
	"slices"
	"strings"
	"sync"

	"github.com/aleph-zero/flutterddl/service/storage"
	"github.com/google/btree"
)

const degree = 8

type database struct {
	id     int
	name   string
	tables *btree.BTreeG[*table]
}

type table struct {
	name    string
	columns int
	pk      []int
}

func databaseLess(a, b *database) bool { return strings.Compare(a.name, b.name) < 0 }
func tableLess(a, b *table) bool       { return strings.Compare(a.name, b.name) < 0 }

type Backend struct {
	mu        sync.Mutex
	databases *btree.BTreeG[*database]
	nextID    int
}

var _ storage.Adapter = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		databases: btree.NewG(degree, databaseLess),
		nextID:    1,
	}
}

func (b *Backend) CreateDatabase(name string) storage.Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.databases.Get(&database{name: name}); ok {
		return storage.DatabaseExists
	}

	b.databases.ReplaceOrInsert(&database{
		id:     b.nextID,
		name:   name,
		tables: btree.NewG(degree, tableLess),
	})
	b.nextID++
	return storage.Success
}

func (b *Backend) DropDatabase(name string) storage.Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.databases.Delete(&database{name: name}); !ok {
		return storage.DatabaseMissing
	}
	return storage.Success
}

// ListDatabases returns databases in id order.
func (b *Backend) ListDatabases() ([]storage.Database, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]storage.Database, 0, b.databases.Len())
	b.databases.Ascend(func(db *database) bool {
		out = append(out, storage.Database{ID: db.id, Name: db.name})
		return true
	})
	slices.SortFunc(out, func(a, b storage.Database) int { return a.ID - b.ID })
	return out, nil
}

func (b *Backend) CreateTable(databaseName, tableName string, columns int) storage.Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, ok := b.databases.Get(&database{name: databaseName})
	if !ok {
		return storage.DatabaseMissing
	}
	if db.tables.Has(&table{name: tableName}) {
		return storage.TableExists
	}
	if columns < 0 {
		return storage.Failure
	}

	db.tables.ReplaceOrInsert(&table{name: tableName, columns: columns})
	return storage.Success
}

func (b *Backend) AlterAddPK(databaseName, tableName string, columns []int) storage.Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, ok := b.databases.Get(&database{name: databaseName})
	if !ok {
		return storage.DatabaseMissing
	}
	t, ok := db.tables.Get(&table{name: tableName})
	if !ok {
		return storage.TableMissing
	}
	if len(t.pk) > 0 {
		return storage.PrimaryKeyExists
	}
	for _, ordinal := range columns {
		if ordinal < 0 || ordinal >= t.columns {
			return storage.ColumnOutOfRange
		}
	}

	t.pk = slices.Clone(columns)
	return storage.Success
}

// PrimaryKey reports the ordinals registered for a table.
func (b *Backend) PrimaryKey(databaseName, tableName string) ([]int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, ok := b.databases.Get(&database{name: databaseName})
	if !ok {
		return nil, false
	}
	t, ok := db.tables.Get(&table{name: tableName})
	if !ok {
		return nil, false
	}
	return slices.Clone(t.pk), true
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.databases.Clear(false)
	return nil
}
