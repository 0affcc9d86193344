package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/aleph-zero/flutterddl/service/index"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/service/query"
	"github.com/aleph-zero/flutterddl/service/storage/memory"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/require"
)

const salesScript = `
	CREATE DATABASE sales;
	USE sales;
	CREATE TYPE mood AS ENUM ('sad', 'happy');
	CREATE TABLE orders (id INT PRIMARY KEY, total INT, feeling mood, CHECK (total > 0));
`

func TestDDLHandler_Execute(t *testing.T) {
	server, teardown := setupSuite(t)
	defer teardown(t)

	status, body := do(t, server, http.MethodPost, "/ddl", "text/plain", salesScript)
	require.Equal(t, http.StatusOK, status)

	var response DDLResponse
	require.NoError(t, json.Unmarshal(body, &response))
	require.Len(t, response.Scripts, 1)

	var messages []string
	for _, r := range response.Scripts[0].Results {
		messages = append(messages, r.Message)
	}
	require.Equal(t, []string{
		"Database 'sales' was created successfully!",
		"Database 'sales' selected.",
		"ENUM MOOD created.",
		"Table: orders created.",
	}, messages)
}

func TestDDLHandler_ExecuteJson(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"array", `[{"script": "CREATE DATABASE a"}, {"script": "CREATE DATABASE b"}]`},
		{"objects", `{"script": "CREATE DATABASE a"}
			{"script": "CREATE DATABASE b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, teardown := setupSuite(t)
			defer teardown(t)

			status, body := do(t, server, http.MethodPost, "/ddl", "application/json", tt.body)
			require.Equal(t, http.StatusOK, status)

			var response DDLResponse
			require.NoError(t, json.Unmarshal(body, &response))
			require.Len(t, response.Scripts, 2)

			status, body = do(t, server, http.MethodGet, "/databases", "", "")
			require.Equal(t, http.StatusOK, status)
			var databases DatabasesResponse
			require.NoError(t, json.Unmarshal(body, &databases))
			require.Equal(t, []*metastore.DatabaseSymbol{
				{ID: 1, Name: "a", Mode: metastore.DefaultMode},
				{ID: 2, Name: "b", Mode: metastore.DefaultMode},
			}, databases.Databases)
		})
	}
}

func TestDDLHandler_Errors(t *testing.T) {
	tests := []struct {
		name      string
		script    string
		status    int
		kind      report.Kind
		code      report.Code
		completed int
	}{
		{"syntax", `CREATE INDEX foo`, http.StatusBadRequest, report.SYNTAX, report.SyntaxError, 0},
		{"semantic", `CREATE DATABASE a; CREATE TABLE t (x INT)`, http.StatusBadRequest, report.SEMANTIC, report.NoDatabaseSelected, 1},
		{"duplicate database", `CREATE DATABASE a; CREATE DATABASE a`, http.StatusConflict, report.RUNTIME, report.DuplicateDatabase, 1},
		{"duplicate table", `CREATE DATABASE a; USE a; CREATE TABLE t (x INT); CREATE TABLE t (y INT)`, http.StatusConflict, report.SEMANTIC, report.DuplicateTable, 3},
		{"duplicate column", `CREATE DATABASE a; USE a; CREATE TABLE t (x INT, x INT)`, http.StatusConflict, report.SEMANTIC, report.DuplicateColumn, 2},
		{"enum shadows type", `CREATE TYPE text AS ENUM ('a')`, http.StatusConflict, report.SEMANTIC, report.DuplicateObject, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, teardown := setupSuite(t)
			defer teardown(t)

			status, body := do(t, server, http.MethodPost, "/ddl", "text/plain", tt.script)
			require.Equal(t, tt.status, status)

			var response ErrResponse
			require.NoError(t, json.Unmarshal(body, &response))
			require.NotNil(t, response.Report)
			require.Equal(t, tt.kind, response.Report.Kind)
			require.Equal(t, tt.code, response.Report.Code)
			require.Len(t, response.Results, tt.completed)
		})
	}
}

func TestDDLHandler_EmptyBody(t *testing.T) {
	server, teardown := setupSuite(t)
	defer teardown(t)

	status, _ := do(t, server, http.MethodPost, "/ddl", "text/plain", "   ")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogHandler(t *testing.T) {
	server, teardown := setupSuite(t)
	defer teardown(t)

	status, _ := do(t, server, http.MethodPost, "/ddl", "text/plain", salesScript)
	require.Equal(t, http.StatusOK, status)

	t.Run("tables", func(t *testing.T) {
		status, body := do(t, server, http.MethodGet, "/databases/sales/tables", "", "")
		require.Equal(t, http.StatusOK, status)
		var response TablesResponse
		require.NoError(t, json.Unmarshal(body, &response))
		require.Equal(t, []*metastore.TableSymbol{{DatabaseID: 1, Name: "orders", Check: "total > 0"}}, response.Tables)
	})

	t.Run("table", func(t *testing.T) {
		status, body := do(t, server, http.MethodGet, "/databases/sales/tables/orders", "", "")
		require.Equal(t, http.StatusOK, status)
		var response TableResponse
		require.NoError(t, json.Unmarshal(body, &response))
		require.Equal(t, "orders", response.Table.Name)
		require.Len(t, response.Fields, 3)
		require.Equal(t, "MOOD", response.Fields[2].TypeName)
	})

	t.Run("missing", func(t *testing.T) {
		for _, path := range []string{"/databases/hr/tables", "/databases/sales/tables/items", "/databases/hr/tables/orders"} {
			status, _ := do(t, server, http.MethodGet, path, "", "")
			require.Equal(t, http.StatusNotFound, status, path)
		}
	})

	t.Run("types", func(t *testing.T) {
		status, body := do(t, server, http.MethodGet, "/types", "", "")
		require.Equal(t, http.StatusOK, status)
		var response TypesResponse
		require.NoError(t, json.Unmarshal(body, &response))
		require.Len(t, response.Types, 1)
		require.Equal(t, "MOOD", response.Types[0].Name)
	})

	t.Run("search", func(t *testing.T) {
		status, body := do(t, server, http.MethodGet, "/catalog/search?q=ord&kind=table", "", "")
		require.Equal(t, http.StatusOK, status)
		var response SearchResponse
		require.NoError(t, json.Unmarshal(body, &response))
		require.Equal(t, []*index.Entry{{Kind: "table", Name: "orders", Database: "sales"}}, response.Entries)

		status, _ = do(t, server, http.MethodGet, "/catalog/search?kind=index", "", "")
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func do(t *testing.T, server *httptest.Server, method, path, contentType, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", server.URL, path), reader)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func setupSuite(tb testing.TB) (*httptest.Server, func(tb testing.TB)) {
	meta := metastore.NewService(metastore.NewConfig())
	backend := memory.New()
	indexSvc, err := index.NewService()
	require.NoError(tb, err)

	querySvc := query.NewService(meta, backend, indexSvc)

	router := chi.NewRouter()
	router.Use(render.SetContentType(render.ContentTypeJSON))
	Routes(router, NewDDLHandler(querySvc), NewCatalogHandler(querySvc, indexSvc))

	server := httptest.NewServer(router)
	return server, func(tb testing.TB) {
		server.Close()
		indexSvc.Close()
		backend.Close()
	}
}
