package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/aleph-zero/flutterddl/engine/executor"
	"github.com/aleph-zero/flutterddl/service/index"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/service/query"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type contextKey string

const (
	databaseKey contextKey = "database"
	tableKey    contextKey = "table"
)

/* *** DDL API *** */

type DDLHandler struct {
	service query.Service
}

func NewDDLHandler(svc query.Service) DDLHandler {
	return DDLHandler{service: svc}
}

// Execute runs every script in the request body in order and stops at the
// first failure.
func (h *DDLHandler) Execute(w http.ResponseWriter, r *http.Request) {
	response := &DDLResponse{}
	var failure render.Renderer

	processor := func(script string) error {
		result, err := h.service.Execute(r.Context(), script)
		if result != nil {
			response.Scripts = append(response.Scripts, result)
		}
		if err != nil {
			failure = ErrStatement(err, completed(response.Scripts))
			return err
		}
		return nil
	}

	if err := ProcessScriptStream(r, processor); err != nil {
		if failure == nil {
			failure = ErrInvalidRequest(err)
		}
		render.Render(w, r, failure)
		return
	}

	render.Status(r, http.StatusOK)
	render.Render(w, r, response)
}

func completed(scripts []*query.ScriptResult) []*executor.Result {
	var out []*executor.Result
	for _, s := range scripts {
		out = append(out, s.Results...)
	}
	return out
}

type DDLResponse struct {
	Scripts []*query.ScriptResult `json:"scripts"`
}

func (d *DDLResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

/* *** Catalog API *** */

type CatalogHandler struct {
	service  query.Service
	indexSvc index.Service
}

func NewCatalogHandler(svc query.Service, indexSvc index.Service) CatalogHandler {
	return CatalogHandler{service: svc, indexSvc: indexSvc}
}

func (h *CatalogHandler) GetDatabases(w http.ResponseWriter, r *http.Request) {
	var databases []*metastore.DatabaseSymbol
	_ = h.service.View(func(meta metastore.Service) error {
		databases = meta.Databases()
		return nil
	})
	render.Render(w, r, &DatabasesResponse{Databases: databases})
}

func (h *CatalogHandler) GetTables(w http.ResponseWriter, r *http.Request) {
	database := r.Context().Value(databaseKey).(string)

	var tables []*metastore.TableSymbol
	err := h.service.View(func(meta metastore.Service) (err error) {
		tables, err = meta.Tables(database)
		return err
	})
	if err != nil {
		renderLookupError(w, r, err)
		return
	}
	render.Render(w, r, &TablesResponse{Database: database, Tables: tables})
}

func (h *CatalogHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	database := r.Context().Value(databaseKey).(string)
	table := r.Context().Value(tableKey).(string)

	response := &TableResponse{Database: database}
	err := h.service.View(func(meta metastore.Service) error {
		sym, err := meta.Lookup(metastore.Table, table, metastore.Scope{Database: database})
		if err != nil {
			return err
		}
		response.Table = sym.(*metastore.TableSymbol)
		response.Fields, err = meta.Fields(database, table)
		return err
	})
	if err != nil {
		renderLookupError(w, r, err)
		return
	}
	render.Render(w, r, response)
}

func (h *CatalogHandler) GetTypes(w http.ResponseWriter, r *http.Request) {
	var types []*metastore.TypeSymbol
	_ = h.service.View(func(meta metastore.Service) error {
		types = meta.Types()
		return nil
	})
	render.Render(w, r, &TypesResponse{Types: types})
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	request := index.SearchRequest{
		Prefix: r.URL.Query().Get("q"),
		Kind:   r.URL.Query().Get("kind"),
	}

	entries, err := h.indexSvc.Search(r.Context(), request)
	if err != nil {
		if errors.Is(err, index.Error{ErrorCode: index.InvalidRequest}) {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		render.Render(w, r, ErrInternalServerError(err))
		return
	}
	render.Render(w, r, &SearchResponse{Entries: entries})
}

func renderLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, metastore.Error{ErrorCode: metastore.NotFound}) {
		render.Render(w, r, ErrNotFound(err))
		return
	}
	render.Render(w, r, ErrInternalServerError(err))
}

type DatabasesResponse struct {
	Databases []*metastore.DatabaseSymbol `json:"databases"`
}

func (d *DatabasesResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type TablesResponse struct {
	Database string                   `json:"database"`
	Tables   []*metastore.TableSymbol `json:"tables"`
}

func (t *TablesResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type TableResponse struct {
	Database string                   `json:"database"`
	Table    *metastore.TableSymbol   `json:"table"`
	Fields   []*metastore.FieldSymbol `json:"fields"`
}

func (t *TableResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type TypesResponse struct {
	Types []*metastore.TypeSymbol `json:"types"`
}

func (t *TypesResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type SearchResponse struct {
	Entries []*index.Entry `json:"entries"`
}

func (s *SearchResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func DatabaseContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var database string
		if database = chi.URLParam(r, "database"); database == "" {
			render.Render(w, r, ErrInvalidRequest(errors.New("missing database name")))
			return
		}
		ctx := context.WithValue(r.Context(), databaseKey, database)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TableContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var table string
		if table = chi.URLParam(r, "table"); table == "" {
			render.Render(w, r, ErrInvalidRequest(errors.New("missing table name")))
			return
		}
		ctx := context.WithValue(r.Context(), tableKey, table)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Routes mounts the DDL and catalog endpoints on router.
func Routes(router chi.Router, ddl DDLHandler, catalog CatalogHandler) {
	router.Post("/ddl", ddl.Execute)
	router.Get("/types", catalog.GetTypes)
	router.Get("/catalog/search", catalog.Search)
	router.Route("/databases", func(r chi.Router) {
		r.Get("/", catalog.GetDatabases)
		r.Route("/{database}", func(r chi.Router) {
			r.Use(DatabaseContext)
			r.Get("/tables", catalog.GetTables)
			r.With(TableContext).Get("/tables/{table}", catalog.GetTable)
		})
	})
}
