package api

import (
	"errors"
	"net/http"

	"github.com/aleph-zero/flutterddl/engine/executor"
	"github.com/aleph-zero/flutterddl/engine/report"
	"github.com/go-chi/render"
)

type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string             `json:"status"`
	ErrorText  string             `json:"error,omitempty"`
	Report     *report.Error      `json:"report,omitempty"`
	Results    []*executor.Result `json:"results,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrResponse(err error, status int) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		ErrorText:      err.Error(),
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return newErrResponse(err, http.StatusBadRequest)
}

func ErrNotFound(err error) render.Renderer {
	return newErrResponse(err, http.StatusNotFound)
}

func ErrInternalServerError(err error) render.Renderer {
	return newErrResponse(err, http.StatusInternalServerError)
}

var conflicts = []report.Code{report.DuplicateDatabase, report.DuplicateTable, report.DuplicateColumn, report.DuplicateObject}

// ErrStatement classifies a failed script: duplicates conflict, other
// syntax and semantic errors are the caller's fault, and runtime errors are
// the server's.
func ErrStatement(err error, completed []*executor.Result) render.Renderer {
	var rerr *report.Error
	if !errors.As(err, &rerr) {
		return ErrInternalServerError(err)
	}

	status := http.StatusBadRequest
	switch {
	case isConflict(rerr):
		status = http.StatusConflict
	case rerr.Kind == report.RUNTIME:
		status = http.StatusInternalServerError
	}

	resp := newErrResponse(err, status)
	resp.Report = rerr
	resp.Results = completed
	return resp
}

func isConflict(err *report.Error) bool {
	for _, code := range conflicts {
		if err.Code == code {
			return true
		}
	}
	return false
}
