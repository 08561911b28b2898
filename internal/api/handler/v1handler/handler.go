// Package v1handler implements the v1 HTTP API behind the web form: starting
// a run and streaming its progress.
package v1handler

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"extractor/internal/scanner"
	"extractor/pkg/logger"
	"extractor/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Deps are the collaborators of the handler.
type Deps struct {
	Scanner scanner.Scanner
}

// Handler serves the v1 routes. It allows a single run at a time and only
// from the page it serves itself.
type Handler struct {
	deps Deps
	// origin rejects browser requests issued by other sites.
	origin *http.CrossOriginProtection
	// running is held for the whole duration of a run.
	running sync.Mutex
}

// New returns a Handler using deps.
func New(deps Deps) *Handler {
	return &Handler{deps: deps, origin: http.NewCrossOriginProtection()}
}

// Register mounts the v1 routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/runs", h.CreateRun)
}

// ErrorResponse is the body of a failed request or the final event of a
// failed stream.
type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
}

// NewError maps err to a status code and a client-facing message. Internal
// errors are logged and their details hidden.
func (h *Handler) NewError(ctx context.Context, err error) ErrorResponse {
	var semantic *serrors.Error
	if !errors.As(err, &semantic) || semantic.Message() == "" {
		semantic = nil
	}

	kind := serrors.KindOf(err)
	res := ErrorResponse{Code: kind.Error()}

	switch kind {
	case serrors.ErrBadRequest:
		res.StatusCode = http.StatusBadRequest
	case serrors.ErrForbidden:
		res.StatusCode = http.StatusForbidden
	case serrors.ErrUnsupported:
		res.StatusCode = http.StatusUnsupportedMediaType
	case serrors.ErrNotFound:
		res.StatusCode = http.StatusNotFound
	case serrors.ErrConflict:
		res.StatusCode = http.StatusConflict
	default:
		logger.Error(ctx, "run failed", zap.Error(err))

		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       serrors.ErrInternal.Error(),
			Message:    "internal error",
		}
	}

	res.Message = err.Error()
	if semantic != nil {
		res.Message = semantic.Message()
	}

	return res
}

func encodeError(e *jx.Encoder, res ErrorResponse) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str("error")
	e.FieldStart("code")
	e.Str(res.Code)
	e.FieldStart("message")
	e.Str(res.Message)
	e.ObjEnd()
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	res := h.NewError(ctx, err)

	var e jx.Encoder
	encodeError(&e, res)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(e.Bytes())
}
