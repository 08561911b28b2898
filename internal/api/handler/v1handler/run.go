package v1handler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"extractor/internal/matcher"
	"extractor/pkg/domain"
	"extractor/pkg/logger"
	"extractor/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// maxRequestBytes bounds the size of a run request body.
const maxRequestBytes = 64 << 10

// DecodeRunRequest reads a run request. "domains" accepts either a comma
// separated string, as typed in the form, or an array of strings.
func DecodeRunRequest(r io.Reader) (domain.ScanRequest, error) {
	var req domain.ScanRequest

	d := jx.Decode(r, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "mode":
			var mode string
			mode, err = d.Str()
			req.Mode = domain.Mode(mode)
		case "root":
			req.Root, err = d.Str()
		case "output":
			req.Output, err = d.Str()
		case "domains":
			req.DomainFilters, err = decodeDomains(d)
		default:
			err = d.Skip()
		}

		return err
	})
	if err != nil {
		return domain.ScanRequest{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body")
	}

	req.Root = strings.TrimSpace(req.Root)
	req.Output = strings.TrimSpace(req.Output)

	return req, nil
}

func decodeDomains(d *jx.Decoder) ([]string, error) {
	switch d.Next() {
	case jx.Null:
		return nil, d.Null()
	case jx.String:
		raw, err := d.Str()

		return matcher.ParseFilters(raw), err
	default:
		var filters []string
		err := d.Arr(func(d *jx.Decoder) error {
			s, err := d.Str()
			if s = strings.TrimSpace(s); s != "" {
				filters = append(filters, s)
			}

			return err
		})

		return filters, err
	}
}

// checkRequest admits only same-origin or non-browser callers sending JSON.
// Cross-site requests are refused whatever their content type, so CORS
// "simple" requests cannot start a run either.
func (h *Handler) checkRequest(r *http.Request) error {
	if err := h.origin.Check(r); err != nil {
		return serrors.Wrap(serrors.ErrForbidden, err, "cross-origin request rejected")
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return serrors.With(serrors.ErrUnsupported, "content type must be application/json")
	}

	return nil
}

// CreateRun starts a run and streams it back as newline delimited JSON: one
// "progress" object per file followed by a single "result" or "error"
// object. Request errors detected before the first event are answered with a
// plain JSON error and the matching status code.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.checkRequest(r); err != nil {
		h.writeError(ctx, w, err)

		return
	}

	req, err := DecodeRunRequest(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.writeError(ctx, w, err)

		return
	}

	if !h.running.TryLock() {
		h.writeError(ctx, w, serrors.With(serrors.ErrConflict, "a run is already in progress"))

		return
	}
	defer h.running.Unlock()

	stream := newStreamReporter(w)
	if _, err := h.deps.Scanner.Run(ctx, req, stream); err != nil {
		if !stream.started {
			h.writeError(ctx, w, err)

			return
		}
		stream.writeError(h.NewError(ctx, err))
	}
}

// streamReporter is a scanner.Reporter that writes every event as one JSON
// line and flushes it immediately.
type streamReporter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	start   time.Time
	started bool
	enc     jx.Encoder
}

func newStreamReporter(w http.ResponseWriter) *streamReporter {
	return &streamReporter{w: w, rc: http.NewResponseController(w), start: time.Now()}
}

func (s *streamReporter) emit(ctx context.Context) {
	if !s.started {
		s.started = true
		s.w.Header().Set("Content-Type", "application/x-ndjson")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.WriteHeader(http.StatusOK)
	}

	line := append(s.enc.Bytes(), '\n')
	if _, err := s.w.Write(line); err != nil {
		logger.Debug(ctx, "could not write event", zap.Error(err))
	}
	s.enc.Reset()

	if err := s.rc.Flush(); err != nil {
		logger.Debug(ctx, "could not flush event", zap.Error(err))
	}
}

// Progress implements scanner.Reporter.
func (s *streamReporter) Progress(ctx context.Context, p domain.Progress) {
	e := &s.enc
	e.ObjStart()
	e.FieldStart("type")
	e.Str("progress")
	e.FieldStart("runId")
	e.Str(p.RunID.String())
	e.FieldStart("path")
	e.Str(p.Path)
	e.FieldStart("processed")
	e.Int(p.Processed)
	e.FieldStart("total")
	e.Int(p.Total)
	e.FieldStart("percent")
	e.Int(p.Percent)
	e.FieldStart("unique")
	e.Int(p.Unique)
	e.FieldStart("elapsedSeconds")
	e.Float64(time.Since(s.start).Seconds())
	e.ObjEnd()

	s.emit(ctx)
}

// Finished implements scanner.Reporter.
func (s *streamReporter) Finished(ctx context.Context, res domain.RunResult) {
	e := &s.enc
	e.ObjStart()
	e.FieldStart("type")
	e.Str("result")
	e.FieldStart("runId")
	e.Str(res.RunID.String())
	e.FieldStart("emails")
	e.Int(len(res.Emails))
	e.FieldStart("files")
	e.Int(res.Files)
	e.FieldStart("written")
	e.Bool(res.Written)
	e.FieldStart("output")
	e.Str(res.Output)
	e.FieldStart("message")
	e.Str(res.Summary())
	e.FieldStart("failed")
	e.ArrStart()
	for _, f := range res.Failed {
		e.ObjStart()
		e.FieldStart("path")
		e.Str(f.Path)
		e.FieldStart("error")
		e.Str(f.Err.Error())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("elapsedSeconds")
	e.Float64(res.ElapsedSeconds())
	e.ObjEnd()

	s.emit(ctx)
}

func (s *streamReporter) writeError(res ErrorResponse) {
	encodeError(&s.enc, res)
	s.emit(context.Background())
}
