package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/api"
	"github.com/coronin/Crisprs/codec"
	"github.com/coronin/Crisprs/output"
	"github.com/coronin/Crisprs/search"
)

const maxBodyBytes = 8 << 20

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.NewIndexInfo(s.db.Location(), s.db.Metadata(), s.db.Engine().Threshold()))
}

func (s *Server) site(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid site id: %w", err))
		return
	}
	rec, err := s.db.Record(id)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, output.NewSite(rec))
}

func (s *Server) sites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := strconv.ParseUint(q.Get("start"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err))
		return
	}
	count, err := strconv.ParseUint(q.Get("count"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid count: %w", err))
		return
	}
	if s.cfg.MaxQueries > 0 && count > uint64(s.cfg.MaxQueries) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("count %d exceeds the limit of %d", count, s.cfg.MaxQueries))
		return
	}
	recs, err := s.db.Records(start, count)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	out := make([]output.Site, len(recs))
	for i, rec := range recs {
		out[i] = output.NewSite(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) offTargets(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req api.OffTargetRequest
	if err := codec.Default.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := s.validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	batch := middleware.GetReqID(r.Context())
	if batch == "" {
		batch = search.BatchID(r.Context())
	}
	ctx := search.WithBatchID(r.Context(), batch)

	w.Header().Set("Content-Type", api.ContentTypeNDJSON)
	w.Header().Set(api.HeaderBatchID, batch)
	w.WriteHeader(http.StatusOK)
	out := newLineWriter(w)

	switch {
	case req.IsRange():
		s.stream(batch, out, s.db.FindOffTargetsRange(ctx, req.Start, req.Count))
	case s.results == nil:
		s.stream(batch, out, s.db.FindOffTargets(ctx, req.IDs))
	default:
		s.streamCached(ctx, batch, out, req.IDs)
	}
}

// lineWriter writes JSON Lines and flushes after every line.
type lineWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func newLineWriter(w http.ResponseWriter) lineWriter {
	f, _ := w.(http.Flusher)
	return lineWriter{w: w, flusher: f}
}

func (l lineWriter) write(line []byte) bool {
	if _, err := l.w.Write(line); err != nil {
		return false
	}
	if l.flusher != nil {
		l.flusher.Flush()
	}
	return true
}

func encodeLine(dst []byte, res search.QueryResult) ([]byte, error) {
	dst, err := codec.GoJSON{}.Append(dst, output.NewResult(res))
	if err != nil {
		return nil, err
	}
	return append(dst, '\n'), nil
}

func (s *Server) stream(batch string, out lineWriter, results iter.Seq2[search.QueryResult, error]) {
	var line []byte
	for res, err := range results {
		if err != nil {
			s.log.Info("off-target stream stopped", "batch", batch, "error", err)
			return
		}
		line, err = encodeLine(line[:0], res)
		if err != nil {
			s.log.Error("encode result", "batch", batch, "query_id", res.QueryID, "error", err)
			return
		}
		if !out.write(line) {
			return
		}
	}
}

// streamCached answers cached ids from the result cache and searches the rest in one
// batch, writing lines in request order.
func (s *Server) streamCached(ctx context.Context, batch string, out lineWriter, ids []uint64) {
	cached := make([][]byte, len(ids))
	var misses []uint64
	for i, id := range ids {
		if b, ok := s.results.Get(id); ok {
			cached[i] = b
		} else {
			misses = append(misses, id)
		}
	}

	var next func() (search.QueryResult, error, bool)
	if len(misses) > 0 {
		pull, stop := iter.Pull2(s.db.FindOffTargets(ctx, misses))
		defer stop()
		next = pull
	}

	var line []byte
	for i := range ids {
		if cached[i] != nil {
			if !out.write(cached[i]) {
				return
			}
			continue
		}
		res, err, ok := next()
		if !ok {
			return
		}
		if err != nil {
			s.log.Info("off-target stream stopped", "batch", batch, "error", err)
			return
		}
		line, err = encodeLine(line[:0], res)
		if err != nil {
			s.log.Error("encode result", "batch", batch, "query_id", res.QueryID, "error", err)
			return
		}
		if res.Err == nil {
			s.results.Set(res.QueryID, bytes.Clone(line))
		}
		if !out.write(line) {
			return
		}
	}
}

func (s *Server) validate(req api.OffTargetRequest) error {
	if !req.IsRange() && len(req.IDs) == 0 {
		return fmt.Errorf("%w: give ids or both start and count", search.ErrNoQueries)
	}
	n := uint64(len(req.IDs))
	if req.IsRange() {
		n = req.Count
	}
	if s.cfg.MaxQueries > 0 && n > uint64(s.cfg.MaxQueries) {
		return fmt.Errorf("%d queries exceeds the limit of %d", n, s.cfg.MaxQueries)
	}
	return nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, crisprs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, crisprs.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, crisprs.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := codec.Default.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.Default.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}
