package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/UnknownOlympus/geobatch/internal/service"
	"github.com/UnknownOlympus/geobatch/internal/table"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

var errInvalidRow = errors.New("row must be a positive integer")

// BatchReply is the JSON view of a batch.
type BatchReply struct {
	service.Snapshot
}

// Render implements render.Renderer.
func (b BatchReply) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

// ErrReply is the JSON body of a failed request.
type ErrReply struct {
	StatusCode int    `json:"-"`
	Error      string `json:"error"`
}

// Render sets the reply status.
func (e ErrReply) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

type regeocodeRequest struct {
	AddressString *string `json:"addressString"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	input, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInputBytes))
	if err != nil {
		s.fail(w, r, http.StatusRequestEntityTooLarge, err)
		return
	}

	batch, err := s.manager.Create(string(input))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	render.Status(r, http.StatusCreated)
	s.reply(w, r, batch)
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	batch, ok := s.batch(w, r)
	if !ok {
		return
	}

	s.reply(w, r, batch)
}

func (s *Server) deleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Remove(chi.URLParam(r, "batchID")); err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) geocodeAll(w http.ResponseWriter, r *http.Request) {
	batch, ok := s.batch(w, r)
	if !ok {
		return
	}

	batch.GeocodeAll()
	render.Status(r, http.StatusAccepted)
	s.reply(w, r, batch)
}

func (s *Server) regeocodeRow(w http.ResponseWriter, r *http.Request) {
	batch, rowNumber, ok := s.batchRow(w, r)
	if !ok {
		return
	}

	var req regeocodeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	if err := batch.RegeocodeRow(rowNumber, req.AddressString); err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	s.reply(w, r, batch)
}

func (s *Server) updateNotes(w http.ResponseWriter, r *http.Request) {
	batch, rowNumber, ok := s.batchRow(w, r)
	if !ok {
		return
	}

	var req notesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	if err := batch.UpdateNotes(rowNumber, req.Notes); err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}

	s.reply(w, r, batch)
}

func (s *Server) deleteRow(w http.ResponseWriter, r *http.Request) {
	batch, rowNumber, ok := s.batchRow(w, r)
	if !ok {
		return
	}

	if err := batch.DeleteRow(rowNumber); err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}

	s.reply(w, r, batch)
}

func (s *Server) exportBatch(w http.ResponseWriter, r *http.Request) {
	batch, ok := s.batch(w, r)
	if !ok {
		return
	}

	format := service.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = service.ExportCSV
	}

	var buf bytes.Buffer
	err := batch.Export(&buf, format, r.URL.Query().Get("delimiter"))
	if errors.Is(err, service.ErrUnsupportedType) || errors.Is(err, table.ErrInvalidDelimiter) {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	if _, err = buf.WriteTo(w); err != nil {
		s.log.ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) (*service.Batch, bool) {
	batch, err := s.manager.Get(chi.URLParam(r, "batchID"))
	if err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return nil, false
	}

	return batch, true
}

func (s *Server) batchRow(w http.ResponseWriter, r *http.Request) (*service.Batch, int, bool) {
	rowNumber, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || rowNumber < 1 {
		s.fail(w, r, http.StatusBadRequest, errInvalidRow)
		return nil, 0, false
	}

	batch, ok := s.batch(w, r)
	if !ok {
		return nil, 0, false
	}

	return batch, rowNumber, true
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, batch *service.Batch) {
	if err := render.Render(w, r, BatchReply{Snapshot: batch.Snapshot()}); err != nil {
		s.log.ErrorContext(r.Context(), "failed to render reply", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.log.WarnContext(r.Context(), "Request failed", "path", r.URL.Path, "status", status, "error", err)

	if errRender := render.Render(w, r, ErrReply{StatusCode: status, Error: err.Error()}); errRender != nil {
		s.log.ErrorContext(r.Context(), "failed to render error", "error", errRender)
	}
}
