package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/clinicroster/internal/core"
)

// multipartOverhead is the allowance for form fields and part headers on
// top of the file size cap.
const multipartOverhead = 1 << 20

// handleImport runs an import from a multipart upload.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, false)
}

// handleValidate runs the same pipeline as handleImport without saving.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, true)
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, forceDryRun bool) {
	tenantID := chi.URLParam(r, "tenantID")

	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts, err := importOptions(r, forceDryRun)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	report, err := s.service.Import(ctx, tenantID, name, data, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, report.Summary())
}

// readUpload reads the "file" part, bounded by the configured size cap.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Import.MaxFileSize
	if maxSize <= 0 {
		maxSize = core.DefaultMaxFileSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return "", nil, &core.FileError{Err: core.ErrFileTooLarge}
		}
		return "", nil, errNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer file.Close()

	// One byte past the cap is enough for CheckFile to reject it.
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

// importOptions reads duplicateStrategy, duplicateField and dryRun from the
// form or query string.
func importOptions(r *http.Request, forceDryRun bool) (core.Options, error) {
	dryRun := forceDryRun
	if v := r.FormValue("dryRun"); v != "" && !forceDryRun {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return core.Options{}, &core.OptionError{Name: "dryRun", Value: v}
		}
		dryRun = b
	}
	return core.ParseOptions(r.FormValue("duplicateStrategy"), r.FormValue("duplicateField"), dryRun)
}

// handleImportStatus reports import slot usage.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}
