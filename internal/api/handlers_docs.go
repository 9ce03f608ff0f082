package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docuproof/internal/document"
	"github.com/dgallion1/docuproof/internal/parser"
	"github.com/dgallion1/docuproof/internal/pipeline"
	"github.com/dgallion1/docuproof/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	mimeType := header.Header.Get("Content-Type")
	if _, err := parser.Select(mimeType, filename, false); err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
			mimeType = byExt
		}
	}

	doc, err := s.ingester.Ingest(r.Context(), pipeline.Upload{
		OwnerID:  OwnerFrom(r.Context()),
		Filename: filename,
		MIMEType: mimeType,
		Data:     data,
		Title:    r.FormValue("title"),
	})
	switch {
	case errors.Is(err, parser.ErrUnsupportedType):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, pipeline.ErrExtraction):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		s.log.Error("ingest failed", "file", filename, "error", err)
		jsonError(w, "failed to store document", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, doc.Summary())
}

// handleListDocuments lists the caller's documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListByOwner(r.Context(), OwnerFrom(r.Context()))
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]document.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r, true)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), doc.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": doc.ID})
}

// loadDocument fetches {docID} and checks access. Readers need the
// document to be theirs or public; writers must own it. On failure the
// response has been written.
func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request, write bool) (*document.Document, bool) {
	docID := chi.URLParam(r, "docID")
	doc, err := s.store.Get(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, "failed to load document: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}

	owner := OwnerFrom(r.Context())
	allowed := doc.VisibleTo(owner)
	if write {
		allowed = doc.OwnerID == owner
	}
	if !allowed {
		jsonError(w, "access denied", http.StatusForbidden)
		return nil, false
	}
	return doc, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
