package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dgallion1/docuproof/internal/document"
	"github.com/dgallion1/docuproof/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type analyzeRequest struct {
	ChangeLevel string `json:"changeLevel"`
}

// prepareRun validates an analyze request before any event is sent, so
// input problems surface as plain HTTP errors.
func (s *Server) prepareRun(w http.ResponseWriter, r *http.Request) (pipeline.RunRequest, bool) {
	var body analyzeRequest
	if r.Body != nil {
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return pipeline.RunRequest{}, false
		}
	}
	level, err := document.ParseLevel(body.ChangeLevel)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return pipeline.RunRequest{}, false
	}

	doc, ok := s.loadDocument(w, r, true)
	if !ok {
		return pipeline.RunRequest{}, false
	}
	if len(doc.Chunks) == 0 {
		jsonError(w, pipeline.ErrNoChunks.Error(), http.StatusBadRequest)
		return pipeline.RunRequest{}, false
	}
	if s.analysisInFlight(doc) {
		jsonError(w, "document is already being analyzed", http.StatusConflict)
		return pipeline.RunRequest{}, false
	}

	return pipeline.RunRequest{
		RunID:      uuid.NewString(),
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		Level:      level,
	}, true
}

// analysisInFlight mirrors the store's claim rule. The claim itself is
// still authoritative; this only turns the common case into a 409.
func (s *Server) analysisInFlight(doc *document.Document) bool {
	if doc.Status != document.StatusAnalyzing {
		return false
	}
	if doc.ClaimedAt == nil || s.cfg.RunClaimTTL <= 0 {
		return true
	}
	return time.Since(*doc.ClaimedAt) < s.cfg.RunClaimTTL
}

// handleAnalyzeStream runs the analysis inline and streams each event as
// a server-sent event. The run is not tied to the request: a client that
// disconnects stops receiving events but the run still completes.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.prepareRun(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	sink := &sseSink{w: w, rc: rc}
	_, err := s.orchestrator.Runner().Run(s.orchestrator.Context(), req, sink)
	if err != nil {
		s.log.Info("streamed analysis ended with error", "run_id", req.RunID, "error", err)
	}
}

func (s *Server) handleAnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := s.prepareRun(w, r)
	if !ok {
		return
	}
	runID, err := s.orchestrator.Submit(req)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":   runID,
		"status":   pipeline.RunQueued,
		"poll_url": fmt.Sprintf("/api/runs/%s", runID),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	runs := s.orchestrator.Runner().Runs()
	if runs == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	snap, ok := runs.Get(runID)
	// Other owners' runs are reported as missing.
	if !ok || snap.OwnerID != OwnerFrom(r.Context()) {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// sseSink writes each event as one "data: <json>" frame.
type sseSink struct {
	w  io.Writer
	rc *http.ResponseController
}

func (s *sseSink) Emit(e pipeline.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.EventType(), err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
