package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/standardbeagle/lcc/internal/completer"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
	"github.com/standardbeagle/lcc/internal/metrics"
	"github.com/standardbeagle/lcc/internal/types"
	"github.com/standardbeagle/lcc/internal/version"
)

// Handler returns the RPC endpoints
func (s *IndexServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/event_notification", s.handleEventNotification)
	mux.HandleFunc("/completions", s.handleCompletions)
	mux.HandleFunc("/ingest", s.handleIngest)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/reindex", s.handleReindex)
	mux.HandleFunc("/shutdown", s.handleShutdown)
	if s.cfg.Server.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusForError maps request validation failures to 400 and everything else to 500
func statusForError(err error) int {
	var reqErr *lccerrors.RequestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, lccerrors.ErrIndexNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// eventLabel keeps the metric's label set bounded
func eventLabel(name types.EventName) string {
	switch name {
	case types.EventFileReadyToParse, types.EventBufferUnload, types.EventInsertLeave, types.EventBufferVisit:
		return string(name)
	default:
		return "other"
	}
}

// handleEventNotification applies an editor event to the index
func (s *IndexServer) handleEventNotification(w http.ResponseWriter, r *http.Request) {
	var req EventNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, EventNotificationResponse{Error: err.Error()})
		return
	}

	event := types.EventName(req.EventName)
	metrics.EventsTotal.WithLabelValues(eventLabel(event)).Inc()

	err := s.completer.HandleEvent(r.Context(), event, completer.Request{
		Filepath:  req.Filepath,
		Filetype:  req.Filetype,
		Contents:  req.Contents,
		LineNum:   req.LineNum,
		ColumnNum: req.ColumnNum,
	})
	if err != nil {
		writeJSON(w, statusForError(err), EventNotificationResponse{Error: err.Error()})
		return
	}
	if event == types.EventFileReadyToParse || event == types.EventBufferUnload {
		s.publishStats()
	}
	writeJSON(w, http.StatusOK, EventNotificationResponse{Success: true})
}

// handleCompletions ranks identifiers for a query
func (s *IndexServer) handleCompletions(w http.ResponseWriter, r *http.Request) {
	var req CompletionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CompletionsResponse{Completions: []completer.Candidate{}, Error: err.Error()})
		return
	}

	if !s.ready() {
		writeJSON(w, http.StatusServiceUnavailable, CompletionsResponse{
			Completions: []completer.Candidate{},
			Error:       lccerrors.ErrIndexNotReady.Error(),
		})
		return
	}

	candidates, err := s.completer.ComputeCandidates(completer.Request{
		Filepath:   req.Filepath,
		Filetype:   req.Filetype,
		Contents:   req.Contents,
		LineNum:    req.LineNum,
		ColumnNum:  req.ColumnNum,
		Query:      req.Query,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		writeJSON(w, statusForError(err), CompletionsResponse{Completions: []completer.Candidate{}, Error: err.Error()})
		return
	}
	if candidates == nil {
		candidates = []completer.Candidate{}
	}
	writeJSON(w, http.StatusOK, CompletionsResponse{Completions: candidates})
}

// ready is false only while the startup scan has not finished
func (s *IndexServer) ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.cfg.Index.ScanOnStart || s.lastScan != nil
}

// handleIngest bulk-loads identifiers supplied by the client
func (s *IndexServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, IngestResponse{Error: err.Error()})
		return
	}

	files := 0
	for _, byPath := range req.Files {
		files += len(byPath)
	}
	s.completer.IngestBatch(req.Files)
	s.publishStats()
	writeJSON(w, http.StatusOK, IngestResponse{Files: files})
}

// handleStatus returns readiness and index statistics
func (s *IndexServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := IndexStatus{
		IndexingActive: s.indexingActive,
		LastScan:       s.lastScan,
	}
	watcher := s.watcher
	s.mu.RUnlock()

	status.Ready = s.ready()
	if watcher != nil {
		ws := watcher.GetStats()
		status.Watch = &ws
	}

	stats := metrics.NewIndexStats()
	stats.CalculateFromDatabase(s.completer.Database())
	status.Stats = stats.FormatAsJSON()

	writeJSON(w, http.StatusOK, status)
}

// handlePing responds to health check requests
func (s *IndexServer) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PingResponse{
		Uptime:  time.Since(s.startTime).Seconds(),
		Version: version.Version,
		BuildID: version.BuildID(),
		Root:    s.cfg.Project.Root,
	})
}

// handleReindex rescans the project in the background
func (s *IndexServer) handleReindex(w http.ResponseWriter, r *http.Request) {
	var req ReindexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Allow empty body
		req = ReindexRequest{}
	}

	rootPath := req.Path
	if rootPath == "" {
		rootPath = s.cfg.Project.Root
	}

	s.mu.RLock()
	busy := s.indexingActive
	s.mu.RUnlock()
	if busy {
		writeJSON(w, http.StatusConflict, ReindexResponse{Message: "scan already in progress"})
		return
	}

	s.startScan(rootPath, false)
	writeJSON(w, http.StatusOK, ReindexResponse{
		Success: true,
		Message: fmt.Sprintf("Re-indexing started for %s", rootPath),
	})
}

// handleShutdown acknowledges, then releases Wait
func (s *IndexServer) handleShutdown(w http.ResponseWriter, r *http.Request) {
	var req ShutdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Allow empty body
		req = ShutdownRequest{}
	}

	writeJSON(w, http.StatusOK, ShutdownResponse{
		Success: true,
		Message: "Server shutting down",
	})
	s.requestShutdown()
}
