package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	obslogger "github.com/spyai-labs/etl-gcp-splash/internal/observability/logger"
	obstracing "github.com/spyai-labs/etl-gcp-splash/internal/observability/tracing"
	"github.com/spyai-labs/etl-gcp-splash/internal/pipeline"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"go.uber.org/zap"
)

const (
	runStatusRunning   = "running"
	runStatusSucceeded = "succeeded"
	runStatusFailed    = "failed"
)

type startRunRequest struct {
	SyncMode string   `json:"sync_mode"`
	Sources  []string `json:"sources"`
}

type runState struct {
	RunID      string          `json:"run_id"`
	SyncMode   syncwindow.Mode `json:"sync_mode"`
	Sources    []string        `json:"sources"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type runResponse struct {
	runState
	Records []jobstatus.Record `json:"records"`
}

func (s *Server) StartRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	resolved, sources, err := s.runner.Resolve(pipeline.Request{
		Mode:    syncwindow.Mode(strings.TrimSpace(req.SyncMode)),
		Sources: req.Sources,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = string(src)
	}
	resolved.Sources = names

	state, err := s.begin(resolved)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.wg.Add(1)
	go s.execute(resolved)

	c.Set(obstracing.RunIDKey, state.RunID)
	c.Set(obstracing.SourcesKey, state.Sources)
	c.JSON(http.StatusAccepted, state)
}

func (s *Server) GetRun(c *gin.Context) {
	runID := strings.TrimSpace(c.Param("run_id"))
	if runID == "" {
		AbortWithError(c, jobstatus.ErrInvalidRunID)
		return
	}

	state, known := s.lookup(runID)
	records, err := s.status.ListByRun(c.Request.Context(), runID)
	if err != nil {
		storeMiss := errors.Is(err, jobstatus.ErrRunNotFound) || errors.Is(err, jobstatus.ErrStoreDisabled)
		if !known || !storeMiss {
			AbortWithError(c, err)
			return
		}
		records = nil
	}

	if !known {
		state = stateFromRecords(runID, records)
	}
	if records == nil {
		records = []jobstatus.Record{}
	}
	c.Set(obstracing.SourcesKey, state.Sources)
	c.JSON(http.StatusOK, runResponse{runState: state, Records: records})
}

func (s *Server) begin(req pipeline.Request) (runState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != "" {
		return runState{}, ErrConflict
	}
	state := &runState{
		RunID:     req.RunID,
		SyncMode:  req.Mode,
		Sources:   req.Sources,
		Status:    runStatusRunning,
		StartedAt: s.clock.Now(),
	}
	s.runs[req.RunID] = state
	s.active = req.RunID
	return *state, nil
}

func (s *Server) execute(req pipeline.Request) {
	defer s.wg.Done()
	log := obslogger.WithRun(s.log, req.RunID, string(req.Mode))
	log.Info("server.run.start", zap.Strings("sources", req.Sources))

	_, err := s.runner.Run(s.ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.runs[req.RunID]
	finished := s.clock.Now()
	state.FinishedAt = &finished
	state.Status = runStatusSucceeded
	if err != nil {
		state.Status = runStatusFailed
		state.Error = err.Error()
		log.Warn("server.run.failed", zap.Error(err))
	} else {
		log.Info("server.run.done")
	}
	if s.active == req.RunID {
		s.active = ""
	}
}

func (s *Server) lookup(runID string) (runState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.runs[runID]
	if !ok {
		return runState{}, false
	}
	return *state, true
}

// stateFromRecords rebuilds a summary for runs started by another process.
func stateFromRecords(runID string, records []jobstatus.Record) runState {
	state := runState{RunID: runID, Status: runStatusSucceeded}
	seen := map[string]bool{}
	for _, r := range records {
		if state.StartedAt.IsZero() || r.RunTime.Before(state.StartedAt) {
			state.StartedAt = r.RunTime
		}
		state.SyncMode = syncwindow.Mode(r.SyncMode)
		if r.Object == jobstatus.ObjectAll {
			if !seen[r.Source] {
				seen[r.Source] = true
				state.Sources = append(state.Sources, r.Source)
			}
			if r.Status == jobstatus.StatusFailure {
				state.Status = runStatusFailed
			}
		}
	}
	return state
}
