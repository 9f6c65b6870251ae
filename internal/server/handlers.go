package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/classnames/internal/config"
	"github.com/hyperjump/classnames/internal/models"
	"github.com/hyperjump/classnames/pkg/classnames"
	"github.com/hyperjump/classnames/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// logTextLen caps class strings copied into debug logs.
const logTextLen = 120

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "classnames.join", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	var req models.JoinRequest
	if err := s.decode(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid request body")
		s.respondDecodeError(w, err)
		return
	}
	span.SetAttributes(attribute.Int("classnames.fragments", len(req.Fragments)))

	resp, err := req.Evaluate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(
		attribute.Int("classnames.kept", resp.Kept),
		attribute.Int("classnames.dropped", resp.Dropped),
	)
	s.metrics.observeJoin(resp.Kept, resp.Dropped, resp.Class)
	s.logger.Debug("join request",
		zap.String("request_id", RequestIDFrom(ctx)),
		zap.Int("kept", resp.Kept),
		zap.Int("dropped", resp.Dropped),
		zap.String("class", utils.Truncate(resp.Class, logTextLen)),
	)
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "classnames.normalize", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	var req models.NormalizeRequest
	if err := s.decode(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid request body")
		s.respondDecodeError(w, err)
		return
	}
	class := classnames.Normalize(req.Text)
	span.SetAttributes(attribute.Int("classnames.length", len(class)))
	s.metrics.observeClass(class)
	s.logger.Debug("normalize request",
		zap.String("request_id", RequestIDFrom(ctx)),
		zap.String("class", utils.Truncate(class, logTextLen)),
	)
	s.respondJSON(w, http.StatusOK, models.NormalizeResponse{Class: class})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

// StatusResponse describes the running server.
type StatusResponse struct {
	UptimeSeconds float64       `json:"uptime_seconds"`
	Watch         WatchStatus   `json:"watch"`
	Generate      *GenerateInfo `json:"generate,omitempty"`
}

// WatchStatus reports whether generation watching is enabled and where.
type WatchStatus struct {
	Enabled     bool     `json:"enabled"`
	Directories []string `json:"directories"`
}

// GenerateInfo is the generation part of the loaded configuration.
type GenerateInfo struct {
	Directive    string   `json:"directive"`
	OutputSuffix string   `json:"output_suffix"`
	Extensions   []string `json:"extensions"`
	Recursive    bool     `json:"recursive"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		UptimeSeconds: time.Since(s.started).Seconds(),
		Watch:         WatchStatus{Directories: []string{}},
	}
	if s.watch != nil {
		resp.Watch.Enabled = true
		resp.Watch.Directories = s.watch.Directories()
	}
	if s.watchConfig != nil {
		s.watchConfigMu.Lock()
		g := s.watchConfig.Generate
		resp.Generate = &GenerateInfo{
			Directive:    g.Directive,
			OutputSuffix: g.OutputSuffix,
			Extensions:   append([]string(nil), g.Extensions...),
			Recursive:    g.RecursiveOrDefault(),
		}
		s.watchConfigMu.Unlock()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	dirs := s.watch.Directories()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": dirs})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatch()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := s.decode(w, r, &body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatch()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatch writes the current watch directories back to the config file.
func (s *Server) persistWatch() {
	if s.configPath == "" || s.watchConfig == nil {
		return
	}
	s.watchConfigMu.Lock()
	s.watchConfig.Generate.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.watchConfig)
	s.watchConfigMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// decode reads a size-limited JSON body into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// respondDecodeError answers 413 for bodies over maxBodyBytes and 400 otherwise.
func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message})
}
