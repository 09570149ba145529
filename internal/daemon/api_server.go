package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"adscope/internal/api"
	"adscope/internal/config"
	"adscope/internal/extractor"
	"adscope/internal/logging"
	"adscope/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address not configured")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/extract", srv.handleExtract)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/api/records", srv.handleRecords)
	mux.HandleFunc("/api/records/", srv.handleRecord)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// handleExtract accepts a single-file multipart upload and responds with the
// extracted FeatureRecord.
func (s *apiServer) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "extract", "method not allowed", nil))
		return
	}
	requestID := uuid.NewString()
	ctx := services.WithRequestID(r.Context(), requestID)
	r = r.WithContext(ctx)
	logger := logging.WithContext(ctx, s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, s.daemon.cfg.Limits.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "read upload",
				fmt.Sprintf("payload exceeds %d bytes", maxErr.Limit), nil))
			return
		}
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "read upload", "missing file field", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "read upload", "", err))
		return
	}

	if store := s.daemon.store; store != nil {
		if cached, err := store.Get(ctx, extractor.AdID(data)); err == nil {
			logger.Info("record cache hit",
				logging.String("ad_id", cached.AdID),
				logging.String("modality", cached.Media.Modality))
			s.writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	started := time.Now()
	record, err := s.daemon.assembler.Extract(ctx, data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		logger.Warn("extraction failed",
			logging.String("filename", header.Filename),
			logging.Error(err))
		s.writeError(w, r, err)
		return
	}

	if store := s.daemon.store; store != nil {
		if err := store.Save(ctx, record); err != nil {
			// Caching is best effort; the record still goes to the caller.
			logger.Warn("record cache write failed", logging.Error(err))
		}
	}

	logger.Info("extraction complete",
		logging.String("ad_id", record.AdID),
		logging.String("modality", record.Media.Modality),
		logging.Duration("elapsed", time.Since(started)))
	s.writeJSON(w, http.StatusOK, record)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "health", "method not allowed", nil))
		return
	}
	health := api.HealthResponse{
		Status:  "ok",
		Version: api.Version,
		Endpoints: []string{
			"POST /extract",
			"GET /health",
			"GET /api/records",
			"GET /api/records/{ad_id}",
			"DELETE /api/records",
			"DELETE /api/records/{ad_id}",
		},
		Deps: s.daemon.depStatus,
	}
	if store := s.daemon.store; store != nil {
		count, err := store.Count(r.Context())
		if err != nil {
			s.logger.Warn("record count failed", logging.Error(err))
		}
		health.Records = &api.RecordsInfo{Enabled: true, Count: count}
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *apiServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	store := s.daemon.store
	if store == nil {
		s.writeError(w, r, services.Wrap(services.ErrNotFound, "api", "records", "record cache disabled", nil))
		return
	}
	switch r.Method {
	case http.MethodGet:
		records, err := store.List(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, records)
	case http.MethodDelete:
		if err := store.Clear(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "records", "method not allowed", nil))
	}
}

func (s *apiServer) handleRecord(w http.ResponseWriter, r *http.Request) {
	store := s.daemon.store
	if store == nil {
		s.writeError(w, r, services.Wrap(services.ErrNotFound, "api", "record", "record cache disabled", nil))
		return
	}
	adID := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if adID == "" || strings.Contains(adID, "/") {
		s.writeError(w, r, services.Wrap(services.ErrNotFound, "api", "record", "record not found", nil))
		return
	}
	switch r.Method {
	case http.MethodGet:
		record, err := store.Get(r.Context(), adID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, record)
	case http.MethodDelete:
		if err := store.Delete(r.Context(), adID); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "record", "method not allowed", nil))
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID, _ := services.RequestIDFromContext(r.Context())
	status := services.HTTPStatus(err)
	if status == http.StatusOK {
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: api.ErrorDetail{
		Code:      services.ErrorCode(err),
		Message:   err.Error(),
		RequestID: requestID,
	}})
}
