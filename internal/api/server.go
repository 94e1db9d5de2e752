package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docudive/internal/config"
	"docudive/internal/models"
	"docudive/internal/rag"
	"docudive/internal/service"
	"docudive/internal/util"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

// Backend serves the read side and uploads. *service.Service implements it.
type Backend interface {
	ListFiles(ctx context.Context) ([]models.StoredFile, error)
	UploadFile(ctx context.Context, name string, r io.Reader) (service.UploadResult, error)
	Query(ctx context.Context, question string) (rag.Answer, error)
	Inspect(ctx context.Context, n int) (service.StoreStatus, error)
}

// JobRunner runs the store writers. It is the service itself in inline mode
// and a workflows.Dispatcher in temporal mode.
type JobRunner interface {
	Ingest(ctx context.Context, opts service.IngestOptions) (service.IngestResult, error)
	Clear(ctx context.Context) (service.ClearResult, error)
}

type Server struct {
	cfg     config.Config
	backend Backend
	jobs    JobRunner
	logger  *log.Logger
}

type queryResult struct {
	ID         string  `json:"id"`
	SourcePath string  `json:"source_path"`
	PageNumber int     `json:"page_number"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}

const maxPeek = 100

func NewServer(cfg config.Config, backend Backend, jobs JobRunner, logger *log.Logger) *Server {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Server{cfg: cfg, backend: backend, jobs: jobs, logger: logger}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/files", s.handleFiles)
	mux.HandleFunc("/ingest", s.handleIngest)
	mux.HandleFunc("/clear", s.handleClear)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/store", s.handleStore)
	return s.withRequestLog(withCORS(s.cfg.CORSOrigin, mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		files, err := s.backend.ListFiles(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if files == nil {
			files = []models.StoredFile{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": files})
	case http.MethodPost:
		s.handleUpload(w, r)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			files = append(files, single)
		}
	}
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	uploaded := make([]service.UploadResult, 0, len(files))
	rejected := make([]string, 0)
	for _, fh := range files {
		if !util.IsPDF(fh.Filename) {
			rejected = append(rejected, fh.Filename)
			continue
		}
		res, err := s.saveUploadedFile(r.Context(), fh)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		uploaded = append(uploaded, res)
	}
	if len(uploaded) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no PDF files provided"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploaded": uploaded, "rejected": rejected})
}

func (s *Server) saveUploadedFile(ctx context.Context, fh *multipart.FileHeader) (service.UploadResult, error) {
	src, err := fh.Open()
	if err != nil {
		return service.UploadResult{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	return s.backend.UploadFile(ctx, fh.Filename, src)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	reset, err := boolParam(r, "reset")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	sync, err := boolParam(r, "sync")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.jobs.Ingest(r.Context(), service.IngestOptions{Reset: reset, Sync: sync})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	res, err := s.jobs.Clear(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}

	ans, err := s.backend.Query(r.Context(), req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	results := make([]queryResult, 0, len(ans.Results))
	for _, res := range ans.Results {
		results = append(results, queryResult{
			ID:         res.Chunk.ID,
			SourcePath: res.Chunk.SourcePath,
			PageNumber: res.Chunk.PageNumber,
			Score:      res.Score,
			Snippet:    util.QuerySnippet(res.Chunk.Text, req.Query, 280),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"response": ans.Response,
		"answer":   ans.Text,
		"sources":  ans.Sources,
		"results":  results,
	})
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	peek := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("peek")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("peek must be a non-negative integer"))
			return
		}
		peek = min(n, maxPeek)
	}
	st, err := s.backend.Inspect(r.Context(), peek)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return v, nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

// fail logs err with the request id and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ev := s.logger.Warn()
	if status >= 500 {
		ev = s.logger.Error()
	}
	ev.Err(err).Str("request_id", w.Header().Get("X-Request-ID")).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	writeErr(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrIngestRunning):
		return http.StatusConflict
	case errors.Is(err, util.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, util.ErrEmbeddingUnavailable), errors.Is(err, util.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "DD-API-4000"

	switch {
	case errors.Is(err, util.ErrEmbeddingUnavailable):
		return apiError{Code: "DD-PRV-5021", Message: "Embedding provider unavailable. Retry shortly."}
	case errors.Is(err, util.ErrGeneration):
		return apiError{Code: "DD-PRV-5022", Message: "Answer generation failed. Retry shortly."}
	case errors.Is(err, util.ErrStoreWrite):
		return apiError{Code: "DD-STO-5001", Message: "Vector store write failed. Nothing was stored; retry the ingestion."}
	case errors.Is(err, util.ErrConfiguration):
		return apiError{Code: "DD-CFG-5001", Message: "Service is misconfigured. Check configuration and service logs."}
	case errors.Is(err, util.ErrIngestRunning):
		return apiError{Code: "DD-API-4009", Message: "An ingestion or clear is already running. Retry after it finishes."}
	}

	switch {
	case status == http.StatusGatewayTimeout:
		return apiError{Code: "DD-API-5040", Message: "Request timed out."}
	case status >= 500:
		return apiError{Code: "DD-API-5000", Message: "Internal server error. Please retry or check service logs."}
	case status == http.StatusBadRequest:
		code = "DD-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "DD-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "DD-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "query is required"):
			msg = "Query text is required."
		case strings.Contains(low, "no files provided"), strings.Contains(low, "no pdf files provided"):
			msg = "No PDF files were provided."
		case strings.Contains(low, "only .pdf files"):
			msg = "Only PDF files are accepted."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(low, "parameter"), strings.Contains(low, "peek must be"):
			msg = "Invalid query parameter."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("request")
	})
}
