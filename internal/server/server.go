package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/roster-matcher/internal/ai"
	"github.com/spigell/roster-matcher/internal/filtering"
	"github.com/spigell/roster-matcher/internal/logger"
	"github.com/spigell/roster-matcher/internal/matcher"
	"github.com/spigell/roster-matcher/internal/roster"
	"github.com/spigell/roster-matcher/internal/utils"
)

const (
	defaultTopK      = 10
	maxTopK          = 100
	defaultMaxUpload = 32 << 20
	shutdownTimeout  = 10 * time.Second
	exportFilename   = "board_matches.xlsx"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Config carries the request-layer settings.
type Config struct {
	DefaultTopK int
	// MaxUploadBytes bounds the multipart body of /upload.
	MaxUploadBytes int64
	Ingest         roster.ParseOptions
	Filters        filtering.Options
}

// Server exposes the matching engine over HTTP.
type Server struct {
	engine *matcher.Engine
	cfg    Config
	logger *zap.Logger

	// writeXLSX renders /export downloads.
	writeXLSX func(io.Writer, []roster.ExportRow) error
}

func New(engine *matcher.Engine, cfg Config, logger *zap.Logger) *Server {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = defaultTopK
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{engine: engine, cfg: cfg, logger: logger, writeXLSX: roster.WriteXLSX}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/match", s.handleMatch)
	mux.HandleFunc("/export", s.handleExport)
	return mux
}

// ListenAndServe serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Roster connection matcher API",
		"endpoints": map[string]string{
			"POST /upload": "Upload roster (.xlsx, .csv, .json)",
			"POST /match":  "Find matching people",
			"POST /export": "Download matches as .xlsx",
			"GET /health":  "Check API status",
		},
	})
}

type healthResponse struct {
	Status         string     `json:"status"`
	DatasetLoaded  bool       `json:"dataset_loaded"`
	DatasetSize    int        `json:"dataset_size"`
	VocabularySize int        `json:"vocabulary_size"`
	LoadedAt       *time.Time `json:"loaded_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}

	resp := healthResponse{Status: "healthy"}
	if ds := s.engine.Dataset(); ds != nil {
		loadedAt := ds.LoadedAt
		resp.DatasetLoaded = true
		resp.DatasetSize = ds.Len()
		resp.VocabularySize = ds.Corpus.VocabularySize()
		resp.LoadedAt = &loadedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

type uploadResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	RowsLoaded  int      `json:"rows_loaded"`
	RowsDropped int      `json:"rows_dropped"`
	Columns     []string `json:"columns"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	log := logger.WithFields(s.logger, logger.UploadFields(filepath.Base(header.Filename), r.RemoteAddr)...)

	parsed, err := roster.Parse(header.Filename, file, s.cfg.Ingest)
	if err != nil {
		log.Warn("parsing roster failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid_roster", err.Error())
		return
	}

	ds, err := s.engine.ReplaceDataset(parsed.Records)
	if err != nil {
		writeFailure(w, err)
		return
	}

	log.Info("roster uploaded", zap.Int("rows", ds.Len()), zap.Int("dropped", parsed.Dropped))

	writeJSON(w, http.StatusOK, uploadResponse{
		Status:      "success",
		Message:     "Dataset uploaded and indexed successfully",
		RowsLoaded:  ds.Len(),
		RowsDropped: parsed.Dropped,
		Columns:     parsed.Columns,
	})
}

type matchRequest struct {
	Query    json.RawMessage `json:"query"`
	TopK     *int            `json:"top_k"`
	MinScore *float64        `json:"min_score"`
}

type matchResult struct {
	Name         string         `json:"name"`
	Employment   string         `json:"employment"`
	BoardService string         `json:"board_service"`
	Score        float64        `json:"score"`
	Rank         int            `json:"rank"`
	AI           *ai.Assessment `json:"ai,omitempty"`
}

type matchResponse struct {
	Query        string        `json:"query"`
	TotalMatches int           `json:"total_matches"`
	Matches      []matchResult `json:"matches"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
		return
	}

	query, err := decodeQuery(req.Query)
	if err != nil {
		writeFailure(w, err)
		return
	}

	topK := s.cfg.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK > maxTopK {
		writeFailure(w, fmt.Errorf("%w: top_k must not exceed %d", matcher.ErrInvalidConfig, maxTopK))
		return
	}

	opts := s.cfg.Filters
	if req.MinScore != nil {
		opts.MinScore = *req.MinScore
	}

	matches, err := s.engine.Match(query, topK)
	if err != nil {
		writeFailure(w, err)
		return
	}

	matches, err = filtering.Build(opts, s.logger).RunFilters(r.Context(), matches)
	if err != nil {
		writeFailure(w, err)
		return
	}

	s.logger.Info("match request served",
		zap.String("query", utils.TruncateForLog(query, 50)),
		zap.Int("top_k", topK),
		zap.Int("matches", matches.Len()),
	)

	resp := matchResponse{
		Query:        query,
		TotalMatches: matches.Len(),
		Matches:      make([]matchResult, 0, matches.Len()),
	}
	for _, m := range matches.Items {
		resp.Matches = append(resp.Matches, matchResult{
			Name:         m.Record.Name,
			Employment:   m.Record.Employment,
			BoardService: m.Record.BoardService,
			Score:        m.Score,
			Rank:         m.Rank,
			AI:           m.AI,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeQuery accepts only a JSON string; anything else is a malformed query.
func decodeQuery(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: query is required", matcher.ErrInvalidQuery)
	}
	// Unmarshal accepts null into a string and leaves it empty.
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", fmt.Errorf("%w: query must be a string", matcher.ErrInvalidQuery)
	}
	var query string
	if err := json.Unmarshal(raw, &query); err != nil {
		return "", fmt.Errorf("%w: query must be a string", matcher.ErrInvalidQuery)
	}
	return query, nil
}

type exportRequest struct {
	Matches []roster.ExportRow `json:"matches"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed json body")
		return
	}
	if len(req.Matches) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "no matches to export")
		return
	}

	var buf bytes.Buffer
	if err := s.writeXLSX(&buf, req.Matches); err != nil {
		s.logger.Error("export failed", zap.Error(err))
		writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("sending export failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func writeError(w http.ResponseWriter, status int, errStr, message string) {
	writeJSON(w, status, apiError{Error: errStr, Message: message, Code: status})
}

// writeFailure maps core errors onto HTTP status codes.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matcher.ErrNoDataset):
		writeError(w, http.StatusConflict, "no_dataset", "No dataset loaded. Please upload a dataset first.")
	case errors.Is(err, matcher.ErrEmptyDataset):
		writeError(w, http.StatusBadRequest, "empty_dataset", err.Error())
	case errors.Is(err, matcher.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, matcher.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, "invalid_config", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", strings.TrimSpace(err.Error()))
	}
}
