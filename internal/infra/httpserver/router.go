package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/pipeline"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/document"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/report"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/session"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/storage"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/middleware"
)

// Runner executes one pipeline run against an emitter.
type Runner interface {
	Run(ctx context.Context, req analysis.Request, opts pipeline.RunOptions, em *pipeline.Emitter)
}

// Options wires the router. Reports, Archive and RateLimiter are optional.
type Options struct {
	Pipeline  Runner
	Sessions  session.Store
	Reports   report.Repository
	Extractor document.Extractor
	Archive   document.ArchiveStore
	Clock     application.Clock
	Logger    *zap.Logger

	Version            string
	MaxUploadBytes     int64
	CancelOnDisconnect bool
	PipelineTimeout    time.Duration
	CORSOrigins        []string
	APIKeys            []string
	RateLimiter        *middleware.RateLimiter
	HealthCheckers     map[string]middleware.HealthChecker
}

type Router struct {
	opts Options
	log  *zap.Logger
}

func NewRouter(opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = document.MaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = application.SystemClock{}
	}
	r := &Router{opts: opts, log: opts.Logger.Named("httpserver")}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Metrics)
	mux.Use(middleware.Logging(opts.Logger))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Session-ID"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimiter != nil {
		mux.Use(opts.RateLimiter.Middleware)
	}

	mux.Get("/", r.wrap(r.handleRoot))
	mux.Get("/health", middleware.HealthHandler(opts.Version, opts.HealthCheckers))
	mux.Handle("/metrics", middleware.MetricsHandler())

	for _, p := range []string{"/analyze", "/analyze/"} {
		mux.Post(p, r.wrap(r.handleUpload(pipeline.ModeFull)))
	}
	for _, p := range []string{"/demo", "/demo/"} {
		mux.Post(p, r.wrap(r.handleUpload(pipeline.ModeDemo)))
	}
	mux.Get("/session/{id}", r.wrap(r.handleGetSession))
	mux.Delete("/session/{id}", r.wrap(r.handleDeleteSession))
	mux.Get("/reports", r.wrap(r.handleReports))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, detail := statusFor(err)
		if status == http.StatusInternalServerError {
			r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
		}
		_ = writeJSON(w, status, map[string]string{"detail": detail})
	}
}

func statusFor(err error) (int, string) {
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, document.ErrTooLarge), errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10MB."
	case errors.Is(err, document.ErrNotExtractable):
		return http.StatusBadRequest, "Could not extract meaningful text from the file. Please ensure the file contains readable text."
	case errors.Is(err, document.ErrUnsupportedType), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "AI quota exceeded, please try again later"
	}
	return http.StatusInternalServerError, "Internal server error"
}

var errBadRequest = errors.New("bad request")

// writeJSON encodes before touching the header so an unencodable value
// still surfaces as a 500 through wrap.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
	return nil
}

// GET /
func (r *Router) handleRoot(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]any{
		"message": "Legalyze AI Backend",
		"status":  "running",
		"version": r.opts.Version,
		"features": []string{
			"legal document analysis",
			"risk detection",
			"clause checking",
			"guardrails",
			"streaming progress",
		},
	})
}

// POST /analyze and POST /demo (multipart, field "file")
func (r *Router) handleUpload(mode pipeline.Mode) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		// multipart framing adds a little on top of the file itself
		req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxUploadBytes+64<<10)

		up, err := r.receive(req)
		if up != nil {
			defer up.cleanup()
		}
		if err != nil {
			return err
		}

		text, err := r.opts.Extractor.Extract(req.Context(), up.path)
		if err != nil {
			return err
		}

		sessionID := uuid.New()
		opts := pipeline.RunOptions{Mode: mode}
		if mode == pipeline.ModeFull && r.opts.Archive != nil {
			opts.DocumentURL = r.archive(req.Context(), up, sessionID)
		}

		ctx, cancel := r.runContext(req)
		defer cancel()

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		h.Set("X-Session-ID", sessionID.String())
		w.WriteHeader(http.StatusOK)

		em := pipeline.NewEmitter(w, r.opts.Clock)
		r.opts.Pipeline.Run(ctx, analysis.Request{
			Text:      text,
			Filename:  up.filename,
			SessionID: sessionID,
		}, opts, em)
		return nil
	}
}

// runContext detaches the pipeline from the client unless configured otherwise.
func (r *Router) runContext(req *http.Request) (context.Context, context.CancelFunc) {
	ctx := req.Context()
	if !r.opts.CancelOnDisconnect {
		ctx = context.WithoutCancel(ctx)
	}
	if r.opts.PipelineTimeout > 0 {
		return context.WithTimeout(ctx, r.opts.PipelineTimeout)
	}
	return context.WithCancel(ctx)
}

type upload struct {
	filename string
	path     string
	size     int64
}

func (u *upload) cleanup() {
	if u.path != "" {
		_ = os.Remove(u.path)
	}
}

// receive streams the "file" part into an isolated temp file.
func (r *Router) receive(req *http.Request) (*upload, error) {
	mr, err := req.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: expected multipart/form-data with a file field", errBadRequest)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: no file uploaded", errBadRequest)
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		return r.save(part)
	}
}

func (r *Router) save(part *multipart.Part) (*upload, error) {
	defer part.Close()

	filename := middleware.SanitizeFilename(part.FileName())
	if err := middleware.ValidateUpload(filename); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "legalyze-*"+document.Ext(filename))
	if err != nil {
		return nil, err
	}
	up := &upload{filename: filename, path: f.Name()}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(part, r.opts.MaxUploadBytes+1))
	if err != nil {
		return up, err
	}
	if n > r.opts.MaxUploadBytes {
		return up, document.ErrTooLarge
	}
	up.size = n

	if err := middleware.ValidateContent(filename, f); err != nil {
		return up, err
	}
	return up, nil
}

// archive stores the original upload; failures only cost the document URL.
func (r *Router) archive(ctx context.Context, up *upload, id uuid.UUID) string {
	url, err := r.opts.Archive.Upload(ctx, up.path, storage.SessionKey(id.String(), up.filename))
	if err != nil {
		r.log.Warn("archive upload failed", zap.String("session_id", id.String()), zap.Error(err))
		return ""
	}
	return url
}

// GET /session/{id}
func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	id, err := sessionParam(req)
	if err != nil {
		return err
	}
	rec, err := r.opts.Sessions.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// DELETE /session/{id}
func (r *Router) handleDeleteSession(w http.ResponseWriter, req *http.Request) error {
	id, err := sessionParam(req)
	if err != nil {
		return err
	}
	if err := r.opts.Sessions.Delete(req.Context(), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted"})
}

// malformed ids cannot exist in the store
func sessionParam(req *http.Request) (string, error) {
	id, err := middleware.ValidateSessionID(chi.URLParam(req, "id"))
	if err != nil {
		return "", session.ErrNotFound
	}
	return id.String(), nil
}

// GET /reports?page=&page_size=
func (r *Router) handleReports(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	page, size = middleware.ValidatePage(page), middleware.ValidateLimit(size)

	list := []*report.Report{}
	if r.opts.Reports != nil {
		got, err := r.opts.Reports.Paginate(req.Context(), page, size)
		if err != nil {
			return err
		}
		if got != nil {
			list = got
		}
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"page":      page,
		"page_size": size,
		"reports":   list,
	})
}
