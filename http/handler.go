package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/metrics"
)

// APIPrefix is the mount point of the file API.
const APIPrefix = "/api/v1"

type Service interface {
	Get(ctx context.Context, rawPath string, sort scopefs.SortKey) (scopefs.Resource, error)
	Ingest(ctx context.Context, req scopefs.UploadRequest) (scopefs.UploadResult, error)
	CacheDirective() scopefs.CacheDirective
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// Mode selects the error presentation; static and spa answer missing
	// paths with an HTML page.
	Mode scopefs.ServerMode
	// MaxUploadSize caps an upload body in bytes; 0 means unlimited.
	MaxUploadSize int64
	CORS          CORSConfig
	BasicAuth     BasicAuthConfig
	Gzip          bool
	Metrics       bool
	// Middlewares run in order, outermost first, after the built-in
	// request id, logging and recovery middlewares.
	Middlewares []func(http.Handler) http.Handler
}

// Handler provides HTTP handlers for browsing, streaming and uploading files.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes and middlewares mounted.
// GET resolves a path to a directory index or a file stream, POST ingests
// an upload into the directory named by the path.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.Metrics {
		r.Use(MetricsMiddleware)
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(h.config.Middlewares...)

	r.Group(func(r chi.Router) {
		r.Use(BasicAuthMiddleware(h.config.BasicAuth))
		if h.config.Gzip {
			r.Use(middleware.Compress(5))
		}
		r.Use(middleware.GetHead)

		if h.config.Metrics {
			r.Handle("/metrics", metrics.Handler())
		}
		r.Get(APIPrefix, h.handleGet)
		r.Get(APIPrefix+"/*", h.handleGet)
		r.Post(APIPrefix, h.handleUpload)
		r.Post(APIPrefix+"/*", h.handleUpload)
	})

	return r
}

// requestPath returns the still-escaped path below APIPrefix.
func requestPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.EscapedPath(), APIPrefix)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sort := scopefs.ParseSortBy(r.URL.Query().Get("sort_by"))

	res, err := h.service.Get(r.Context(), requestPath(r), sort)
	if err != nil {
		if (h.config.Mode == scopefs.ModeStatic || h.config.Mode == scopefs.ModeSPA) && errors.Is(err, scopefs.ErrNotFound) {
			slog.Debug("request error", "error", err)
			writeNotFoundPage(w)
			return
		}
		HandleError(w, err)
		return
	}

	if res.File != nil {
		h.streamFile(w, r, res.File)
		return
	}

	_ = WriteJSON(w, http.StatusOK, res.Index)
	metrics.RecordIndex(time.Since(start), len(res.Index.Entries))
}

// streamFile writes f in fixed-size chunks. Headers are derived from the
// metadata captured at resolution time. A read failure after the status
// line has been sent aborts the connection, so the client sees a truncated
// body rather than a clean end.
func (h *Handler) streamFile(w http.ResponseWriter, r *http.Request, f *scopefs.File) {
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close file", "path", f.Path, "err", err)
		}
	}()

	headers := scopefs.NewResponseHeaders(f, h.service.CacheDirective())
	headers.Apply(w.Header())
	w.Header().Set("Accept-Ranges", "none")

	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, headers.ETag) {
		w.Header().Del("Content-Length")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	chunks := scopefs.NewChunkReader(r.Context(), f.Handle, scopefs.DefaultChunkSize)
	var sent int64
	for {
		chunk, err := chunks.Next()
		if errors.Is(err, io.EOF) {
			metrics.RecordFileStream(sent, true)
			return
		}
		if err != nil {
			metrics.RecordFileStream(sent, false)
			if r.Context().Err() != nil {
				slog.Debug("client went away during stream", "path", f.Path, "sent", sent)
				return
			}
			slog.Error("file stream aborted", "path", f.Path, "sent", sent, "err", err)
			panic(http.ErrAbortHandler)
		}

		n, err := w.Write(chunk)
		sent += int64(n)
		if err != nil {
			metrics.RecordFileStream(sent, false)
			slog.Debug("write to client failed", "path", f.Path, "sent", sent, "err", err)
			return
		}
	}
}

// etagMatches implements the weak comparison of If-None-Match.
func etagMatches(header, etag string) bool {
	if etag == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	fileName, body, err := parseUpload(r)
	if err != nil {
		metrics.RecordUpload(0, false)
		HandleError(w, err)
		return
	}

	result, err := h.service.Ingest(r.Context(), scopefs.UploadRequest{
		Dir:        requestPath(r),
		FileName:   fileName,
		Body:       body,
		RemoteAddr: r.RemoteAddr,
	})
	metrics.RecordUpload(result.BytesWritten, err == nil)
	if err != nil {
		HandleError(w, err)
		return
	}

	slog.Info("upload stored", "path", result.Path, "bytes", result.BytesWritten)
	_ = WriteJSON(w, http.StatusOK, result)
}
