package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/config"
	"github.com/sagarc03/scopefs/filesystem"
	scopehttp "github.com/sagarc03/scopefs/http"
	"github.com/sagarc03/scopefs/journal"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the scopefs HTTP server on the configured root.

Modes:
  explorer  JSON directory listings and file downloads
  static    like explorer, but directories with an index.html serve it
  spa       like static, and missing paths serve the root index.html`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 7878, "listen port")
	serveCmd.Flags().String("mode", "explorer", "server mode (explorer, static, spa)")
	serveCmd.Flags().String("cache-control", "max-age=2500", "Cache-Control directive for files")
	serveCmd.Flags().Bool("upload", false, "accept uploads")
	serveCmd.Flags().String("upload-path", "", "directory uploads are written to (default: storage path)")
	serveCmd.Flags().Bool("gzip", false, "compress compressible responses")
	serveCmd.Flags().Bool("metrics", false, "expose Prometheus metrics on /metrics")

	rootCmd.AddCommand(serveCmd)
}

// openRoot opens dir as a sandbox root. The directory must already exist.
func openRoot(dir string) (*os.Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	return os.OpenRoot(abs)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	mode, err := cfg.ServerMode()
	if err != nil {
		return fmt.Errorf("parse server mode: %w", err)
	}

	directive, err := cfg.CacheDirective()
	if err != nil {
		return fmt.Errorf("parse cache control: %w", err)
	}

	root, err := openRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	files := filesystem.NewStore(root)
	serviceCfg := scopefs.ServiceConfig{
		Mode:           mode,
		CacheDirective: directive,
	}

	var uploads scopefs.UploadStorage
	if cfg.Upload.Enabled {
		uploadStore, closeUploads, err := openUploadStore(cfg, root, files)
		if err != nil {
			return err
		}
		defer closeUploads()
		uploads = uploadStore

		if cfg.Journal.Enabled() {
			uploadLog, closeJournal, err := journal.Open(ctx, cfg.Journal)
			if err != nil {
				return fmt.Errorf("open upload journal: %w", err)
			}
			defer closeJournal()
			serviceCfg.Journal = uploadLog
			slog.Info("upload journal ready", "type", cfg.Journal.Type, "table", cfg.Journal.Table)
		}
	}

	service, err := scopefs.NewScopedDirectoryService(files, uploads, serviceCfg)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handler := scopehttp.NewHandler(&scopehttp.HandlerConfig{
		Mode:          mode,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
		BasicAuth:     cfg.Auth.Basic,
		Gzip:          cfg.Compression.Gzip,
		Metrics:       cfg.Metrics.Enabled,
	}, service)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", server.Addr,
		"root", root.Name(),
		"mode", mode,
		"uploads", service.UploadsEnabled(),
		"tls", cfg.TLS.Enabled,
	)

	if cfg.TLS.Enabled {
		err = server.ListenAndServeTLS(cfg.TLS.Cert, cfg.TLS.Key)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// openUploadStore returns the store uploads are written to. Without a
// separate upload path the read root doubles as the upload root.
func openUploadStore(cfg *config.Config, readRoot *os.Root, files *filesystem.Store) (*filesystem.Store, func(), error) {
	if cfg.Upload.Path == "" {
		return files, func() {}, nil
	}

	uploadPath, err := filepath.Abs(cfg.Upload.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve upload path: %w", err)
	}
	if uploadPath == readRoot.Name() {
		return files, func() {}, nil
	}

	if err := os.MkdirAll(uploadPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create upload directory: %w", err)
	}

	root, err := openRoot(uploadPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open upload root: %w", err)
	}

	return filesystem.NewStore(root), func() { _ = root.Close() }, nil
}
