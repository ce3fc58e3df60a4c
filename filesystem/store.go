// Package filesystem provides the sandboxed directory backend for scopefs.
// Every path goes through an os.Root, so lexical tricks and symlinks alike
// are stopped at the root boundary. Writes are atomic (temp file and
// rename) and report a SHA-256 digest of what was stored.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/scopefs"
)

// StagingDir holds in-flight uploads. It is created inside the upload root
// on first write and is never listed or served.
const StagingDir = ".scopefs-tmp"

// Store provides sandboxed file system operations.
type Store struct {
	root *os.Root
	name string
}

// NewStore creates a new Store over the given root.
// The root provides sandboxed file operations preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{
		root: root,
		name: filepath.Base(filepath.Clean(root.Name())),
	}
}

// Name returns the base name of the root directory.
func (s *Store) Name() string {
	return s.name
}

// Open resolves path to a *scopefs.File or *scopefs.Directory. Missing
// paths map to scopefs.ErrNotFound, refused ones to scopefs.ErrPermissionDenied.
func (s *Store) Open(ctx context.Context, path string) (scopefs.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if isStaged(path) {
		return nil, fmt.Errorf("open %s: %w", path, scopefs.ErrNotFound)
	}

	f, err := s.root.Open(rootPath(path))
	if err != nil {
		return nil, mapOpenError(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", mapOpenError(err))
	}

	if info.IsDir() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close directory", "path", path, "err", closeErr)
		}
		return &scopefs.Directory{Path: path}, nil
	}

	return &scopefs.File{Path: path, Handle: f, Info: info}, nil
}

// ReadDir lists the children of path in enumeration order. A child that
// cannot be stat'ed fails the whole listing.
func (s *Store) ReadDir(ctx context.Context, path string) ([]scopefs.EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if isStaged(path) {
		return nil, fmt.Errorf("read dir %s: %w", path, scopefs.ErrNotFound)
	}

	dir, err := s.root.Open(rootPath(path))
	if err != nil {
		return nil, fmt.Errorf("read dir: %w: %w", scopefs.ErrIO, err)
	}
	defer func() {
		if closeErr := dir.Close(); closeErr != nil {
			slog.Warn("failed to close directory", "path", path, "err", closeErr)
		}
	}()

	dirEntries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w: %w", scopefs.ErrIO, err)
	}

	infos := make([]scopefs.EntryInfo, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.Name() == StagingDir {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("read dir: stat %s: %w: %w", entry.Name(), scopefs.ErrIO, err)
		}

		modified := info.ModTime()
		infos = append(infos, scopefs.EntryInfo{
			Name:     entry.Name(),
			IsDir:    info.IsDir(),
			Size:     info.Size(),
			Created:  birthTime(dir, entry.Name(), info),
			Modified: &modified,
		})
	}

	return infos, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to dst using a temp file in StagingDir
// and a rename. It creates intermediate directories as needed and returns
// the number of bytes written along with the SHA-256 digest. Concurrent
// writers to the same path race on the final rename; the last one wins.
func (s *Store) Write(ctx context.Context, dst string, content io.Reader) (scopefs.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return scopefs.SaveResult{}, ctxErr
	}

	if isStaged(dst) {
		return scopefs.SaveResult{}, fmt.Errorf("write %s: %w", dst, scopefs.ErrPermissionDenied)
	}

	if err := s.root.MkdirAll(StagingDir, 0o700); err != nil {
		return scopefs.SaveResult{}, fmt.Errorf("could not create staging directory: %w", mapWriteError(err))
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return scopefs.SaveResult{}, fmt.Errorf("could not open temp file: %w", mapWriteError(createErr))
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, ioErrWriter{t})

	written, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return scopefs.SaveResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err = t.Sync(); err != nil {
		return scopefs.SaveResult{}, fmt.Errorf("could not sync written file: %w: %w", scopefs.ErrIO, err)
	}

	if err = t.Close(); err != nil {
		return scopefs.SaveResult{}, fmt.Errorf("could not close written file: %w: %w", scopefs.ErrIO, err)
	}

	destDir := path.Dir(dst)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return scopefs.SaveResult{}, fmt.Errorf("could not create intermediate directories: %w", mapWriteError(err))
		}
	}

	if renameErr := s.root.Rename(tmpFile, dst); renameErr != nil {
		return scopefs.SaveResult{}, fmt.Errorf("failed to rename file: %w", mapWriteError(renameErr))
	}

	success = true

	return scopefs.SaveResult{BytesWritten: written, Digest: hex.EncodeToString(h.Sum(nil))}, nil
}

func rootPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}

func mapOpenError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", scopefs.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", scopefs.ErrPermissionDenied, err)
	default:
		return err
	}
}

func mapWriteError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", scopefs.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", scopefs.ErrIO, err)
}

// ioErrWriter tags failures of the destination as ErrIO so they are not
// confused with errors coming from the request body.
type ioErrWriter struct {
	w io.Writer
}

func (e ioErrWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %w", scopefs.ErrIO, err)
	}
	return n, nil
}

func tmpFileName() string {
	return StagingDir + "/t" + uuid.New().String()
}

// isStaged reports whether any segment of p names the staging directory.
// A nested upload root can place it below the read root.
func isStaged(p string) bool {
	return slices.Contains(strings.Split(p, "/"), StagingDir)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
