package scopefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// FileStorage defines the read side of a sandboxed directory tree.
//
// All paths are slash separated and relative to the root; "" is the root
// itself. Implementations must never resolve a path outside the root, not
// even through symlinks.
type FileStorage interface {
	// Open resolves a normalized path to a File or a Directory.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - path: Normalized, root-relative path
	//
	// Returns:
	//   - Entry: *File holding an open handle, or *Directory
	//   - error: ErrNotFound, ErrPermissionDenied, or another wrapped OS error
	//
	// The caller owns the returned *File and must Close it.
	Open(ctx context.Context, path string) (Entry, error)

	// ReadDir lists the immediate children of a directory in the order the
	// OS enumerates them.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - path: Normalized, root-relative directory path
	//
	// Returns:
	//   - []EntryInfo: One element per child, Created nil when unavailable
	//   - error: ErrIO wrapping the failure when the directory or any child
	//     cannot be read
	ReadDir(ctx context.Context, path string) ([]EntryInfo, error)

	// Name returns the base name of the root directory.
	Name() string
}

// UploadStorage defines the write side used by uploads.
type UploadStorage interface {
	// Write streams content into path, creating parent directories.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - path: Normalized, root-relative destination path
	//   - content: Request body, consumed incrementally
	//
	// Returns:
	//   - SaveResult: Bytes written and the SHA-256 digest of the content
	//   - error: Any storage or I/O error
	//
	// Implementations should write to a temporary file and rename it into
	// place, so readers never observe a partial file.
	Write(ctx context.Context, path string, content io.Reader) (SaveResult, error)
}

// Resource is what a GET resolves to: exactly one of File or Index is set.
type Resource struct {
	File  *File
	Index *DirectoryIndex
}

// ServiceConfig holds configuration options for ScopedDirectoryService.
type ServiceConfig struct {
	Mode           ServerMode
	CacheDirective CacheDirective
	// Journal is optional; nil disables upload recording.
	Journal UploadJournal
}

// ScopedDirectoryService ties path resolution, indexing and upload ingest
// to one read root and one upload root.
type ScopedDirectoryService struct {
	files     FileStorage
	uploads   UploadStorage
	mode      ServerMode
	directive CacheDirective
	journal   UploadJournal
}

// NewScopedDirectoryService creates the service. uploads may be nil, in
// which case Ingest always fails with ErrPermissionDenied.
func NewScopedDirectoryService(files FileStorage, uploads UploadStorage, cfg ServiceConfig) (*ScopedDirectoryService, error) {
	if files == nil {
		return nil, fmt.Errorf("new scoped directory service: %w: nil file storage", ErrInvalidInput)
	}
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("new scoped directory service: invalid mode: %s", cfg.Mode)
	}

	directive := cfg.CacheDirective
	if directive == (CacheDirective{}) {
		directive = DefaultCacheDirective
	}

	return &ScopedDirectoryService{
		files:     files,
		uploads:   uploads,
		mode:      cfg.Mode,
		directive: directive,
		journal:   cfg.Journal,
	}, nil
}

// CacheDirective returns the Cache-Control directive applied to files.
func (s *ScopedDirectoryService) CacheDirective() CacheDirective {
	return s.directive
}

// UploadsEnabled reports whether an upload root is configured.
func (s *ScopedDirectoryService) UploadsEnabled() bool {
	return s.uploads != nil
}

// Resolve decodes and normalizes a raw request path and opens it inside
// the root.
func (s *ScopedDirectoryService) Resolve(ctx context.Context, rawPath string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := ScopedPath(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	entry, err := s.files.Open(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", rel, err)
	}

	return entry, nil
}

// Get resolves rawPath and answers it according to the server mode.
// Directories are indexed with sort unless the mode serves their
// index.html; in SPA mode a missing path falls back to /index.html.
func (s *ScopedDirectoryService) Get(ctx context.Context, rawPath string, sort SortKey) (Resource, error) {
	entry, err := s.Resolve(ctx, rawPath)
	if err != nil {
		if s.mode == ModeSPA && errors.Is(err, ErrNotFound) {
			if f, ok := s.openIndexHTML(ctx, ""); ok {
				return Resource{File: f}, nil
			}
		}
		return Resource{}, err
	}

	switch e := entry.(type) {
	case *File:
		return Resource{File: e}, nil
	case *Directory:
		if s.mode == ModeStatic || s.mode == ModeSPA {
			if f, ok := s.openIndexHTML(ctx, e.Path); ok {
				return Resource{File: f}, nil
			}
		}

		index, err := s.Index(ctx, e, sort)
		if err != nil {
			return Resource{}, err
		}
		return Resource{Index: &index}, nil
	default:
		return Resource{}, fmt.Errorf("get: unexpected entry %T", entry)
	}
}

func (s *ScopedDirectoryService) openIndexHTML(ctx context.Context, dir string) (*File, bool) {
	p := "index.html"
	if dir != "" {
		p = dir + "/index.html"
	}

	entry, err := s.files.Open(ctx, p)
	if err != nil {
		return nil, false
	}

	f, ok := entry.(*File)
	return f, ok
}

// Index builds the DirectoryIndex of dir. It is rebuilt on every call.
func (s *ScopedDirectoryService) Index(ctx context.Context, dir *Directory, sort SortKey) (DirectoryIndex, error) {
	if err := ctx.Err(); err != nil {
		return DirectoryIndex{}, err
	}

	infos, err := s.files.ReadDir(ctx, dir.Path)
	if err != nil {
		return DirectoryIndex{}, fmt.Errorf("index %q: %w", dir.Path, err)
	}

	entries := BuildEntries(dir.Path, infos)
	SortEntries(entries, sort)

	return DirectoryIndex{
		Entries:     entries,
		Breadcrumbs: BuildBreadcrumbs(s.files.Name(), dir.Path),
		Sort:        sort,
	}, nil
}

// Ingest streams an upload body into the upload root. req.Dir is the raw
// (percent-encoded) destination directory, req.FileName the selector the
// client sent; both are normalized and confined before anything is written.
func (s *ScopedDirectoryService) Ingest(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, err
	}

	if s.uploads == nil {
		return UploadResult{}, fmt.Errorf("ingest: uploads disabled: %w", ErrPermissionDenied)
	}

	dest, err := uploadDestination(req.Dir, req.FileName)
	if err != nil {
		return UploadResult{}, fmt.Errorf("ingest: %w", err)
	}

	saved, err := s.uploads.Write(ctx, dest, req.Body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("ingest %q: %w", dest, err)
	}

	if s.journal != nil {
		rec := UploadRecord{
			ID:           uuid.New(),
			Path:         dest,
			BytesWritten: saved.BytesWritten,
			Digest:       saved.Digest,
			RemoteAddr:   req.RemoteAddr,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.journal.Record(ctx, rec); err != nil {
			slog.Warn("failed to record upload", "path", dest, "err", err)
		}
	}

	return UploadResult{
		Path:         dest,
		BytesWritten: saved.BytesWritten,
		Digest:       saved.Digest,
	}, nil
}

func uploadDestination(rawDir, fileName string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", ErrMissingTarget
	}
	if !utf8.ValidString(fileName) || strings.IndexByte(fileName, 0) >= 0 {
		return "", ErrInvalidEncoding
	}

	dir, err := ScopedPath(rawDir)
	if err != nil {
		return "", err
	}

	name := NormalizeSegments(strings.ReplaceAll(fileName, `\`, "/"))
	if len(name) == 0 {
		return "", ErrMissingTarget
	}

	segments := NormalizeSegments(dir + "/" + strings.Join(name, "/"))
	if len(segments) == 0 {
		return "", ErrMissingTarget
	}

	return strings.Join(segments, "/"), nil
}
