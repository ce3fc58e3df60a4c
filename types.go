package scopefs

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DirectoryEntry is a single child of an indexed directory.
type DirectoryEntry struct {
	DisplayName  string     `json:"display_name"`
	IsDir        bool       `json:"is_dir"`
	SizeBytes    uint64     `json:"size_bytes"`
	EntryPath    string     `json:"entry_path"`
	EntryType    EntryType  `json:"entry_type"`
	DateCreated  *time.Time `json:"date_created"`
	DateModified *time.Time `json:"date_modified"`
}

// EntryKey identifies a DirectoryEntry within one listing.
type EntryKey struct {
	IsDir bool
	Name  string
}

// Key returns the identity of the entry. Two entries with the same key are
// considered the same entry regardless of size or timestamps.
func (e DirectoryEntry) Key() EntryKey {
	return EntryKey{IsDir: e.IsDir, Name: e.DisplayName}
}

// Compare implements the default listing order: directories before files,
// directories by name, files unordered relative to each other (0).
func (e DirectoryEntry) Compare(other DirectoryEntry) int {
	switch {
	case e.IsDir && other.IsDir:
		return strings.Compare(e.DisplayName, other.DisplayName)
	case e.IsDir:
		return -1
	case other.IsDir:
		return 1
	default:
		return 0
	}
}

// BreadcrumbItem links to one ancestor of the indexed directory.
type BreadcrumbItem struct {
	Depth     uint8  `json:"depth"`
	EntryName string `json:"entry_name"`
	EntryLink string `json:"entry_link"`
}

// DirectoryIndex is the JSON document returned for a directory request.
type DirectoryIndex struct {
	Entries     []DirectoryEntry `json:"entries"`
	Breadcrumbs []BreadcrumbItem `json:"breadcrumbs"`
	Sort        SortKey          `json:"sort"`
}

// EntryInfo is the raw metadata of a directory child as read from the store.
// Created is nil when the platform does not report a birth time.
type EntryInfo struct {
	Name     string
	IsDir    bool
	Size     int64
	Created  *time.Time
	Modified *time.Time
}

// Entry is the result of resolving a request path: either *File or *Directory.
type Entry interface {
	RelPath() string
	isEntry()
}

// File is a resolved regular file. Handle stays open until Close is called.
type File struct {
	Path   string
	Handle io.ReadCloser
	Info   fs.FileInfo
}

func (f *File) RelPath() string { return f.Path }
func (f *File) isEntry()        {}

// Close releases the underlying handle.
func (f *File) Close() error {
	if f.Handle == nil {
		return nil
	}
	return f.Handle.Close()
}

// Directory is a resolved directory. No handle is kept open.
type Directory struct {
	Path string
}

func (d *Directory) RelPath() string { return d.Path }
func (d *Directory) isEntry()        {}

// UploadRequest describes one ingest: Dir is the destination directory taken
// from the request path, FileName the selector supplied by the client.
type UploadRequest struct {
	Dir        string
	FileName   string
	Body       io.Reader
	RemoteAddr string
}

// UploadResult is returned after the body has been committed to disk.
type UploadResult struct {
	Path         string `json:"path"`
	BytesWritten int64  `json:"bytes_written"`
	Digest       string `json:"digest"`
}

// UploadRecord is one entry of the upload journal.
type UploadRecord struct {
	ID           uuid.UUID `json:"id"`
	Path         string    `json:"path"`
	BytesWritten int64     `json:"bytes_written"`
	Digest       string    `json:"digest"`
	RemoteAddr   string    `json:"remote_addr"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveResult is what a store reports after an atomic write.
type SaveResult struct {
	BytesWritten int64
	Digest       string
}

type ServerMode string

const (
	ModeExplorer ServerMode = "explorer"
	ModeStatic   ServerMode = "static"
	ModeSPA      ServerMode = "spa"
)

func (m ServerMode) IsValid() bool {
	switch m {
	case ModeExplorer, ModeStatic, ModeSPA:
		return true
	default:
		return false
	}
}

func ParseServerMode(s string) (ServerMode, error) {
	mode := ServerMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid server mode: %s (valid modes: explorer, static, spa)", s)
	}
	return mode, nil
}
