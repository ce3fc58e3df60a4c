package scopefs_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyFileStorage struct {
	mock.Mock
}

func (s *SpyFileStorage) Open(ctx context.Context, path string) (scopefs.Entry, error) {
	args := s.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(scopefs.Entry), args.Error(1)
}

func (s *SpyFileStorage) ReadDir(ctx context.Context, path string) ([]scopefs.EntryInfo, error) {
	args := s.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scopefs.EntryInfo), args.Error(1)
}

func (s *SpyFileStorage) Name() string {
	return s.Called().String(0)
}

type SpyUploadStorage struct {
	mock.Mock
}

func (s *SpyUploadStorage) Write(ctx context.Context, path string, content io.Reader) (scopefs.SaveResult, error) {
	args := s.Called(ctx, path, content)
	return args.Get(0).(scopefs.SaveResult), args.Error(1)
}

type SpyJournal struct {
	mock.Mock
}

func (s *SpyJournal) Record(ctx context.Context, rec scopefs.UploadRecord) error {
	return s.Called(ctx, rec).Error(0)
}

func newSpyService(t *testing.T, mode scopefs.ServerMode) (*scopefs.ScopedDirectoryService, *SpyFileStorage, *SpyUploadStorage, *SpyJournal) {
	t.Helper()
	files := new(SpyFileStorage)
	uploads := new(SpyUploadStorage)
	journal := new(SpyJournal)
	s, err := scopefs.NewScopedDirectoryService(files, uploads, scopefs.ServiceConfig{Mode: mode, Journal: journal})
	require.NoError(t, err, "new scoped directory service")
	return s, files, uploads, journal
}

func TestNewScopedDirectoryService(t *testing.T) {
	t.Run("invalid mode", func(t *testing.T) {
		_, err := scopefs.NewScopedDirectoryService(new(SpyFileStorage), nil, scopefs.ServiceConfig{Mode: "store"})
		assert.Error(t, err)
	})

	t.Run("nil storage", func(t *testing.T) {
		_, err := scopefs.NewScopedDirectoryService(nil, nil, scopefs.ServiceConfig{Mode: scopefs.ModeExplorer})
		assert.ErrorIs(t, err, scopefs.ErrInvalidInput)
	})

	t.Run("default cache directive", func(t *testing.T) {
		s, err := scopefs.NewScopedDirectoryService(new(SpyFileStorage), nil, scopefs.ServiceConfig{Mode: scopefs.ModeExplorer})
		require.NoError(t, err)
		assert.Equal(t, scopefs.DefaultCacheDirective, s.CacheDirective())
		assert.False(t, s.UploadsEnabled())
	})
}

func TestService_Resolve_NormalizesBeforeOpening(t *testing.T) {
	s, files, _, _ := newSpyService(t, scopefs.ModeExplorer)
	files.On("Open", mock.Anything, "etc/passwd").Return(nil, scopefs.ErrNotFound)

	_, err := s.Resolve(context.Background(), "/../../etc/passwd")

	assert.ErrorIs(t, err, scopefs.ErrNotFound)
	files.AssertExpectations(t)
}

func TestService_Resolve_InvalidEncoding(t *testing.T) {
	s, files, _, _ := newSpyService(t, scopefs.ModeExplorer)

	_, err := s.Resolve(context.Background(), "/%zz")

	assert.ErrorIs(t, err, scopefs.ErrInvalidEncoding)
	files.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestService_Resolve_ContextCanceled(t *testing.T) {
	s, _, _, _ := newSpyService(t, scopefs.ModeExplorer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Resolve(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Get_IndexesDirectory(t *testing.T) {
	s, files, _, _ := newSpyService(t, scopefs.ModeExplorer)
	files.On("Open", mock.Anything, "docs").Return(&scopefs.Directory{Path: "docs"}, nil)
	files.On("ReadDir", mock.Anything, "docs").Return([]scopefs.EntryInfo{
		{Name: "b.txt", Size: 20},
		{Name: "a", IsDir: true},
		{Name: "c.txt", Size: 10},
	}, nil)
	files.On("Name").Return("www")

	res, err := s.Get(context.Background(), "/docs", scopefs.SortSize)
	require.NoError(t, err)
	require.NotNil(t, res.Index)
	assert.Nil(t, res.File)

	assert.Equal(t, scopefs.SortSize, res.Index.Sort)
	assert.Equal(t, []string{"a", "c.txt", "b.txt"}, names(res.Index.Entries))
	assert.Equal(t, "/docs/c.txt", res.Index.Entries[1].EntryPath)
	require.Len(t, res.Index.Breadcrumbs, 2)
	assert.Equal(t, "www", res.Index.Breadcrumbs[0].EntryName)
}

func TestService_Get_ReadDirFailure(t *testing.T) {
	s, files, _, _ := newSpyService(t, scopefs.ModeExplorer)
	files.On("Open", mock.Anything, "").Return(&scopefs.Directory{Path: ""}, nil)
	files.On("ReadDir", mock.Anything, "").Return(nil, scopefs.ErrIO)

	_, err := s.Get(context.Background(), "/", scopefs.SortDirectory)
	assert.ErrorIs(t, err, scopefs.ErrIO)
}

func TestService_Get_StaticServesIndexHTML(t *testing.T) {
	s, files, _, _ := newSpyService(t, scopefs.ModeStatic)
	index := &scopefs.File{Path: "site/index.html"}
	files.On("Open", mock.Anything, "site").Return(&scopefs.Directory{Path: "site"}, nil)
	files.On("Open", mock.Anything, "site/index.html").Return(index, nil)

	res, err := s.Get(context.Background(), "/site/", scopefs.SortDirectory)
	require.NoError(t, err)
	assert.Same(t, index, res.File)
	files.AssertNotCalled(t, "ReadDir", mock.Anything, mock.Anything)
}

func TestService_Get_StaticWithoutIndexHTMLFallsBackToListing(t *testing.T) {
	s, files, _, _ := newSpyService(t, scopefs.ModeStatic)
	files.On("Open", mock.Anything, "").Return(&scopefs.Directory{Path: ""}, nil)
	files.On("Open", mock.Anything, "index.html").Return(nil, scopefs.ErrNotFound)
	files.On("ReadDir", mock.Anything, "").Return([]scopefs.EntryInfo{}, nil)
	files.On("Name").Return("www")

	res, err := s.Get(context.Background(), "/", scopefs.SortDirectory)
	require.NoError(t, err)
	require.NotNil(t, res.Index)
	assert.Empty(t, res.Index.Entries)
}

func TestService_Get_SPAFallback(t *testing.T) {
	s, files, _, _ := newSpyService(t, scopefs.ModeSPA)
	index := &scopefs.File{Path: "index.html"}
	files.On("Open", mock.Anything, "app/route").Return(nil, scopefs.ErrNotFound)
	files.On("Open", mock.Anything, "index.html").Return(index, nil)

	res, err := s.Get(context.Background(), "/app/route", scopefs.SortDirectory)
	require.NoError(t, err)
	assert.Same(t, index, res.File)
}

func TestService_Get_SPADoesNotMaskPermissionErrors(t *testing.T) {
	s, files, _, _ := newSpyService(t, scopefs.ModeSPA)
	files.On("Open", mock.Anything, "secret").Return(nil, scopefs.ErrPermissionDenied)

	_, err := s.Get(context.Background(), "/secret", scopefs.SortDirectory)
	assert.ErrorIs(t, err, scopefs.ErrPermissionDenied)
}

func TestService_Ingest(t *testing.T) {
	s, _, uploads, journal := newSpyService(t, scopefs.ModeExplorer)
	body := strings.NewReader("payload")
	uploads.On("Write", mock.Anything, "inbox/report.pdf", body).
		Return(scopefs.SaveResult{BytesWritten: 7, Digest: "abc"}, nil)
	journal.On("Record", mock.Anything, mock.MatchedBy(func(rec scopefs.UploadRecord) bool {
		return rec.Path == "inbox/report.pdf" && rec.BytesWritten == 7 && rec.Digest == "abc" && rec.RemoteAddr == "10.0.0.1:1234"
	})).Return(nil)

	res, err := s.Ingest(context.Background(), scopefs.UploadRequest{
		Dir:        "/inbox",
		FileName:   "report.pdf",
		Body:       body,
		RemoteAddr: "10.0.0.1:1234",
	})
	require.NoError(t, err)

	assert.Equal(t, scopefs.UploadResult{Path: "inbox/report.pdf", BytesWritten: 7, Digest: "abc"}, res)
	uploads.AssertExpectations(t)
	journal.AssertExpectations(t)
}

func TestService_Ingest_JournalFailureDoesNotFailUpload(t *testing.T) {
	s, _, uploads, journal := newSpyService(t, scopefs.ModeExplorer)
	uploads.On("Write", mock.Anything, "a.txt", mock.Anything).Return(scopefs.SaveResult{BytesWritten: 1}, nil)
	journal.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := s.Ingest(context.Background(), scopefs.UploadRequest{FileName: "a.txt", Body: strings.NewReader("a")})
	assert.NoError(t, err)
}

func TestService_Ingest_Destinations(t *testing.T) {
	tests := []struct {
		name     string
		dir      string
		fileName string
		want     string
		wantErr  error
	}{
		{name: "root", dir: "", fileName: "a.txt", want: "a.txt"},
		{name: "nested name", dir: "/x", fileName: "y/z.txt", want: "x/y/z.txt"},
		{name: "traversal in name", dir: "/x", fileName: "../../../etc/passwd", want: "x/etc/passwd"},
		{name: "traversal in dir", dir: "/%2E%2E/%2E%2E", fileName: "f", want: "f"},
		{name: "backslashes", dir: "", fileName: `..\..\win.ini`, want: "win.ini"},
		{name: "missing", dir: "/x", fileName: "", wantErr: scopefs.ErrMissingTarget},
		{name: "only dots", dir: "/x", fileName: "../..", wantErr: scopefs.ErrMissingTarget},
		{name: "bad dir encoding", dir: "/%zz", fileName: "f", wantErr: scopefs.ErrInvalidEncoding},
		{name: "nul in name", dir: "", fileName: "a\x00b", wantErr: scopefs.ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := new(SpyFileStorage)
			uploads := new(SpyUploadStorage)
			s, err := scopefs.NewScopedDirectoryService(files, uploads, scopefs.ServiceConfig{Mode: scopefs.ModeExplorer})
			require.NoError(t, err)

			if tt.wantErr == nil {
				uploads.On("Write", mock.Anything, tt.want, mock.Anything).Return(scopefs.SaveResult{}, nil)
			}

			res, err := s.Ingest(context.Background(), scopefs.UploadRequest{Dir: tt.dir, FileName: tt.fileName, Body: strings.NewReader("")})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				uploads.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Path)
		})
	}
}

func TestService_Ingest_Disabled(t *testing.T) {
	s, err := scopefs.NewScopedDirectoryService(new(SpyFileStorage), nil, scopefs.ServiceConfig{Mode: scopefs.ModeExplorer})
	require.NoError(t, err)

	_, err = s.Ingest(context.Background(), scopefs.UploadRequest{FileName: "a", Body: strings.NewReader("a")})
	assert.ErrorIs(t, err, scopefs.ErrPermissionDenied)
}

func TestService_WithFilesystemStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs", "cs50"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "notes.md"), []byte("# notes"), 0o644))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer func() { _ = root.Close() }()
	store := filesystem.NewStore(root)

	s, err := scopefs.NewScopedDirectoryService(store, store, scopefs.ServiceConfig{Mode: scopefs.ModeExplorer})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := s.Get(ctx, "/docs", scopefs.SortDirectory)
	require.NoError(t, err)
	require.NotNil(t, res.Index)
	assert.Equal(t, []string{"cs50", "notes.md"}, names(res.Index.Entries))
	assert.Equal(t, scopefs.EntryMarkdown, res.Index.Entries[1].EntryType)

	res, err = s.Get(ctx, "/docs/../../../docs/notes.md", scopefs.SortDirectory)
	require.NoError(t, err)
	require.NotNil(t, res.File)
	body, err := io.ReadAll(res.File.Handle)
	require.NoError(t, err)
	assert.Equal(t, "# notes", string(body))
	require.NoError(t, res.File.Close())

	up, err := s.Ingest(ctx, scopefs.UploadRequest{Dir: "/docs/cs50", FileName: "hw.txt", Body: strings.NewReader("done")})
	require.NoError(t, err)
	assert.Equal(t, "docs/cs50/hw.txt", up.Path)

	written, err := os.ReadFile(filepath.Join(dir, "docs", "cs50", "hw.txt"))
	require.NoError(t, err)
	assert.Equal(t, "done", string(written))
}
