// Package scopefs serves a single directory tree over HTTP without ever
// letting a request reach outside of it.
//
// A request path is percent-decoded, normalized lexically and opened through
// an os.Root, so neither ".." segments nor symlinks can escape the configured
// root. What comes back is either a directory, which is turned into a
// DirectoryIndex (entries, breadcrumbs and the active sort), or a file, which
// is streamed to the client in fixed-size chunks with caching headers.
// Uploads are ingested into a second, independently confined root.
//
// # Key Components
//
//   - ScopedDirectoryService: resolves paths, indexes directories and ingests uploads
//   - Store: the sandboxed filesystem backend (see the filesystem package)
//   - Classify: maps an entry name to an EntryType
//   - ChunkReader and ResponseHeaders: the building blocks of a file response
//
// # Server Modes
//
//   - ModeExplorer: directories are answered with a JSON DirectoryIndex
//   - ModeStatic: a directory containing index.html is answered with that file
//   - ModeSPA: like static, and unknown paths fall back to /index.html
//
// # Example Usage
//
//	root, err := os.OpenRoot("/srv/public")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := filesystem.NewStore(root)
//
//	service, err := scopefs.NewScopedDirectoryService(store, store, scopefs.ServiceConfig{
//	    Mode: scopefs.ModeExplorer,
//	})
//
//	entry, err := service.Resolve(ctx, "/docs/cs50")
//	if dir, ok := entry.(*scopefs.Directory); ok {
//	    index, err := service.Index(ctx, dir, scopefs.SortName)
//	}
//
// See the http package for the REST surface and the journal package for the
// upload audit log.
package scopefs
