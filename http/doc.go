// Package http exposes a ScopedDirectoryService over HTTP.
//
// # Routes
//
//   - GET  /api/v1/{path}: JSON directory index or a streamed file
//   - HEAD /api/v1/{path}: headers of the same response, no body
//   - POST /api/v1/{dir}: upload into dir, named by the X-File-Name header
//     or the first file part of a multipart/form-data body
//   - GET  /metrics: Prometheus metrics, when enabled
//
// Directory indexes accept a sort_by query parameter (name, size,
// date_created, date_modified); anything else lists directories first.
//
// # Files
//
// Files are streamed in 8 KiB chunks with Content-Length, Content-Type,
// Cache-Control, a weak ETag and Last-Modified, all taken from the
// metadata captured when the path was resolved. If-None-Match is honored
// with a 304. Range requests are not supported and are answered in full.
//
// # Errors
//
// Errors are JSON bodies of the form {"error": code, "message": text}:
//
//   - 400 invalid_path, missing_target, bad_boundary, bad_request
//   - 401 unauthorized
//   - 403 forbidden
//   - 404 not_found (an HTML page in static and spa modes)
//   - 413 payload_too_large
//   - 500 io_error
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Mode:      scopefs.ModeExplorer,
//	    BasicAuth: http.BasicAuthConfig{Username: "admin", PasswordHash: hash},
//	    Gzip:      true,
//	}, service)
//	http.ListenAndServe(":7878", handler.Router())
package http
