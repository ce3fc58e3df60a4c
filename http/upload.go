package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sagarc03/scopefs"
)

// FileNameHeader carries the destination file name of a raw-body upload.
const FileNameHeader = "X-File-Name"

// defaultUploadName is used for multipart file parts without a filename.
const defaultUploadName = "upload"

// parseUpload extracts the destination selector and the body to store.
// The X-File-Name header wins; otherwise a multipart/form-data body is
// scanned for the first part that is a file (or is named "file").
func parseUpload(r *http.Request) (string, io.Reader, error) {
	if name := strings.TrimSpace(r.Header.Get(FileNameHeader)); name != "" {
		return name, r.Body, nil
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return "", nil, scopefs.ErrMissingTarget
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return "", nil, fmt.Errorf("parse content type: %w", scopefs.ErrMissingTarget)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", nil, scopefs.ErrMissingTarget
	}

	boundary := params["boundary"]
	if boundary == "" {
		return "", nil, scopefs.ErrBadBoundary
	}

	mr := multipart.NewReader(r.Body, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", nil, fmt.Errorf("no file part: %w", scopefs.ErrMissingTarget)
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", nil, err
			}
			return "", nil, fmt.Errorf("read multipart: %w: %w", scopefs.ErrBadBoundary, err)
		}

		if part.FileName() == "" && part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		name := part.FileName()
		if name == "" {
			name = defaultUploadName
		}
		return name, part, nil
	}
}
