package scopefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"
)

// DefaultChunkSize is the size of every chunk but the last one.
const DefaultChunkSize = 8 * 1024

// ChunkReader splits a file body into fixed-size chunks.
type ChunkReader struct {
	ctx context.Context
	r   io.Reader
	buf []byte
}

// NewChunkReader returns a ChunkReader over r. A size <= 0 selects
// DefaultChunkSize.
func NewChunkReader(ctx context.Context, r io.Reader, size int) *ChunkReader {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &ChunkReader{ctx: ctx, r: r, buf: make([]byte, size)}
}

// Next returns the next chunk. The slice is only valid until the following
// call. After the last chunk Next returns io.EOF; a failed read is reported
// wrapped in ErrIO and ends the stream.
func (c *ChunkReader) Next() ([]byte, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}

	n, err := io.ReadFull(c.r, c.buf)
	switch {
	case err == nil, errors.Is(err, io.ErrUnexpectedEOF):
		return c.buf[:n], nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("read chunk: %w: %w", ErrIO, err)
	}
}

// CacheDirective is a single Cache-Control directive.
type CacheDirective struct {
	name    string
	seconds uint64
}

var (
	MustRevalidate  = CacheDirective{name: "must-revalidate"}
	NoCache         = CacheDirective{name: "no-cache"}
	NoStore         = CacheDirective{name: "no-store"}
	NoTransform     = CacheDirective{name: "no-transform"}
	Public          = CacheDirective{name: "public"}
	Private         = CacheDirective{name: "private"}
	ProxyRevalidate = CacheDirective{name: "proxy-revalidate"}
)

// MaxAge returns a max-age=<seconds> directive.
func MaxAge(seconds uint64) CacheDirective {
	return CacheDirective{name: "max-age", seconds: seconds}
}

// SMaxAge returns an s-maxage=<seconds> directive.
func SMaxAge(seconds uint64) CacheDirective {
	return CacheDirective{name: "s-maxage", seconds: seconds}
}

// DefaultCacheDirective is applied when no directive is configured.
var DefaultCacheDirective = MaxAge(2500)

func (d CacheDirective) String() string {
	switch d.name {
	case "max-age", "s-maxage":
		return d.name + "=" + strconv.FormatUint(d.seconds, 10)
	default:
		return d.name
	}
}

// ParseCacheDirective parses the textual form produced by String.
func ParseCacheDirective(s string) (CacheDirective, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if name, value, ok := strings.Cut(s, "="); ok {
		seconds, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return CacheDirective{}, fmt.Errorf("parse cache directive %q: %w", s, ErrInvalidInput)
		}
		switch strings.TrimSpace(name) {
		case "max-age":
			return MaxAge(seconds), nil
		case "s-maxage":
			return SMaxAge(seconds), nil
		}
		return CacheDirective{}, fmt.Errorf("parse cache directive %q: %w", s, ErrInvalidInput)
	}

	for _, d := range []CacheDirective{MustRevalidate, NoCache, NoStore, NoTransform, Public, Private, ProxyRevalidate} {
		if d.name == s {
			return d, nil
		}
	}

	return CacheDirective{}, fmt.Errorf("parse cache directive %q: %w", s, ErrInvalidInput)
}

// ResponseHeaders are the headers sent with a streamed file. They are
// computed once from the metadata captured at resolution time.
type ResponseHeaders struct {
	ContentLength int64
	ContentType   string
	CacheControl  string
	ETag          string
	LastModified  string
}

// NewResponseHeaders builds the headers for f.
func NewResponseHeaders(f *File, directive CacheDirective) ResponseHeaders {
	h := ResponseHeaders{
		ContentType:  DetectContentType(f.Path),
		CacheControl: directive.String(),
	}

	if f.Info != nil {
		h.ContentLength = f.Info.Size()
		h.ETag = WeakETag(f.Info.Size(), f.Info.ModTime())
		h.LastModified = f.Info.ModTime().UTC().Format(http.TimeFormat)
	}

	return h
}

// Apply writes the non-empty headers to hdr.
func (h ResponseHeaders) Apply(hdr http.Header) {
	hdr.Set("Content-Length", strconv.FormatInt(h.ContentLength, 10))
	hdr.Set("Content-Type", h.ContentType)
	if h.CacheControl != "" {
		hdr.Set("Cache-Control", h.CacheControl)
	}
	if h.ETag != "" {
		hdr.Set("ETag", h.ETag)
	}
	if h.LastModified != "" {
		hdr.Set("Last-Modified", h.LastModified)
	}
}

// WeakETag derives a weak validator from size and modification time:
// W/"<size>-<seconds>.<nanoseconds>", all in lowercase hex.
func WeakETag(size int64, modified time.Time) string {
	return fmt.Sprintf(`W/"%x-%x.%x"`, size, modified.Unix(), modified.Nanosecond())
}

// DetectContentType guesses a MIME type from the file extension.
func DetectContentType(p string) string {
	contentType := mime.TypeByExtension(path.Ext(p))

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
