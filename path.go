package scopefs

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// DecodePath percent-decodes an escaped request path. Malformed escapes,
// results that are not valid UTF-8 and embedded NUL bytes all fail with
// ErrInvalidEncoding.
func DecodePath(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("decode path %q: %w", raw, ErrInvalidEncoding)
	}

	if !utf8.ValidString(decoded) || strings.IndexByte(decoded, 0) >= 0 {
		return "", fmt.Errorf("decode path %q: %w", raw, ErrInvalidEncoding)
	}

	return decoded, nil
}

// NormalizeSegments splits a decoded path on "/" and folds it lexically:
// empty and "." segments are dropped, ".." removes the previous segment.
// A ".." with nothing left to remove is discarded, so the result can never
// climb above the root.
func NormalizeSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))

	for _, seg := range parts {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}

	return out
}

// ScopedPath decodes and normalizes a raw request path into a slash
// separated path relative to the root. The root itself is "".
func ScopedPath(raw string) (string, error) {
	decoded, err := DecodePath(raw)
	if err != nil {
		return "", err
	}
	return strings.Join(NormalizeSegments(decoded), "/"), nil
}

// EncodePath turns a root-relative path into an absolute, percent-encoded
// URL path. Every segment is encoded on its own, so "/" never appears
// escaped.
func EncodePath(rel string) string {
	segments := NormalizeSegments(rel)
	encoded := make([]string, len(segments))
	for i, seg := range segments {
		encoded[i] = EncodeSegment(seg)
	}
	return "/" + strings.Join(encoded, "/")
}

const upperhex = "0123456789ABCDEF"

// EncodeSegment escapes every byte of s except ASCII letters, digits and
// the unreserved marks "-", "_", ".", "~".
func EncodeSegment(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	case c == '-', c == '_', c == '.', c == '~':
		return false
	default:
		return true
	}
}
