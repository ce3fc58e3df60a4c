package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sagarc03/scopefs"
)

// formatter renders journal records for the terminal.
type formatter interface {
	FormatUploads(w io.Writer, records []scopefs.UploadRecord) error
}

func newFormatter(jsonOutput bool) formatter {
	if jsonOutput {
		return &jsonFormatter{}
	}
	return &humanFormatter{}
}

type humanFormatter struct{}

func (f *humanFormatter) FormatUploads(w io.Writer, records []scopefs.UploadRecord) error {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No uploads recorded")
		return nil
	}

	maxPathLen := 4 // "PATH"
	for i := range records {
		if len(records[i].Path) > maxPathLen {
			maxPathLen = len(records[i].Path)
		}
	}
	if maxPathLen > 60 {
		maxPathLen = 60
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %-19s  %-12s  %s\n", maxPathLen, "PATH", "SIZE", "UPLOADED", "DIGEST", "FROM")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		strings.Repeat("-", maxPathLen), strings.Repeat("-", 10), strings.Repeat("-", 19), strings.Repeat("-", 12), strings.Repeat("-", 4))

	var total int64
	for i := range records {
		rec := &records[i]
		path := rec.Path
		if len(path) > maxPathLen {
			path = path[:maxPathLen-3] + "..."
		}
		digest := rec.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		_, _ = fmt.Fprintf(w, "%-*s  %10s  %-19s  %-12s  %s\n",
			maxPathLen,
			path,
			formatSize(rec.BytesWritten),
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			digest,
			rec.RemoteAddr,
		)
		total += rec.BytesWritten
	}

	_, _ = fmt.Fprintf(w, "\n%d upload(s) (%s total)\n", len(records), formatSize(total))
	return nil
}

type jsonFormatter struct{}

func (f *jsonFormatter) FormatUploads(w io.Writer, records []scopefs.UploadRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
