package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/scopefs"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.0 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes), "formatSize(%d)", tt.bytes)
	}
}

func sampleRecords() []scopefs.UploadRecord {
	return []scopefs.UploadRecord{
		{
			ID:           uuid.New(),
			Path:         "docs/report.pdf",
			BytesWritten: 2048,
			Digest:       "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
			RemoteAddr:   "10.0.0.5:51234",
			CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			ID:           uuid.New(),
			Path:         "notes.txt",
			BytesWritten: 10,
			Digest:       "abc",
			RemoteAddr:   "10.0.0.6:40000",
			CreatedAt:    time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC),
		},
	}
}

func TestHumanFormatter_FormatUploads(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newFormatter(false).FormatUploads(&buf, sampleRecords()))

	out := buf.String()
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "docs/report.pdf")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "9f86d081884c")
	assert.NotContains(t, out, "9f86d081884c7")
	assert.Contains(t, out, "10.0.0.6:40000")
	assert.Contains(t, out, "2 upload(s) (2.0 KB total)")
}

func TestHumanFormatter_TruncatesLongPaths(t *testing.T) {
	records := []scopefs.UploadRecord{{Path: strings.Repeat("a", 80)}}

	var buf bytes.Buffer
	require.NoError(t, newFormatter(false).FormatUploads(&buf, records))
	assert.Contains(t, buf.String(), strings.Repeat("a", 57)+"...")
}

func TestHumanFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newFormatter(false).FormatUploads(&buf, nil))
	assert.Equal(t, "No uploads recorded\n", buf.String())
}

func TestJSONFormatter_FormatUploads(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, newFormatter(true).FormatUploads(&buf, records))

	var decoded []scopefs.UploadRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, records[0].ID, decoded[0].ID)
	assert.Contains(t, buf.String(), `"bytes_written": 2048`)
}
