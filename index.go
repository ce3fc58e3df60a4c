package scopefs

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
)

// SortKey names the ordering applied to a DirectoryIndex.
type SortKey string

const (
	SortDirectory    SortKey = "Directory"
	SortName         SortKey = "Name"
	SortSize         SortKey = "Size"
	SortDateCreated  SortKey = "DateCreated"
	SortDateModified SortKey = "DateModified"
)

// ParseSortBy maps a sort_by query value to a SortKey. Unknown or empty
// values fall back to SortDirectory.
func ParseSortBy(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortName
	case "size":
		return SortSize
	case "date_created":
		return SortDateCreated
	case "date_modified":
		return SortDateModified
	default:
		return SortDirectory
	}
}

// BuildBreadcrumbs returns one item per path component of rel, preceded by
// the root item {0, rootName, "/"}. Links are cumulative and percent-encoded.
func BuildBreadcrumbs(rootName, rel string) []BreadcrumbItem {
	segments := NormalizeSegments(rel)
	crumbs := make([]BreadcrumbItem, 0, len(segments)+1)
	crumbs = append(crumbs, BreadcrumbItem{Depth: 0, EntryName: rootName, EntryLink: "/"})

	var link strings.Builder
	for i, seg := range segments {
		link.WriteByte('/')
		link.WriteString(EncodeSegment(seg))
		crumbs = append(crumbs, BreadcrumbItem{
			Depth:     depth(i + 1),
			EntryName: seg,
			EntryLink: link.String(),
		})
	}

	return crumbs
}

func depth(n int) uint8 {
	if n > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(n)
}

// BuildEntries converts raw store metadata for the children of dir into
// DirectoryEntry values, preserving the order of infos.
func BuildEntries(dir string, infos []EntryInfo) []DirectoryEntry {
	entries := make([]DirectoryEntry, 0, len(infos))
	for _, info := range infos {
		var size uint64
		if info.Size > 0 {
			size = uint64(info.Size)
		}

		childPath := info.Name
		if dir != "" {
			childPath = dir + "/" + info.Name
		}

		entries = append(entries, DirectoryEntry{
			DisplayName:  info.Name,
			IsDir:        info.IsDir,
			SizeBytes:    size,
			EntryPath:    EncodePath(childPath),
			EntryType:    Classify(info.Name, info.IsDir),
			DateCreated:  info.Created,
			DateModified: info.Modified,
		})
	}
	return entries
}

// SortEntries orders entries in place according to key. Every policy is a
// stable sort, so ties keep their enumeration order. Explicit keys are
// ascending and place missing timestamps first.
func SortEntries(entries []DirectoryEntry, key SortKey) {
	switch key {
	case SortName:
		slices.SortStableFunc(entries, func(a, b DirectoryEntry) int {
			return strings.Compare(a.DisplayName, b.DisplayName)
		})
	case SortSize:
		slices.SortStableFunc(entries, func(a, b DirectoryEntry) int {
			return cmp.Compare(a.SizeBytes, b.SizeBytes)
		})
	case SortDateCreated:
		slices.SortStableFunc(entries, func(a, b DirectoryEntry) int {
			return compareTime(a.DateCreated, b.DateCreated)
		})
	case SortDateModified:
		slices.SortStableFunc(entries, func(a, b DirectoryEntry) int {
			return compareTime(a.DateModified, b.DateModified)
		})
	default:
		slices.SortStableFunc(entries, DirectoryEntry.Compare)
	}
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
