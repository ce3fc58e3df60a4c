package scopefs

import "strings"

// EntryType is the coarse kind of a directory entry shown to clients.
type EntryType string

const (
	EntryDirectory EntryType = "Directory"
	EntryFile      EntryType = "File"
	EntryGit       EntryType = "Git"
	EntryJustfile  EntryType = "Justfile"
	EntryMarkdown  EntryType = "Markdown"
	EntryRust      EntryType = "Rust"
	EntryGo        EntryType = "Go"
	EntryToml      EntryType = "Toml"
)

var extensionTypes = map[string]EntryType{
	"gitignore":     EntryGit,
	"gitkeep":       EntryGit,
	"gitattributes": EntryGit,
	"gitmodules":    EntryGit,
	"justfile":      EntryJustfile,
	"md":            EntryMarkdown,
	"markdown":      EntryMarkdown,
	"rs":            EntryRust,
	"go":            EntryGo,
	"toml":          EntryToml,
}

// Classify derives an EntryType from a display name. Directories always
// classify as EntryDirectory. For files the text after the last "." (or the
// whole name when there is none) is matched case-insensitively, so
// ".gitignore", "Justfile" and "README.MD" are all recognized.
func Classify(displayName string, isDir bool) EntryType {
	if isDir {
		return EntryDirectory
	}

	ext := displayName
	if i := strings.LastIndexByte(displayName, '.'); i >= 0 {
		ext = displayName[i+1:]
	}

	if t, ok := extensionTypes[strings.ToLower(ext)]; ok {
		return t
	}
	return EntryFile
}
