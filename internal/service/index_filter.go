package service

import (
	"path"
	"strings"

	"github.com/xxxsen/repomind/internal/config"
	"github.com/xxxsen/repomind/internal/vcs"
)

var (
	defaultIgnoreDirs = []string{
		"node_modules", "vendor", "dist", "build", "out", "target", ".git", ".next", ".nuxt",
		"coverage", "__pycache__", ".venv", "bin", "obj", ".idea", ".vscode",
	}
	defaultIgnoreFiles = []string{
		"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "bun.lockb", "go.sum", "Cargo.lock", "poetry.lock",
	}
	defaultIgnoreExts = []string{
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".webp", ".svg", ".tiff",
		".mp3", ".mp4", ".wav", ".avi", ".mov", ".mkv", ".flac", ".ogg", ".webm",
		".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".7z", ".rar", ".jar", ".war",
		".exe", ".dll", ".so", ".dylib", ".a", ".o", ".class", ".pyc", ".wasm", ".bin",
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
		".ttf", ".otf", ".woff", ".woff2", ".eot", ".min.js", ".map", ".db", ".sqlite",
	}
)

const defaultMaxFileSize = 200 * 1024

// IndexFilter decides which tree entries are worth summarizing. The same filter
// prices a repository and drives indexing, so both always agree on the count.
type IndexFilter struct {
	dirs        map[string]struct{}
	files       map[string]struct{}
	exts        []string
	maxFileSize int64
}

func NewIndexFilter(cfg config.IndexerConfig) *IndexFilter {
	dirs := cfg.IgnoreDirs
	if len(dirs) == 0 {
		dirs = defaultIgnoreDirs
	}
	files := cfg.IgnoreFiles
	if len(files) == 0 {
		files = defaultIgnoreFiles
	}
	exts := cfg.IgnoreExts
	if len(exts) == 0 {
		exts = defaultIgnoreExts
	}
	f := &IndexFilter{
		dirs:        toSet(dirs),
		files:       toSet(files),
		maxFileSize: cfg.MaxFileSize,
	}
	if f.maxFileSize <= 0 {
		f.maxFileSize = defaultMaxFileSize
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.exts = append(f.exts, ext)
	}
	return f
}

func (f *IndexFilter) Keep(entry vcs.TreeEntry) bool {
	if !entry.IsFile() {
		return false
	}
	if entry.Size > f.maxFileSize {
		return false
	}
	segments := strings.Split(strings.Trim(entry.Path, "/"), "/")
	for _, seg := range segments[:len(segments)-1] {
		if _, ok := f.dirs[seg]; ok {
			return false
		}
	}
	base := path.Base(entry.Path)
	if _, ok := f.files[base]; ok {
		return false
	}
	lower := strings.ToLower(base)
	for _, ext := range f.exts {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}

// Split partitions blobs into kept entries and the number filtered out.
// Directories and submodules are neither.
func (f *IndexFilter) Split(entries []vcs.TreeEntry) ([]vcs.TreeEntry, int) {
	kept := make([]vcs.TreeEntry, 0, len(entries))
	filtered := 0
	for _, entry := range entries {
		if !entry.IsFile() {
			continue
		}
		if f.Keep(entry) {
			kept = append(kept, entry)
			continue
		}
		filtered++
	}
	return kept, filtered
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}
