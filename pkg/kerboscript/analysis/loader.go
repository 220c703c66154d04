package analysis

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// Loader turns run-instruction targets into document URIs and fetches their
// text.
type Loader interface {
	// Resolve maps a script path, as written in a run instruction inside the
	// document at fromURI, onto the URI of the target document.
	Resolve(fromURI, script string) (string, error)

	// Load returns the text of the document at uri.
	Load(ctx context.Context, uri string) (string, error)
}

// FileLoader loads documents from a directory tree rooted at a volume
// directory. Loaded text goes through a small LRU so repeated validation of a
// dependency-heavy workspace does not reread unchanged files from disk.
type FileLoader struct {
	root  string
	cache *lru.Cache
}

// NewFileLoader returns a loader rooted at dir. cacheSize bounds the number
// of cached document texts; values below one fall back to a small default.
func NewFileLoader(dir string, cacheSize int) (*FileLoader, error) {
	if cacheSize < 1 {
		cacheSize = 64
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &FileLoader{root: abs, cache: cache}, nil
}

// Resolve maps a run target onto a file URI. Volume-prefixed paths such as
// "0:/lib/util" resolve against the loader root; bare relative paths resolve
// against the directory of the referencing document. A missing extension
// defaults to ".ks".
func (l *FileLoader) Resolve(fromURI, script string) (string, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return "", fmt.Errorf("empty script path")
	}
	script = strings.ReplaceAll(script, "\\", "/")
	if path.Ext(script) == "" {
		script += ".ks"
	}

	if i := strings.Index(script, ":/"); i >= 0 {
		// Volume prefixes all map onto the single workspace root.
		return PathToURI(filepath.Join(l.root, filepath.FromSlash(script[i+2:]))), nil
	}
	if path.IsAbs(script) {
		return PathToURI(filepath.Join(l.root, filepath.FromSlash(script))), nil
	}

	base := filepath.Dir(URIToPath(fromURI))
	return PathToURI(filepath.Join(base, filepath.FromSlash(script))), nil
}

// Load returns the text of the file behind uri, caching the result. Invalidate
// drops a stale entry when the caller knows the file changed.
func (l *FileLoader) Load(ctx context.Context, uri string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if cached, ok := l.cache.Get(uri); ok {
		return cached.(string), nil
	}
	data, err := os.ReadFile(URIToPath(uri))
	if err != nil {
		return "", err
	}
	text := string(data)
	l.cache.Add(uri, text)
	return text, nil
}

// Invalidate removes uri from the text cache.
func (l *FileLoader) Invalidate(uri string) {
	l.cache.Remove(uri)
}

// PathToURI converts a filesystem path to a file URI.
func PathToURI(p string) string {
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p
}

// URIToPath converts a file URI back to a filesystem path. Non-file URIs pass
// through unchanged.
func URIToPath(uri string) string {
	trimmed := strings.TrimPrefix(uri, "file://")
	return filepath.FromSlash(trimmed)
}
