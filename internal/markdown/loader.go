package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// Document is a parsed markdown file. Path is slash separated and relative
// to the loader root.
type Document struct {
	Path        string
	FrontMatter FrontMatter
	Body        []byte
	Checksum    []byte
	Modified    time.Time
}

// LoaderConfig configures file discovery.
type LoaderConfig struct {
	// Pattern is matched against file base names, "*.md" by default.
	Pattern   string
	Recursive bool
}

// Loader reads documents from a filesystem.
type Loader struct {
	fs        fs.FS
	pattern   string
	recursive bool
}

func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = "*.md"
	}
	return &Loader{fs: filesystem, pattern: pattern, recursive: cfg.Recursive}
}

// LoadFile reads and parses a single document.
func (l *Loader) LoadFile(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = cleanPath(name)
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", name, err)
	}
	info, err := fs.Stat(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", name, err)
	}
	meta, body, err := ParseFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("markdown loader %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	return &Document{
		Path:        name,
		FrontMatter: meta,
		Body:        body,
		Checksum:    sum[:],
		Modified:    info.ModTime(),
	}, nil
}

// LoadDirectory parses every matching file below dir, sorted by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*Document, error) {
	root := cleanPath(dir)
	var docs []*Document
	err := fs.WalkDir(l.fs, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != root && !l.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if ok, _ := path.Match(l.pattern, path.Base(p)); !ok {
			return nil
		}
		doc, err := l.LoadFile(ctx, p)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func cleanPath(p string) string {
	p = path.Clean(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "."
	}
	return p
}
