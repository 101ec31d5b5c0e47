package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

var (
	ErrBaseDirRequired = errors.New("storage: base directory is required")
	ErrInvalidName     = errors.New("storage: invalid file name")
	ErrNotExist        = errors.New("storage: file does not exist")
)

// maxNameAttempts bounds the suffixes tried for a taken name.
const maxNameAttempts = 1000

type Config struct {
	// BaseDir is created when missing.
	BaseDir string
	// BaseURL prefixes names in URL, for example "/media".
	BaseURL string
}

// Local stores files below a base directory. Names are slash separated and
// relative to the base.
type Local struct {
	mu      sync.Mutex
	baseDir string
	baseURL string
}

var _ interfaces.FileStorage = (*Local)(nil)

func NewLocal(cfg Config) (*Local, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, ErrBaseDirRequired
	}
	base, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base directory: %w", err)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base directory: %w", err)
	}
	return &Local{baseDir: base, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

// Save writes content under name. When name is taken a numeric suffix is
// added before the extension; the stored name is returned.
func (l *Local) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	file, stored, err := l.create(clean)
	l.mu.Unlock()
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("storage: write %s: %w", stored, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("storage: close %s: %w", stored, err)
	}
	return stored, nil
}

func (l *Local) create(name string) (*os.File, string, error) {
	full := l.full(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, "", fmt.Errorf("storage: create directory: %w", err)
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; i <= maxNameAttempts; i++ {
		file, err := os.OpenFile(l.full(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("storage: create %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	return nil, "", fmt.Errorf("storage: no free name for %s", name)
}

func (l *Local) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := l.Path(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return file, err
}

// Delete removes name and any directories it leaves empty. Missing files
// are not an error.
func (l *Local) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := l.Path(name)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	l.pruneDirs(filepath.Dir(full))
	return nil
}

func (l *Local) pruneDirs(dir string) {
	for dir != l.baseDir && strings.HasPrefix(dir, l.baseDir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (l *Local) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := l.Path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Path returns the absolute filesystem path of name.
func (l *Local) Path(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return l.full(clean), nil
}

// URL returns BaseURL joined with the escaped name.
func (l *Local) URL(name string) string {
	clean, err := cleanName(name)
	if err != nil {
		return ""
	}
	parts := strings.Split(clean, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return l.baseURL + "/" + strings.Join(parts, "/")
}

func (l *Local) full(name string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(name))
}

// cleanName rejects names escaping the base directory.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", ErrInvalidName
	}
	clean := path.Clean("/" + name)
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || !fs.ValidPath(clean) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}
