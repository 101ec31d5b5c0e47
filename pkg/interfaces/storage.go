package interfaces

import (
	"context"
	"io"
)

// FileStorage persists uploaded field files. Save may choose a different
// name than requested when the path is taken and returns the stored name.
type FileStorage interface {
	Save(ctx context.Context, name string, content io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	Path(name string) (string, error)
	URL(name string) string
}
