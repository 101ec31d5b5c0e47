package fields

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// FileDescriptor stores uploads through a FileStorage and keeps the stored
// name in the field value.
type FileDescriptor struct {
	storage interfaces.FileStorage
	label   string
	code    string
	widget  string
}

// NewFileDescriptor returns the "file" descriptor.
func NewFileDescriptor(storage interfaces.FileStorage) *FileDescriptor {
	return &FileDescriptor{storage: storage, label: "File", code: CodeFile, widget: "file"}
}

// NewImageDescriptor returns the "image" descriptor. It differs from the
// file descriptor only in its label and editor widget.
func NewImageDescriptor(storage interfaces.FileStorage) *FileDescriptor {
	return &FileDescriptor{storage: storage, label: "Image", code: CodeImage, widget: "image"}
}

func (d *FileDescriptor) Label() string { return d.label }

// UploadPath is the storage name requested for an upload:
// resource_types/<resource id>/<code>-<file name>.
func UploadPath(fc Context, name string) string {
	return fmt.Sprintf("resource_types/%s/%s-%s", fc.ResourceID, fc.Code, path.Base(name))
}

func (d *FileDescriptor) ToDatabase(ctx context.Context, value any, fc Context) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return strPtr(v), nil
	case *File:
		if v == nil {
			return nil, nil
		}
		return strPtr(v.Name()), nil
	case Upload:
		return d.save(ctx, v, fc)
	case *Upload:
		if v == nil {
			return nil, nil
		}
		return d.save(ctx, *v, fc)
	default:
		return nil, invalid(fc, value, fmt.Sprintf("unsupported type %T", value))
	}
}

func (d *FileDescriptor) save(ctx context.Context, upload Upload, fc Context) (*string, error) {
	if d.storage == nil {
		return nil, ErrStorageUnavailable
	}
	if strings.TrimSpace(upload.Name) == "" || upload.Content == nil {
		return nil, invalid(fc, upload.Name, "upload requires a name and content")
	}
	stored, err := d.storage.Save(ctx, UploadPath(fc, upload.Name), upload.Content)
	if err != nil {
		return nil, fmt.Errorf("fields: save %s: %w", upload.Name, err)
	}
	return strPtr(stored), nil
}

func (d *FileDescriptor) ToValue(stored *string, _ Context) (any, error) {
	if stored == nil || *stored == "" {
		return nil, nil
	}
	return NewFile(*stored, d.storage), nil
}

func (d *FileDescriptor) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, d.code, d.widget, "file", "")
}

// File is a lazy handle on a stored file. The underlying stream is opened
// on first Open and reused until Close.
type File struct {
	name    string
	storage interfaces.FileStorage

	mu     sync.Mutex
	reader io.ReadCloser
}

func NewFile(name string, storage interfaces.FileStorage) *File {
	return &File{name: name, storage: storage}
}

func (f *File) Name() string   { return f.name }
func (f *File) String() string { return f.name }

// URL returns the public URL of the file, or "" without storage.
func (f *File) URL() string {
	if f.storage == nil {
		return ""
	}
	return f.storage.URL(f.name)
}

// Path returns the local filesystem path when the storage has one.
func (f *File) Path() (string, error) {
	if f.storage == nil {
		return "", ErrStorageUnavailable
	}
	return f.storage.Path(f.name)
}

// Open returns the file stream, opening it on first use.
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reader != nil {
		return f.reader, nil
	}
	if f.storage == nil {
		return nil, ErrStorageUnavailable
	}
	rc, err := f.storage.Open(ctx, f.name)
	if err != nil {
		return nil, err
	}
	f.reader = rc
	return rc, nil
}

// IsOpen reports whether the stream has been opened.
func (f *File) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reader != nil
}

// Close releases the stream if it was opened.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reader == nil {
		return nil
	}
	err := f.reader.Close()
	f.reader = nil
	return err
}

// Equal compares by stored name. other may be a *File or a string.
func (f *File) Equal(other any) bool {
	switch o := other.(type) {
	case *File:
		return o != nil && f.name == o.name
	case string:
		return f.name == o
	default:
		return false
	}
}
