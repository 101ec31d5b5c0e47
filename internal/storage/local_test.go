package storage_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-resource-cms/internal/storage"
)

func newLocal(t *testing.T) (*storage.Local, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocal(storage.Config{BaseDir: dir, BaseURL: "/media/"})
	if err != nil {
		t.Fatalf("new local: %v", err)
	}
	return local, dir
}

func TestLocalSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	local, dir := newLocal(t)

	name, err := local.Save(ctx, "uploads/page/body/a.txt", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if name != "uploads/page/body/a.txt" {
		t.Fatalf("unexpected name %q", name)
	}
	second, err := local.Save(ctx, "uploads/page/body/a.txt", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if second != "uploads/page/body/a_1.txt" {
		t.Fatalf("expected suffixed name, got %q", second)
	}

	rc, err := local.Open(ctx, second)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "two" {
		t.Fatalf("unexpected content %q", data)
	}

	path, err := local.Path(name)
	if err != nil || path != filepath.Join(dir, "uploads", "page", "body", "a.txt") {
		t.Fatalf("unexpected path %q %v", path, err)
	}
	if got := local.URL("uploads/a b.txt"); got != "/media/uploads/a%20b.txt" {
		t.Fatalf("unexpected url %q", got)
	}

	for _, n := range []string{name, second} {
		if err := local.Delete(ctx, n); err != nil {
			t.Fatalf("delete %s: %v", n, err)
		}
	}
	if ok, err := local.Exists(ctx, name); err != nil || ok {
		t.Fatalf("expected file removed, got %v %v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "uploads")); !os.IsNotExist(err) {
		t.Fatalf("expected empty directories pruned, got %v", err)
	}
	if _, err := local.Open(ctx, name); !errors.Is(err, storage.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLocalRejectsEscapingNames(t *testing.T) {
	local, _ := newLocal(t)
	for _, name := range []string{"", "../x", "a/../../x", "  "} {
		if _, err := local.Save(context.Background(), name, strings.NewReader("x")); !errors.Is(err, storage.ErrInvalidName) {
			t.Fatalf("%q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestNewLocalRequiresBaseDir(t *testing.T) {
	if _, err := storage.NewLocal(storage.Config{}); !errors.Is(err, storage.ErrBaseDirRequired) {
		t.Fatalf("expected ErrBaseDirRequired, got %v", err)
	}
}
