package markdowncmd_test

import (
	"context"
	"testing"
	"testing/fstest"

	goerrors "github.com/goliatone/go-errors"

	markdowncmd "github.com/goliatone/go-resource-cms/internal/commands/markdown"
	"github.com/goliatone/go-resource-cms/internal/markdown"
	"github.com/goliatone/go-resource-cms/internal/resources"
)

func newHandler(t *testing.T, files fstest.MapFS) (*markdowncmd.ImportDirectoryHandler, resources.Service) {
	t.Helper()
	svc := resources.NewService(
		resources.NewMemoryTemplateRepository(),
		resources.NewMemoryTypeRepository(),
		resources.NewMemoryResourceRepository(),
	)
	if _, err := svc.CreateType(context.Background(), resources.CreateTypeRequest{Name: "Page", Code: "page", ChildTypes: []string{"page"}}); err != nil {
		t.Fatalf("create type: %v", err)
	}
	loader := markdown.NewLoader(files, markdown.LoaderConfig{Recursive: true})
	importer := markdown.NewImporter(markdown.ImporterConfig{Service: svc, DefaultType: "page"})
	return markdowncmd.NewImportDirectoryHandler(loader, importer, nil), svc
}

func TestImportDirectoryHandler(t *testing.T) {
	h, svc := newHandler(t, fstest.MapFS{
		"guides/index.md":   {Data: []byte("---\ntitle: Guides\n---\n")},
		"guides/install.md": {Data: []byte("Run it\n")},
	})
	ctx := context.Background()

	if err := h.Execute(ctx, markdowncmd.ImportDirectoryCommand{Directory: "guides", DryRun: true}); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if got := len(h.Last().Skipped); got != 2 {
		t.Fatalf("expected 2 skipped documents, got %d", got)
	}

	if err := h.Execute(ctx, markdowncmd.ImportDirectoryCommand{Directory: "guides"}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := len(h.Last().Created); got != 2 {
		t.Fatalf("expected 2 created documents, got %d", got)
	}
	listing, err := svc.List(ctx, resources.ListFilter{})
	if err != nil || len(listing) != 2 {
		t.Fatalf("expected 2 resources, got %d (%v)", len(listing), err)
	}
}

func TestImportDirectoryHandlerReportsDocumentFailures(t *testing.T) {
	h, _ := newHandler(t, fstest.MapFS{
		"lost/child.md": {Data: []byte("orphan\n")},
	})
	err := h.Execute(context.Background(), markdowncmd.ImportDirectoryCommand{Directory: "."})
	if err == nil {
		t.Fatalf("expected failure for orphaned document")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if got := len(h.Last().Errors); got != 1 {
		t.Fatalf("expected one document error, got %d", got)
	}
}

func TestImportDirectoryCommandValidation(t *testing.T) {
	h, _ := newHandler(t, fstest.MapFS{})
	cases := []struct {
		name string
		msg  markdowncmd.ImportDirectoryCommand
	}{
		{"empty directory", markdowncmd.ImportDirectoryCommand{}},
		{"escapes root", markdowncmd.ImportDirectoryCommand{Directory: "../etc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.Execute(context.Background(), tc.msg)
			if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
				t.Fatalf("expected validation category, got %v", err)
			}
		})
	}
}
