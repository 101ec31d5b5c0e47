package resourcescmd_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	resourcescmd "github.com/goliatone/go-resource-cms/internal/commands/resources"
	"github.com/goliatone/go-resource-cms/internal/fields"
	"github.com/goliatone/go-resource-cms/internal/resources"
)

func newService(t *testing.T) resources.Service {
	t.Helper()
	svc := resources.NewService(
		resources.NewMemoryTemplateRepository(),
		resources.NewMemoryTypeRepository(),
		resources.NewMemoryResourceRepository(),
	)
	_, err := svc.CreateType(context.Background(), resources.CreateTypeRequest{
		Name:       "Page",
		Code:       "page",
		ChildTypes: []string{"page"},
		Fields:     []resources.FieldDefinition{{Code: "body", FieldType: fields.CodeChar}},
	})
	if err != nil {
		t.Fatalf("create type: %v", err)
	}
	return svc
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

func findByTitle(t *testing.T, svc resources.Service, title string) *resources.Resource {
	t.Helper()
	listing, err := svc.List(context.Background(), resources.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, item := range listing {
		if item.Resource.Title == title {
			return item.Resource
		}
	}
	t.Fatalf("resource %q not found", title)
	return nil
}

func TestResourceCommandsDriveService(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	h := resourcescmd.NewHandlers(svc, nil)

	err := h.Add.Execute(ctx, resourcescmd.AddResourceCommand{AddResourceRequest: resources.AddResourceRequest{
		Type:   "page",
		Title:  "About",
		Slug:   "about",
		Fields: map[string]any{"body": "Hello"},
	}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	about := findByTitle(t, svc, "About")
	if about.URIPath != "/about" || about.Published {
		t.Fatalf("unexpected resource %+v", about)
	}

	if err := h.Publish.Execute(ctx, resourcescmd.PublishCommand{IDs: []uuid.UUID{about.ID}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	title := "About us"
	if err := h.Edit.Execute(ctx, resourcescmd.EditResourceCommand{UpdateResourceRequest: resources.UpdateResourceRequest{ID: about.ID, Title: &title}}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := h.SetFields.Execute(ctx, resourcescmd.SetFieldsCommand{ResourceID: about.ID, Values: map[string]any{"body": "Bye"}}); err != nil {
		t.Fatalf("set fields: %v", err)
	}

	got, err := svc.Get(ctx, about.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Published || got.Title != "About us" {
		t.Fatalf("expected published and renamed, got %+v", got)
	}
	values, err := svc.Fields(ctx, about.ID)
	if err != nil || values["body"] != "Bye" {
		t.Fatalf("expected updated field, got %v %v", values, err)
	}

	if err := h.Clear.Execute(ctx, resourcescmd.ClearCacheCommand{IDs: []uuid.UUID{about.ID}}); err != nil {
		t.Fatalf("clear cache: %v", err)
	}
	if err := h.Unpublish.Execute(ctx, resourcescmd.UnpublishCommand{IDs: []uuid.UUID{about.ID}}); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if err := h.Delete.Execute(ctx, resourcescmd.DeleteResourceCommand{ID: about.ID, Soft: true}); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	got, err = svc.Get(ctx, about.ID)
	if err != nil {
		t.Fatalf("get after soft delete: %v", err)
	}
	if got.Published || !got.Deleted {
		t.Fatalf("expected unpublished and deleted, got %+v", got)
	}
	if err := h.Delete.Execute(ctx, resourcescmd.DeleteResourceCommand{ID: about.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, about.ID); !resources.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResourceCommandValidation(t *testing.T) {
	ctx := context.Background()
	h := resourcescmd.NewHandlers(newService(t), nil)

	cases := []struct {
		name string
		run  func() error
	}{
		{"add without title", func() error {
			return h.Add.Execute(ctx, resourcescmd.AddResourceCommand{AddResourceRequest: resources.AddResourceRequest{Type: "page"}})
		}},
		{"edit without id", func() error {
			return h.Edit.Execute(ctx, resourcescmd.EditResourceCommand{})
		}},
		{"publish without ids", func() error {
			return h.Publish.Execute(ctx, resourcescmd.PublishCommand{})
		}},
		{"publish nil id", func() error {
			return h.Publish.Execute(ctx, resourcescmd.PublishCommand{IDs: []uuid.UUID{uuid.Nil}})
		}},
		{"set fields without values", func() error {
			return h.SetFields.Execute(ctx, resourcescmd.SetFieldsCommand{ResourceID: uuid.New()})
		}},
		{"delete without id", func() error {
			return h.Delete.Execute(ctx, resourcescmd.DeleteResourceCommand{})
		}},
		{"service rejects unknown field", func() error {
			return h.Add.Execute(ctx, resourcescmd.AddResourceCommand{AddResourceRequest: resources.AddResourceRequest{
				Type:   "page",
				Title:  "Bad",
				Fields: map[string]any{"missing": "x"},
			}})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
				t.Fatalf("expected validation category, got %v", err)
			}
		})
	}
}

func TestResourceCommandNotFoundIsCommandError(t *testing.T) {
	h := resourcescmd.NewHandlers(newService(t), nil)
	err := h.Delete.Execute(context.Background(), resourcescmd.DeleteResourceCommand{ID: uuid.New()})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestHandlersRegisterAndDispatch(t *testing.T) {
	svc := newService(t)
	h := resourcescmd.NewHandlers(svc, nil)

	registry := &recordingRegistry{}
	if err := h.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(registry.handlers) != 7 {
		t.Fatalf("expected 7 handlers, got %d", len(registry.handlers))
	}

	sub := dispatcher.SubscribeCommand(h.Add)
	t.Cleanup(sub.Unsubscribe)
	err := dispatcher.Dispatch(context.Background(), resourcescmd.AddResourceCommand{AddResourceRequest: resources.AddResourceRequest{
		Type:  "page",
		Title: "Dispatched",
		Slug:  "dispatched",
	}})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if r := findByTitle(t, svc, "Dispatched"); r.URIPath != "/dispatched" {
		t.Fatalf("unexpected path %q", r.URIPath)
	}
}
