package resources

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// CodePattern restricts type and field codes.
var CodePattern = regexp.MustCompile(`^[-\w]+$`)

// MimeTypes lists the template MIME types accepted by the admin.
var MimeTypes = []string{
	"text/html",
	"text/plain",
	"text/css",
	"text/javascript",
	"text/csv",
	"text/xml",
	"text/cachemanifest",
	"application/xhtml+xml",
	"application/javascript",
	"application/json",
}

// DefaultMimeType is used when a template does not set one.
const DefaultMimeType = "text/html"

type CreateTemplateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content"`
	MimeType    string   `json:"mime_type,omitempty"`
	Cacheable   *bool    `json:"cacheable,omitempty"`
	Sites       []string `json:"sites,omitempty"`
}

func (r CreateTemplateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Description, validation.Length(0, 250)),
		validation.Field(&r.MimeType, validation.In(stringsToAny(MimeTypes)...)),
	)
}

type UpdateTemplateRequest struct {
	ID uuid.UUID `json:"id"`
	CreateTemplateRequest
}

func (r UpdateTemplateRequest) Validate() error {
	if r.ID == uuid.Nil {
		return validation.Errors{"id": validation.NewError("validation_required", "id is required")}
	}
	return r.CreateTemplateRequest.Validate()
}

// FieldDefinition declares a dynamic field when creating or updating a type.
type FieldDefinition struct {
	Code      string `json:"code"`
	FieldType string `json:"field_type"`
	Required  bool   `json:"required,omitempty"`
	Label     string `json:"label,omitempty"`
	HelpText  string `json:"help_text,omitempty"`
}

func (d FieldDefinition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Code, validation.Required, validation.Length(1, 50), validation.Match(CodePattern)),
		validation.Field(&d.FieldType, validation.Required, validation.Length(1, 25)),
	)
}

type CreateTypeRequest struct {
	Name            string            `json:"name"`
	Code            string            `json:"code"`
	Description     string            `json:"description,omitempty"`
	DefaultTemplate string            `json:"default_template,omitempty"`
	IsLink          bool              `json:"is_link,omitempty"`
	Sites           []string          `json:"sites,omitempty"`
	Fields          []FieldDefinition `json:"fields,omitempty"`
	// ChildTypes lists codes of types allowed below resources of this type.
	ChildTypes []string `json:"child_types,omitempty"`
}

func (r CreateTypeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Code, validation.Required, validation.Length(1, 50), validation.Match(CodePattern)),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.DefaultTemplate, validation.Length(0, 500)),
		validation.Field(&r.Fields),
	)
}

type UpdateTypeRequest struct {
	ID uuid.UUID `json:"id"`
	CreateTypeRequest
}

func (r UpdateTypeRequest) Validate() error {
	if r.ID == uuid.Nil {
		return validation.Errors{"id": validation.NewError("validation_required", "id is required")}
	}
	return r.CreateTypeRequest.Validate()
}

type AddResourceRequest struct {
	// ID is generated when nil.
	ID                 uuid.UUID      `json:"id,omitempty"`
	Type               string         `json:"type"`
	Title              string         `json:"title"`
	Slug               string         `json:"slug,omitempty"`
	ParentID           *uuid.UUID     `json:"parent_id,omitempty"`
	Content            string         `json:"content,omitempty"`
	ContentDisposition string         `json:"content_disposition,omitempty"`
	Published          bool           `json:"published,omitempty"`
	PublishDate        *time.Time     `json:"publish_date,omitempty"`
	UnpublishDate      *time.Time     `json:"unpublish_date,omitempty"`
	Order              *int           `json:"order,omitempty"`
	EditLock           bool           `json:"edit_lock,omitempty"`
	MenuTitle          string         `json:"menu_title,omitempty"`
	MenuClass          string         `json:"menu_class,omitempty"`
	HideFromMenu       bool           `json:"hide_from_menu,omitempty"`
	Fields             map[string]any `json:"fields,omitempty"`
	CreatedBy          uuid.UUID      `json:"created_by,omitempty"`
}

func (r AddResourceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.Match(CodePattern)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ContentDisposition, validation.In(DispositionInline, DispositionAttachment)),
		validation.Field(&r.MenuTitle, validation.Length(0, 200)),
	)
}

// UpdateResourceRequest changes the fields that are set. MoveTo relocates the
// resource below another resource, or to the root for uuid.Nil.
type UpdateResourceRequest struct {
	ID                 uuid.UUID         `json:"id"`
	Title              *string           `json:"title,omitempty"`
	Slug               *string           `json:"slug,omitempty"`
	MoveTo             *uuid.UUID        `json:"move_to,omitempty"`
	Content            *string           `json:"content,omitempty"`
	ContentDisposition *string           `json:"content_disposition,omitempty"`
	Published          *bool             `json:"published,omitempty"`
	PublishDate        *time.Time        `json:"publish_date,omitempty"`
	UnpublishDate      *time.Time        `json:"unpublish_date,omitempty"`
	ClearPublishDate   bool              `json:"clear_publish_date,omitempty"`
	ClearUnpublishDate bool              `json:"clear_unpublish_date,omitempty"`
	Order              *int              `json:"order,omitempty"`
	EditLock           *bool             `json:"edit_lock,omitempty"`
	MenuTitle          *string           `json:"menu_title,omitempty"`
	MenuClass          *string           `json:"menu_class,omitempty"`
	HideFromMenu       *bool             `json:"hide_from_menu,omitempty"`
	Fields             map[string]any    `json:"fields,omitempty"`
	Viewer             interfaces.Viewer `json:"-"`
}

func (r UpdateResourceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.By(requireUUID)),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.ContentDisposition, validation.In(DispositionNone, DispositionInline, DispositionAttachment)),
	)
}

// ListFilter narrows the admin listing.
type ListFilter struct {
	Type           string
	ParentID       *uuid.UUID
	IncludeDeleted bool
	Status         *PublishedStatus
}

// Listing pairs a resource with its status for admin views.
type Listing struct {
	Resource *Resource       `json:"resource"`
	Status   PublishedStatus `json:"status"`
}

func requireUUID(value any) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.NewError("validation_required", "id is required")
	}
	return nil
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// asValidationError turns ozzo errors into a ValidationError.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		out := &ValidationError{Fields: make(map[string]string, len(verrs)), Cause: err}
		flattenErrors("", verrs, out.Fields)
		return out
	}
	return &ValidationError{Cause: err}
}

func flattenErrors(prefix string, verrs validation.Errors, out map[string]string) {
	for key, err := range verrs {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flattenErrors(name, nested, out)
			continue
		}
		out[name] = err.Error()
	}
}
