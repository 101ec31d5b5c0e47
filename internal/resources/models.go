package resources

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Template is a named template body rendered around resource content.
type Template struct {
	bun.BaseModel `bun:"table:templates,alias:tpl"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Name        string    `bun:"name,notnull,unique" json:"name"`
	Description string    `bun:"description" json:"description,omitempty"`
	Content     string    `bun:"content" json:"content"`
	MimeType    string    `bun:"mime_type,notnull,default:'text/html'" json:"mime_type"`
	Cacheable   bool      `bun:"cacheable,notnull,default:true" json:"cacheable"`
	Sites       []string  `bun:"sites,type:jsonb" json:"sites,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// ResourceType groups resources sharing a field set and default template.
type ResourceType struct {
	bun.BaseModel `bun:"table:resource_types,alias:rt"`

	ID              uuid.UUID            `bun:",pk,type:uuid" json:"id"`
	Name            string               `bun:"name,notnull,unique" json:"name"`
	Code            string               `bun:"code,notnull,unique" json:"code"`
	Description     string               `bun:"description" json:"description,omitempty"`
	DefaultTemplate string               `bun:"default_template" json:"default_template,omitempty"`
	IsLink          bool                 `bun:"is_link,notnull,default:false" json:"is_link"`
	Sites           []string             `bun:"sites,type:jsonb" json:"sites,omitempty"`
	CreatedAt       time.Time            `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time            `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
	Fields          []*ResourceTypeField `bun:"-" json:"fields,omitempty"`
	ChildTypes      []*ResourceType      `bun:"-" json:"child_types,omitempty"`
}

// Field returns the field definition for code.
func (t *ResourceType) Field(code string) (*ResourceTypeField, bool) {
	if t == nil {
		return nil, false
	}
	for _, f := range t.Fields {
		if f != nil && f.Code == code {
			return f, true
		}
	}
	return nil, false
}

// AllowsChild reports whether resources of child may be added under this
// type. A type without child types accepts none.
func (t *ResourceType) AllowsChild(child *ResourceType) bool {
	if t == nil || child == nil {
		return false
	}
	for _, ct := range t.ChildTypes {
		if ct != nil && ct.ID == child.ID {
			return true
		}
	}
	return false
}

// ResourceTypeField declares a dynamic field on a resource type.
type ResourceTypeField struct {
	bun.BaseModel `bun:"table:resource_type_fields,alias:rtf"`

	ID             uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ResourceTypeID uuid.UUID `bun:"resource_type_id,notnull,type:uuid" json:"resource_type_id"`
	Code           string    `bun:"code,notnull" json:"code"`
	FieldType      string    `bun:"field_type,notnull" json:"field_type"`
	Required       bool      `bun:"required,notnull,default:false" json:"required"`
	Label          string    `bun:"label" json:"label,omitempty"`
	HelpText       string    `bun:"help_text" json:"help_text,omitempty"`
	Position       int       `bun:"position,notnull,default:0" json:"position"`
}

// DisplayLabel falls back to the field code.
func (f *ResourceTypeField) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Code
}

// ResourceTypeChild links a parent type to an allowed child type.
type ResourceTypeChild struct {
	bun.BaseModel `bun:"table:resource_type_children,alias:rtc"`

	ParentID uuid.UUID `bun:"parent_id,pk,type:uuid" json:"parent_id"`
	ChildID  uuid.UUID `bun:"child_id,pk,type:uuid" json:"child_id"`
}

// ContentDisposition values accepted on resources.
const (
	DispositionNone       = ""
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// DefaultOrder is the sort position given to new resources.
const DefaultOrder = 100

// Resource is a node of the site tree addressed by URIPath.
type Resource struct {
	bun.BaseModel `bun:"table:resources,alias:r"`

	ID                 uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	SiteID             string     `bun:"site_id,notnull" json:"site_id"`
	TypeID             uuid.UUID  `bun:"type_id,notnull,type:uuid" json:"type_id"`
	Title              string     `bun:"title,notnull" json:"title"`
	Slug               string     `bun:"slug" json:"slug"`
	URIPath            string     `bun:"uri_path,notnull" json:"uri_path"`
	ParentID           *uuid.UUID `bun:"parent_id,type:uuid" json:"parent_id,omitempty"`
	Content            string     `bun:"content" json:"content,omitempty"`
	ContentDisposition string     `bun:"content_disposition" json:"content_disposition,omitempty"`
	Published          bool       `bun:"published,notnull,default:false" json:"published"`
	PublishDate        *time.Time `bun:"publish_date,nullzero" json:"publish_date,omitempty"`
	UnpublishDate      *time.Time `bun:"unpublish_date,nullzero" json:"unpublish_date,omitempty"`
	Order              int        `bun:"sort_order,notnull,default:100" json:"order"`
	Deleted            bool       `bun:"deleted,notnull,default:false" json:"deleted"`
	EditLock           bool       `bun:"edit_lock,notnull,default:false" json:"edit_lock"`
	MenuTitle          string     `bun:"menu_title" json:"menu_title,omitempty"`
	MenuClass          string     `bun:"menu_class" json:"menu_class,omitempty"`
	HideFromMenu       bool       `bun:"hide_from_menu,notnull,default:false" json:"hide_from_menu"`
	CreatedBy          uuid.UUID  `bun:"created_by,type:uuid" json:"created_by"`
	CreatedAt          time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// StatusAt derives the published status at now.
func (r *Resource) StatusAt(now time.Time) PublishedStatus {
	return StatusOf(r.Deleted, r.Published, r.PublishDate, r.UnpublishDate, now)
}

// IsLiveAt reports whether the resource is publicly visible at now.
func (r *Resource) IsLiveAt(now time.Time) bool {
	return r.StatusAt(now) == StatusLive
}

func (r *Resource) IsRoot() bool {
	return r.ParentID == nil
}

// MenuLabel is the menu title, or the title when none is set.
func (r *Resource) MenuLabel() string {
	if strings.TrimSpace(r.MenuTitle) != "" {
		return r.MenuTitle
	}
	return r.Title
}

// EditLockPermission lets a viewer edit locked resources.
const EditLockPermission = "admin_resource"

// IsLockedFor reports whether viewer is barred from editing the resource.
func (r *Resource) IsLockedFor(viewer interfaces.Viewer) bool {
	if !r.EditLock {
		return false
	}
	if viewer == nil {
		return true
	}
	return !viewer.IsSuperuser() && !viewer.HasPermission(EditLockPermission)
}

// ResourceField stores one serialized dynamic field value.
type ResourceField struct {
	bun.BaseModel `bun:"table:resource_fields,alias:rf"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ResourceID uuid.UUID `bun:"resource_id,notnull,type:uuid" json:"resource_id"`
	Code       string    `bun:"code,notnull" json:"code"`
	Value      *string   `bun:"value" json:"value,omitempty"`
}

func cloneResource(r *Resource) *Resource {
	if r == nil {
		return nil
	}
	out := *r
	out.ParentID = cloneUUIDPointer(r.ParentID)
	out.PublishDate = cloneTimePointer(r.PublishDate)
	out.UnpublishDate = cloneTimePointer(r.UnpublishDate)
	return &out
}

func cloneType(t *ResourceType) *ResourceType {
	if t == nil {
		return nil
	}
	out := *t
	out.Sites = append([]string(nil), t.Sites...)
	out.Fields = make([]*ResourceTypeField, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f == nil {
			continue
		}
		copied := *f
		out.Fields = append(out.Fields, &copied)
	}
	out.ChildTypes = make([]*ResourceType, 0, len(t.ChildTypes))
	for _, ct := range t.ChildTypes {
		if ct == nil {
			continue
		}
		copied := *ct
		copied.Fields = nil
		copied.ChildTypes = nil
		out.ChildTypes = append(out.ChildTypes, &copied)
	}
	return &out
}

func cloneTemplate(t *Template) *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Sites = append([]string(nil), t.Sites...)
	return &out
}

func cloneField(f *ResourceField) *ResourceField {
	if f == nil {
		return nil
	}
	out := *f
	if f.Value != nil {
		v := *f.Value
		out.Value = &v
	}
	return &out
}

func cloneUUIDPointer(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTimePointer(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
