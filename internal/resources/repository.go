package resources

import (
	"context"

	"github.com/google/uuid"
)

// TemplateRepository persists templates.
type TemplateRepository interface {
	Create(ctx context.Context, record *Template) (*Template, error)
	Update(ctx context.Context, record *Template) (*Template, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	GetByName(ctx context.Context, name string) (*Template, error)
	List(ctx context.Context) ([]*Template, error)
}

// TypeRepository persists resource types together with their field
// definitions and allowed child types.
type TypeRepository interface {
	Create(ctx context.Context, record *ResourceType) (*ResourceType, error)
	Update(ctx context.Context, record *ResourceType) (*ResourceType, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ResourceType, error)
	GetByCode(ctx context.Context, code string) (*ResourceType, error)
	List(ctx context.Context) ([]*ResourceType, error)
}

// ResourceRepository persists resources and their dynamic field values.
type ResourceRepository interface {
	Create(ctx context.Context, record *Resource, fields []*ResourceField) (*Resource, error)
	Update(ctx context.Context, record *Resource) (*Resource, error)
	// UpdateMany writes several rows in one transaction.
	UpdateMany(ctx context.Context, records []*Resource) error
	// UpdateWithFields writes records and upserts the fields of resourceID
	// in one transaction. Nothing is written when either part fails.
	UpdateWithFields(ctx context.Context, records []*Resource, resourceID uuid.UUID, fields []*ResourceField) error
	GetByID(ctx context.Context, id uuid.UUID) (*Resource, error)
	Find(ctx context.Context, q Query) ([]*Resource, error)
	Count(ctx context.Context, q Query) (int, error)
	// Delete removes the row and its fields. It fails with ErrHasChildren
	// while any resource references id as parent.
	Delete(ctx context.Context, id uuid.UUID) error
	ListFields(ctx context.Context, resourceID uuid.UUID) ([]*ResourceField, error)
	// SaveFields upserts fields by (resource, code) in one transaction.
	SaveFields(ctx context.Context, resourceID uuid.UUID, fields []*ResourceField) error
}

// Query filters resource lookups by equality. Zero values do not filter.
type Query struct {
	Site         string
	ID           *uuid.UUID
	URIPath      *string
	Slug         *string
	ParentID     *uuid.UUID
	RootOnly     bool
	TypeID       *uuid.UUID
	HideFromMenu *bool
	Published    *bool
	Deleted      *bool
	Limit        int
	ExcludeID    *uuid.UUID
}

// Matches applies the query to a single record.
func (q Query) Matches(r *Resource) bool {
	if r == nil {
		return false
	}
	switch {
	case q.Site != "" && r.SiteID != q.Site:
		return false
	case q.ID != nil && r.ID != *q.ID:
		return false
	case q.ExcludeID != nil && r.ID == *q.ExcludeID:
		return false
	case q.URIPath != nil && r.URIPath != *q.URIPath:
		return false
	case q.Slug != nil && r.Slug != *q.Slug:
		return false
	case q.RootOnly && r.ParentID != nil:
		return false
	case q.ParentID != nil && (r.ParentID == nil || *r.ParentID != *q.ParentID):
		return false
	case q.TypeID != nil && r.TypeID != *q.TypeID:
		return false
	case q.HideFromMenu != nil && r.HideFromMenu != *q.HideFromMenu:
		return false
	case q.Published != nil && r.Published != *q.Published:
		return false
	case q.Deleted != nil && r.Deleted != *q.Deleted:
		return false
	}
	return true
}

// Filter narrows a front query.
type Filter func(*Query)

func ByID(id uuid.UUID) Filter {
	return func(q *Query) { q.ID = &id }
}

// ByURIPath matches path as given. Callers normalize it first.
func ByURIPath(path string) Filter {
	return func(q *Query) { q.URIPath = &path }
}

// ByParent matches children of parentID, or root resources for uuid.Nil.
func ByParent(parentID uuid.UUID) Filter {
	return func(q *Query) {
		if parentID == uuid.Nil {
			q.RootOnly = true
			q.ParentID = nil
			return
		}
		q.ParentID = &parentID
	}
}

func ByType(typeID uuid.UUID) Filter {
	return func(q *Query) { q.TypeID = &typeID }
}

func ByHideFromMenu(hidden bool) Filter {
	return func(q *Query) { q.HideFromMenu = &hidden }
}

func Limit(n int) Filter {
	return func(q *Query) { q.Limit = n }
}
