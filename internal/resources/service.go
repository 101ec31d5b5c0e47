package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-resource-cms/internal/fields"
	"github.com/goliatone/go-resource-cms/internal/logging"
	schemavalidation "github.com/goliatone/go-resource-cms/internal/validation"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Service is the admin write path for templates, types and resources.
type Service interface {
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error)
	UpdateTemplate(ctx context.Context, req UpdateTemplateRequest) (*Template, error)
	GetTemplate(ctx context.Context, name string) (*Template, error)
	ListTemplates(ctx context.Context) ([]*Template, error)

	CreateType(ctx context.Context, req CreateTypeRequest) (*ResourceType, error)
	UpdateType(ctx context.Context, req UpdateTypeRequest) (*ResourceType, error)
	GetType(ctx context.Context, code string) (*ResourceType, error)
	ListTypes(ctx context.Context) ([]*ResourceType, error)
	EditorFields(ctx context.Context, typeCode string) ([]fields.EditorField, error)

	AddResource(ctx context.Context, req AddResourceRequest) (*Resource, error)
	UpdateResource(ctx context.Context, req UpdateResourceRequest) (*Resource, error)
	SetFields(ctx context.Context, id uuid.UUID, values map[string]any) error
	Fields(ctx context.Context, id uuid.UUID) (map[string]any, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Publish(ctx context.Context, ids ...uuid.UUID) (int, error)
	Unpublish(ctx context.Context, ids ...uuid.UUID) (int, error)
	ClearCache(ctx context.Context, ids ...uuid.UUID) (int, error)
	Get(ctx context.Context, id uuid.UUID) (*Resource, error)
	List(ctx context.Context, filter ListFilter) ([]Listing, error)
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

type IDGenerator func() uuid.UUID

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

func WithSite(site string) ServiceOption {
	return func(s *service) {
		if strings.TrimSpace(site) != "" {
			s.site = strings.TrimSpace(site)
		}
	}
}

// WithCache makes writes tombstone the cached entries they touch.
func WithCache(resources *ResourceCache, types *TypeCache) ServiceOption {
	return func(s *service) {
		s.cache = resources
		s.typeCache = types
	}
}

func WithRegistry(registry *fields.Registry) ServiceOption {
	return func(s *service) {
		if registry != nil {
			s.registry = registry
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) { s.logger = logging.OrNoOp(logger) }
}

type service struct {
	templates TemplateRepository
	types     TypeRepository
	resources ResourceRepository
	registry  *fields.Registry
	cache     *ResourceCache
	typeCache *TypeCache
	site      string
	now       func() time.Time
	id        IDGenerator
	logger    interfaces.Logger
}

// NewService constructs the admin service with the required repositories.
func NewService(templates TemplateRepository, types TypeRepository, resources ResourceRepository, opts ...ServiceOption) Service {
	s := &service{
		templates: templates,
		types:     types,
		resources: resources,
		registry:  fields.NewRegistry(),
		site:      DefaultSite,
		now:       time.Now,
		id:        uuid.New,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	if err := req.Validate(); err != nil {
		return nil, asValidationError(err)
	}
	now := s.now().UTC()
	record := &Template{
		ID:        s.id(),
		CreatedAt: now,
	}
	applyTemplate(record, req, now)
	created, err := s.templates.Create(ctx, record)
	if err != nil {
		return nil, duplicateAs(err, "name")
	}
	return created, nil
}

func (s *service) UpdateTemplate(ctx context.Context, req UpdateTemplateRequest) (*Template, error) {
	if err := req.Validate(); err != nil {
		return nil, asValidationError(err)
	}
	record, err := s.templates.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	applyTemplate(record, req.CreateTemplateRequest, s.now().UTC())
	updated, err := s.templates.Update(ctx, record)
	if err != nil {
		return nil, duplicateAs(err, "name")
	}
	return updated, nil
}

func applyTemplate(record *Template, req CreateTemplateRequest, now time.Time) {
	record.Name = strings.TrimSpace(req.Name)
	record.Description = req.Description
	record.Content = req.Content
	record.MimeType = req.MimeType
	if record.MimeType == "" {
		record.MimeType = DefaultMimeType
	}
	record.Cacheable = true
	if req.Cacheable != nil {
		record.Cacheable = *req.Cacheable
	}
	record.Sites = append([]string(nil), req.Sites...)
	record.UpdatedAt = now
}

func (s *service) GetTemplate(ctx context.Context, name string) (*Template, error) {
	return s.templates.GetByName(ctx, strings.TrimSpace(name))
}

func (s *service) ListTemplates(ctx context.Context) ([]*Template, error) {
	return s.templates.List(ctx)
}

func (s *service) CreateType(ctx context.Context, req CreateTypeRequest) (*ResourceType, error) {
	if err := req.Validate(); err != nil {
		return nil, asValidationError(err)
	}
	now := s.now().UTC()
	record := &ResourceType{ID: s.id(), CreatedAt: now}
	if err := s.applyType(ctx, record, req, now); err != nil {
		return nil, err
	}
	created, err := s.types.Create(ctx, record)
	if err != nil {
		return nil, duplicateAs(err, "code")
	}
	s.clearType(ctx, created, "")
	return created, nil
}

func (s *service) UpdateType(ctx context.Context, req UpdateTypeRequest) (*ResourceType, error) {
	if err := req.Validate(); err != nil {
		return nil, asValidationError(err)
	}
	record, err := s.types.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	previousCode := record.Code
	if req.Code != previousCode {
		typeID := record.ID
		inUse, err := s.resources.Count(ctx, Query{TypeID: &typeID})
		if err != nil {
			return nil, err
		}
		if inUse > 0 {
			return nil, fieldError("code", "code cannot change while resources use this type", ErrTypeCodeInUse)
		}
	}
	if err := s.applyType(ctx, record, req.CreateTypeRequest, s.now().UTC()); err != nil {
		return nil, err
	}
	updated, err := s.types.Update(ctx, record)
	if err != nil {
		return nil, duplicateAs(err, "code")
	}
	s.clearType(ctx, updated, previousCode)
	return updated, nil
}

func (s *service) applyType(ctx context.Context, record *ResourceType, req CreateTypeRequest, now time.Time) error {
	record.Name = strings.TrimSpace(req.Name)
	record.Code = strings.TrimSpace(req.Code)
	record.Description = req.Description
	record.DefaultTemplate = strings.TrimSpace(req.DefaultTemplate)
	record.IsLink = req.IsLink
	record.Sites = append([]string(nil), req.Sites...)
	record.UpdatedAt = now

	seen := make(map[string]struct{}, len(req.Fields))
	record.Fields = make([]*ResourceTypeField, 0, len(req.Fields))
	problems := map[string]string{}
	for i, def := range req.Fields {
		if _, dup := seen[def.Code]; dup {
			problems[fmt.Sprintf("fields.%d.code", i)] = "duplicate field code"
			continue
		}
		seen[def.Code] = struct{}{}
		if !s.registry.Has(def.FieldType) {
			problems[fmt.Sprintf("fields.%d.field_type", i)] = fmt.Sprintf("unknown field type %q", def.FieldType)
			continue
		}
		record.Fields = append(record.Fields, &ResourceTypeField{
			ID:             s.id(),
			ResourceTypeID: record.ID,
			Code:           def.Code,
			FieldType:      def.FieldType,
			Required:       def.Required,
			Label:          def.Label,
			HelpText:       def.HelpText,
			Position:       i,
		})
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems, Cause: ErrValidation}
	}

	record.ChildTypes = make([]*ResourceType, 0, len(req.ChildTypes))
	for _, code := range req.ChildTypes {
		code = strings.TrimSpace(code)
		if code == record.Code {
			record.ChildTypes = append(record.ChildTypes, &ResourceType{ID: record.ID, Code: record.Code})
			continue
		}
		child, err := s.types.GetByCode(ctx, code)
		if err != nil {
			if IsNotFound(err) {
				return &ConfigurationError{Code: code, Cause: ErrUnknownResourceType}
			}
			return err
		}
		record.ChildTypes = append(record.ChildTypes, child)
	}
	return nil
}

func (s *service) GetType(ctx context.Context, code string) (*ResourceType, error) {
	rt, err := s.types.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil && IsNotFound(err) {
		return nil, &ConfigurationError{Code: code, Cause: ErrUnknownResourceType}
	}
	return rt, err
}

func (s *service) ListTypes(ctx context.Context) ([]*ResourceType, error) {
	return s.types.List(ctx)
}

// EditorFields describes the dynamic form of a type for admin surfaces.
func (s *service) EditorFields(ctx context.Context, typeCode string) ([]fields.EditorField, error) {
	rt, err := s.GetType(ctx, typeCode)
	if err != nil {
		return nil, err
	}
	out := make([]fields.EditorField, 0, len(rt.Fields))
	for _, f := range rt.Fields {
		out = append(out, s.registry.Lookup(f.FieldType).EditorField(fields.EditorOptions{
			Code:     f.Code,
			Label:    f.DisplayLabel(),
			HelpText: f.HelpText,
			Required: f.Required,
		}))
	}
	return out, nil
}

func (s *service) AddResource(ctx context.Context, req AddResourceRequest) (*Resource, error) {
	if err := req.Validate(); err != nil {
		return nil, asValidationError(err)
	}
	rt, err := s.GetType(ctx, req.Type)
	if err != nil {
		return nil, err
	}
	if err := checkWindow(req.PublishDate, req.UnpublishDate); err != nil {
		return nil, err
	}

	parentPath := ""
	if req.ParentID != nil {
		parent, err := s.parent(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		parentType, err := s.types.GetByID(ctx, parent.TypeID)
		if err != nil {
			return nil, err
		}
		if !parentType.AllowsChild(rt) {
			return nil, fieldError("type", fmt.Sprintf("%q resources cannot be added under %q", rt.Code, parentType.Code), ErrChildTypeNotAllowed)
		}
		parentPath = parent.URIPath
	}

	resourceSlug, err := NormalizeSlug(req.Slug, req.Title, req.ParentID == nil)
	if err != nil {
		return nil, fieldError("slug", err.Error(), err)
	}

	id := req.ID
	if id == uuid.Nil {
		id = s.id()
	}
	now := s.now().UTC()
	record := &Resource{
		ID:                 id,
		SiteID:             s.site,
		TypeID:             rt.ID,
		Title:              strings.TrimSpace(req.Title),
		Slug:               resourceSlug,
		URIPath:            BuildURIPath(parentPath, resourceSlug),
		ParentID:           cloneUUIDPointer(req.ParentID),
		Content:            req.Content,
		ContentDisposition: req.ContentDisposition,
		Published:          req.Published,
		PublishDate:        utcPointer(req.PublishDate),
		UnpublishDate:      utcPointer(req.UnpublishDate),
		Order:              DefaultOrder,
		EditLock:           req.EditLock,
		MenuTitle:          req.MenuTitle,
		MenuClass:          req.MenuClass,
		HideFromMenu:       req.HideFromMenu,
		CreatedBy:          req.CreatedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.Order != nil {
		record.Order = *req.Order
	}
	if err := s.checkUnique(ctx, record); err != nil {
		return nil, err
	}

	rows, err := s.serializeFields(ctx, rt, record.ID, req.Fields, true)
	if err != nil {
		return nil, err
	}
	created, err := s.resources.Create(ctx, record, rows)
	if err != nil {
		return nil, duplicateAs(err, "slug")
	}
	s.clear(ctx, created)
	s.logger.Info("resources.added", logging.FieldResourceID, created.ID.String(), logging.FieldPath, created.URIPath)
	return created, nil
}

func (s *service) UpdateResource(ctx context.Context, req UpdateResourceRequest) (*Resource, error) {
	if err := req.Validate(); err != nil {
		return nil, asValidationError(err)
	}
	record, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Viewer != nil && record.IsLockedFor(req.Viewer) {
		return nil, ErrEditLocked
	}
	before := cloneResource(record)

	if req.Title != nil {
		record.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		record.Content = *req.Content
	}
	if req.ContentDisposition != nil {
		record.ContentDisposition = *req.ContentDisposition
	}
	if req.Published != nil {
		record.Published = *req.Published
	}
	if req.ClearPublishDate {
		record.PublishDate = nil
	} else if req.PublishDate != nil {
		record.PublishDate = utcPointer(req.PublishDate)
	}
	if req.ClearUnpublishDate {
		record.UnpublishDate = nil
	} else if req.UnpublishDate != nil {
		record.UnpublishDate = utcPointer(req.UnpublishDate)
	}
	if err := checkWindow(record.PublishDate, record.UnpublishDate); err != nil {
		return nil, err
	}
	if req.Order != nil {
		record.Order = *req.Order
	}
	if req.EditLock != nil {
		record.EditLock = *req.EditLock
	}
	if req.MenuTitle != nil {
		record.MenuTitle = *req.MenuTitle
	}
	if req.MenuClass != nil {
		record.MenuClass = *req.MenuClass
	}
	if req.HideFromMenu != nil {
		record.HideFromMenu = *req.HideFromMenu
	}

	parentPath, err := s.applyMove(ctx, record, req.MoveTo)
	if err != nil {
		return nil, err
	}
	explicit := record.Slug
	if req.Slug != nil {
		explicit = *req.Slug
	}
	resourceSlug, err := NormalizeSlug(explicit, record.Title, record.ParentID == nil)
	if err != nil {
		return nil, fieldError("slug", err.Error(), err)
	}
	record.Slug = resourceSlug
	record.URIPath = BuildURIPath(parentPath, resourceSlug)
	record.UpdatedAt = s.now().UTC()
	if err := s.checkUnique(ctx, record); err != nil {
		return nil, err
	}

	var rows []*ResourceField
	if len(req.Fields) > 0 {
		rt, err := s.types.GetByID(ctx, record.TypeID)
		if err != nil {
			return nil, err
		}
		if rows, err = s.serializeFields(ctx, rt, record.ID, req.Fields, false); err != nil {
			return nil, err
		}
	}

	touched := []*Resource{record}
	moved := []*Resource{before}
	if record.URIPath != before.URIPath {
		descendants, err := s.descendants(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range descendants {
			moved = append(moved, cloneResource(d))
			d.URIPath = record.URIPath + strings.TrimPrefix(d.URIPath, before.URIPath)
			d.UpdatedAt = record.UpdatedAt
			touched = append(touched, d)
		}
	}
	if err := s.resources.UpdateWithFields(ctx, touched, record.ID, rows); err != nil {
		return nil, duplicateAs(err, "slug")
	}
	for _, r := range moved {
		s.clear(ctx, r)
	}
	for _, r := range touched {
		s.clear(ctx, r)
	}
	return s.resources.GetByID(ctx, record.ID)
}

// applyMove reparents record when moveTo is set and returns the parent path.
func (s *service) applyMove(ctx context.Context, record *Resource, moveTo *uuid.UUID) (string, error) {
	if moveTo != nil {
		if *moveTo == uuid.Nil {
			record.ParentID = nil
		} else {
			if *moveTo == record.ID {
				return "", fieldError("move_to", "a resource cannot be its own parent", ErrValidation)
			}
			descendants, err := s.descendants(ctx, record.ID)
			if err != nil {
				return "", err
			}
			for _, d := range descendants {
				if d.ID == *moveTo {
					return "", fieldError("move_to", "a resource cannot move below its own descendant", ErrValidation)
				}
			}
			id := *moveTo
			record.ParentID = &id
		}
	}
	if record.ParentID == nil {
		return "", nil
	}
	parent, err := s.parent(ctx, *record.ParentID)
	if err != nil {
		return "", err
	}
	return parent.URIPath, nil
}

func (s *service) SetFields(ctx context.Context, id uuid.UUID, values map[string]any) error {
	record, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	rt, err := s.types.GetByID(ctx, record.TypeID)
	if err != nil {
		return err
	}
	rows, err := s.serializeFields(ctx, rt, id, values, false)
	if err != nil {
		return err
	}
	if err := s.resources.SaveFields(ctx, id, rows); err != nil {
		return err
	}
	s.clear(ctx, record)
	return nil
}

// Fields returns typed values for every field defined on the resource type.
func (s *service) Fields(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rt, err := s.types.GetByID(ctx, record.TypeID)
	if err != nil {
		return nil, err
	}
	stored, err := s.resources.ListFields(ctx, id)
	if err != nil {
		return nil, err
	}
	return TypedFields(s.registry, rt, id, stored)
}

// TypedFields converts stored values through the registry. Stored codes
// that the type no longer defines use the default descriptor.
func TypedFields(registry *fields.Registry, rt *ResourceType, resourceID uuid.UUID, stored []*ResourceField) (map[string]any, error) {
	out := make(map[string]any, len(stored))
	for _, f := range stored {
		fieldType := ""
		if def, ok := rt.Field(f.Code); ok {
			fieldType = def.FieldType
		}
		value, err := registry.Lookup(fieldType).ToValue(f.Value, fields.Context{ResourceID: resourceID, Code: f.Code})
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Code, err)
		}
		out[f.Code] = value
	}
	return out, nil
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	record, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	record.Deleted = true
	record.UpdatedAt = s.now().UTC()
	if _, err := s.resources.Update(ctx, record); err != nil {
		return err
	}
	s.clear(ctx, record)
	return nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, id); err != nil {
		return err
	}
	s.clear(ctx, record)
	return nil
}

func (s *service) Publish(ctx context.Context, ids ...uuid.UUID) (int, error) {
	return s.setPublished(ctx, true, ids)
}

func (s *service) Unpublish(ctx context.Context, ids ...uuid.UUID) (int, error) {
	return s.setPublished(ctx, false, ids)
}

func (s *service) setPublished(ctx context.Context, published bool, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, ErrIDRequired
	}
	now := s.now().UTC()
	records := make([]*Resource, 0, len(ids))
	for _, id := range ids {
		record, err := s.load(ctx, id)
		if err != nil {
			return 0, err
		}
		if record.Published == published {
			continue
		}
		record.Published = published
		record.UpdatedAt = now
		records = append(records, record)
	}
	if err := s.resources.UpdateMany(ctx, records); err != nil {
		return 0, err
	}
	for _, record := range records {
		s.clear(ctx, record)
	}
	return len(records), nil
}

// ClearCache tombstones the given resources, or every resource of the site
// when ids is empty.
func (s *service) ClearCache(ctx context.Context, ids ...uuid.UUID) (int, error) {
	var records []*Resource
	if len(ids) == 0 {
		all, err := s.resources.Find(ctx, Query{Site: s.site})
		if err != nil {
			return 0, err
		}
		records = all
	} else {
		for _, id := range ids {
			record, err := s.load(ctx, id)
			if err != nil {
				return 0, err
			}
			records = append(records, record)
		}
	}
	for _, record := range records {
		s.clear(ctx, record)
	}
	return len(records), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Resource, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Listing, error) {
	q := Query{Site: s.site, ParentID: filter.ParentID}
	if !filter.IncludeDeleted {
		deleted := false
		q.Deleted = &deleted
	}
	if filter.Type != "" {
		rt, err := s.GetType(ctx, filter.Type)
		if err != nil {
			return nil, err
		}
		q.TypeID = &rt.ID
	}
	records, err := s.resources.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Listing, 0, len(records))
	for _, record := range records {
		status := record.StatusAt(now)
		if filter.Status != nil && status != *filter.Status {
			continue
		}
		out = append(out, Listing{Resource: record, Status: status})
	}
	return out, nil
}

// serializeFields converts values through the registry and validates the
// serialized payload against the type's fields. Required fields are only
// enforced when full is set.
func (s *service) serializeFields(ctx context.Context, rt *ResourceType, resourceID uuid.UUID, values map[string]any, full bool) ([]*ResourceField, error) {
	problems := map[string]string{}
	payload := make(map[string]any, len(values))
	rows := make([]*ResourceField, 0, len(values))
	for code, value := range values {
		def, ok := rt.Field(code)
		if !ok {
			problems[code] = "unknown field"
			continue
		}
		stored, err := s.registry.Lookup(def.FieldType).ToDatabase(ctx, value, fields.Context{ResourceID: resourceID, Code: code})
		if err != nil {
			problems[code] = err.Error()
			continue
		}
		if def.Required && (stored == nil || *stored == "") {
			problems[code] = "this field is required"
			continue
		}
		if stored == nil {
			payload[code] = nil
		} else {
			payload[code] = *stored
		}
		rows = append(rows, &ResourceField{ID: s.id(), ResourceID: resourceID, Code: code, Value: stored})
	}
	if len(problems) == 0 {
		specs := make([]schemavalidation.FieldSpec, 0, len(rt.Fields))
		for _, f := range rt.Fields {
			specs = append(specs, schemavalidation.FieldSpec{Code: f.Code, FieldType: f.FieldType, Required: f.Required})
		}
		schema := schemavalidation.SchemaForFields(specs)
		validate := schemavalidation.ValidatePartialPayload
		if full {
			validate = schemavalidation.ValidatePayload
		}
		if err := validate(schema, payload); err != nil {
			for code, msg := range schemavalidation.FieldErrors(err) {
				problems[code] = msg
			}
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Fields: prefixKeys("fields.", problems), Cause: ErrValidation}
	}
	return rows, nil
}

func prefixKeys(prefix string, in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[prefix+k] = v
	}
	return out
}

func (s *service) checkUnique(ctx context.Context, record *Resource) error {
	q := Query{Site: record.SiteID, Slug: &record.Slug, ExcludeID: &record.ID, Limit: 1}
	if record.ParentID == nil {
		q.RootOnly = true
	} else {
		q.ParentID = record.ParentID
	}
	existing, err := s.resources.Find(ctx, q)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fieldError("slug", fmt.Sprintf("%q already exists at this level", record.Slug), ErrDuplicate)
	}
	return nil
}

func (s *service) descendants(ctx context.Context, id uuid.UUID) ([]*Resource, error) {
	var out []*Resource
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]
		children, err := s.resources.Find(ctx, Query{Site: s.site, ParentID: &parentID})
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out, nil
}

func (s *service) parent(ctx context.Context, id uuid.UUID) (*Resource, error) {
	parent, err := s.load(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, fieldError("parent_id", "parent does not exist", err)
		}
		return nil, err
	}
	if parent.Deleted {
		return nil, fieldError("parent_id", "parent is deleted", ErrValidation)
	}
	return parent, nil
}

// load reads any resource of the site, whatever its status.
func (s *service) load(ctx context.Context, id uuid.UUID) (*Resource, error) {
	if id == uuid.Nil {
		return nil, ErrIDRequired
	}
	record, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.SiteID != s.site {
		return nil, &NotFoundError{Resource: "resource", Key: id.String()}
	}
	return record, nil
}

// clear tombstones the primary entry and drops the path reference.
func (s *service) clear(ctx context.Context, record *Resource) {
	if record == nil {
		return
	}
	if err := s.cache.Clear(ctx, record); err != nil {
		s.logger.Warn("resources.cache.clear_failed", logging.FieldResourceID, record.ID.String(), "error", err)
	}
	if err := s.cache.Forget(ctx, pathAttrs(record.SiteID, record.URIPath)); err != nil {
		s.logger.Warn("resources.cache.forget_failed", logging.FieldResourceID, record.ID.String(), "error", err)
	}
}

func (s *service) clearType(ctx context.Context, rt *ResourceType, previousCode string) {
	if rt == nil {
		return
	}
	if err := s.typeCache.Clear(ctx, rt); err != nil {
		s.logger.Warn("resources.cache.clear_failed", "type", rt.Code, "error", err)
	}
	for _, code := range []string{rt.Code, previousCode} {
		if code == "" {
			continue
		}
		if err := s.typeCache.Forget(ctx, map[string]any{AttrCode: code}); err != nil {
			s.logger.Warn("resources.cache.forget_failed", "type", code, "error", err)
		}
	}
}

func checkWindow(publish, unpublish *time.Time) error {
	if publish != nil && unpublish != nil && !publish.Before(*unpublish) {
		return fieldError("publish_date", ErrPublishWindowInvalid.Error(), ErrPublishWindowInvalid)
	}
	return nil
}

func utcPointer(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// duplicateAs reports ErrDuplicate from a repository as a field error.
func duplicateAs(err error, field string) error {
	if errors.Is(err, ErrDuplicate) {
		return fieldError(field, "already exists", ErrDuplicate)
	}
	return err
}
