package resources

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryTemplateRepository is an in-memory template store for tests.
type MemoryTemplateRepository struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*Template
}

func NewMemoryTemplateRepository() *MemoryTemplateRepository {
	return &MemoryTemplateRepository{templates: make(map[uuid.UUID]*Template)}
}

func (m *MemoryTemplateRepository) Create(_ context.Context, record *Template) (*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.templates {
		if existing.Name == record.Name {
			return nil, ErrDuplicate
		}
	}
	m.templates[record.ID] = cloneTemplate(record)
	return cloneTemplate(record), nil
}

func (m *MemoryTemplateRepository) Update(_ context.Context, record *Template) (*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "template", Key: record.ID.String()}
	}
	for id, existing := range m.templates {
		if id != record.ID && existing.Name == record.Name {
			return nil, ErrDuplicate
		}
	}
	m.templates[record.ID] = cloneTemplate(record)
	return cloneTemplate(record), nil
}

func (m *MemoryTemplateRepository) GetByID(_ context.Context, id uuid.UUID) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.templates[id]
	if !ok {
		return nil, &NotFoundError{Resource: "template", Key: id.String()}
	}
	return cloneTemplate(record), nil
}

func (m *MemoryTemplateRepository) GetByName(_ context.Context, name string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.templates {
		if record.Name == name {
			return cloneTemplate(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "template", Key: name}
}

func (m *MemoryTemplateRepository) List(_ context.Context) ([]*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Template, 0, len(m.templates))
	for _, record := range m.templates {
		out = append(out, cloneTemplate(record))
	}
	slices.SortFunc(out, func(a, b *Template) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// MemoryTypeRepository is an in-memory resource type store for tests.
type MemoryTypeRepository struct {
	mu    sync.RWMutex
	types map[uuid.UUID]*ResourceType
}

func NewMemoryTypeRepository() *MemoryTypeRepository {
	return &MemoryTypeRepository{types: make(map[uuid.UUID]*ResourceType)}
}

func (m *MemoryTypeRepository) Create(_ context.Context, record *ResourceType) (*ResourceType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUnique(record); err != nil {
		return nil, err
	}
	m.types[record.ID] = cloneType(record)
	return m.attach(m.types[record.ID]), nil
}

func (m *MemoryTypeRepository) Update(_ context.Context, record *ResourceType) (*ResourceType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "resource type", Key: record.ID.String()}
	}
	if err := m.checkUnique(record); err != nil {
		return nil, err
	}
	m.types[record.ID] = cloneType(record)
	return m.attach(m.types[record.ID]), nil
}

func (m *MemoryTypeRepository) GetByID(_ context.Context, id uuid.UUID) (*ResourceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.types[id]
	if !ok {
		return nil, &NotFoundError{Resource: "resource type", Key: id.String()}
	}
	return m.attach(record), nil
}

func (m *MemoryTypeRepository) GetByCode(_ context.Context, code string) (*ResourceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.types {
		if record.Code == code {
			return m.attach(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "resource type", Key: code}
}

func (m *MemoryTypeRepository) List(_ context.Context) ([]*ResourceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ResourceType, 0, len(m.types))
	for _, record := range m.types {
		out = append(out, m.attach(record))
	}
	slices.SortFunc(out, func(a, b *ResourceType) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemoryTypeRepository) checkUnique(record *ResourceType) error {
	for id, existing := range m.types {
		if id == record.ID {
			continue
		}
		if existing.Code == record.Code || existing.Name == record.Name {
			return ErrDuplicate
		}
	}
	return nil
}

// attach resolves child types from the current store so renamed children
// are reflected.
func (m *MemoryTypeRepository) attach(record *ResourceType) *ResourceType {
	out := cloneType(record)
	children := make([]*ResourceType, 0, len(out.ChildTypes))
	for _, ct := range out.ChildTypes {
		if current, ok := m.types[ct.ID]; ok {
			copied := *current
			copied.Fields = nil
			copied.ChildTypes = nil
			children = append(children, &copied)
		}
	}
	out.ChildTypes = children
	sortTypeFields(out.Fields)
	return out
}

// MemoryResourceRepository is an in-memory resource store for tests.
type MemoryResourceRepository struct {
	mu        sync.RWMutex
	resources map[uuid.UUID]*Resource
	fields    map[uuid.UUID]map[string]*ResourceField
}

func NewMemoryResourceRepository() *MemoryResourceRepository {
	return &MemoryResourceRepository{
		resources: make(map[uuid.UUID]*Resource),
		fields:    make(map[uuid.UUID]map[string]*ResourceField),
	}
}

func (m *MemoryResourceRepository) Create(_ context.Context, record *Resource, fields []*ResourceField) (*Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[record.ID]; ok {
		return nil, ErrDuplicate
	}
	m.resources[record.ID] = cloneResource(record)
	m.fields[record.ID] = make(map[string]*ResourceField, len(fields))
	m.saveFieldsLocked(record.ID, fields)
	return cloneResource(record), nil
}

func (m *MemoryResourceRepository) Update(_ context.Context, record *Resource) (*Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "resource", Key: record.ID.String()}
	}
	m.resources[record.ID] = cloneResource(record)
	return cloneResource(record), nil
}

func (m *MemoryResourceRepository) UpdateMany(ctx context.Context, records []*Resource) error {
	return m.UpdateWithFields(ctx, records, uuid.Nil, nil)
}

func (m *MemoryResourceRepository) UpdateWithFields(_ context.Context, records []*Resource, resourceID uuid.UUID, fields []*ResourceField) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		if _, ok := m.resources[record.ID]; !ok {
			return &NotFoundError{Resource: "resource", Key: record.ID.String()}
		}
	}
	if len(fields) > 0 {
		if _, ok := m.resources[resourceID]; !ok {
			return &NotFoundError{Resource: "resource", Key: resourceID.String()}
		}
	}
	for _, record := range records {
		m.resources[record.ID] = cloneResource(record)
	}
	if len(fields) > 0 {
		m.saveFieldsLocked(resourceID, fields)
	}
	return nil
}

func (m *MemoryResourceRepository) GetByID(_ context.Context, id uuid.UUID) (*Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.resources[id]
	if !ok {
		return nil, &NotFoundError{Resource: "resource", Key: id.String()}
	}
	return cloneResource(record), nil
}

func (m *MemoryResourceRepository) Find(_ context.Context, q Query) ([]*Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Resource, 0)
	for _, record := range m.resources {
		if q.Matches(record) {
			out = append(out, cloneResource(record))
		}
	}
	SortResources(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryResourceRepository) Count(ctx context.Context, q Query) (int, error) {
	q.Limit = 0
	records, err := m.Find(ctx, q)
	return len(records), err
}

func (m *MemoryResourceRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[id]; !ok {
		return &NotFoundError{Resource: "resource", Key: id.String()}
	}
	for _, record := range m.resources {
		if record.ParentID != nil && *record.ParentID == id {
			return ErrHasChildren
		}
	}
	delete(m.resources, id)
	delete(m.fields, id)
	return nil
}

func (m *MemoryResourceRepository) ListFields(_ context.Context, resourceID uuid.UUID) ([]*ResourceField, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ResourceField, 0, len(m.fields[resourceID]))
	for _, field := range m.fields[resourceID] {
		out = append(out, cloneField(field))
	}
	slices.SortFunc(out, func(a, b *ResourceField) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}

func (m *MemoryResourceRepository) SaveFields(_ context.Context, resourceID uuid.UUID, fields []*ResourceField) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[resourceID]; !ok {
		return &NotFoundError{Resource: "resource", Key: resourceID.String()}
	}
	m.saveFieldsLocked(resourceID, fields)
	return nil
}

func (m *MemoryResourceRepository) saveFieldsLocked(resourceID uuid.UUID, fields []*ResourceField) {
	stored := m.fields[resourceID]
	if stored == nil {
		stored = make(map[string]*ResourceField, len(fields))
		m.fields[resourceID] = stored
	}
	for _, field := range fields {
		if field == nil {
			continue
		}
		copied := cloneField(field)
		copied.ResourceID = resourceID
		if existing, ok := stored[copied.Code]; ok {
			copied.ID = existing.ID
		}
		stored[copied.Code] = copied
	}
}

// SortResources orders siblings by order, uri_path and title.
func SortResources(records []*Resource) {
	slices.SortStableFunc(records, func(a, b *Resource) int {
		return cmp.Or(
			cmp.Compare(a.Order, b.Order),
			strings.Compare(a.URIPath, b.URIPath),
			strings.Compare(a.Title, b.Title),
		)
	})
}

func sortTypeFields(fields []*ResourceTypeField) {
	slices.SortStableFunc(fields, func(a, b *ResourceTypeField) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), strings.Compare(a.Code, b.Code))
	})
}
