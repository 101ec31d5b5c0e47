package resources

import (
	"context"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	templateNamespace  = "template"
	typeNamespace      = "resource_type"
	typeFieldNamespace = "resource_type_field"
)

func NewTemplateModelRepository(db *bun.DB) repository.Repository[*Template] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Template]{
		NewRecord: func() *Template { return &Template{} },
		GetID: func(t *Template) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Template, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(t *Template) string {
			return t.Name
		},
	})
}

func NewTypeModelRepository(db *bun.DB) repository.Repository[*ResourceType] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ResourceType]{
		NewRecord: func() *ResourceType { return &ResourceType{} },
		GetID: func(t *ResourceType) uuid.UUID {
			return t.ID
		},
		SetID: func(t *ResourceType, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(t *ResourceType) string {
			return t.Code
		},
	})
}

func NewTypeFieldModelRepository(db *bun.DB) repository.Repository[*ResourceTypeField] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ResourceTypeField]{
		NewRecord: func() *ResourceTypeField { return &ResourceTypeField{} },
		GetID: func(f *ResourceTypeField) uuid.UUID {
			return f.ID
		},
		SetID: func(f *ResourceTypeField, id uuid.UUID) {
			f.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(f *ResourceTypeField) string {
			return f.Code
		},
	})
}

func NewResourceModelRepository(db *bun.DB) repository.Repository[*Resource] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Resource]{
		NewRecord: func() *Resource { return &Resource{} },
		GetID: func(r *Resource) uuid.UUID {
			return r.ID
		},
		SetID: func(r *Resource, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "uri_path"
		},
		GetIdentifierValue: func(r *Resource) string {
			return r.URIPath
		},
	})
}

func NewResourceFieldModelRepository(db *bun.DB) repository.Repository[*ResourceField] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ResourceField]{
		NewRecord: func() *ResourceField { return &ResourceField{} },
		GetID: func(f *ResourceField) uuid.UUID {
			return f.ID
		},
		SetID: func(f *ResourceField, id uuid.UUID) {
			f.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(f *ResourceField) string {
			return f.Code
		},
	})
}

// BunTemplateRepository stores templates with an optional read-through cache.
type BunTemplateRepository struct {
	repo         repository.Repository[*Template]
	cacheService cache.CacheService
	cachePrefix  string
}

func NewBunTemplateRepository(db *bun.DB) *BunTemplateRepository {
	return NewBunTemplateRepositoryWithCache(db, nil, nil)
}

func NewBunTemplateRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunTemplateRepository {
	base := NewTemplateModelRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	return &BunTemplateRepository{repo: base, cacheService: svc, cachePrefix: cachePrefix(svc, templateNamespace)}
}

func (r *BunTemplateRepository) Create(ctx context.Context, record *Template) (*Template, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, r.InvalidateCache(ctx)
}

func (r *BunTemplateRepository) Update(ctx context.Context, record *Template) (*Template, error) {
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns("name", "description", "content", "mime_type", "cacheable", "sites", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "template", record.ID.String())
	}
	return updated, r.InvalidateCache(ctx)
}

func (r *BunTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "template", id.String())
	}
	return record, nil
}

func (r *BunTemplateRepository) GetByName(ctx context.Context, name string) (*Template, error) {
	record, err := r.repo.GetByIdentifier(ctx, name)
	if err != nil {
		return nil, mapRepositoryError(err, "template", name)
	}
	return record, nil
}

func (r *BunTemplateRepository) List(ctx context.Context) ([]*Template, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.name ASC")
	}))
	return records, err
}

func (r *BunTemplateRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

// BunTypeRepository stores resource types, their field definitions and the
// allowed child type links.
type BunTypeRepository struct {
	db           *bun.DB
	repo         repository.Repository[*ResourceType]
	fields       repository.Repository[*ResourceTypeField]
	cacheService cache.CacheService
}

func NewBunTypeRepository(db *bun.DB) *BunTypeRepository {
	return NewBunTypeRepositoryWithCache(db, nil, nil)
}

func NewBunTypeRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunTypeRepository {
	base := NewTypeModelRepository(db)
	fields := NewTypeFieldModelRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		fields = repositorycache.New(fields, cacheService, serializer)
		svc = cacheService
	}
	return &BunTypeRepository{db: db, repo: base, fields: fields, cacheService: svc}
}

func (r *BunTypeRepository) Create(ctx context.Context, record *ResourceType) (*ResourceType, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("insert resource type: %w", err)
		}
		return writeTypeRelations(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	if err := r.InvalidateCache(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// Update replaces the type row, its field definitions and child links.
func (r *BunTypeRepository) Update(ctx context.Context, record *ResourceType) (*ResourceType, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(record).
			Column("name", "code", "description", "default_template", "is_link", "sites", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update resource type: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &NotFoundError{Resource: "resource type", Key: record.ID.String()}
		}
		if _, err := tx.NewDelete().Model((*ResourceTypeField)(nil)).
			Where("?TableAlias.resource_type_id = ?", record.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete type fields: %w", err)
		}
		if _, err := tx.NewDelete().Model((*ResourceTypeChild)(nil)).
			Where("?TableAlias.parent_id = ?", record.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete child types: %w", err)
		}
		return writeTypeRelations(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	if err := r.InvalidateCache(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func writeTypeRelations(ctx context.Context, tx bun.Tx, record *ResourceType) error {
	if len(record.Fields) > 0 {
		rows := make([]*ResourceTypeField, 0, len(record.Fields))
		for _, f := range record.Fields {
			copied := *f
			copied.ResourceTypeID = record.ID
			rows = append(rows, &copied)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert type fields: %w", err)
		}
	}
	if len(record.ChildTypes) > 0 {
		links := make([]*ResourceTypeChild, 0, len(record.ChildTypes))
		for _, ct := range record.ChildTypes {
			links = append(links, &ResourceTypeChild{ParentID: record.ID, ChildID: ct.ID})
		}
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			return fmt.Errorf("insert child types: %w", err)
		}
	}
	return nil
}

func (r *BunTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*ResourceType, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "resource type", id.String())
	}
	return r.load(ctx, record)
}

func (r *BunTypeRepository) GetByCode(ctx context.Context, code string) (*ResourceType, error) {
	record, err := r.repo.GetByIdentifier(ctx, code)
	if err != nil {
		return nil, mapRepositoryError(err, "resource type", code)
	}
	return r.load(ctx, record)
}

func (r *BunTypeRepository) List(ctx context.Context) ([]*ResourceType, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.name ASC")
	}))
	if err != nil {
		return nil, err
	}
	out := make([]*ResourceType, 0, len(records))
	for _, record := range records {
		loaded, err := r.load(ctx, record)
		if err != nil {
			return nil, err
		}
		out = append(out, loaded)
	}
	return out, nil
}

func (r *BunTypeRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil {
		return nil
	}
	if err := r.cacheService.DeleteByPrefix(ctx, typeNamespace+cache.KeySeparator); err != nil {
		return err
	}
	return r.cacheService.DeleteByPrefix(ctx, typeFieldNamespace+cache.KeySeparator)
}

// load attaches field definitions and child types to a copy of record.
func (r *BunTypeRepository) load(ctx context.Context, record *ResourceType) (*ResourceType, error) {
	out := cloneType(record)
	fields, _, err := r.fields.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.resource_type_id = ?", record.ID).
			OrderExpr("?TableAlias.position ASC, ?TableAlias.code ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("list type fields: %w", err)
	}
	out.Fields = fields

	var childIDs []uuid.UUID
	if err := r.db.NewSelect().Model((*ResourceTypeChild)(nil)).
		Column("child_id").
		Where("?TableAlias.parent_id = ?", record.ID).
		Scan(ctx, &childIDs); err != nil {
		return nil, fmt.Errorf("list child types: %w", err)
	}
	out.ChildTypes = nil
	if len(childIDs) > 0 {
		children, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id IN (?)", bun.In(childIDs)).OrderExpr("?TableAlias.name ASC")
		}))
		if err != nil {
			return nil, fmt.Errorf("load child types: %w", err)
		}
		out.ChildTypes = children
	}
	return out, nil
}

// BunResourceRepository stores resources and their dynamic field rows.
// Resource reads are cached by the manager, not here.
type BunResourceRepository struct {
	db     *bun.DB
	repo   repository.Repository[*Resource]
	fields repository.Repository[*ResourceField]
}

func NewBunResourceRepository(db *bun.DB) *BunResourceRepository {
	return &BunResourceRepository{
		db:     db,
		repo:   NewResourceModelRepository(db),
		fields: NewResourceFieldModelRepository(db),
	}
}

var resourceColumns = []string{
	"site_id", "type_id", "title", "slug", "uri_path", "parent_id", "content",
	"content_disposition", "published", "publish_date", "unpublish_date",
	"sort_order", "deleted", "edit_lock", "menu_title", "menu_class",
	"hide_from_menu", "updated_at",
}

func (r *BunResourceRepository) Create(ctx context.Context, record *Resource, fields []*ResourceField) (*Resource, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}
		return upsertFields(ctx, tx, record.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *BunResourceRepository) Update(ctx context.Context, record *Resource) (*Resource, error) {
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(resourceColumns...),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "resource", record.ID.String())
	}
	return updated, nil
}

func (r *BunResourceRepository) UpdateMany(ctx context.Context, records []*Resource) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return updateResources(ctx, tx, records)
	})
}

func (r *BunResourceRepository) UpdateWithFields(ctx context.Context, records []*Resource, resourceID uuid.UUID, fields []*ResourceField) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := updateResources(ctx, tx, records); err != nil {
			return err
		}
		return upsertFields(ctx, tx, resourceID, fields)
	})
}

func updateResources(ctx context.Context, tx bun.Tx, records []*Resource) error {
	for _, record := range records {
		res, err := tx.NewUpdate().Model(record).Column(resourceColumns...).WherePK().Exec(ctx)
		if err != nil {
			return fmt.Errorf("update resource %s: %w", record.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &NotFoundError{Resource: "resource", Key: record.ID.String()}
		}
	}
	return nil
}

func (r *BunResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "resource", id.String())
	}
	return record, nil
}

func (r *BunResourceRepository) Find(ctx context.Context, query Query) ([]*Resource, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		q = applyQuery(q, query).
			OrderExpr("?TableAlias.sort_order ASC, ?TableAlias.uri_path ASC, ?TableAlias.title ASC")
		if query.Limit > 0 {
			q = q.Limit(query.Limit)
		}
		return q
	}))
	if err != nil {
		return nil, fmt.Errorf("resource repository error: %w", err)
	}
	return records, nil
}

func (r *BunResourceRepository) Count(ctx context.Context, query Query) (int, error) {
	return r.db.NewSelect().Model((*Resource)(nil)).
		Apply(func(q *bun.SelectQuery) *bun.SelectQuery { return applyQuery(q, query) }).
		Count(ctx)
}

func applyQuery(q *bun.SelectQuery, f Query) *bun.SelectQuery {
	if f.Site != "" {
		q = q.Where("?TableAlias.site_id = ?", f.Site)
	}
	if f.ID != nil {
		q = q.Where("?TableAlias.id = ?", *f.ID)
	}
	if f.ExcludeID != nil {
		q = q.Where("?TableAlias.id <> ?", *f.ExcludeID)
	}
	if f.URIPath != nil {
		q = q.Where("?TableAlias.uri_path = ?", *f.URIPath)
	}
	if f.Slug != nil {
		q = q.Where("?TableAlias.slug = ?", *f.Slug)
	}
	if f.RootOnly {
		q = q.Where("?TableAlias.parent_id IS NULL")
	} else if f.ParentID != nil {
		q = q.Where("?TableAlias.parent_id = ?", *f.ParentID)
	}
	if f.TypeID != nil {
		q = q.Where("?TableAlias.type_id = ?", *f.TypeID)
	}
	if f.HideFromMenu != nil {
		q = q.Where("?TableAlias.hide_from_menu = ?", *f.HideFromMenu)
	}
	if f.Published != nil {
		q = q.Where("?TableAlias.published = ?", *f.Published)
	}
	if f.Deleted != nil {
		q = q.Where("?TableAlias.deleted = ?", *f.Deleted)
	}
	return q
}

// Delete checks for children and removes the row inside one transaction.
func (r *BunResourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		children, err := tx.NewSelect().Model((*Resource)(nil)).
			Where("?TableAlias.parent_id = ?", id).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("count children: %w", err)
		}
		if children > 0 {
			return ErrHasChildren
		}
		if _, err := tx.NewDelete().Model((*ResourceField)(nil)).
			Where("?TableAlias.resource_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete resource fields: %w", err)
		}
		res, err := tx.NewDelete().Model((*Resource)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete resource: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &NotFoundError{Resource: "resource", Key: id.String()}
		}
		return nil
	})
}

func (r *BunResourceRepository) ListFields(ctx context.Context, resourceID uuid.UUID) ([]*ResourceField, error) {
	records, _, err := r.fields.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.resource_id = ?", resourceID).OrderExpr("?TableAlias.code ASC")
	}))
	return records, err
}

func (r *BunResourceRepository) SaveFields(ctx context.Context, resourceID uuid.UUID, fields []*ResourceField) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Resource)(nil)).Where("?TableAlias.id = ?", resourceID).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return &NotFoundError{Resource: "resource", Key: resourceID.String()}
		}
		if err := upsertFields(ctx, tx, resourceID, fields); err != nil {
			return err
		}
		_, err = tx.NewUpdate().Model((*Resource)(nil)).
			Set("updated_at = ?", time.Now().UTC()).
			Where("?TableAlias.id = ?", resourceID).
			Exec(ctx)
		return err
	})
}

// upsertFields replaces rows by (resource, code).
func upsertFields(ctx context.Context, tx bun.Tx, resourceID uuid.UUID, fields []*ResourceField) error {
	if len(fields) == 0 {
		return nil
	}
	codes := make([]string, 0, len(fields))
	rows := make([]*ResourceField, 0, len(fields))
	for _, f := range fields {
		if f == nil {
			continue
		}
		copied := cloneField(f)
		copied.ResourceID = resourceID
		if copied.ID == uuid.Nil {
			copied.ID = uuid.New()
		}
		codes = append(codes, copied.Code)
		rows = append(rows, copied)
	}
	if _, err := tx.NewDelete().Model((*ResourceField)(nil)).
		Where("?TableAlias.resource_id = ?", resourceID).
		Where("?TableAlias.code IN (?)", bun.In(codes)).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete resource fields: %w", err)
	}
	if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert resource fields: %w", err)
	}
	return nil
}

func cachePrefix(svc cache.CacheService, namespace string) string {
	if svc == nil || namespace == "" {
		return ""
	}
	return namespace + cache.KeySeparator
}
