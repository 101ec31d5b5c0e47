package resources_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-resource-cms/internal/cache"
	"github.com/goliatone/go-resource-cms/internal/fields"
	"github.com/goliatone/go-resource-cms/internal/resources"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock     *testClock
	templates *resources.MemoryTemplateRepository
	types     *resources.MemoryTypeRepository
	store     *resources.MemoryResourceRepository
	provider  *cache.MemoryProvider
	cache     *resources.ResourceCache
	typeCache *resources.TypeCache
	registry  *fields.Registry
	service   resources.Service
	manager   *resources.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newTestClock()
	fx := &fixture{
		clock:     clock,
		templates: resources.NewMemoryTemplateRepository(),
		types:     resources.NewMemoryTypeRepository(),
		store:     resources.NewMemoryResourceRepository(),
		provider:  cache.NewMemoryProvider(cache.MemoryOptions{Clock: clock.Now}),
		registry:  fields.NewRegistry(),
	}
	fx.cache = resources.NewResourceCache(fx.provider)
	fx.typeCache = resources.NewTypeCache(fx.provider)
	fx.service = resources.NewService(fx.templates, fx.types, fx.store,
		resources.WithRegistry(fx.registry),
		resources.WithCache(fx.cache, fx.typeCache),
		resources.WithClock(clock.Now),
	)
	fx.manager = resources.NewManager(fx.store, fx.types,
		resources.WithManagerCache(fx.cache, fx.typeCache),
		resources.WithManagerClock(clock.Now),
	)
	return fx
}

func (fx *fixture) createType(t *testing.T, req resources.CreateTypeRequest) *resources.ResourceType {
	t.Helper()
	rt, err := fx.service.CreateType(context.Background(), req)
	if err != nil {
		t.Fatalf("create type %q: %v", req.Code, err)
	}
	return rt
}

func (fx *fixture) pageType(t *testing.T) *resources.ResourceType {
	t.Helper()
	return fx.createType(t, resources.CreateTypeRequest{
		Name:       "Page",
		Code:       "page",
		ChildTypes: []string{"page"},
		Fields: []resources.FieldDefinition{
			{Code: "body", FieldType: fields.CodeText},
			{Code: "featured", FieldType: fields.CodeBool},
			{Code: "event_date", FieldType: fields.CodeDate},
		},
	})
}

func (fx *fixture) add(t *testing.T, req resources.AddResourceRequest) *resources.Resource {
	t.Helper()
	if req.Type == "" {
		req.Type = "page"
	}
	r, err := fx.service.AddResource(context.Background(), req)
	if err != nil {
		t.Fatalf("add resource %q: %v", req.Title, err)
	}
	return r
}

func ptr[T any](v T) *T { return &v }
