package markdown

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-resource-cms/internal/identity"
	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

var (
	ErrServiceRequired = errors.New("markdown importer: resource service is required")
	ErrTypeMissing     = errors.New("markdown importer: resource type could not be determined")
	ErrParentMissing   = errors.New("markdown importer: parent resource not found")
)

// IndexName marks the document that stands for its directory.
const IndexName = "index"

// ImporterConfig wires an Importer.
type ImporterConfig struct {
	Service resources.Service
	Parser  *Parser
	Site    string
	// DefaultType is used for documents without a type in their header.
	DefaultType string
	// BodyField stores the raw markdown body in this field instead of
	// rendering it into the resource content.
	BodyField string
	Logger    interfaces.Logger
}

// ImportOptions tune a single run.
type ImportOptions struct {
	DryRun bool
}

// ImportError ties a failure to its document.
type ImportError struct {
	Path string
	Err  error
}

func (e ImportError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e ImportError) Unwrap() error { return e.Err }

// ImportResult lists document paths by outcome.
type ImportResult struct {
	Created []string
	Updated []string
	Skipped []string
	Errors  []ImportError
}

// Err joins the per document errors.
func (r *ImportResult) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

// Importer creates or updates one resource per document. Resource ids derive
// from the site and document path, so re-importing updates in place.
type Importer struct {
	service     resources.Service
	parser      *Parser
	site        string
	defaultType string
	bodyField   string
	logger      interfaces.Logger
}

func NewImporter(cfg ImporterConfig) *Importer {
	parser := cfg.Parser
	if parser == nil {
		parser = NewParser(ParseOptions{})
	}
	site := strings.TrimSpace(cfg.Site)
	if site == "" {
		site = resources.DefaultSite
	}
	return &Importer{
		service:     cfg.Service,
		parser:      parser,
		site:        site,
		defaultType: strings.TrimSpace(cfg.DefaultType),
		bodyField:   strings.TrimSpace(cfg.BodyField),
		logger:      logging.OrNoOp(cfg.Logger),
	}
}

// Import applies docs parents first. A failed document does not stop the
// run; its descendants fail with ErrParentMissing.
func (i *Importer) Import(ctx context.Context, docs []*Document, opts ImportOptions) (*ImportResult, error) {
	if i.service == nil {
		return nil, ErrServiceRequired
	}
	ordered := append([]*Document(nil), docs...)
	sort.SliceStable(ordered, func(a, b int) bool {
		da, db := depth(ordered[a].Path), depth(ordered[b].Path)
		if da != db {
			return da < db
		}
		return ordered[a].Path < ordered[b].Path
	})

	result := &ImportResult{}
	for _, doc := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome, err := i.apply(ctx, doc, opts)
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Path: doc.Path, Err: err})
			i.logger.Warn("markdown.import.failed", "path", doc.Path, "error", err)
			continue
		}
		switch outcome {
		case outcomeCreated:
			result.Created = append(result.Created, doc.Path)
		case outcomeUpdated:
			result.Updated = append(result.Updated, doc.Path)
		default:
			result.Skipped = append(result.Skipped, doc.Path)
		}
	}
	i.logger.Info("markdown.import.completed",
		"created", len(result.Created),
		"updated", len(result.Updated),
		"skipped", len(result.Skipped),
		"failed", len(result.Errors),
	)
	return result, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeUpdated
)

func (i *Importer) apply(ctx context.Context, doc *Document, opts ImportOptions) (outcome, error) {
	meta := doc.FrontMatter
	slug, parentDir := locate(doc.Path)
	if meta.Slug != "" {
		slug = meta.Slug
	}
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = titleFromSlug(slug)
	}
	if title == "" {
		title = "Home"
	}

	var parentID *uuid.UUID
	if parentDir != "" {
		id := identity.ResourceUUID(i.site, parentDir+"/"+IndexName+".md")
		if _, err := i.service.Get(ctx, id); err != nil {
			if resources.IsNotFound(err) {
				return outcomeSkipped, fmt.Errorf("%w: %s", ErrParentMissing, parentDir)
			}
			return outcomeSkipped, err
		}
		parentID = &id
	}

	content, values, err := i.body(doc)
	if err != nil {
		return outcomeSkipped, err
	}

	id := identity.ResourceUUID(i.site, doc.Path)
	existing, err := i.service.Get(ctx, id)
	if err != nil && !resources.IsNotFound(err) {
		return outcomeSkipped, err
	}
	if opts.DryRun {
		return outcomeSkipped, nil
	}

	published := meta.IsPublished()
	if existing == nil {
		typeCode := strings.TrimSpace(meta.Type)
		if typeCode == "" {
			typeCode = i.defaultType
		}
		if typeCode == "" {
			return outcomeSkipped, ErrTypeMissing
		}
		_, err := i.service.AddResource(ctx, resources.AddResourceRequest{
			ID:                 id,
			Type:               typeCode,
			Title:              title,
			Slug:               slug,
			ParentID:           parentID,
			Content:            content,
			ContentDisposition: meta.ContentDisposition,
			Published:          published,
			PublishDate:        meta.PublishDate,
			UnpublishDate:      meta.UnpublishDate,
			Order:              meta.Order,
			MenuTitle:          meta.MenuTitle,
			MenuClass:          meta.MenuClass,
			HideFromMenu:       meta.HideFromMenu,
			Fields:             values,
		})
		if err != nil {
			return outcomeSkipped, err
		}
		i.logger.Debug("markdown.import.created", "path", doc.Path, logging.FieldResourceID, id.String())
		return outcomeCreated, nil
	}

	req := resources.UpdateResourceRequest{
		ID:                 id,
		Title:              &title,
		Slug:               &slug,
		Content:            &content,
		ContentDisposition: &meta.ContentDisposition,
		Published:          &published,
		PublishDate:        meta.PublishDate,
		UnpublishDate:      meta.UnpublishDate,
		ClearPublishDate:   meta.PublishDate == nil,
		ClearUnpublishDate: meta.UnpublishDate == nil,
		Order:              meta.Order,
		MenuTitle:          &meta.MenuTitle,
		MenuClass:          &meta.MenuClass,
		HideFromMenu:       &meta.HideFromMenu,
		Fields:             values,
	}
	if !sameParent(existing.ParentID, parentID) {
		target := uuid.Nil
		if parentID != nil {
			target = *parentID
		}
		req.MoveTo = &target
	}
	if _, err := i.service.UpdateResource(ctx, req); err != nil {
		return outcomeSkipped, err
	}
	i.logger.Debug("markdown.import.updated", "path", doc.Path, logging.FieldResourceID, id.String())
	return outcomeUpdated, nil
}

// body returns the resource content and field values for doc.
func (i *Importer) body(doc *Document) (string, map[string]any, error) {
	values := make(map[string]any, len(doc.FrontMatter.Fields)+1)
	for k, v := range doc.FrontMatter.Fields {
		values[k] = v
	}
	if i.bodyField != "" {
		values[i.bodyField] = string(doc.Body)
		return "", values, nil
	}
	if len(strings.TrimSpace(string(doc.Body))) == 0 {
		return "", values, nil
	}
	html, err := i.parser.Parse(doc.Body)
	if err != nil {
		return "", nil, err
	}
	return string(html), values, nil
}

// locate derives the slug and parent directory of a document path.
// "index.md" is the site root, "docs/index.md" is the "docs" resource at
// the root and "docs/intro.md" is "intro" below it.
func locate(p string) (slug, parentDir string) {
	dir, file := path.Split(p)
	dir = strings.TrimSuffix(dir, "/")
	name := strings.TrimSuffix(file, path.Ext(file))
	if name == IndexName && dir == "" {
		return "", ""
	}
	if name == IndexName {
		parent := path.Dir(dir)
		if parent == "." {
			parent = ""
		}
		return path.Base(dir), parent
	}
	return name, dir
}

func depth(p string) int {
	_, parent := locate(p)
	if parent == "" {
		return 0
	}
	return strings.Count(parent, "/") + 1
}

func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for idx, w := range words {
		words[idx] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
