package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	resourcescmd "github.com/goliatone/go-resource-cms/internal/commands/resources"
	"github.com/goliatone/go-resource-cms/internal/resources"
)

// DefaultAdminPermission guards the admin API for non superusers.
const DefaultAdminPermission = "change_resource"

// AdminAPI exposes templates, types and resources as JSON.
type AdminAPI struct {
	basePath   string
	permission string
	service    resources.Service
	commands   *resourcescmd.Handlers
}

type AdminOption func(*AdminAPI)

// WithBasePath overrides the mount point, "/admin/api" by default.
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = "/" + strings.Trim(trimmed, "/")
		}
	}
}

// WithAdminPermission sets the permission non superusers need.
func WithAdminPermission(permission string) AdminOption {
	return func(api *AdminAPI) { api.permission = permission }
}

// WithCommands routes resource writes through command handlers. Without it
// handlers are built around the service.
func WithCommands(handlers *resourcescmd.Handlers) AdminOption {
	return func(api *AdminAPI) {
		if handlers != nil {
			api.commands = handlers
		}
	}
}

func NewAdminAPI(service resources.Service, opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath:   "/admin/api",
		permission: DefaultAdminPermission,
		service:    service,
	}
	for _, opt := range opts {
		opt(api)
	}
	if api.commands == nil {
		api.commands = resourcescmd.NewHandlers(service, nil)
	}
	return api
}

// Register mounts the API on r. Viewers must already be on the request
// context.
func (api *AdminAPI) Register(r chi.Router) {
	r.Route(api.basePath, func(r chi.Router) {
		r.Use(RequirePermission(api.permission))

		r.Get("/templates", api.listTemplates)
		r.Post("/templates", api.createTemplate)
		r.Get("/templates/{name}", api.getTemplate)
		r.Put("/templates/{name}", api.updateTemplate)

		r.Get("/types", api.listTypes)
		r.Post("/types", api.createType)
		r.Get("/types/{code}", api.getType)
		r.Put("/types/{code}", api.updateType)
		r.Get("/types/{code}/editor-fields", api.editorFields)

		r.Get("/resources", api.listResources)
		r.Post("/resources", api.addResource)
		r.Post("/resources/actions/{action}", api.bulkAction)
		r.Get("/resources/{id}", api.getResource)
		r.Patch("/resources/{id}", api.updateResource)
		r.Delete("/resources/{id}", api.deleteResource)
		r.Get("/resources/{id}/fields", api.getFields)
		r.Put("/resources/{id}/fields", api.setFields)
	})
}

func (api *AdminAPI) listTemplates(w http.ResponseWriter, r *http.Request) {
	records, err := api.service.ListTemplates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (api *AdminAPI) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req resources.CreateTemplateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	record, err := api.service.CreateTemplate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, record)
}

func (api *AdminAPI) getTemplate(w http.ResponseWriter, r *http.Request) {
	record, err := api.service.GetTemplate(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, record)
}

func (api *AdminAPI) updateTemplate(w http.ResponseWriter, r *http.Request) {
	current, err := api.service.GetTemplate(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	req := resources.UpdateTemplateRequest{ID: current.ID}
	if err := render.DecodeJSON(r.Body, &req.CreateTemplateRequest); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	record, err := api.service.UpdateTemplate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, record)
}

func (api *AdminAPI) listTypes(w http.ResponseWriter, r *http.Request) {
	records, err := api.service.ListTypes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (api *AdminAPI) createType(w http.ResponseWriter, r *http.Request) {
	var req resources.CreateTypeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	record, err := api.service.CreateType(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, record)
}

func (api *AdminAPI) getType(w http.ResponseWriter, r *http.Request) {
	record, err := api.service.GetType(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, record)
}

func (api *AdminAPI) updateType(w http.ResponseWriter, r *http.Request) {
	current, err := api.service.GetType(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	req := resources.UpdateTypeRequest{ID: current.ID}
	if err := render.DecodeJSON(r.Body, &req.CreateTypeRequest); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	record, err := api.service.UpdateType(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, record)
}

func (api *AdminAPI) editorFields(w http.ResponseWriter, r *http.Request) {
	fields, err := api.service.EditorFields(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, fields)
}

func (api *AdminAPI) listResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := resources.ListFilter{
		Type:           strings.TrimSpace(q.Get("type")),
		IncludeDeleted: parseBoolQuery(q.Get("include_deleted"), false),
	}
	if raw := q.Get("parent_id"); raw != "" {
		parent, err := parseUUID(raw)
		if err != nil {
			badRequest(w, r, "invalid parent_id")
			return
		}
		filter.ParentID = &parent
	}
	if raw := q.Get("status"); raw != "" {
		status, ok := resources.ParseStatus(raw)
		if !ok {
			badRequest(w, r, "invalid status")
			return
		}
		filter.Status = &status
	}
	listing, err := api.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, listing)
}

func (api *AdminAPI) addResource(w http.ResponseWriter, r *http.Request) {
	var req resources.AddResourceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	if viewer := ViewerFromContext(r.Context()); viewer != nil && req.CreatedBy == uuid.Nil {
		if id, err := uuid.Parse(viewer.ID()); err == nil {
			req.CreatedBy = id
		}
	}
	record, err := api.service.AddResource(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, record)
}

func (api *AdminAPI) getResource(w http.ResponseWriter, r *http.Request) {
	id, ok := api.resourceID(w, r)
	if !ok {
		return
	}
	record, err := api.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, record)
}

func (api *AdminAPI) updateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := api.resourceID(w, r)
	if !ok {
		return
	}
	var req resources.UpdateResourceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	req.ID = id
	req.Viewer = ViewerFromContext(r.Context())
	if err := api.commands.Edit.Execute(r.Context(), resourcescmd.EditResourceCommand{UpdateResourceRequest: req}); err != nil {
		writeError(w, r, err)
		return
	}
	api.getResource(w, r)
}

func (api *AdminAPI) deleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := api.resourceID(w, r)
	if !ok {
		return
	}
	msg := resourcescmd.DeleteResourceCommand{ID: id, Soft: parseBoolQuery(r.URL.Query().Get("soft"), false)}
	if err := api.commands.Delete.Execute(r.Context(), msg); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) getFields(w http.ResponseWriter, r *http.Request) {
	id, ok := api.resourceID(w, r)
	if !ok {
		return
	}
	values, err := api.service.Fields(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, values)
}

func (api *AdminAPI) setFields(w http.ResponseWriter, r *http.Request) {
	id, ok := api.resourceID(w, r)
	if !ok {
		return
	}
	var values map[string]any
	if err := render.DecodeJSON(r.Body, &values); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	if err := api.commands.SetFields.Execute(r.Context(), resourcescmd.SetFieldsCommand{ResourceID: id, Values: values}); err != nil {
		writeError(w, r, err)
		return
	}
	api.getFields(w, r)
}

type bulkRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type bulkResponse struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

func (api *AdminAPI) bulkAction(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	action := chi.URLParam(r, "action")
	var err error
	switch action {
	case "publish":
		err = api.commands.Publish.Execute(r.Context(), resourcescmd.PublishCommand{IDs: req.IDs})
	case "unpublish":
		err = api.commands.Unpublish.Execute(r.Context(), resourcescmd.UnpublishCommand{IDs: req.IDs})
	case "clear-cache":
		err = api.commands.Clear.Execute(r.Context(), resourcescmd.ClearCacheCommand{IDs: req.IDs})
	default:
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "not_found", Message: "unknown action " + action})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, bulkResponse{Action: action, Count: len(req.IDs)})
}

func (api *AdminAPI) resourceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, r, "invalid resource id")
		return uuid.Nil, false
	}
	return id, true
}
