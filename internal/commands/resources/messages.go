package resourcescmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-resource-cms/internal/resources"
)

const (
	addResourceMessageType    = "cms.resources.add"
	editResourceMessageType   = "cms.resources.edit"
	setFieldsMessageType      = "cms.resources.set_fields"
	publishMessageType        = "cms.resources.publish"
	unpublishMessageType      = "cms.resources.unpublish"
	clearCacheMessageType     = "cms.resources.clear_cache"
	deleteResourceMessageType = "cms.resources.delete"
)

// AddResourceCommand creates a resource below an optional parent.
type AddResourceCommand struct {
	resources.AddResourceRequest
}

func (AddResourceCommand) Type() string { return addResourceMessageType }

func (m AddResourceCommand) Validate() error { return m.AddResourceRequest.Validate() }

// EditResourceCommand applies a partial update. Paths of descendants are
// rewritten when the slug or parent changes.
type EditResourceCommand struct {
	resources.UpdateResourceRequest
}

func (EditResourceCommand) Type() string { return editResourceMessageType }

func (m EditResourceCommand) Validate() error { return m.UpdateResourceRequest.Validate() }

// SetFieldsCommand upserts dynamic field values by code.
type SetFieldsCommand struct {
	ResourceID uuid.UUID      `json:"resource_id"`
	Values     map[string]any `json:"values"`
}

func (SetFieldsCommand) Type() string { return setFieldsMessageType }

func (m SetFieldsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ResourceID, validation.By(requireID)),
		validation.Field(&m.Values, validation.Required),
	)
}

// PublishCommand is the bulk publish admin action.
type PublishCommand struct {
	IDs []uuid.UUID `json:"ids"`
}

func (PublishCommand) Type() string { return publishMessageType }

func (m PublishCommand) Validate() error { return validateIDs(m.IDs) }

// UnpublishCommand is the bulk unpublish admin action.
type UnpublishCommand struct {
	IDs []uuid.UUID `json:"ids"`
}

func (UnpublishCommand) Type() string { return unpublishMessageType }

func (m UnpublishCommand) Validate() error { return validateIDs(m.IDs) }

// ClearCacheCommand drops cached copies of the given resources.
type ClearCacheCommand struct {
	IDs []uuid.UUID `json:"ids"`
}

func (ClearCacheCommand) Type() string { return clearCacheMessageType }

func (m ClearCacheCommand) Validate() error { return validateIDs(m.IDs) }

// DeleteResourceCommand removes a resource. Soft deletes only flag it.
type DeleteResourceCommand struct {
	ID   uuid.UUID `json:"id"`
	Soft bool      `json:"soft,omitempty"`
}

func (DeleteResourceCommand) Type() string { return deleteResourceMessageType }

func (m DeleteResourceCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.By(requireID)),
	)
}

func requireID(value any) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return validation.NewError("cms.resources.id_required", "id is required")
	}
	return nil
}

func validateIDs(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return validation.Errors{"ids": validation.NewError("cms.resources.ids_required", "at least one id is required")}
	}
	for _, id := range ids {
		if id == uuid.Nil {
			return validation.Errors{"ids": validation.NewError("cms.resources.ids_invalid", "ids must be valid identifiers")}
		}
	}
	return nil
}
