package validation_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-resource-cms/internal/validation"
)

func pageSchema() map[string]any {
	return validation.SchemaForFields([]validation.FieldSpec{
		{Code: "body", FieldType: "char", Required: true},
		{Code: "featured", FieldType: "bool"},
		{Code: "published_on", FieldType: "date"},
		{Code: " ", FieldType: "char"},
	})
}

func TestValidatePayload(t *testing.T) {
	schema := pageSchema()
	cases := []struct {
		name    string
		payload map[string]any
		field   string
	}{
		{name: "valid", payload: map[string]any{"body": "Hello", "featured": "true", "published_on": "2024-05-01"}},
		{name: "null optional", payload: map[string]any{"body": "Hello", "published_on": nil}},
		{name: "empty date", payload: map[string]any{"body": "Hello", "published_on": ""}},
		{name: "missing required", payload: map[string]any{}, field: "body"},
		{name: "wrong type", payload: map[string]any{"body": 5}, field: "body"},
		{name: "bad date", payload: map[string]any{"body": "x", "published_on": "01/05/2024"}, field: "published_on"},
		{name: "unknown field", payload: map[string]any{"body": "x", "colour": "red"}, field: "fields"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validation.ValidatePayload(schema, tc.payload)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("expected valid payload, got %v", err)
				}
				return
			}
			if !errors.Is(err, validation.ErrSchemaValidation) {
				t.Fatalf("expected ErrSchemaValidation, got %v", err)
			}
			if _, ok := validation.FieldErrors(err)[tc.field]; !ok {
				t.Fatalf("expected error for %q, got %v", tc.field, validation.FieldErrors(err))
			}
		})
	}
}

func TestValidatePartialPayloadSkipsRequired(t *testing.T) {
	schema := pageSchema()
	if err := validation.ValidatePartialPayload(schema, map[string]any{"featured": true}); err != nil {
		t.Fatalf("partial payload: %v", err)
	}
	if _, ok := schema["required"]; !ok {
		t.Fatalf("partial validation must not modify the schema")
	}
	if err := validation.ValidatePartialPayload(schema, map[string]any{"body": 1}); err == nil {
		t.Fatalf("expected type errors to survive partial validation")
	}
	if err := validation.ValidatePartialPayload(nil, map[string]any{"anything": 1}); err != nil {
		t.Fatalf("nil schema accepts everything, got %v", err)
	}
}

func TestValidateSchema(t *testing.T) {
	if err := validation.ValidateSchema(pageSchema()); err != nil {
		t.Fatalf("generated schema: %v", err)
	}
	err := validation.ValidateSchema(map[string]any{"type": 5})
	if !errors.Is(err, validation.ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
}

func TestIssuesOfPlainError(t *testing.T) {
	issues := validation.Issues(errors.New("boom"))
	if len(issues) != 1 || issues[0].Message != "boom" {
		t.Fatalf("unexpected issues %+v", issues)
	}
	if validation.Issues(nil) != nil || validation.FieldErrors(nil) != nil {
		t.Fatalf("nil error has no issues")
	}
}
