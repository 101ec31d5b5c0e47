package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// FieldSpec describes one dynamic field for schema generation.
type FieldSpec struct {
	Code      string
	FieldType string
	Required  bool
}

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// PayloadValidationError surfaces validation issues with schema-aware context.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// FieldErrors maps issues to field codes. Issues without a location, other
// than missing required properties, are reported under "fields".
func FieldErrors(err error) map[string]string {
	issues := Issues(err)
	if len(issues) == 0 {
		return nil
	}
	out := make(map[string]string, len(issues))
	for _, issue := range issues {
		location := strings.Trim(strings.TrimPrefix(issue.Location, "#"), "/")
		if location != "" {
			code, _, _ := strings.Cut(location, "/")
			out[code] = issue.Message
			continue
		}
		if missing := missingProperties(issue.Message); len(missing) > 0 {
			for _, code := range missing {
				out[code] = "this field is required"
			}
			continue
		}
		out["fields"] = issue.Message
	}
	return out
}

var quoted = regexp.MustCompile(`'([^']+)'`)

func missingProperties(message string) []string {
	if !strings.HasPrefix(message, "missing propert") {
		return nil
	}
	matches := quoted.FindAllStringSubmatch(message, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Patterns accepted for temporal field payloads.
const (
	datePattern     = `^\d{4}-\d{2}-\d{2}$`
	timePattern     = `^\d{2}:\d{2}:\d{2}$`
	dateTimePattern = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`
)

// SchemaForFields builds a JSON schema for a dynamic field payload keyed by
// field code. Codes outside specs are rejected.
func SchemaForFields(specs []FieldSpec) map[string]any {
	properties := make(map[string]any, len(specs))
	required := make([]any, 0)
	for _, spec := range specs {
		code := strings.TrimSpace(spec.Code)
		if code == "" {
			continue
		}
		properties[code] = propertyFor(spec.FieldType)
		if spec.Required {
			required = append(required, code)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func propertyFor(fieldType string) map[string]any {
	nullable := func(prop map[string]any) map[string]any {
		return map[string]any{"anyOf": []any{prop, map[string]any{"type": "null"}}}
	}
	switch fieldType {
	case "bool":
		return map[string]any{"type": []any{"boolean", "string", "integer"}}
	case "date":
		return nullable(map[string]any{"type": "string", "pattern": `^$|` + datePattern})
	case "time":
		return nullable(map[string]any{"type": "string", "pattern": `^$|` + timePattern})
	case "datetime":
		return nullable(map[string]any{"type": "string", "pattern": `^$|` + dateTimePattern})
	case "char", "text", "html", "markdown":
		return nullable(map[string]any{"type": "string"})
	default:
		return map[string]any{}
	}
}

// ValidatePayload validates payload against schema, enforcing required
// properties.
func ValidatePayload(schema map[string]any, payload map[string]any) error {
	return validatePayloadWithSchema(schema, payload)
}

// ValidatePartialPayload validates payload without enforcing required fields.
func ValidatePartialPayload(schema map[string]any, payload map[string]any) error {
	if schema == nil {
		return nil
	}
	partial := make(map[string]any, len(schema))
	for key, value := range schema {
		if key != "required" {
			partial[key] = value
		}
	}
	return validatePayloadWithSchema(partial, payload)
}

// ValidateSchema ensures the schema can be compiled.
func ValidateSchema(schema map[string]any) error {
	if _, err := compileSchema(schema); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return nil
}

func validatePayloadWithSchema(schema map[string]any, payload map[string]any) error {
	if schema == nil {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := compiled.Validate(jsonValue(payload)); err != nil {
		return &PayloadValidationError{
			Issues: Issues(err),
			Cause:  err,
		}
	}
	return nil
}

// jsonValue round trips payload through encoding/json so typed Go values
// validate the way their JSON form would.
func jsonValue(payload map[string]any) any {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return payload
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return payload
	}
	return out
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
