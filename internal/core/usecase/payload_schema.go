package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/campuspay/backoffice/internal/core/domain"
)

// Embedded request schemas. Keeping them next to the validator means a
// malformed schema fails at construction, not on the first request.
const (
	studentPayloadSchema = `{
		"type": "object",
		"required": ["name", "student_number"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"email": {"type": "string"},
			"student_number": {"type": "string", "minLength": 1}
		},
		"additionalProperties": false
	}`

	cardPayloadSchema = `{
		"type": "object",
		"required": ["card_number", "student_id"],
		"properties": {
			"card_number": {"type": "string", "minLength": 1},
			"student_id": {"type": "string", "minLength": 1},
			"balance": {"type": "integer", "minimum": 0},
			"active": {"type": "boolean"}
		},
		"additionalProperties": false
	}`

	orderPayloadSchema = `{
		"type": "object",
		"required": ["student_id", "total"],
		"properties": {
			"student_id": {"type": "string", "minLength": 1},
			"total": {"type": "integer", "minimum": 0},
			"status": {"type": "string", "minLength": 1}
		},
		"additionalProperties": false
	}`
)

// PayloadValidator validates inbound create/update bodies against the
// embedded draft-7 schemas before they reach the resource services.
type PayloadValidator struct {
	schemas map[string]*santhosh.Schema
}

func NewPayloadValidator() (*PayloadValidator, error) {
	sources := map[string]string{
		"student": studentPayloadSchema,
		"card":    cardPayloadSchema,
		"order":   orderPayloadSchema,
	}

	schemas := make(map[string]*santhosh.Schema, len(sources))
	for kind, src := range sources {
		compiled, err := compileSchema(json.RawMessage(src))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", kind, err)
		}
		schemas[kind] = compiled
	}
	return &PayloadValidator{schemas: schemas}, nil
}

// Validate checks data against the named schema. An unknown kind passes,
// mirroring the open-enum stance taken everywhere else in this service.
func (v *PayloadValidator) Validate(kind string, data json.RawMessage) error {
	sch, ok := v.schemas[kind]
	if !ok {
		return nil
	}
	return runValidation(sch, data)
}

func compileSchema(schemaJSON json.RawMessage) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func runValidation(sch *santhosh.Schema, data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ErrSchemaViolation{Errors: collectValidationErrors(ve)}
		}
		return &domain.ErrSchemaViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
