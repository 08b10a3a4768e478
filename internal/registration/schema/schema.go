// Package schema validates intake payloads against a JSON schema and returns
// field-level error lists for the error envelope.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	domainerrors "msmeclinic/pkg/domain-errors"
)

const registrationSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": [
		"firstName", "lastName", "email", "phone", "aboutBusiness",
		"businessName", "businessType", "businessAddress", "yearsInBusiness",
		"expectations", "availability", "preferredTime"
	],
	"properties": {
		"firstName":       {"type": "string", "minLength": 1, "maxLength": 100},
		"lastName":        {"type": "string", "minLength": 1, "maxLength": 100},
		"email":           {"type": "string", "pattern": "^\\w+([.-]?\\w+)*@\\w+([.-]?\\w+)*(\\.\\w{2,3})+$"},
		"phone":           {"type": "string", "pattern": "^\\+234[0-9]{10}$"},
		"aboutBusiness":   {"type": "string", "minLength": 1, "maxLength": 1000},
		"cacNo":           {"type": "string", "maxLength": 50},
		"kasedaCertNo":    {"type": "string", "maxLength": 50},
		"businessName":    {"type": "string", "minLength": 1, "maxLength": 255},
		"businessType":    {"enum": ["retail", "manufacturing", "services", "technology", "healthcare", "education", "food", "agriculture", "other"]},
		"businessAddress": {"type": "string", "minLength": 1, "maxLength": 500},
		"yearsInBusiness": {"enum": ["0-1", "2-3", "4-5", "6-10", "10+"]},
		"expectations":    {"type": "string", "minLength": 1, "maxLength": 1000},
		"availability":    {"enum": ["immediately", "1-month", "2-3-months", "3-6-months", "flexible"]},
		"preferredTime":   {"enum": ["morning", "afternoon", "evening", "weekend", "flexible"]},
		"additionalInfo":  {"type": "string", "maxLength": 1000}
	}
}`

var registration = mustCompile(registrationSchema)

func mustCompile(raw string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid payload schema: %v", err))
	}
	return s
}

// ValidateRegistration checks a raw submission body. A nil return means the
// payload is well-formed; otherwise the slice describes every invalid field.
func ValidateRegistration(body []byte) []domainerrors.FieldError {
	return validate(registration, body)
}

func validate(s *gojsonschema.Schema, body []byte) []domainerrors.FieldError {
	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return []domainerrors.FieldError{{Field: "body", Message: "must be a JSON object"}}
	}
	if result.Valid() {
		return nil
	}
	fields := make([]domainerrors.FieldError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		field := re.Field()
		if field == "(root)" {
			if prop, ok := re.Details()["property"].(string); ok {
				field = prop
			}
		}
		fields = append(fields, domainerrors.FieldError{
			Field:   field,
			Message: re.Description(),
		})
	}
	return fields
}
