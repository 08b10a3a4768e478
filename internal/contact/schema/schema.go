// Package schema validates contact form payloads.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	domainerrors "msmeclinic/pkg/domain-errors"
)

const contactSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["firstName", "lastName", "email", "subject", "message"],
	"properties": {
		"firstName": {"type": "string", "minLength": 1, "maxLength": 100},
		"lastName":  {"type": "string", "minLength": 1, "maxLength": 100},
		"email":     {"type": "string", "pattern": "^\\w+([.-]?\\w+)*@\\w+([.-]?\\w+)*(\\.\\w{2,3})+$"},
		"subject":   {"type": "string", "minLength": 1, "maxLength": 255},
		"message":   {"type": "string", "minLength": 1, "maxLength": 5000}
	}
}`

var contact = mustCompile(contactSchema)

func mustCompile(raw string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid payload schema: %v", err))
	}
	return s
}

// ValidateContact checks a raw contact form body. A nil return means the
// payload is well-formed; otherwise the slice describes every invalid field.
func ValidateContact(body []byte) []domainerrors.FieldError {
	result, err := contact.Validate(gojsonschema.NewBytesLoader(body))
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
