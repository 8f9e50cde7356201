package runtimeconfig

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaName = "runtime-config.json"

const runtimeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["backend_url"],
  "properties": {
    "backend_url": {
      "type": "string",
      "minLength": 1,
      "format": "uri"
    }
  }
}`

// Validator checks a decoded runtime config document.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() *Validator {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaName, strings.NewReader(runtimeSchema)); err != nil {
		panic(fmt.Sprintf("runtimeconfig: load schema: %v", err))
	}
	return &Validator{schema: compiler.MustCompile(schemaName)}
}

func (v *Validator) Validate(doc any) error {
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("runtimeconfig: invalid document: %w", err)
	}
	return nil
}
