package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/manifest.schema.json
var manifestSchema []byte

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

// ManifestSchema returns the compiled manifest JSON Schema.
func ManifestSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("manifest.schema.json", bytes.NewReader(manifestSchema)); err != nil {
			compiledSchemaErr = fmt.Errorf("failed to add manifest schema resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("manifest.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}

// validateSchema checks raw YAML against the manifest schema.
func validateSchema(raw []byte) error {
	schema, err := ManifestSchema()
	if err != nil {
		return err
	}

	jsonBytes, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return fmt.Errorf("failed to decode manifest YAML: %w", err)
	}
	// The validator expects raw JSON values; numbers stay json.Number.
	var instance any
	decoder := json.NewDecoder(bytes.NewReader(jsonBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&instance); err != nil {
		return fmt.Errorf("failed to decode manifest YAML: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return formatSchemaValidationError(validationErr)
		}
		return fmt.Errorf("manifest schema validation failed: %w", err)
	}
	return nil
}

// formatSchemaValidationError formats a JSON Schema validation error into a readable message.
func formatSchemaValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collectErrors func(*jsonschema.ValidationError)
	collectErrors = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collectErrors(cause)
		}
	}

	collectErrors(err)

	if len(messages) == 0 {
		return fmt.Errorf("manifest schema validation failed: %s", err.Message)
	}
	return fmt.Errorf("manifest schema validation failed:\n    - %s", strings.Join(messages, "\n    - "))
}
