// Package schema checks analysis records against the embedded JSON schema.
// A violation is reported to the caller but never changes the record.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/analysis/record"
)

//go:embed record.schema.json
var recordSchema []byte

const resourceName = "record.schema.json"

type Validator struct {
	schema *jsonschema.Schema
}

func New() (*Validator, error) {
	return compile(recordSchema)
}

func compile(raw []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceName, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate returns nil when r matches the schema.
func (v *Validator) Validate(r record.Record) error {
	if v == nil || v.schema == nil {
		return nil
	}
	// Round-trip so every value has the type the validator expects.
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
