package model

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/document.schema.json
var documentSchema []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
	})
	return schema, schemaErr
}

// ValidateJSON validates a canonical document against the embedded schema.
func ValidateJSON(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load document schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return NewValidationError("validate", err.Error())
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return NewValidationError("validate", "schema validation failed: "+strings.Join(msgs, "; "))
}

// Validate checks the schema and the document invariants the schema cannot
// express: unique ids, known types and section multiplicity.
func Validate(doc Document) error {
	raw, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := ValidateJSON(raw); err != nil {
		return err
	}
	sectionIDs := map[string]bool{}
	entryIDs := map[string]bool{}
	seen := map[SectionType]bool{}
	for _, s := range doc.Sections {
		if sectionIDs[s.ID] {
			return NewValidationError("validate", fmt.Sprintf("duplicate section id %q", s.ID))
		}
		sectionIDs[s.ID] = true
		d, ok := Lookup(s.Type)
		if !ok {
			return NewValidationError("validate", fmt.Sprintf("unknown section type %q", s.Type))
		}
		if seen[s.Type] && !d.Repeatable {
			return NewValidationError("validate", fmt.Sprintf("section type %q may appear only once", s.Type))
		}
		seen[s.Type] = true
		if s.Data != nil && s.Data.Kind() != d.Kind {
			return NewValidationError("validate", fmt.Sprintf("section %q: payload kind %s does not match type %s", s.ID, s.Data.Kind(), s.Type))
		}
		if l, ok := s.Entries(); ok {
			for _, e := range l.Entries {
				if entryIDs[e.ID] {
					return NewValidationError("validate", fmt.Sprintf("duplicate entry id %q", e.ID))
				}
				entryIDs[e.ID] = true
			}
		}
	}
	return nil
}
