package profile

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"metadata-validator/internal/processor"
)

const recordsSchemaURL = "urn:metadata-validator:sample-records.json"

// A sample JSON dataset is an array of flat records
const recordsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"additionalProperties": {"type": ["string", "number", "integer", "boolean", "null"]}
	}
}`

var compiledRecordsSchema = mustCompileRecordsSchema()

func mustCompileRecordsSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(recordsSchema))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(recordsSchemaURL, doc); err != nil {
		panic(err)
	}
	return compiler.MustCompile(recordsSchemaURL)
}

// SchemaViolation is one JSON location that does not fit the records schema
type SchemaViolation struct {
	Path    string
	Message string
}

// flattenViolations converts a validation error tree to leaf violations
func flattenViolations(verr *jsonschema.ValidationError) []SchemaViolation {
	if len(verr.Causes) == 0 {
		path := "$"
		if len(verr.InstanceLocation) > 0 {
			path = "$." + strings.Join(verr.InstanceLocation, ".")
		}
		return []SchemaViolation{{Path: path, Message: verr.Error()}}
	}
	var out []SchemaViolation
	for _, cause := range verr.Causes {
		out = append(out, flattenViolations(cause)...)
	}
	return out
}

func profileJSON(data []byte) ([]*column, int, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, 0, &processor.DecodeError{Format: "json", Err: err}
	}

	if err := compiledRecordsSchema.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			v := flattenViolations(verr)
			return nil, 0, &processor.DecodeError{
				Format: "json",
				Err:    fmt.Errorf("%d schema violation(s), first at %s", len(v), v[0].Path),
			}
		}
		return nil, 0, &processor.DecodeError{Format: "json", Err: err}
	}

	records := doc.([]any)

	names := []string{}
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r.(map[string]any) {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	cols := make([]*column, len(names))
	for i, name := range names {
		cols[i] = newColumn(name)
	}
	for _, r := range records {
		rec := r.(map[string]any)
		for _, c := range cols {
			v, ok := rec[c.name]
			if v == nil {
				ok = false
			}
			c.add(fmt.Sprint(v), ok)
		}
	}
	return cols, len(records), nil
}
