// Package schemas holds the embedded JSON Schemas for gradestat file
// formats.
package schemas

import _ "embed"

// SubjectSchemaJSON is the JSON Schema for subject bulletin YAML files.
//
//go:embed subject.schema.json
var SubjectSchemaJSON string
