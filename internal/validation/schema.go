// Package validation checks subject bulletin files against the embedded
// JSON schema before they reach semantic validation.
package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/gradestat/gradestat/internal/schemas"
)

// defaultPrinter formats schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// subjectSchema is the compiled JSON Schema for subject bulletin files.
var subjectSchema *jsonschema.Schema

func init() {
	subjectSchema = mustCompileSchema(schemas.SubjectSchemaJSON, "subject.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateSubjectFile validates a bulletin YAML file at the given path
// against the subject schema.
func ValidateSubjectFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading subject file: %w", err)
	}
	return ValidateSubjectBytes(data), nil
}

// ValidateSubjectBytes validates raw YAML bytes against the subject schema.
// Each returned string is one violation, prefixed with its instance
// location.
func ValidateSubjectBytes(data []byte) []string {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}

	err := subjectSchema.Validate(jsonCompatible(doc))
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}

	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

// collectSchemaErrors flattens nested validation causes into one line per
// leaf violation.
func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// jsonCompatible rewrites YAML-decoded values for schema validation. Grade
// keys are often written unquoted, so integer-keyed mappings are converted
// to string keys.
func jsonCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = jsonCompatible(v2)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[fmt.Sprint(k)] = jsonCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = jsonCompatible(v2)
		}
		return result
	default:
		return val
	}
}
