package leaderboard

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

//go:embed import_schema.json
var importSchemaJSON []byte

var importSchema = mustCompileImportSchema()

func mustCompileImportSchema() *jsonschema.Schema {
	schema, err := jsonschema.NewCompiler().Compile(importSchemaJSON)
	if err != nil {
		panic(fmt.Sprintf("compile embedded import schema: %v", err))
	}
	return schema
}

// ValidateImportPayload checks a decoded bulk-import body against the
// embedded JSON Schema before it is bound to typed structs.
func ValidateImportPayload(payload map[string]interface{}) error {
	result := importSchema.Validate(payload)
	if result.IsValid() {
		return nil
	}

	var messages []string
	for field, evalErr := range result.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
	}
	sort.Strings(messages)
	return fmt.Errorf("invalid import payload: %s", strings.Join(messages, "; "))
}
