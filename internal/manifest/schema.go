package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Resolved
	schemaErr  error
)

// compiledSchema resolves the embedded submission schema once.
func compiledSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		var s jsonschema.Schema
		if err := json.Unmarshal(schemaJSON, &s); err != nil {
			schemaErr = fmt.Errorf("unmarshalling embedded schema: %w", err)
			return
		}
		schema, schemaErr = s.Resolve(nil)
	})
	return schema, schemaErr
}

// ValidateSchema checks a decoded manifest document against the fixed
// submission schema. The returned error message is suitable for showing
// to the submitting user.
func ValidateSchema(doc map[string]any) error {
	resolved, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := resolved.Validate(doc); err != nil {
		return fmt.Errorf("manifest does not satisfy the schema: %w", err)
	}
	return nil
}
