// internal/vectorstore/schema.go
package vectorstore

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// metadataSchema describes the shape of the persisted metadata document: a
// JSON object mapping chunk ids to chunk records.
const metadataSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["id", "modality", "source_file", "text_excerpt"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "modality": {"type": "string", "enum": ["text", "image", "audio"]},
      "source_file": {"type": "string"},
      "page_num": {"type": ["integer", "null"], "minimum": 1},
      "text_excerpt": {"type": "string"}
    }
  }
}`

// validateMetadataDocument checks the raw metadata file against the schema
// before it is decoded, so a hand-edited or truncated document fails loudly
// instead of producing misaligned records.
func validateMetadataDocument(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(metadataSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate metadata document: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("metadata document is malformed: %s", strings.Join(problems, "; "))
	}
	return nil
}
