package minutes

import (
	"encoding/json"
	"fmt"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the wire format, suitable for providers
// that accept a response schema. Every property is required and no extra
// properties are allowed.
func Schema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&Document{})
	// Drop the draft URI; several providers reject unknown top-level keywords.
	schema.Version = ""

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var schemaMap map[string]any
	err = json.Unmarshal(schemaJSON, &schemaMap)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return schemaMap, nil
}

// SchemaInstruction renders schema as a plain-text instruction for providers
// without a request-level JSON flag.
func SchemaInstruction(schema map[string]any) (string, error) {
	if len(schema) == 0 {
		return "Devuelve ÚNICAMENTE un objeto JSON válido, sin bloques de código markdown.", nil
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return fmt.Sprintf(
		"Devuelve ÚNICAMENTE un objeto JSON válido que cumpla este esquema, sin bloques de código markdown.\n%s",
		schemaBytes,
	), nil
}
