package retrieval

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/xxxsen/unmask/internal/model"
)

// GenerateSchema reflects T into a closed JSON schema where every property is required.
func GenerateSchema[T any]() (map[string]interface{}, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	closeObjects(m)
	return m, nil
}

func RecordSchema() (map[string]interface{}, error) {
	return GenerateSchema[model.VectorRecord]()
}

func ChunkSchema() (map[string]interface{}, error) {
	return GenerateSchema[model.Chunk]()
}

func closeObjects(schema map[string]interface{}) {
	props, hasProps := schema["properties"].(map[string]interface{})
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if hasProps && len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			schema["required"] = required
		}
	}
	for _, prop := range props {
		if sub, ok := prop.(map[string]interface{}); ok {
			closeObjects(sub)
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		closeObjects(items)
	}
}
