package project

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchema = `{
  "type": "object",
  "required": ["grid", "grid_size"],
  "properties": {
    "grid": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {
          "type": "array",
          "items": {"type": "integer"}
        }
      }
    },
    "grid_size": {"type": "integer", "minimum": 1},
    "palette": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0}
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("project.schema.json", documentSchema)

func validateSchema(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return compiledSchema.Validate(v)
}
