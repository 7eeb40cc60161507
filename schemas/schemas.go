// Package schemas holds the embedded JSON Schema documents used to
// validate configuration files.
package schemas

// ConfigSchemaJSON is the schema for gamekit driver config YAML files.
const ConfigSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "gamekit driver configuration",
  "type": "object",
  "required": ["task_type", "models"],
  "additionalProperties": false,
  "properties": {
    "task_type": {
      "type": "string",
      "enum": [
        "logistic_regression",
        "linear_regression",
        "poisson_regression",
        "smoothed_hinge_svm"
      ]
    },
    "partitions": {
      "type": "integer",
      "minimum": 1
    },
    "storage_level": {
      "type": "string",
      "enum": ["memory_only", "memory_and_disk", "disk_only"]
    },
    "indexes": {
      "type": "object",
      "additionalProperties": {"type": "string", "minLength": 1}
    },
    "models": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "kind", "params"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "kind": {"type": "string", "enum": ["fixed_effect", "random_effect"]},
          "params": {"type": "object"}
        }
      }
    }
  }
}`
