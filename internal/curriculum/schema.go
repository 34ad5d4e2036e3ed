package curriculum

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// packSchemaURL identifies the content pack schema in the compiler.
const packSchemaURL = "schema://practiz/content-pack.json"

// packSchema describes a content pack file: a CAM subtree plus the
// question banks for its topics.
const packSchema = `{
  "type": "object",
  "required": ["schema_version", "themes"],
  "properties": {
    "schema_version": {"type": "string", "pattern": "^v?[0-9]+\\.[0-9]+\\.[0-9]+"},
    "themes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["theme_id", "topics"],
        "properties": {
          "theme_id": {"type": "string", "minLength": 1},
          "theme_name": {"type": "string"},
          "topics": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["topic_id", "concepts"],
              "properties": {
                "topic_id": {"type": "string", "minLength": 1},
                "topic_name": {"type": "string"},
                "concepts": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["concept_id", "difficulty_levels"],
                    "properties": {
                      "concept_id": {"type": "string", "minLength": 1},
                      "concept_name": {"type": "string"},
                      "difficulty_levels": {
                        "type": "array",
                        "items": {"enum": ["familiarity", "application", "exam_style"]}
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    },
    "banks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["topic_id", "questions"],
        "properties": {
          "topic_id": {"type": "string", "minLength": 1},
          "canonical_explanation": {"type": "string"},
          "questions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["question_id", "concept_id", "difficulty", "type", "question_text", "correct_answer"],
              "properties": {
                "question_id": {"type": "string", "minLength": 1},
                "concept_id": {"type": "string", "minLength": 1},
                "difficulty": {"type": "string"},
                "type": {"enum": ["mcq", "true_false", "fill_blank", "ordering", "match"]},
                "question_text": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "correct_answer": {
                  "type": ["string", "array", "boolean", "number", "null", "object"],
                  "additionalProperties": {"type": "string"}
                },
                "match_pairs": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["left", "right"],
                    "properties": {"left": {"type": "string"}, "right": {"type": "string"}}
                  }
                },
                "ordering_items": {"type": "array", "items": {"type": "string"}},
                "cognitive_level": {"type": "string"},
                "hint": {"type": "string"},
                "explanation": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// packValidator returns the compiled content pack schema.
func packValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(packSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(packSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(packSchemaURL)
	})
	return compiled, compileErr
}

// ValidatePackDocument validates a decoded JSON document (as produced by
// json.Unmarshal into any) against the content pack schema.
func ValidatePackDocument(doc any) error {
	sch, err := packValidator()
	if err != nil {
		return fmt.Errorf("compile pack schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
