package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// workoutSchema describes the shape of an authored workout. Value ranges are
// left to Compile so that range violations surface as CompilationErrors.
const workoutSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "blocks"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string", "minLength": 1},
    "blocks": {"type": "array", "items": {"$ref": "#/definitions/block"}}
  },
  "definitions": {
    "block": {
      "type": "object",
      "required": ["pattern", "exercises"],
      "properties": {
        "id": {"type": "string"},
        "name": {"type": "string"},
        "pattern": {"type": "string"},
        "mode": {"type": "string"},
        "work_sec": {"type": "integer"},
        "rest_sec": {"type": "integer"},
        "round_rest_sec": {"type": "integer"},
        "sets": {"type": "integer"},
        "target_reps_min": {"type": "integer"},
        "target_reps_max": {"type": "integer"},
        "require_ready": {"type": "boolean"},
        "exercises": {"type": "array", "items": {"$ref": "#/definitions/exercise"}}
      }
    },
    "exercise": {
      "type": "object",
      "required": ["exercise_id"],
      "properties": {
        "exercise_id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "work_sec": {"type": "integer"},
        "rest_sec": {"type": "integer"},
        "reps": {"type": "integer"}
      }
    }
  }
}`

var compiledWorkoutSchema = jsonschema.MustCompileString("workout.schema.json", workoutSchema)

// ValidateDefinition checks raw workout JSON against the workout schema
// before it is decoded and compiled.
func ValidateDefinition(raw []byte) error {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode workout definition: %w", err)
	}
	if err := compiledWorkoutSchema.Validate(payload); err != nil {
		return fmt.Errorf("workout definition does not match schema: %w", err)
	}
	return nil
}
