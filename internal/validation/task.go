// Package validation rejects malformed task input before any network
// call. Failures surface inline at the originating form and never reach
// the collection adapter.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/isabelacreiter/TaskFlow/internal/models"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const createSchema = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "dueDate": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
    "priority": {"enum": ["low", "medium", "high"]},
    "status": {"enum": ["todo", "doing", "done"]},
    "subtasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string", "minLength": 1},
          "completed": {"type": "boolean"}
        }
      }
    }
  }
}`

const updateSchema = `{
  "type": "object",
  "minProperties": 1,
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "dueDate": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
    "priority": {"enum": ["low", "medium", "high"]},
    "status": {"enum": ["todo", "doing", "done"]},
    "subtasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string", "minLength": 1},
          "completed": {"type": "boolean"}
        }
      }
    }
  },
  "additionalProperties": false
}`

var (
	createCompiled = mustCompile("create.json", createSchema)
	updateCompiled = mustCompile("update.json", updateSchema)
)

func mustCompile(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CreateTask validates a raw create payload.
func CreateTask(raw []byte) error {
	return validate(createCompiled, raw)
}

// UpdateTask validates a raw partial-update payload.
func UpdateTask(raw []byte) error {
	return validate(updateCompiled, raw)
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &Error{Message: "invalid JSON body"}
	}
	if err := schema.Validate(doc); err != nil {
		return firstCause(err)
	}
	return semantic(doc)
}

// semantic covers what the schema cannot: real calendar dates and
// subtask id uniqueness within one task.
func semantic(doc any) error {
	obj, ok := doc.(map[string]any)
	if !ok {
		return &Error{Message: "body must be an object"}
	}
	if due, ok := obj["dueDate"].(string); ok && due != "" && !models.ValidDate(due) {
		return &Error{Field: "dueDate", Message: "not a valid calendar date"}
	}
	if title, ok := obj["title"].(string); ok && strings.TrimSpace(title) == "" {
		return &Error{Field: "title", Message: "must not be blank"}
	}
	if subs, ok := obj["subtasks"].([]any); ok {
		seen := make(map[string]bool, len(subs))
		for _, raw := range subs {
			sub, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			id, _ := sub["id"].(string)
			if id == "" {
				continue
			}
			if seen[id] {
				return &Error{Field: "subtasks", Message: "duplicate subtask id " + id}
			}
			seen[id] = true
		}
	}
	return nil
}

func firstCause(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &Error{Message: err.Error()}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	return &Error{Field: field, Message: leaf.Message}
}
