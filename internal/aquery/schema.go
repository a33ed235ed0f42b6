package aquery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchema indicates the input does not have the expected aquery structure.
var ErrSchema = errors.New("schema error")

// SchemaError describes which structural expectation the input violated.
type SchemaError struct {
	Index  int    // action index, -1 for top-level problems
	Field  string // offending field, e.g. "actions" or "arguments"
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("schema error: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("schema error: actions[%d].%s: %s", e.Index, e.Field, e.Reason)
}

// Is reports a match against ErrSchema so callers can use errors.Is.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// Action is one compile action from the action graph. Only the argument
// vector is retained; every other field (mnemonic, configuration, inputs...) is ignored.
type Action struct {
	Arguments []string
}

// Parse decodes aquery JSON output into actions, preserving their order.
// Keys are matched exactly; "Actions" or "ARGUMENTS" are unknown fields.
// The first structural problem aborts the whole parse.
func Parse(raw []byte) ([]Action, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &SchemaError{Index: -1, Field: "(root)", Reason: "top-level value must be an object"}
		}
		return nil, &SchemaError{Index: -1, Field: "(root)", Reason: "invalid JSON: " + err.Error()}
	}

	rawActions := doc["actions"]
	if isAbsent(rawActions) {
		return nil, &SchemaError{Index: -1, Field: "actions", Reason: "field is missing"}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rawActions, &entries); err != nil {
		return nil, &SchemaError{Index: -1, Field: "actions", Reason: "must be an array"}
	}

	actions := make([]Action, 0, len(entries))
	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			return nil, &SchemaError{Index: i, Field: "(action)", Reason: "must be an object"}
		}
		rawArgs := fields["arguments"]
		if isAbsent(rawArgs) {
			return nil, &SchemaError{Index: i, Field: "arguments", Reason: "field is missing"}
		}

		var args []string
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, &SchemaError{Index: i, Field: "arguments", Reason: "must be an array of strings"}
		}
		actions = append(actions, Action{Arguments: args})
	}

	return actions, nil
}

// isAbsent treats a missing field and an explicit null the same way.
func isAbsent(msg json.RawMessage) bool {
	return len(msg) == 0 || bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}
