package api

import (
	"bytes"
	"encoding/json"

	"github.com/taskhub/taskhub-api/internal/domain"
)

// taskFields lists the writable task keys a client may send. Unknown keys
// are ignored, as are read-only ones such as id and assignee_username.
var taskFields = []string{"title", "description", "status", "priority", "assignee", "startDate", "deadline"}

// decodeTaskInput reads a JSON task body. Field-level type problems are
// collected into TaskInput.Malformed so they are reported together with
// the service's validation. A body that is not a JSON object is rejected
// outright with a validation error.
func decodeTaskInput(body []byte) (domain.TaskInput, error) {
	var in domain.TaskInput

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		trimmed = []byte("{}")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		verr := domain.NewValidationError()
		if _, ok := err.(*json.SyntaxError); ok {
			verr.Add("non_field_errors", "JSON parse error.")
		} else {
			verr.Addf("non_field_errors", "Invalid data. Expected a dictionary, but got %s.", jsonKind(trimmed))
		}
		return in, verr
	}

	malformed := domain.NewValidationError()
	targets := map[string]**string{
		"title":       &in.Title,
		"description": &in.Description,
		"status":      &in.Status,
		"priority":    &in.Priority,
		"assignee":    &in.Assignee,
		"startDate":   &in.StartDate,
		"deadline":    &in.Deadline,
	}

	for _, name := range taskFields {
		value, present := raw[name]
		if !present {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			malformed.Add(name, domain.MsgNull)
			continue
		}

		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			if name == "assignee" {
				malformed.Addf(name, "Incorrect type. Expected pk value, received %s.", jsonKind(value))
			} else {
				malformed.Add(name, "Not a valid string.")
			}
			continue
		}
		*targets[name] = &s
	}

	if malformed.HasErrors() {
		in.Malformed = malformed
	}
	return in, nil
}

// jsonKind names the JSON type of a raw value the way error messages do.
func jsonKind(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '[':
		return "list"
	case '{':
		return "dict"
	case '"':
		return "str"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		if bytes.ContainsAny(trimmed, ".eE") {
			return "float"
		}
		return "int"
	}
}
