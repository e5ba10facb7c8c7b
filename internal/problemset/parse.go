// Package problemset loads, validates, and fingerprints problem sets.
package problemset

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/tuiorder/internal/model"
)

var validate = validator.New()

// Parse decodes a JSON array of {tokens, note} entries. Any malformed entry
// fails the whole payload.
func Parse(data []byte) (model.ProblemSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, schemaf(-1, "", "payload is not a JSON array")
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, schemaf(-1, "", "%v", err)
	}

	set := make(model.ProblemSet, 0, len(entries))
	for i, entry := range entries {
		p, err := parseEntry(i, entry)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

func parseEntry(i int, entry map[string]json.RawMessage) (model.Problem, error) {
	if entry == nil {
		return model.Problem{}, schemaf(i, "", "entry is not an object")
	}
	rawTokens, err := requiredField(i, entry, "tokens")
	if err != nil {
		return model.Problem{}, err
	}
	rawNote, err := requiredField(i, entry, "note")
	if err != nil {
		return model.Problem{}, err
	}

	var p model.Problem
	if err := json.Unmarshal(rawTokens, &p.Tokens); err != nil {
		return model.Problem{}, schemaf(i, "tokens", "expected an array of strings")
	}
	if err := json.Unmarshal(rawNote, &p.Note); err != nil {
		return model.Problem{}, schemaf(i, "note", "expected a string")
	}
	if err := validate.Struct(p); err != nil {
		return model.Problem{}, validationError(i, err)
	}
	return p, nil
}

func requiredField(i int, entry map[string]json.RawMessage, name string) (json.RawMessage, error) {
	raw, ok := entry[name]
	if !ok {
		return nil, schemaf(i, name, "missing")
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, schemaf(i, name, "must not be null")
	}
	return raw, nil
}

func validationError(i int, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return schemaf(i, "", "%v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "min":
		return schemaf(i, "tokens", "must contain at least one token")
	case "required":
		return schemaf(i, "tokens", "%s is empty", fe.Field())
	default:
		return schemaf(i, fe.Field(), "failed %q validation", fe.Tag())
	}
}
