package users

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a request body is missing required
	// fields or a field has the wrong shape.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when no user has the requested id.
	ErrNotFound = errors.New("user not found")
	// ErrMalformedBody is returned by ParseInput when the body is not
	// syntactically valid JSON.
	ErrMalformedBody = errors.New("malformed request body")
)

// Input is a create or update payload. A nil field was not supplied.
type Input struct {
	Username *string
	Age      *int
	Hobbies  *[]string
}

// Empty reports whether none of the recognized fields was supplied.
func (in Input) Empty() bool {
	return in.Username == nil && in.Age == nil && in.Hobbies == nil
}

// ParseInput decodes a request body. Invalid JSON yields ErrMalformedBody;
// a JSON value that is not an object, or a recognized field of the wrong
// type, yields ErrInvalidInput. A field set to null counts as absent and
// unknown fields are ignored.
func ParseInput(body []byte) (Input, error) {
	var in Input
	if !json.Valid(body) {
		return in, ErrMalformedBody
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return in, ErrInvalidInput
	}

	if raw, ok := present(fields, "username"); ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return in, fmt.Errorf("%w: username must be a string", ErrInvalidInput)
		}
		in.Username = &v
	}
	if raw, ok := present(fields, "age"); ok {
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return in, fmt.Errorf("%w: age must be an integer", ErrInvalidInput)
		}
		in.Age = &v
	}
	if raw, ok := present(fields, "hobbies"); ok {
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return in, fmt.Errorf("%w: hobbies must be an array of strings", ErrInvalidInput)
		}
		if v == nil {
			v = []string{}
		}
		in.Hobbies = &v
	}
	return in, nil
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

func (in Input) validateCreate() error {
	if in.Username == nil || in.Age == nil || in.Hobbies == nil {
		return fmt.Errorf("%w: username, age and hobbies are required", ErrInvalidInput)
	}
	return in.validateFields()
}

func (in Input) validateUpdate() error {
	if in.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return in.validateFields()
}

func (in Input) validateFields() error {
	if in.Username != nil && *in.Username == "" {
		return fmt.Errorf("%w: username must not be empty", ErrInvalidInput)
	}
	if in.Age != nil && *in.Age < 0 {
		return fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}
	return nil
}
