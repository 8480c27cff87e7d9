// Package contact defines the phonebook record and the payload sent to the
// remote collection when creating or updating one.
package contact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ID is the opaque identifier assigned by the gateway on creation.
// It decodes from either a JSON string or a JSON number.
type ID string

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts "abc" and 42 alike.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("contact id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("contact id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Contact is one phonebook record.
type Contact struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Payload is the body of a create or update call.
type Payload struct {
	Name   string `json:"name" validate:"required"`
	Number string `json:"number" validate:"required"`
}

var validate = validator.New()

// Validate checks that both fields are present. Format is left to the server.
func (p Payload) Validate() error {
	trimmed := Payload{Name: strings.TrimSpace(p.Name), Number: strings.TrimSpace(p.Number)}
	if err := validate.Struct(trimmed); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// SameName reports whether two names collide. Names are the uniqueness key
// of the phonebook and compare case-insensitively.
func SameName(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}

// MatchesSearch reports whether c's name contains term, ignoring case.
// An empty term matches everything.
func MatchesSearch(c Contact, term string) bool {
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(term))
}
