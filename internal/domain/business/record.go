// Package business holds the business record extracted from a model answer.
package business

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Record is one business as reported by the model. Field presence is best-effort:
// any field may be empty and nothing is validated.
type Record struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Email    string `json:"email"`
	Website  string `json:"website"`
}

// UnmarshalJSON decodes a record leniently. Keys match case-insensitively,
// strings are kept verbatim, null becomes empty, and any other scalar keeps
// its literal JSON text (a phone number sent as a number stays readable).
// An exact lowercase key wins over its case variants; among variants the
// first in document order wins.
func (r *Record) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return fmt.Errorf("business record: %w", err)
	}

	*r = Record{
		Name:     text(fields["name"]),
		Industry: text(fields["industry"]),
		Phone:    text(fields["phone"]),
		Address:  text(fields["address"]),
		Email:    text(fields["email"]),
		Website:  text(fields["website"]),
	}
	return nil
}

// objectFields reads a JSON object into lowercased keys, resolving duplicate
// spellings deterministically.
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("not an object")
	}

	exact := make(map[string]json.RawMessage)
	folded := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("invalid object key")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}

		norm := strings.ToLower(strings.TrimSpace(key))
		target := folded
		if key == norm {
			target = exact
		}
		if _, seen := target[norm]; !seen {
			target[norm] = v
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	for k, v := range folded {
		if _, ok := exact[k]; !ok {
			exact[k] = v
		}
	}
	return exact, nil
}

// HasEmail reports whether an email was provided.
func (r *Record) HasEmail() bool { return strings.TrimSpace(r.Email) != "" }

// HasWebsite reports whether a website was provided.
func (r *Record) HasWebsite() bool { return strings.TrimSpace(r.Website) != "" }

func text(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	trimmed := bytes.TrimSpace(v)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	return string(trimmed)
}
