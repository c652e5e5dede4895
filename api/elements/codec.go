package elements

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a collection loaded from outside the editor: every element
// needs an id and a known kind, and ids must be unique.
func Validate(list []Element) error {
	seen := make(map[string]bool, len(list))
	for i := range list {
		if err := validate.Struct(list[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if seen[list[i].ID] {
			return fmt.Errorf("element %d: duplicate id %q", i, list[i].ID)
		}
		seen[list[i].ID] = true
	}
	return nil
}

// Decode parses and validates a serialized element collection.
func Decode(data []byte) ([]Element, error) {
	if len(data) == 0 || string(data) == "null" {
		return []Element{}, nil
	}
	var list []Element
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse elements: %w", err)
	}
	if err := Validate(list); err != nil {
		return nil, err
	}
	return list, nil
}

func Encode(list []Element) ([]byte, error) {
	if list == nil {
		list = []Element{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to encode elements: %w", err)
	}
	return data, nil
}
