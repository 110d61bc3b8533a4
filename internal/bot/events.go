package bot

import "strings"

// Callback payloads travel over the wire as opaque strings in two families,
// "cat_<key>" and "desc_sim"/"desc_nao". They are decoded into typed events
// at this boundary so the controller never pattern-matches raw strings.

const (
	categoryPrefix = "cat_"
	descYesPayload = "desc_sim"
	descNoPayload  = "desc_nao"
)

type Event interface {
	isEvent()
}

// CategorySelected carries the lowercase key of a chooser button.
type CategorySelected struct {
	Key string
}

// DescriptionChoice is the answer to "add a description?".
type DescriptionChoice struct {
	WithDescription bool
}

func (CategorySelected) isEvent()  {}
func (DescriptionChoice) isEvent() {}

// DecodeCallback parses a callback payload. ok is false for payloads outside
// the two known families; those are logged and ignored by the controller.
func DecodeCallback(data string) (Event, bool) {
	switch {
	case strings.HasPrefix(data, categoryPrefix):
		key := strings.TrimPrefix(data, categoryPrefix)
		if key == "" {
			return nil, false
		}
		return CategorySelected{Key: key}, true
	case data == descYesPayload:
		return DescriptionChoice{WithDescription: true}, true
	case data == descNoPayload:
		return DescriptionChoice{WithDescription: false}, true
	}
	return nil, false
}

func encodeCategory(key string) string {
	return categoryPrefix + key
}
