package enums

import "fmt"

// MessageKind identifies which template family a limiter message is rendered from.
type MessageKind string

const (
	MessageKindVariation  MessageKind = "variation"
	MessageKindTotal      MessageKind = "total"
	MessageKindStep       MessageKind = "step"
	MessageKindCorrection MessageKind = "correction"
)

var validMessageKinds = []MessageKind{
	MessageKindVariation,
	MessageKindTotal,
	MessageKindStep,
	MessageKindCorrection,
}

// String implements fmt.Stringer.
func (m MessageKind) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m MessageKind) IsValid() bool {
	for _, candidate := range validMessageKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMessageKind converts raw input into a MessageKind.
func ParseMessageKind(value string) (MessageKind, error) {
	for _, candidate := range validMessageKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message kind %q", value)
}
