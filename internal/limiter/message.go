package limiter

import (
	"html"
	"strings"

	"github.com/angelmondragon/seedling-limiter/pkg/enums"
)

const (
	PlaceholderMin      = "{min}"
	PlaceholderName     = "{name}"
	PlaceholderAttr     = "{attr}"
	PlaceholderCurrent  = "{current}"
	PlaceholderCategory = "{category}"
	PlaceholderStep     = "{step}"
	PlaceholderQuantity = "{quantity}"
)

const (
	DefaultVariationTemplate  = "Minimum quantity for {name} ({attr}) is {min}. Currently: {current}."
	DefaultTotalTemplate      = "Total quantity of products from category {category} must be at least {min}. Currently: {current}."
	DefaultStepTemplate       = "Quantity must be a multiple of {step}."
	DefaultCorrectionTemplate = "{name}: quantity adjusted to {quantity}."
)

// Replacement order is fixed per kind so output never depends on map iteration.
var placeholdersByKind = map[enums.MessageKind][]string{
	enums.MessageKindVariation:  {PlaceholderMin, PlaceholderName, PlaceholderAttr, PlaceholderCurrent},
	enums.MessageKindTotal:      {PlaceholderMin, PlaceholderCurrent, PlaceholderCategory},
	enums.MessageKindStep:       {PlaceholderStep},
	enums.MessageKindCorrection: {PlaceholderName, PlaceholderQuantity},
}

var defaultTemplates = map[enums.MessageKind]string{
	enums.MessageKindVariation:  DefaultVariationTemplate,
	enums.MessageKindTotal:      DefaultTotalTemplate,
	enums.MessageKindStep:       DefaultStepTemplate,
	enums.MessageKindCorrection: DefaultCorrectionTemplate,
}

// Formatter expands message templates. Recognized placeholders are replaced
// with the HTML-escaped value wrapped in <strong>; anything else is left as is.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

// Placeholders lists the tokens recognized for kind.
func Placeholders(kind enums.MessageKind) []string {
	out := make([]string, len(placeholdersByKind[kind]))
	copy(out, placeholdersByKind[kind])
	return out
}

// Format renders template for kind. A blank template falls back to the
// built-in default for the kind.
func (f *Formatter) Format(kind enums.MessageKind, template string, values map[string]string) string {
	if strings.TrimSpace(template) == "" {
		template = defaultTemplates[kind]
	}

	tokens := placeholdersByKind[kind]
	pairs := make([]string, 0, len(tokens)*2)
	for _, token := range tokens {
		value, ok := values[token]
		if !ok {
			continue
		}
		pairs = append(pairs, token, emphasize(value))
	}
	if len(pairs) == 0 {
		return template
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func emphasize(value string) string {
	return "<strong>" + html.EscapeString(value) + "</strong>"
}
