package limiter

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

// Rule ties a product category to per-variation and per-category minimums and a quantity step.
type Rule struct {
	CategorySlug      string `json:"slug" validate:"required"`
	MinPerVariation   int    `json:"min_variation" validate:"min=1"`
	MinTotal          int    `json:"min_total" validate:"min=0"`
	Step              int    `json:"step" validate:"min=1"`
	VariationTemplate string `json:"msg_variation"`
	TotalTemplate     string `json:"msg_total"`
}

var ruleValidate = newRuleValidator()

func newRuleValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// RuleSet is an immutable, ordered list of validated rules.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates every rule and returns a CONFIGURATION_ERROR listing
// all violations when any rule is malformed.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	var combined error
	seen := make(map[string]int, len(rules))

	for i, rule := range rules {
		if err := ruleValidate.Struct(rule); err != nil {
			combined = multierr.Append(combined, describeRuleErrors(i, err))
		}
		if rule.CategorySlug == "" {
			continue
		}
		if first, dup := seen[rule.CategorySlug]; dup {
			combined = multierr.Append(combined, fmt.Errorf("rule[%d].slug: %q already used by rule[%d]", i, rule.CategorySlug, first))
			continue
		}
		seen[rule.CategorySlug] = i
	}

	if combined != nil {
		violations := make([]string, 0)
		for _, err := range multierr.Errors(combined) {
			violations = append(violations, err.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, combined, "invalid limiter rules").
			WithDetails(map[string]any{"violations": violations})
	}

	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &RuleSet{rules: copied}, nil
}

func describeRuleErrors(index int, err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("rule[%d]: %w", index, err)
	}
	var combined error
	for _, fe := range fieldErrs {
		var reason string
		switch fe.Tag() {
		case "required":
			reason = "is required"
		case "min":
			reason = fmt.Sprintf("must be at least %s", fe.Param())
		default:
			reason = "is invalid"
		}
		combined = multierr.Append(combined, fmt.Errorf("rule[%d].%s: %s", index, fe.Field(), reason))
	}
	return combined
}

// Rules returns a copy of the configured rules in declaration order.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// RuleForProduct returns the first declared rule whose category contains the
// product. Overlapping categories are not stacked: later matches are ignored.
// ok is false when the product is unrestricted.
func (s *RuleSet) RuleForProduct(ctx context.Context, productID int64, membership CategoryMembership) (Rule, bool, error) {
	if s == nil {
		return Rule{}, false, nil
	}
	for _, rule := range s.rules {
		in, err := membership.InCategory(ctx, productID, rule.CategorySlug)
		if err != nil {
			return Rule{}, false, unavailable(err, "category membership lookup failed")
		}
		if in {
			return rule, true, nil
		}
	}
	return Rule{}, false, nil
}

// MatchingRules returns every rule whose category contains the product.
func (s *RuleSet) MatchingRules(ctx context.Context, productID int64, membership CategoryMembership) ([]Rule, error) {
	if s == nil {
		return nil, nil
	}
	var matched []Rule
	for _, rule := range s.rules {
		in, err := membership.InCategory(ctx, productID, rule.CategorySlug)
		if err != nil {
			return nil, unavailable(err, "category membership lookup failed")
		}
		if in {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}

func unavailable(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
