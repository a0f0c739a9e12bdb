package limiter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/angelmondragon/seedling-limiter/pkg/enums"
)

const (
	ClassCategoryItem       = "seedling-category-item"
	classCategoryItemPrefix = "seedling-category-item-"
)

type ValidatorParams struct {
	Rules      *RuleSet
	Membership CategoryMembership
	// Variations and Categories are optional; without them names render empty
	// and categories render as their slug.
	Variations VariationResolver
	Categories CategoryResolver
	Formatter  *Formatter
}

// Validator evaluates carts against a fixed rule snapshot. It holds no
// mutable state, so repeated calls on an unchanged cart return identical results.
type Validator struct {
	rules      *RuleSet
	membership CategoryMembership
	variations VariationResolver
	categories CategoryResolver
	formatter  *Formatter
}

func NewValidator(params ValidatorParams) (*Validator, error) {
	if params.Rules == nil {
		return nil, fmt.Errorf("rule set required")
	}
	if params.Membership == nil {
		return nil, fmt.Errorf("category membership required")
	}
	formatter := params.Formatter
	if formatter == nil {
		formatter = NewFormatter()
	}
	return &Validator{
		rules:      params.Rules,
		membership: params.Membership,
		variations: params.Variations,
		categories: params.Categories,
		formatter:  formatter,
	}, nil
}

type AddToCartRequest struct {
	ProductID   int64
	VariationID int64
	Quantity    int
}

type AddToCartDecision struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
	// Reason is set only on rejection.
	Reason enums.MessageKind `json:"reason,omitempty"`
}

type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages"`

	// Kinds holds the message kind of each entry in Messages.
	Kinds []enums.MessageKind `json:"-"`
}

type Correction struct {
	Quantity  int    `json:"quantity"`
	Corrected bool   `json:"corrected"`
	Message   string `json:"message,omitempty"`
}

// QuantityArgs are the product page quantity selector settings.
type QuantityArgs struct {
	Restricted bool `json:"restricted"`
	MinValue   int  `json:"min_value"`
	InputValue int  `json:"input_value"`
	Step       int  `json:"step"`
}

// ValidateAddToCart checks one add-to-cart attempt against the cart contents.
// Step conformance is checked before the per-variation minimum.
func (v *Validator) ValidateAddToCart(ctx context.Context, req AddToCartRequest, existing []CartLine) (AddToCartDecision, error) {
	allowed := AddToCartDecision{Allowed: true}
	if req.VariationID == 0 {
		return allowed, nil
	}

	rule, ok, err := v.rules.RuleForProduct(ctx, req.ProductID, v.membership)
	if err != nil {
		return AddToCartDecision{}, err
	}
	if !ok {
		return allowed, nil
	}

	if !StepConforms(req.Quantity, rule.Step) {
		msg := v.formatter.Format(enums.MessageKindStep, "", map[string]string{
			PlaceholderStep: strconv.Itoa(rule.Step),
		})
		return AddToCartDecision{Allowed: false, Message: msg, Reason: enums.MessageKindStep}, nil
	}

	newTotal := AddQuantities(VariationCartQuantity(existing, req.VariationID), req.Quantity)
	if newTotal < rule.MinPerVariation {
		msg, err := v.variationMessage(ctx, rule, req.VariationID, newTotal)
		if err != nil {
			return AddToCartDecision{}, err
		}
		return AddToCartDecision{Allowed: false, Message: msg, Reason: enums.MessageKindVariation}, nil
	}

	return allowed, nil
}

// ValidateCart evaluates every rule in declaration order. Within a rule,
// variation messages come first in cart order, then the total message.
// Rules with nothing from their category in the cart are skipped.
func (v *Validator) ValidateCart(ctx context.Context, lines []CartLine) (ValidationResult, error) {
	messages := make([]string, 0)
	kinds := make([]enums.MessageKind, 0)
	membership := memoize(v.membership)

	for _, rule := range v.rules.rules {
		agg, err := AggregateLines(ctx, lines, rule, membership)
		if err != nil {
			return ValidationResult{}, err
		}
		if agg.Total == 0 {
			continue
		}

		for _, variationID := range agg.Order {
			qty := agg.PerVariation[variationID]
			if qty >= rule.MinPerVariation {
				continue
			}
			msg, err := v.variationMessage(ctx, rule, variationID, qty)
			if err != nil {
				return ValidationResult{}, err
			}
			messages = append(messages, msg)
			kinds = append(kinds, enums.MessageKindVariation)
		}

		if agg.Total < rule.MinTotal {
			category, err := v.categoryName(ctx, rule.CategorySlug)
			if err != nil {
				return ValidationResult{}, err
			}
			messages = append(messages, v.formatter.Format(enums.MessageKindTotal, rule.TotalTemplate, map[string]string{
				PlaceholderMin:      strconv.Itoa(rule.MinTotal),
				PlaceholderCurrent:  strconv.Itoa(agg.Total),
				PlaceholderCategory: category,
			}))
			kinds = append(kinds, enums.MessageKindTotal)
		}
	}

	return ValidationResult{Valid: len(messages) == 0, Messages: messages, Kinds: kinds}, nil
}

// EnforceMinOnQuantityChange normalizes a direct quantity edit on an existing
// line. Non-positive quantities mean removal and are never corrected.
func (v *Validator) EnforceMinOnQuantityChange(ctx context.Context, line CartLine, newQty int) (Correction, error) {
	unchanged := Correction{Quantity: newQty}
	if newQty <= 0 {
		return unchanged, nil
	}

	rule, ok, err := v.rules.RuleForProduct(ctx, line.ProductID, v.membership)
	if err != nil {
		return Correction{}, err
	}
	if !ok {
		return unchanged, nil
	}

	corrected := Normalize(newQty, rule.MinPerVariation, rule.Step)
	if corrected == newQty {
		return unchanged, nil
	}

	info, err := v.describe(ctx, line.VariationID)
	if err != nil {
		return Correction{}, err
	}
	msg := v.formatter.Format(enums.MessageKindCorrection, "", map[string]string{
		PlaceholderName:     info.Name,
		PlaceholderQuantity: strconv.Itoa(corrected),
	})
	return Correction{Quantity: corrected, Corrected: true, Message: msg}, nil
}

// QuantityArgs computes the quantity selector for a product page. The floor
// only rises above 1 while the cart holds less than the per-variation minimum.
func (v *Validator) QuantityArgs(ctx context.Context, productID, variationID int64, lines []CartLine) (QuantityArgs, error) {
	args := QuantityArgs{MinValue: 1, InputValue: 1, Step: 1}

	rule, ok, err := v.rules.RuleForProduct(ctx, productID, v.membership)
	if err != nil {
		return QuantityArgs{}, err
	}
	if !ok {
		return args, nil
	}

	args.Restricted = true
	args.Step = rule.Step
	if minimum := EnforcedMinimum(rule.MinPerVariation, VariationCartQuantity(lines, variationID)); minimum > 1 {
		args.MinValue = minimum
		args.InputValue = minimum
	}
	return args, nil
}

// CartItemClasses returns the CSS markers for a cart line of productID.
func (v *Validator) CartItemClasses(ctx context.Context, productID int64) ([]string, error) {
	matched, err := v.rules.MatchingRules(ctx, productID, v.membership)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}
	classes := make([]string, 0, len(matched)+1)
	for _, rule := range matched {
		classes = append(classes, classCategoryItemPrefix+sanitizeClass(rule.CategorySlug))
	}
	return append(classes, ClassCategoryItem), nil
}

// RuleFor exposes the applicable rule for a product.
func (v *Validator) RuleFor(ctx context.Context, productID int64) (Rule, bool, error) {
	return v.rules.RuleForProduct(ctx, productID, v.membership)
}

func (v *Validator) variationMessage(ctx context.Context, rule Rule, variationID int64, current int) (string, error) {
	info, err := v.describe(ctx, variationID)
	if err != nil {
		return "", err
	}
	return v.formatter.Format(enums.MessageKindVariation, rule.VariationTemplate, map[string]string{
		PlaceholderMin:     strconv.Itoa(rule.MinPerVariation),
		PlaceholderName:    info.Name,
		PlaceholderAttr:    info.Attributes,
		PlaceholderCurrent: strconv.Itoa(current),
	}), nil
}

func (v *Validator) describe(ctx context.Context, variationID int64) (VariationInfo, error) {
	if v.variations == nil || variationID == 0 {
		return VariationInfo{}, nil
	}
	info, err := v.variations.DescribeVariation(ctx, variationID)
	if err != nil {
		return VariationInfo{}, unavailable(err, "variation lookup failed")
	}
	return info, nil
}

func (v *Validator) categoryName(ctx context.Context, slug string) (string, error) {
	if v.categories == nil {
		return slug, nil
	}
	name, err := v.categories.CategoryName(ctx, slug)
	if err != nil {
		return "", unavailable(err, "category lookup failed")
	}
	if name == "" {
		return slug, nil
	}
	return name, nil
}

// sanitizeClass keeps only characters valid in an HTML class name.
func sanitizeClass(value string) string {
	out := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		}
	}
	return string(out)
}
