package enforcement

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/seedling-limiter/internal/limiter"
	"github.com/angelmondragon/seedling-limiter/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
	"github.com/angelmondragon/seedling-limiter/pkg/metrics"
)

// RuleSource hands out the active rule snapshot.
type RuleSource interface {
	Current() *limiter.RuleSet
}

// Catalog answers every catalog question the limiter asks.
type Catalog interface {
	limiter.CategoryMembership
	limiter.VariationResolver
	limiter.CategoryResolver
}

// CartStore is the session cart the service reads and mutates.
type CartStore interface {
	Lines(ctx context.Context, sessionID string) ([]limiter.CartLine, error)
	Line(ctx context.Context, sessionID, key string) (limiter.CartLine, bool, error)
	Add(ctx context.Context, sessionID string, productID, variationID int64, quantity int) (limiter.CartLine, error)
	SetQuantity(ctx context.Context, sessionID, key string, quantity int) (limiter.CartLine, bool, error)
	Remove(ctx context.Context, sessionID, key string) (bool, error)
	Clear(ctx context.Context, sessionID string) error
}

type ServiceParams struct {
	Rules   RuleSource
	Catalog Catalog
	Cart    CartStore
	Logger  *logger.Logger
	Metrics *metrics.LimiterMetrics
}

// AddInput is one add-to-cart attempt. VariationID is zero for simple products.
type AddInput struct {
	ProductID   int64 `json:"product_id" validate:"required,gt=0"`
	VariationID int64 `json:"variation_id" validate:"gte=0"`
	Quantity    int   `json:"quantity" validate:"required,gt=0,max=1000000"`
}

type AddResult struct {
	Allowed bool              `json:"allowed"`
	Message string            `json:"message,omitempty"`
	Reason  enums.MessageKind `json:"reason,omitempty"`
	Line    *limiter.CartLine `json:"line,omitempty"`
}

type UpdateResult struct {
	// Line is nil when the update removed the line.
	Line      *limiter.CartLine `json:"line,omitempty"`
	Corrected bool              `json:"corrected"`
	Notice    string            `json:"notice,omitempty"`
}

// CartItemView is a cart line decorated with the data the cart page renders.
type CartItemView struct {
	limiter.CartLine
	Classes      []string `json:"classes"`
	MinQty       int      `json:"min_qty"`
	Step         int      `json:"step"`
	CanDecrement bool     `json:"can_decrement"`
}

type ClientRule struct {
	Slug   string `json:"slug"`
	MinQty int    `json:"min_qty"`
	Step   int    `json:"step"`
}

// ClientSettings is the per-rule data storefront scripts need.
type ClientSettings struct {
	Rules []ClientRule `json:"rules"`
}

// Service applies the limiter rules to session carts.
type Service interface {
	AddToCart(ctx context.Context, sessionID string, input AddInput) (AddResult, error)
	ValidateCart(ctx context.Context, sessionID string) (limiter.ValidationResult, error)
	VariationQuantity(ctx context.Context, sessionID string, variationID int64) (int, error)
	UpdateQuantity(ctx context.Context, sessionID, key string, quantity int) (UpdateResult, error)
	QuantityArgs(ctx context.Context, sessionID string, productID, variationID int64) (limiter.QuantityArgs, error)
	CartItems(ctx context.Context, sessionID string) ([]CartItemView, error)
	RemoveItem(ctx context.Context, sessionID, key string) error
	ClearCart(ctx context.Context, sessionID string) error
	ClientSettings(ctx context.Context) ClientSettings
}

type service struct {
	rules     RuleSource
	catalog   Catalog
	cart      CartStore
	logg      *logger.Logger
	metrics   *metrics.LimiterMetrics
	formatter *limiter.Formatter
}

func NewService(params ServiceParams) (Service, error) {
	if params.Rules == nil {
		return nil, fmt.Errorf("rule source required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		rules:     params.Rules,
		catalog:   params.Catalog,
		cart:      params.Cart,
		logg:      params.Logger,
		metrics:   params.Metrics,
		formatter: limiter.NewFormatter(),
	}, nil
}

// validator captures the current snapshot so a single call never sees two rule sets.
func (s *service) validator() (*limiter.Validator, error) {
	set := s.rules.Current()
	if set == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "limiter rules not loaded")
	}
	return limiter.NewValidator(limiter.ValidatorParams{
		Rules:      set,
		Membership: s.catalog,
		Variations: s.catalog,
		Categories: s.catalog,
		Formatter:  s.formatter,
	})
}

func (s *service) AddToCart(ctx context.Context, sessionID string, input AddInput) (AddResult, error) {
	start := time.Now()
	v, err := s.validator()
	if err != nil {
		return AddResult{}, s.fail(ctx, enums.EntryPointAddToCart, start, err)
	}
	lines, err := s.cart.Lines(ctx, sessionID)
	if err != nil {
		return AddResult{}, s.fail(ctx, enums.EntryPointAddToCart, start, err)
	}

	decision, err := v.ValidateAddToCart(ctx, limiter.AddToCartRequest{
		ProductID:   input.ProductID,
		VariationID: input.VariationID,
		Quantity:    input.Quantity,
	}, lines)
	if err != nil {
		return AddResult{}, s.fail(ctx, enums.EntryPointAddToCart, start, err)
	}

	if !decision.Allowed {
		s.metrics.ObserveEvaluation(enums.EntryPointAddToCart, enums.OutcomeRejected, time.Since(start))
		s.metrics.AddMessages(decision.Reason, 1)
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"product_id":   input.ProductID,
			"variation_id": input.VariationID,
			"quantity":     input.Quantity,
			"reason":       decision.Reason.String(),
		}), "add to cart rejected")
		return AddResult{Allowed: false, Message: decision.Message, Reason: decision.Reason}, nil
	}

	line, err := s.cart.Add(ctx, sessionID, input.ProductID, input.VariationID, input.Quantity)
	if err != nil {
		return AddResult{}, s.fail(ctx, enums.EntryPointAddToCart, start, err)
	}
	s.metrics.ObserveEvaluation(enums.EntryPointAddToCart, enums.OutcomeAllowed, time.Since(start))
	return AddResult{Allowed: true, Line: &line}, nil
}

func (s *service) ValidateCart(ctx context.Context, sessionID string) (limiter.ValidationResult, error) {
	start := time.Now()
	v, err := s.validator()
	if err != nil {
		return limiter.ValidationResult{}, s.fail(ctx, enums.EntryPointCart, start, err)
	}
	lines, err := s.cart.Lines(ctx, sessionID)
	if err != nil {
		return limiter.ValidationResult{}, s.fail(ctx, enums.EntryPointCart, start, err)
	}
	result, err := v.ValidateCart(ctx, lines)
	if err != nil {
		return limiter.ValidationResult{}, s.fail(ctx, enums.EntryPointCart, start, err)
	}

	for _, kind := range result.Kinds {
		s.metrics.AddMessages(kind, 1)
	}
	outcome := enums.OutcomeAllowed
	if !result.Valid {
		outcome = enums.OutcomeRejected
		s.logg.Debug(s.logg.WithField(ctx, "messages", len(result.Messages)), "cart below limiter minimums")
	}
	s.metrics.ObserveEvaluation(enums.EntryPointCart, outcome, time.Since(start))
	return result, nil
}

func (s *service) VariationQuantity(ctx context.Context, sessionID string, variationID int64) (int, error) {
	if variationID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "variation_id must be positive")
	}
	lines, err := s.cart.Lines(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return limiter.VariationCartQuantity(lines, variationID), nil
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, key string, quantity int) (UpdateResult, error) {
	start := time.Now()
	line, ok, err := s.cart.Line(ctx, sessionID, key)
	if err != nil {
		return UpdateResult{}, s.fail(ctx, enums.EntryPointQuantityChange, start, err)
	}
	if !ok {
		return UpdateResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	v, err := s.validator()
	if err != nil {
		return UpdateResult{}, s.fail(ctx, enums.EntryPointQuantityChange, start, err)
	}
	correction, err := v.EnforceMinOnQuantityChange(ctx, line, quantity)
	if err != nil {
		return UpdateResult{}, s.fail(ctx, enums.EntryPointQuantityChange, start, err)
	}

	updated, _, err := s.cart.SetQuantity(ctx, sessionID, key, correction.Quantity)
	if err != nil {
		return UpdateResult{}, s.fail(ctx, enums.EntryPointQuantityChange, start, err)
	}

	result := UpdateResult{Corrected: correction.Corrected, Notice: correction.Message}
	if correction.Quantity > 0 {
		result.Line = &updated
	}

	outcome := enums.OutcomeAllowed
	if correction.Corrected {
		outcome = enums.OutcomeCorrected
		s.metrics.AddMessages(enums.MessageKindCorrection, 1)
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"line":      key,
			"requested": quantity,
			"corrected": correction.Quantity,
		}), "cart quantity corrected")
	}
	s.metrics.ObserveEvaluation(enums.EntryPointQuantityChange, outcome, time.Since(start))
	return result, nil
}

func (s *service) QuantityArgs(ctx context.Context, sessionID string, productID, variationID int64) (limiter.QuantityArgs, error) {
	start := time.Now()
	v, err := s.validator()
	if err != nil {
		return limiter.QuantityArgs{}, s.fail(ctx, enums.EntryPointQuantityArgs, start, err)
	}
	lines, err := s.cart.Lines(ctx, sessionID)
	if err != nil {
		return limiter.QuantityArgs{}, s.fail(ctx, enums.EntryPointQuantityArgs, start, err)
	}
	args, err := v.QuantityArgs(ctx, productID, variationID, lines)
	if err != nil {
		return limiter.QuantityArgs{}, s.fail(ctx, enums.EntryPointQuantityArgs, start, err)
	}
	s.metrics.ObserveEvaluation(enums.EntryPointQuantityArgs, enums.OutcomeAllowed, time.Since(start))
	return args, nil
}

func (s *service) CartItems(ctx context.Context, sessionID string) ([]CartItemView, error) {
	v, err := s.validator()
	if err != nil {
		return nil, err
	}
	lines, err := s.cart.Lines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	views := make([]CartItemView, 0, len(lines))
	for _, line := range lines {
		view := CartItemView{CartLine: line, Classes: []string{}, MinQty: 1, Step: 1}

		classes, err := v.CartItemClasses(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if len(classes) > 0 {
			view.Classes = classes
		}

		rule, ok, err := v.RuleFor(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if ok {
			view.MinQty = rule.MinPerVariation
			view.Step = rule.Step
			view.CanDecrement = limiter.CanDecrementBelow(line.Quantity, rule.MinPerVariation, rule.Step)
		} else {
			view.CanDecrement = line.Quantity > 1
		}
		views = append(views, view)
	}
	return views, nil
}

// RemoveItem drops one line. Removal is never blocked by the limiter; the
// cart validation reports any minimum it leaves unmet.
func (s *service) RemoveItem(ctx context.Context, sessionID, key string) error {
	ok, err := s.cart.Remove(ctx, sessionID, key)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "line", key), "cart line removed")
	return nil
}

func (s *service) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.cart.Clear(ctx, sessionID); err != nil {
		return err
	}
	s.logg.Info(ctx, "cart cleared")
	return nil
}

func (s *service) ClientSettings(ctx context.Context) ClientSettings {
	set := s.rules.Current()
	out := ClientSettings{Rules: make([]ClientRule, 0, set.Len())}
	for _, rule := range set.Rules() {
		out.Rules = append(out.Rules, ClientRule{
			Slug:   rule.CategorySlug,
			MinQty: rule.MinPerVariation,
			Step:   rule.Step,
		})
	}
	return out
}

func (s *service) fail(ctx context.Context, entry enums.EntryPoint, start time.Time, err error) error {
	s.metrics.ObserveEvaluation(entry, enums.OutcomeError, time.Since(start))
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		return err
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"entry_point": entry.String(),
		"error":       err.Error(),
	}), "limiter evaluation failed")
	return err
}
