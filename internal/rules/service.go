package rules

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/seedling-limiter/internal/limiter"
	"github.com/angelmondragon/seedling-limiter/pkg/config"
	"github.com/angelmondragon/seedling-limiter/pkg/db/models"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
	"github.com/angelmondragon/seedling-limiter/pkg/metrics"
)

type store interface {
	ListRules(ctx context.Context) ([]models.LimiterRule, error)
	GetSetting(ctx context.Context, key string) (string, bool, error)
	ReplaceAll(ctx context.Context, settings map[string]string, rules []models.LimiterRule) error
	InsertDefaults(ctx context.Context, settings map[string]string, rule models.LimiterRule) (bool, error)
	Purge(ctx context.Context) error
}

// ServiceParams groups dependencies for the rules service.
type ServiceParams struct {
	Repo     store
	Defaults config.LimiterConfig
	Logger   *logger.Logger
	Metrics  *metrics.LimiterMetrics
	// Versions is optional; when set, writes bump it so other instances reload.
	Versions VersionStore
}

// Snapshot is the immutable rule configuration handed to requests.
type Snapshot struct {
	Rules       *limiter.RuleSet
	DefaultStep int
	// Stored is false when the rules came from the legacy config fallback.
	Stored   bool
	LoadedAt time.Time
}

// ReplaceInput is the full rule configuration submitted by an administrator.
type ReplaceInput struct {
	DefaultStep int         `json:"default_step" validate:"min=0"`
	Rules       []RuleInput `json:"rules" validate:"dive"`
}

// Service loads rule configuration and publishes it as an atomic snapshot.
type Service interface {
	Load(ctx context.Context) (Snapshot, error)
	Current() *limiter.RuleSet
	Snapshot() (Snapshot, bool)
	Replace(ctx context.Context, input ReplaceInput) (Snapshot, error)
	EnsureDefaults(ctx context.Context) (bool, error)
	Reset(ctx context.Context) (Snapshot, error)
}

type service struct {
	repo     store
	defaults config.LimiterConfig
	logg     *logger.Logger
	metrics  *metrics.LimiterMetrics
	versions VersionStore
	current  atomic.Pointer[Snapshot]
}

// NewService builds a rules service. Call Load before serving requests.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("rules repo required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	defaults := params.Defaults
	if defaults.DefaultStep < 1 {
		defaults.DefaultStep = 1
	}
	return &service{
		repo:     params.Repo,
		defaults: defaults,
		logg:     params.Logger,
		metrics:  params.Metrics,
		versions: params.Versions,
	}, nil
}

func (s *service) Load(ctx context.Context) (Snapshot, error) {
	snap, err := s.read(ctx)
	s.metrics.RulesLoaded(snap.Rules.Len(), err)
	if err != nil {
		return Snapshot{}, err
	}
	s.publish(ctx, snap)
	return snap, nil
}

// Current returns the active rule set, or nil before the first Load.
func (s *service) Current() *limiter.RuleSet {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.Rules
}

func (s *service) Snapshot() (Snapshot, bool) {
	snap := s.current.Load()
	if snap == nil {
		return Snapshot{}, false
	}
	return *snap, true
}

func (s *service) Replace(ctx context.Context, input ReplaceInput) (Snapshot, error) {
	step := input.DefaultStep
	if step == 0 {
		current, err := s.defaultStep(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		step = current
	}

	set, err := limiter.NewRuleSet(normalizeRules(s.effectiveInputs(input.Rules), step))
	if err != nil {
		return Snapshot{}, pkgerrors.Recode(err, pkgerrors.CodeValidation)
	}

	settings := map[string]string{models.SettingDefaultStep: strconv.Itoa(step)}
	if err := s.repo.ReplaceAll(ctx, settings, modelsFromInputs(input.Rules)); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist limiter rules")
	}

	snap := Snapshot{Rules: set, DefaultStep: step, Stored: len(input.Rules) > 0, LoadedAt: time.Now().UTC()}
	s.metrics.RulesLoaded(set.Len(), nil)
	s.publish(ctx, snap)
	s.announce(ctx)
	return snap, nil
}

func (s *service) EnsureDefaults(ctx context.Context) (bool, error) {
	settings := map[string]string{models.SettingDefaultStep: strconv.Itoa(s.defaults.DefaultStep)}
	rule := models.LimiterRule{
		Position:     1,
		Slug:         s.defaults.DefaultCategorySlug,
		MinVariation: s.defaults.DefaultMinVariation,
		MinTotal:     s.defaults.DefaultMinTotal,
		MsgVariation: limiter.DefaultVariationTemplate,
		MsgTotal:     limiter.DefaultTotalTemplate,
	}
	wrote, err := s.repo.InsertDefaults(ctx, settings, rule)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed default limiter rules")
	}
	if wrote {
		s.logg.Info(s.logg.WithCategory(ctx, rule.Slug), "seeded default limiter configuration")
		s.announce(ctx)
	}
	return wrote, nil
}

func (s *service) Reset(ctx context.Context) (Snapshot, error) {
	if err := s.repo.Purge(ctx); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge limiter rules")
	}
	s.announce(ctx)
	return s.Load(ctx)
}

// announce bumps the shared version. Failures are logged, not returned.
func (s *service) announce(ctx context.Context) {
	if s.versions == nil {
		return
	}
	if _, err := s.versions.Bump(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "limiter rules version bump failed")
	}
}

func (s *service) read(ctx context.Context) (Snapshot, error) {
	step, err := s.defaultStep(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	rows, err := s.repo.ListRules(ctx)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list limiter rules")
	}

	set, err := limiter.NewRuleSet(normalizeRules(s.effectiveInputs(inputsFromModels(rows)), step))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Rules: set, DefaultStep: step, Stored: len(rows) > 0, LoadedAt: time.Now().UTC()}, nil
}

// effectiveInputs falls back to the legacy rule whenever no rules are stored,
// including after an administrator saved an empty list.
func (s *service) effectiveInputs(inputs []RuleInput) []RuleInput {
	if len(inputs) == 0 {
		return []RuleInput{s.legacyRule()}
	}
	return inputs
}

// legacyRule is the single rule used while nothing is stored.
func (s *service) legacyRule() RuleInput {
	return RuleInput{
		Slug:         s.defaults.DefaultCategorySlug,
		MinVariation: s.defaults.DefaultMinVariation,
		MinTotal:     s.defaults.DefaultMinTotal,
	}
}

// defaultStep returns the stored default step, or the configured one when unset.
func (s *service) defaultStep(ctx context.Context) (int, error) {
	raw, ok, err := s.repo.GetSetting(ctx, models.SettingDefaultStep)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read default step")
	}
	if !ok {
		return s.defaults.DefaultStep, nil
	}
	step, err := strconv.Atoi(raw)
	if err != nil || step < 1 {
		s.logg.Warn(s.logg.WithField(ctx, "default_step", raw), "stored default step invalid, using configured value")
		return s.defaults.DefaultStep, nil
	}
	return step, nil
}

func (s *service) publish(ctx context.Context, snap Snapshot) {
	s.current.Store(&snap)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"rules":        snap.Rules.Len(),
		"default_step": snap.DefaultStep,
		"stored":       snap.Stored,
	}), "limiter rules loaded")
}
