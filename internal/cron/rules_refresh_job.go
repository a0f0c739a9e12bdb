package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/seedling-limiter/internal/rules"
)

const (
	rulesRefreshJobName = "rules_refresh"
	defaultMaxStale     = 10 * time.Minute
)

type rulesLoader interface {
	Load(ctx context.Context) (rules.Snapshot, error)
}

// RulesRefreshJob reloads the local rule snapshot when the shared rules
// version moves, and unconditionally once the snapshot is older than maxStale.
type RulesRefreshJob struct {
	rules    rulesLoader
	versions rules.VersionStore
	maxStale time.Duration
	now      func() time.Time

	seen     int64
	primed   bool
	loadedAt time.Time
}

type RulesRefreshParams struct {
	Rules rulesLoader
	// Versions is optional; without it every run reloads.
	Versions rules.VersionStore
	MaxStale time.Duration
}

func NewRulesRefreshJob(params RulesRefreshParams) (*RulesRefreshJob, error) {
	if params.Rules == nil {
		return nil, fmt.Errorf("rules service required")
	}
	maxStale := params.MaxStale
	if maxStale <= 0 {
		maxStale = defaultMaxStale
	}
	return &RulesRefreshJob{
		rules:    params.Rules,
		versions: params.Versions,
		maxStale: maxStale,
		now:      time.Now,
	}, nil
}

func (j *RulesRefreshJob) Name() string { return rulesRefreshJobName }

func (j *RulesRefreshJob) Run(ctx context.Context) error {
	if j.versions == nil {
		return j.reload(ctx, 0)
	}

	version, err := j.versions.Current(ctx)
	if err != nil {
		return fmt.Errorf("read rules version: %w", err)
	}
	if j.primed && version == j.seen && j.now().Sub(j.loadedAt) < j.maxStale {
		return nil
	}
	return j.reload(ctx, version)
}

func (j *RulesRefreshJob) reload(ctx context.Context, version int64) error {
	if _, err := j.rules.Load(ctx); err != nil {
		return fmt.Errorf("reload rules: %w", err)
	}
	j.seen = version
	j.primed = true
	j.loadedAt = j.now()
	return nil
}
