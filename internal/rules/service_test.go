package rules

import (
	"bytes"
	"context"
	"testing"

	"github.com/angelmondragon/seedling-limiter/internal/limiter"
	"github.com/angelmondragon/seedling-limiter/pkg/config"
	"github.com/angelmondragon/seedling-limiter/pkg/db/models"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
	"github.com/angelmondragon/seedling-limiter/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Run(context.Background(), sqlDB, config.DriverSQLite, "../../pkg/migrate/migrations", "up"))
	return conn
}

func testDefaults() config.LimiterConfig {
	return config.LimiterConfig{
		DefaultStep:         5,
		DefaultCategorySlug: "seedling",
		DefaultMinVariation: 5,
		DefaultMinTotal:     20,
	}
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		Defaults: testDefaults(),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: buf}),
	})
	require.NoError(t, err)
	return svc, buf
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.New(logger.Options{Output: &bytes.Buffer{}})})
	require.Error(t, err)

	_, err = NewService(ServiceParams{Repo: NewRepository(nil)})
	require.Error(t, err)
}

func TestCurrentIsNilBeforeLoad(t *testing.T) {
	svc, _ := newTestService(t, openTestDB(t))
	assert.Nil(t, svc.Current())
	_, ok := svc.Snapshot()
	assert.False(t, ok)
}

func TestLoadFallsBackToLegacyRule(t *testing.T) {
	svc, _ := newTestService(t, openTestDB(t))

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Stored)
	assert.Equal(t, 5, snap.DefaultStep)

	rules := svc.Current().Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, limiter.Rule{CategorySlug: "seedling", MinPerVariation: 5, MinTotal: 20, Step: 5}, rules[0])
}

func TestReplacePersistsAndSwapsSnapshot(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc, _ := newTestService(t, db)
	_, err := svc.Load(ctx)
	require.NoError(t, err)
	before := svc.Current()

	snap, err := svc.Replace(ctx, ReplaceInput{
		DefaultStep: 10,
		Rules: []RuleInput{
			{Slug: "  tomatoes ", MinVariation: 10, MinTotal: 30, MsgVariation: "<em>At least</em> {min}"},
			{Slug: "peppers", MinVariation: 6, MinTotal: 0, Step: 3},
			{Slug: "   "},
		},
	})
	require.NoError(t, err)
	assert.True(t, snap.Stored)
	assert.Equal(t, 10, snap.DefaultStep)
	assert.NotSame(t, before, svc.Current())

	rules := svc.Current().Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "tomatoes", rules[0].CategorySlug)
	assert.Equal(t, 10, rules[0].Step, "step 0 inherits the default step")
	assert.Equal(t, "At least {min}", rules[0].VariationTemplate)
	assert.Equal(t, 3, rules[1].Step)

	var rows []models.LimiterRule
	require.NoError(t, db.Order("position").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, 0, rows[0].Step, "inherited step is stored as 0")

	// A fresh service reads back the same configuration.
	reloaded, _ := newTestService(t, db)
	again, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.Current().Rules(), again.Rules.Rules())
	assert.Equal(t, 10, again.DefaultStep)
}

func TestReplaceRejectsInvalidRulesAsValidationError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc, _ := newTestService(t, db)
	_, err := svc.Load(ctx)
	require.NoError(t, err)
	before := svc.Current()

	_, err = svc.Replace(ctx, ReplaceInput{Rules: []RuleInput{
		{Slug: "tomatoes", MinVariation: 0},
		{Slug: "tomatoes", MinVariation: 4},
	}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	violations, ok := typed.Details().(map[string]any)["violations"].([]string)
	require.True(t, ok)
	assert.Len(t, violations, 2)

	assert.Same(t, before, svc.Current(), "failed replace must keep the active snapshot")
	var count int64
	require.NoError(t, db.Model(&models.LimiterRule{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReplaceWithEmptyListFallsBackToLegacyRule(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc, _ := newTestService(t, db)

	snap, err := svc.Replace(ctx, ReplaceInput{DefaultStep: 10})
	require.NoError(t, err)
	assert.False(t, snap.Stored)
	require.Equal(t, 1, svc.Current().Len())
	assert.Equal(t, "seedling", svc.Current().Rules()[0].CategorySlug)

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.Stored)
	assert.Equal(t, 10, loaded.DefaultStep, "saved default step still applies to the legacy rule")
	rules := loaded.Rules.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "seedling", rules[0].CategorySlug)
	assert.Equal(t, 10, rules[0].Step)
	assert.Equal(t, svc.Current().Rules(), rules, "replace and load must publish the same rules")
}

func TestEnsureDefaultsSeedsOnce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc, _ := newTestService(t, db)

	wrote, err := svc.EnsureDefaults(ctx)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = svc.EnsureDefaults(ctx)
	require.NoError(t, err)
	assert.False(t, wrote)

	snap, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Stored)
	rules := snap.Rules.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "seedling", rules[0].CategorySlug)
	assert.Equal(t, limiter.DefaultVariationTemplate, rules[0].VariationTemplate)
}

func TestResetPurgesAndReloadsLegacy(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc, _ := newTestService(t, db)

	_, err := svc.Replace(ctx, ReplaceInput{DefaultStep: 2, Rules: []RuleInput{{Slug: "herbs", MinVariation: 2}}})
	require.NoError(t, err)

	snap, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Stored)
	assert.Equal(t, 5, snap.DefaultStep)
	require.Equal(t, 1, snap.Rules.Len())
	assert.Equal(t, "seedling", snap.Rules.Rules()[0].CategorySlug)

	var settings int64
	require.NoError(t, db.Model(&models.LimiterSetting{}).Count(&settings).Error)
	assert.Zero(t, settings)
}

func TestLoadIgnoresInvalidStoredDefaultStep(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.LimiterSetting{Key: models.SettingDefaultStep, Value: "zero"}).Error)

	svc, buf := newTestService(t, db)
	snap, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.DefaultStep)
	assert.Contains(t, buf.String(), "stored default step invalid")
}
