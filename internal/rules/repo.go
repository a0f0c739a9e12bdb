package rules

import (
	"context"
	"errors"

	"github.com/angelmondragon/seedling-limiter/internal/repo"
	pkgdb "github.com/angelmondragon/seedling-limiter/pkg/db"
	"github.com/angelmondragon/seedling-limiter/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists limiter rules and settings.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// ListRules returns stored rules in declaration order.
func (r *Repository) ListRules(ctx context.Context) ([]models.LimiterRule, error) {
	var rows []models.LimiterRule
	if err := r.base.DB(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSetting returns the raw value for key; ok is false when it was never stored.
func (r *Repository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var row models.LimiterSetting
	err := r.base.DB(ctx).Where(`"key" = ?`, key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// ReplaceAll swaps every stored rule and the given settings in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, settings map[string]string, rules []models.LimiterRule) error {
	return r.base.Transaction(ctx, func(tx repo.Base) error {
		db := tx.DB(ctx)
		if err := db.Where("1 = 1").Delete(&models.LimiterRule{}).Error; err != nil {
			return err
		}
		if len(rules) > 0 {
			if err := db.Create(&rules).Error; err != nil {
				return err
			}
		}
		return upsertSettings(db, settings)
	})
}

// InsertDefaults stores rule and settings only where nothing exists yet.
// It reports whether anything was written. Losing a seeding race to another
// instance counts as nothing written.
func (r *Repository) InsertDefaults(ctx context.Context, settings map[string]string, rule models.LimiterRule) (bool, error) {
	wrote := false
	err := r.base.Transaction(ctx, func(tx repo.Base) error {
		db := tx.DB(ctx)

		var count int64
		if err := db.Model(&models.LimiterRule{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&rule).Error; err != nil {
				return err
			}
			wrote = true
		}

		for key, value := range settings {
			res := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.LimiterSetting{Key: key, Value: value})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				wrote = true
			}
		}
		return nil
	})
	if pkgdb.IsUniqueViolation(err, "") {
		return false, nil
	}
	return wrote, err
}

// Purge deletes all rules and settings.
func (r *Repository) Purge(ctx context.Context) error {
	return r.base.Transaction(ctx, func(tx repo.Base) error {
		db := tx.DB(ctx)
		if err := db.Where("1 = 1").Delete(&models.LimiterRule{}).Error; err != nil {
			return err
		}
		return db.Where("1 = 1").Delete(&models.LimiterSetting{}).Error
	})
}

func upsertSettings(db *gorm.DB, settings map[string]string) error {
	for key, value := range settings {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&models.LimiterSetting{Key: key, Value: value}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
