package models

import "time"

const SettingDefaultStep = "default_step"

// LimiterSetting is a key/value row for global limiter settings.
type LimiterSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LimiterSetting) TableName() string { return "limiter_settings" }
