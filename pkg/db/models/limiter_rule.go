package models

import "time"

// LimiterRule is one stored rule. Position defines declaration order; a zero
// Step means "use the configured default step".
type LimiterRule struct {
	Position     int       `gorm:"column:position;primaryKey;autoIncrement:false"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex"`
	MinVariation int       `gorm:"column:min_variation;not null"`
	MinTotal     int       `gorm:"column:min_total;not null"`
	Step         int       `gorm:"column:step;not null;default:0"`
	MsgVariation string    `gorm:"column:msg_variation;not null;default:''"`
	MsgTotal     string    `gorm:"column:msg_total;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LimiterRule) TableName() string { return "limiter_rules" }
