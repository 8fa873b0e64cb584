package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ViolationLink struct {
	OwnerType     string    `gorm:"column:owner_type;type:text;not null;primaryKey"`
	OwnerID       uint64    `gorm:"column:owner_id;not null;primaryKey"`
	ViolationID   uint64    `gorm:"column:violation_id;not null;primaryKey"`
	ViolationDate time.Time `gorm:"column:violation_date;not null"`
}

func (ViolationLink) TableName() string {
	return "violation_links"
}

type TagLink struct {
	OwnerType string `gorm:"column:owner_type;type:text;not null;primaryKey"`
	OwnerID   uint64 `gorm:"column:owner_id;not null;primaryKey"`
	Category  string `gorm:"column:category;type:text;not null;primaryKey"`
	LookupID  uint64 `gorm:"column:lookup_id;not null;primaryKey"`
}

func (TagLink) TableName() string {
	return "event_tag_links"
}

type Claim struct {
	ClaimID     uint64          `gorm:"column:claim_id;primaryKey;autoIncrement"`
	EventID     uint64          `gorm:"column:event_id;not null;index"`
	Type        string          `gorm:"column:type;type:text;not null"`
	Status      string          `gorm:"column:status;type:text;not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;not null"`
}

func (Claim) TableName() string {
	return "event_claims"
}
