package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	EventID     uint64          `gorm:"column:event_id;primaryKey;autoIncrement"`
	Kind        string          `gorm:"column:kind;type:text;not null;index"`
	DriverRef   string          `gorm:"column:driver_ref;type:text;not null;index"`
	TruckRef    string          `gorm:"column:truck_ref;type:text;not null;index"`
	TrailerRef  *string         `gorm:"column:trailer_ref;type:text"`
	CompanyID   uint64          `gorm:"column:company_id;not null;index"`
	OccurredAt  time.Time       `gorm:"column:occurred_at;not null"`
	Location    string          `gorm:"column:location;type:text;not null;default:''"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	FeeAmount   decimal.Decimal `gorm:"column:fee_amount;type:decimal(12,2);not null;default:0"`
	FeePaid     bool            `gorm:"column:fee_paid;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"`
}

func (Event) TableName() string {
	return "events"
}
