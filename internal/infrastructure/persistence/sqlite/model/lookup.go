package model

// Lookup rows share one shape; each table is its own type so AutoMigrate creates it.

type Violation struct {
	ID          uint64 `gorm:"column:id;primaryKey"`
	Code        string `gorm:"column:code;type:text;not null;uniqueIndex"`
	Description string `gorm:"column:description;type:text;not null"`
}

func (Violation) TableName() string { return "violations" }

type IncidentType struct {
	ID          uint64 `gorm:"column:id;primaryKey"`
	Code        string `gorm:"column:code;type:text;not null;uniqueIndex"`
	Description string `gorm:"column:description;type:text;not null"`
}

func (IncidentType) TableName() string { return "incident_types" }

type EquipmentDamage struct {
	ID          uint64 `gorm:"column:id;primaryKey"`
	Code        string `gorm:"column:code;type:text;not null;uniqueIndex"`
	Description string `gorm:"column:description;type:text;not null"`
}

func (EquipmentDamage) TableName() string { return "equipment_damages" }

type DocumentType struct {
	ID          uint64 `gorm:"column:id;primaryKey"`
	Code        string `gorm:"column:code;type:text;not null;uniqueIndex"`
	Description string `gorm:"column:description;type:text;not null"`
}

func (DocumentType) TableName() string { return "document_types" }
