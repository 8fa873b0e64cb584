package model

import "time"

// Every specialization table carries a unique event_id (1:1 with events) and an
// optimistic version bumped by each reconciliation run.

type Accident struct {
	ID                 uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EventID            uint64 `gorm:"column:event_id;not null;uniqueIndex"`
	Version            int64  `gorm:"column:version;not null;default:1"`
	DriverAtFault      bool   `gorm:"column:driver_at_fault;not null"`
	AlcoholTestDone    bool   `gorm:"column:alcohol_test_done;not null"`
	AlcoholTestResult  string `gorm:"column:alcohol_test_result;type:text;not null;default:''"`
	DrugTestDone       bool   `gorm:"column:drug_test_done;not null"`
	Fatalities         int    `gorm:"column:fatalities;not null;default:0"`
	Injuries           int    `gorm:"column:injuries;not null;default:0"`
	TowAway            bool   `gorm:"column:tow_away;not null"`
	HazmatReleased     bool   `gorm:"column:hazmat_released;not null"`
	PoliceReportNumber string `gorm:"column:police_report_number;type:text;not null;default:''"`
}

func (Accident) TableName() string { return "accidents" }

type Incident struct {
	ID             uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EventID        uint64 `gorm:"column:event_id;not null;uniqueIndex"`
	Version        int64  `gorm:"column:version;not null;default:1"`
	Severity       string `gorm:"column:severity;type:text;not null"`
	PropertyDamage bool   `gorm:"column:property_damage;not null"`
	ReportedBy     string `gorm:"column:reported_by;type:text;not null;default:''"`
}

func (Incident) TableName() string { return "incidents" }

type Ticket struct {
	ID           uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	EventID      uint64     `gorm:"column:event_id;not null;uniqueIndex"`
	Version      int64      `gorm:"column:version;not null;default:1"`
	TicketNumber string     `gorm:"column:ticket_number;type:text;not null;index"`
	Court        string     `gorm:"column:court;type:text;not null;default:''"`
	CourtDate    *time.Time `gorm:"column:court_date"`
	Status       string     `gorm:"column:status;type:text;not null"`
}

func (Ticket) TableName() string { return "tickets" }

type Warning struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EventID  uint64 `gorm:"column:event_id;not null;uniqueIndex"`
	Version  int64  `gorm:"column:version;not null;default:1"`
	IssuedBy string `gorm:"column:issued_by;type:text;not null"`
	Reason   string `gorm:"column:reason;type:text;not null;default:''"`
}

func (Warning) TableName() string { return "warnings" }

type DotInspection struct {
	ID             uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EventID        uint64 `gorm:"column:event_id;not null;uniqueIndex"`
	Version        int64  `gorm:"column:version;not null;default:1"`
	Level          int    `gorm:"column:level;not null"`
	ReportNumber   string `gorm:"column:report_number;type:text;not null;default:''"`
	CitationStatus string `gorm:"column:citation_status;type:text;not null"`
	OutOfService   bool   `gorm:"column:out_of_service;not null"`
}

func (DotInspection) TableName() string { return "dot_inspections" }
