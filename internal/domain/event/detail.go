package event

import (
	"fmt"
	"strings"
	"time"
)

// Detail is the kind-specific half of an event. Exactly one Detail is stored per event.
type Detail interface {
	Owner() OwnerType
	Validate() error
}

type AccidentDetail struct {
	DriverAtFault      bool   `json:"driver_at_fault"`
	AlcoholTestDone    bool   `json:"alcohol_test_done"`
	AlcoholTestResult  string `json:"alcohol_test_result"`
	DrugTestDone       bool   `json:"drug_test_done"`
	Fatalities         int    `json:"fatalities"`
	Injuries           int    `json:"injuries"`
	TowAway            bool   `json:"tow_away"`
	HazmatReleased     bool   `json:"hazmat_released"`
	PoliceReportNumber string `json:"police_report_number"`
}

type IncidentDetail struct {
	Severity       string `json:"severity"`
	PropertyDamage bool   `json:"property_damage"`
	ReportedBy     string `json:"reported_by"`
}

// TicketDetail backs both tickets and citations.
type TicketDetail struct {
	TicketNumber string     `json:"ticket_number"`
	Court        string     `json:"court"`
	CourtDate    *time.Time `json:"court_date"`
	Status       string     `json:"status"`
}

type WarningDetail struct {
	IssuedBy string `json:"issued_by"`
	Reason   string `json:"reason"`
}

type DotInspectionDetail struct {
	Level          int    `json:"level"`
	ReportNumber   string `json:"report_number"`
	CitationStatus string `json:"citation_status"`
	OutOfService   bool   `json:"out_of_service"`
}

var (
	alcoholResults   = []string{"", "negative", "positive", "refused"}
	severities       = []string{"low", "medium", "high", "critical"}
	ticketStatuses   = []string{"open", "paid", "contested", "dismissed"}
	citationStatuses = []string{"none", "issued", "pending", "dismissed"}
)

func (AccidentDetail) Owner() OwnerType      { return OwnerAccident }
func (IncidentDetail) Owner() OwnerType      { return OwnerIncident }
func (TicketDetail) Owner() OwnerType        { return OwnerTicket }
func (WarningDetail) Owner() OwnerType       { return OwnerWarning }
func (DotInspectionDetail) Owner() OwnerType { return OwnerDotInspection }

func (d AccidentDetail) Validate() error {
	if d.Fatalities < 0 || d.Injuries < 0 {
		return fmt.Errorf("%w: casualty counts must not be negative", ErrInvalidDetail)
	}
	if !oneOf(d.AlcoholTestResult, alcoholResults) {
		return fmt.Errorf("%w: alcohol test result %q", ErrInvalidDetail, d.AlcoholTestResult)
	}
	if !d.AlcoholTestDone && strings.TrimSpace(d.AlcoholTestResult) != "" {
		return fmt.Errorf("%w: alcohol test result without a test", ErrInvalidDetail)
	}
	return nil
}

func (d IncidentDetail) Validate() error {
	if !oneOf(d.Severity, severities) {
		return fmt.Errorf("%w: severity %q", ErrInvalidDetail, d.Severity)
	}
	return nil
}

func (d TicketDetail) Validate() error {
	if strings.TrimSpace(d.TicketNumber) == "" {
		return fmt.Errorf("%w: ticket number is required", ErrInvalidDetail)
	}
	if !oneOf(d.Status, ticketStatuses) {
		return fmt.Errorf("%w: ticket status %q", ErrInvalidDetail, d.Status)
	}
	return nil
}

func (d WarningDetail) Validate() error {
	if strings.TrimSpace(d.IssuedBy) == "" {
		return fmt.Errorf("%w: issuing authority is required", ErrInvalidDetail)
	}
	return nil
}

func (d DotInspectionDetail) Validate() error {
	if d.Level < 1 || d.Level > 6 {
		return fmt.Errorf("%w: inspection level %d out of range 1-6", ErrInvalidDetail, d.Level)
	}
	if !oneOf(d.CitationStatus, citationStatuses) {
		return fmt.Errorf("%w: citation status %q", ErrInvalidDetail, d.CitationStatus)
	}
	return nil
}

// CheckDetail validates d and that it belongs to the profile's owner table.
func CheckDetail(p Profile, d Detail) error {
	if d == nil {
		return fmt.Errorf("%w: detail is required for %s", ErrInvalidDetail, p.Kind)
	}
	if d.Owner() != p.Owner {
		return fmt.Errorf("%w: %s detail for %s event", ErrKindMismatch, d.Owner(), p.Kind)
	}
	return d.Validate()
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
