package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/infrastructure/persistence/sqlite/model"
	"fleetevents/internal/ports"
)

type EventRepository struct {
	db *gorm.DB
}

var _ ports.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	return dbFromContext(r.db, ctx)
}

func dbFromContext(base *gorm.DB, ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return base.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

var specializationTables = map[event.OwnerType]string{
	event.OwnerAccident:      model.Accident{}.TableName(),
	event.OwnerIncident:      model.Incident{}.TableName(),
	event.OwnerTicket:        model.Ticket{}.TableName(),
	event.OwnerWarning:       model.Warning{}.TableName(),
	event.OwnerDotInspection: model.DotInspection{}.TableName(),
}

func specializationTable(owner event.OwnerType) (string, error) {
	table, ok := specializationTables[owner]
	if !ok {
		return "", errs.Validation("unknown specialization owner %q", owner)
	}
	return table, nil
}

func (r *EventRepository) CreateEvent(ctx context.Context, input ports.EventCreate) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	row := model.Event{
		Kind:        string(input.Kind),
		DriverRef:   input.DriverRef,
		TruckRef:    input.TruckRef,
		TrailerRef:  input.TrailerRef,
		CompanyID:   input.CompanyID,
		OccurredAt:  input.OccurredAt,
		Location:    input.Location,
		Description: input.Description,
		FeeAmount:   input.FeeAmount,
		FeePaid:     input.FeePaid,
		CreatedAt:   input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return 0, errs.Wrap(err, "insert event")
	}
	return row.EventID, nil
}

func (r *EventRepository) GetEvent(ctx context.Context, eventID uint64) (ports.Event, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Event{}, err
	}

	var row model.Event
	if err := db.Where("event_id = ?", eventID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Event{}, ports.ErrEventNotFound
		}
		return ports.Event{}, errs.Wrap(err, "query event")
	}
	return mapEvent(row), nil
}

// CreateSpecialization requires the event row to be visible in the current transaction
// and refuses a second specialization for the same event.
func (r *EventRepository) CreateSpecialization(ctx context.Context, eventID uint64, detail event.Detail) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}
	if detail == nil {
		return 0, errs.Validation("specialization detail is required")
	}

	var parent model.Event
	if err := db.Where("event_id = ?", eventID).Take(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errs.Validation("event %d does not exist", eventID)
		}
		return 0, errs.Wrap(err, "query parent event")
	}

	profile, err := event.ProfileFor(event.Kind(parent.Kind))
	if err != nil {
		return 0, errs.Validation("%v", err)
	}
	if profile.Owner != detail.Owner() {
		return 0, errs.Validation("%s specialization cannot belong to %s event %d", detail.Owner(), parent.Kind, eventID)
	}

	table, err := specializationTable(detail.Owner())
	if err != nil {
		return 0, err
	}
	var existing int64
	if err := db.Table(table).Where("event_id = ?", eventID).Count(&existing).Error; err != nil {
		return 0, errs.Wrap(err, "count specializations")
	}
	if existing > 0 {
		return 0, errs.Validation("event %d already has a %s specialization", eventID, detail.Owner())
	}

	id, err := insertSpecialization(db, eventID, detail)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errs.Validation("event %d already has a %s specialization", eventID, detail.Owner())
		}
		return 0, errs.Wrapf(err, "insert %s", detail.Owner())
	}
	return id, nil
}

func insertSpecialization(db *gorm.DB, eventID uint64, detail event.Detail) (uint64, error) {
	switch d := detail.(type) {
	case event.AccidentDetail:
		row := model.Accident{
			EventID:            eventID,
			Version:            1,
			DriverAtFault:      d.DriverAtFault,
			AlcoholTestDone:    d.AlcoholTestDone,
			AlcoholTestResult:  strings.ToLower(strings.TrimSpace(d.AlcoholTestResult)),
			DrugTestDone:       d.DrugTestDone,
			Fatalities:         d.Fatalities,
			Injuries:           d.Injuries,
			TowAway:            d.TowAway,
			HazmatReleased:     d.HazmatReleased,
			PoliceReportNumber: strings.TrimSpace(d.PoliceReportNumber),
		}
		err := db.Create(&row).Error
		return row.ID, err
	case event.IncidentDetail:
		row := model.Incident{
			EventID:        eventID,
			Version:        1,
			Severity:       strings.ToLower(strings.TrimSpace(d.Severity)),
			PropertyDamage: d.PropertyDamage,
			ReportedBy:     strings.TrimSpace(d.ReportedBy),
		}
		err := db.Create(&row).Error
		return row.ID, err
	case event.TicketDetail:
		row := model.Ticket{
			EventID:      eventID,
			Version:      1,
			TicketNumber: strings.TrimSpace(d.TicketNumber),
			Court:        strings.TrimSpace(d.Court),
			CourtDate:    d.CourtDate,
			Status:       strings.ToLower(strings.TrimSpace(d.Status)),
		}
		err := db.Create(&row).Error
		return row.ID, err
	case event.WarningDetail:
		row := model.Warning{
			EventID:  eventID,
			Version:  1,
			IssuedBy: strings.TrimSpace(d.IssuedBy),
			Reason:   strings.TrimSpace(d.Reason),
		}
		err := db.Create(&row).Error
		return row.ID, err
	case event.DotInspectionDetail:
		row := model.DotInspection{
			EventID:        eventID,
			Version:        1,
			Level:          d.Level,
			ReportNumber:   strings.TrimSpace(d.ReportNumber),
			CitationStatus: strings.ToLower(strings.TrimSpace(d.CitationStatus)),
			OutOfService:   d.OutOfService,
		}
		err := db.Create(&row).Error
		return row.ID, err
	default:
		return 0, errs.Validation("unsupported specialization detail %T", detail)
	}
}

type specializationRow struct {
	ID      uint64
	EventID uint64
	Version int64
}

func (r *EventRepository) GetSpecialization(ctx context.Context, owner event.OwnerType, id uint64) (ports.Specialization, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Specialization{}, err
	}
	table, err := specializationTable(owner)
	if err != nil {
		return ports.Specialization{}, err
	}

	var row specializationRow
	if err := db.Table(table).Select("id, event_id, version").Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Specialization{}, ports.ErrSpecializationNotFound
		}
		return ports.Specialization{}, errs.Wrapf(err, "query %s", owner)
	}

	parent, err := r.GetEvent(ctx, row.EventID)
	if err != nil {
		return ports.Specialization{}, err
	}
	return ports.Specialization{
		ID:        row.ID,
		EventID:   row.EventID,
		Owner:     owner,
		Kind:      parent.Kind,
		CompanyID: parent.CompanyID,
		Version:   row.Version,
	}, nil
}

// BumpSpecializationVersion advances the version only if it still equals expected.
// A lost race is reported as transient so the whole saga re-reads and re-plans.
func (r *EventRepository) BumpSpecializationVersion(ctx context.Context, owner event.OwnerType, id uint64, expected int64) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}
	table, err := specializationTable(owner)
	if err != nil {
		return 0, err
	}

	result := db.Table(table).
		Where("id = ? AND version = ?", id, expected).
		Update("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return 0, errs.Wrapf(result.Error, "bump %s version", owner)
	}
	if result.RowsAffected == 0 {
		return 0, errs.Transient(nil, fmt.Sprintf("%s %d changed since version %d", owner, id, expected))
	}
	return expected + 1, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func mapEvent(row model.Event) ports.Event {
	return ports.Event{
		EventID:     row.EventID,
		Kind:        event.Kind(row.Kind),
		DriverRef:   row.DriverRef,
		TruckRef:    row.TruckRef,
		TrailerRef:  row.TrailerRef,
		CompanyID:   row.CompanyID,
		OccurredAt:  row.OccurredAt,
		Location:    row.Location,
		Description: row.Description,
		FeeAmount:   row.FeeAmount,
		FeePaid:     row.FeePaid,
		CreatedAt:   row.CreatedAt,
	}
}
