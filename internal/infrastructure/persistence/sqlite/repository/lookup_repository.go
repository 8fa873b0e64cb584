package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleetevents/internal/errs"
	"fleetevents/internal/ports"
)

type LookupRepository struct {
	db *gorm.DB
}

var _ ports.LookupRepository = (*LookupRepository)(nil)

func NewLookupRepository(db *gorm.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

var lookupTables = map[ports.LookupTable]struct{}{
	ports.LookupViolations:       {},
	ports.LookupIncidentTypes:    {},
	ports.LookupEquipmentDamages: {},
	ports.LookupDocumentTypes:    {},
}

func checkLookupTable(table ports.LookupTable) error {
	if _, ok := lookupTables[table]; !ok {
		return errs.Validation("unknown lookup table %q", table)
	}
	return nil
}

type lookupRow struct {
	ID          uint64 `gorm:"column:id"`
	Code        string `gorm:"column:code"`
	Description string `gorm:"column:description"`
}

// MissingIDs returns ids absent from table, in input order without duplicates.
func (r *LookupRepository) MissingIDs(ctx context.Context, table ports.LookupTable, ids []uint64) ([]uint64, error) {
	if err := checkLookupTable(table); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	db, err := dbFromContext(r.db, ctx)
	if err != nil {
		return nil, err
	}

	var found []uint64
	if err := db.Table(string(table)).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, errs.Wrapf(err, "query %s", table)
	}

	present := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []uint64
	for _, id := range ids {
		if _, ok := present[id]; ok {
			continue
		}
		present[id] = struct{}{}
		missing = append(missing, id)
	}
	return missing, nil
}

func (r *LookupRepository) UpsertLookups(ctx context.Context, table ports.LookupTable, entries []ports.LookupEntry) (int, error) {
	if err := checkLookupTable(table); err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	db, err := dbFromContext(r.db, ctx)
	if err != nil {
		return 0, err
	}

	rows := make([]lookupRow, 0, len(entries))
	for _, entry := range entries {
		code := strings.TrimSpace(entry.Code)
		if entry.ID == 0 || code == "" {
			return 0, errs.Validation("%s entry requires id and code", table)
		}
		rows = append(rows, lookupRow{ID: entry.ID, Code: code, Description: strings.TrimSpace(entry.Description)})
	}

	if err := db.Table(string(table)).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "description"}),
	}).Create(&rows).Error; err != nil {
		return 0, errs.Wrapf(err, "upsert %s", table)
	}
	return len(rows), nil
}
