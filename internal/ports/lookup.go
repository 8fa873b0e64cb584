package ports

import (
	"context"

	"fleetevents/internal/domain/event"
)

type LookupTable string

const (
	LookupViolations       LookupTable = "violations"
	LookupIncidentTypes    LookupTable = "incident_types"
	LookupEquipmentDamages LookupTable = "equipment_damages"
	LookupDocumentTypes    LookupTable = "document_types"
)

// LookupTableFor maps a tag category to its lookup table.
func LookupTableFor(category event.TagCategory) LookupTable {
	switch category {
	case event.TagIncidentType:
		return LookupIncidentTypes
	case event.TagEquipmentDamage:
		return LookupEquipmentDamages
	default:
		return ""
	}
}

type LookupEntry struct {
	ID          uint64
	Code        string
	Description string
}

// LookupValidator returns the ids from the input that do not exist in table.
type LookupValidator interface {
	MissingIDs(ctx context.Context, table LookupTable, ids []uint64) ([]uint64, error)
}

type LookupRepository interface {
	LookupValidator
	UpsertLookups(ctx context.Context, table LookupTable, entries []LookupEntry) (int, error)
}

// PermissionChecker is consulted by entry points before a saga runs.
type PermissionChecker interface {
	HasAccess(ctx context.Context, roleID string, module string, required AccessLevel) (bool, error)
}

type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessRead
	AccessWrite
	AccessAdmin
)
