// Package events implements the event saga: one engine that creates an event with its
// specialization and reconciles the child collections of every event kind.
package events

import (
	"time"

	"github.com/shopspring/decimal"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/ports"
	"fleetevents/internal/usecase/saga"
)

type Service struct {
	repo    ports.EventRepository
	lookups ports.LookupValidator
	saga    *saga.Coordinator
	cache   ports.Cache
	now     func() time.Time
}

// NewService wires the saga engine. cache may be nil, which disables idempotency keys.
func NewService(repo ports.EventRepository, lookups ports.LookupValidator, coordinator *saga.Coordinator, cache ports.Cache) *Service {
	return &Service{
		repo:    repo,
		lookups: lookups,
		saga:    coordinator,
		cache:   cache,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type EventFields struct {
	DriverRef   string
	TruckRef    string
	TrailerRef  *string
	CompanyID   uint64
	OccurredAt  time.Time
	Location    string
	Description string
	FeeAmount   decimal.Decimal
	FeePaid     bool
}

// DocumentInput is one desired attachment. Content may be empty on update when the
// file name already exists; a new name always needs content.
type DocumentInput struct {
	DocumentTypeID uint64
	DocumentNumber string
	FileName       string
	Content        []byte
}

type ImageInput struct {
	FileName string
	Content  []byte
}

type ViolationInput struct {
	ViolationID uint64
	Date        time.Time
}

// ClaimInput with ID refers to an existing claim; without ID it is matched by content.
type ClaimInput struct {
	ID          uint64
	Type        string
	Status      string
	Amount      decimal.Decimal
	Description string
}

// Children is the desired state of every child collection. On update a nil slice (or a
// missing tag category) leaves that collection untouched, while an empty non-nil slice
// removes every item.
type Children struct {
	Documents  []DocumentInput
	Images     []ImageInput
	Violations []ViolationInput
	Claims     []ClaimInput
	Tags       map[event.TagCategory][]uint64
}

type CreateInput struct {
	Kind           event.Kind
	Event          EventFields
	Detail         event.Detail
	Children       Children
	IdempotencyKey string
}

type UpdateInput struct {
	Kind             event.Kind
	SpecializationID uint64
	// ExpectedVersion, when set, must equal the stored version or the update is
	// refused as a concurrency conflict.
	ExpectedVersion int64
	Children        Children
}

type Removed struct {
	Attachments int `json:"attachments"`
	Images      int `json:"images"`
	Violations  int `json:"violations"`
	Claims      int `json:"claims"`
	Tags        int `json:"tags"`
}

type Result struct {
	Kind             event.Kind `json:"kind"`
	EventID          uint64     `json:"event_id"`
	SpecializationID uint64     `json:"specialization_id"`
	Version          int64      `json:"version"`
	AttachmentIDs    []uint64   `json:"attachment_ids,omitempty"`
	ImageIDs         []uint64   `json:"image_ids,omitempty"`
	ViolationIDs     []uint64   `json:"violation_ids,omitempty"`
	ClaimIDs         []uint64   `json:"claim_ids,omitempty"`
	TagIDs           []uint64   `json:"tag_ids,omitempty"`
	Removed          Removed    `json:"removed"`
	Replayed         bool       `json:"replayed,omitempty"`
}

const (
	stateResult = "result"
	statePlan   = "plan"
)

func resultOf(st *saga.State) *Result {
	if res, ok := saga.Value[*Result](st, stateResult); ok {
		return res
	}
	res := &Result{}
	st.Set(stateResult, res)
	return res
}
