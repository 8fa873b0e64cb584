package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fleetevents/internal/domain/event"
)

var (
	ErrEventNotFound          = errors.New("event not found")
	ErrSpecializationNotFound = errors.New("specialization not found")
	ErrClaimNotFound          = errors.New("claim not found")
)

type EventCreate struct {
	Kind        event.Kind
	DriverRef   string
	TruckRef    string
	TrailerRef  *string
	CompanyID   uint64
	OccurredAt  time.Time
	Location    string
	Description string
	FeeAmount   decimal.Decimal
	FeePaid     bool
	CreatedAt   time.Time
}

type Event struct {
	EventID     uint64
	Kind        event.Kind
	DriverRef   string
	TruckRef    string
	TrailerRef  *string
	CompanyID   uint64
	OccurredAt  time.Time
	Location    string
	Description string
	FeeAmount   decimal.Decimal
	FeePaid     bool
	CreatedAt   time.Time
}

// Specialization is the owner row that child collections hang off. Kind and CompanyID
// come from the parent event.
type Specialization struct {
	ID        uint64
	EventID   uint64
	Owner     event.OwnerType
	Kind      event.Kind
	CompanyID uint64
	Version   int64
}

type Attachment struct {
	AttachmentID   uint64
	Owner          event.OwnerType
	OwnerID        uint64
	DocumentTypeID uint64
	DocumentNumber string
	FileName       string
	StoragePath    string
	URL            string
	Status         string
}

type Image struct {
	ImageID     uint64
	Owner       event.OwnerType
	OwnerID     uint64
	FileName    string
	StoragePath string
	PictureURL  string
}

type ViolationLink struct {
	Owner         event.OwnerType
	OwnerID       uint64
	ViolationID   uint64
	ViolationDate time.Time
}

type Claim struct {
	ClaimID     uint64
	EventID     uint64
	Type        string
	Status      string
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventWriter inserts parent event rows.
type EventWriter interface {
	CreateEvent(ctx context.Context, input EventCreate) (uint64, error)
	GetEvent(ctx context.Context, eventID uint64) (Event, error)
}

// SpecializationWriter inserts the one kind-specific row for an event and guards its
// optimistic version token.
type SpecializationWriter interface {
	CreateSpecialization(ctx context.Context, eventID uint64, detail event.Detail) (uint64, error)
	GetSpecialization(ctx context.Context, owner event.OwnerType, id uint64) (Specialization, error)
	BumpSpecializationVersion(ctx context.Context, owner event.OwnerType, id uint64, expected int64) (int64, error)
}

// CollectionRepository stores the child collections reconciled by a saga.
type CollectionRepository interface {
	ListAttachments(ctx context.Context, owner event.OwnerType, ownerID uint64) ([]Attachment, error)
	InsertAttachment(ctx context.Context, input Attachment) (uint64, error)
	DeleteAttachments(ctx context.Context, ids []uint64) error

	ListImages(ctx context.Context, owner event.OwnerType, ownerID uint64) ([]Image, error)
	InsertImage(ctx context.Context, input Image) (uint64, error)
	DeleteImages(ctx context.Context, ids []uint64) error

	ListViolationLinks(ctx context.Context, owner event.OwnerType, ownerID uint64) ([]ViolationLink, error)
	InsertViolationLinks(ctx context.Context, links []ViolationLink) error
	DeleteViolationLinks(ctx context.Context, owner event.OwnerType, ownerID uint64, violationIDs []uint64) error

	ListClaims(ctx context.Context, eventID uint64) ([]Claim, error)
	InsertClaim(ctx context.Context, input Claim) (uint64, error)
	DeleteClaims(ctx context.Context, ids []uint64) error

	ListTagLinks(ctx context.Context, owner event.OwnerType, ownerID uint64, category event.TagCategory) ([]uint64, error)
	InsertTagLinks(ctx context.Context, owner event.OwnerType, ownerID uint64, category event.TagCategory, lookupIDs []uint64) error
	DeleteTagLinks(ctx context.Context, owner event.OwnerType, ownerID uint64, category event.TagCategory, lookupIDs []uint64) error
}

type EventRepository interface {
	EventWriter
	SpecializationWriter
	CollectionRepository
}
