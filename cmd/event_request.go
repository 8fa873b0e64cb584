package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/usecase/events"
)

// eventRequest is the JSON file accepted by `event create` and `event update`.
// File contents are referenced by path, relative to the request file.
type eventRequest struct {
	Event          eventFieldsRequest  `json:"event"`
	Detail         json.RawMessage     `json:"detail"`
	Documents      []documentRequest   `json:"documents"`
	Images         []imageRequest      `json:"images"`
	Violations     []violationRequest  `json:"violations"`
	Claims         []claimRequest      `json:"claims"`
	Tags           map[string][]uint64 `json:"tags"`
	IdempotencyKey string              `json:"idempotency_key"`
}

type eventFieldsRequest struct {
	DriverRef   string          `json:"driver_ref"`
	TruckRef    string          `json:"truck_ref"`
	TrailerRef  *string         `json:"trailer_ref"`
	CompanyID   uint64          `json:"company_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	FeePaid     bool            `json:"fee_paid"`
}

type documentRequest struct {
	DocumentTypeID uint64 `json:"document_type_id"`
	DocumentNumber string `json:"document_number"`
	FileName       string `json:"file_name"`
	Path           string `json:"path"`
}

type imageRequest struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

type violationRequest struct {
	ViolationID uint64    `json:"violation_id"`
	Date        time.Time `json:"date"`
}

type claimRequest struct {
	ID          uint64          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type loadedRequest struct {
	eventRequest
	dir string
}

func loadRequest(path string) (loadedRequest, error) {
	if strings.TrimSpace(path) == "" {
		return loadedRequest{}, errs.Validation("request file is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return loadedRequest{}, errs.Validation("read request file %s: %v", path, err)
	}

	var req eventRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return loadedRequest{}, errs.Validation("decode request file %s: %v", path, err)
	}
	return loadedRequest{eventRequest: req, dir: filepath.Dir(path)}, nil
}

func (r loadedRequest) createInput(kind event.Kind) (events.CreateInput, error) {
	detail, err := decodeDetail(kind, r.Detail)
	if err != nil {
		return events.CreateInput{}, err
	}
	children, err := r.children()
	if err != nil {
		return events.CreateInput{}, err
	}
	f := r.Event
	return events.CreateInput{
		Kind: kind,
		Event: events.EventFields{
			DriverRef:   f.DriverRef,
			TruckRef:    f.TruckRef,
			TrailerRef:  f.TrailerRef,
			CompanyID:   f.CompanyID,
			OccurredAt:  f.OccurredAt,
			Location:    f.Location,
			Description: f.Description,
			FeeAmount:   f.FeeAmount,
			FeePaid:     f.FeePaid,
		},
		Detail:         detail,
		Children:       children,
		IdempotencyKey: r.IdempotencyKey,
	}, nil
}

func (r loadedRequest) updateInput(kind event.Kind, id uint64, expectedVersion int64) (events.UpdateInput, error) {
	if len(r.Detail) > 0 {
		return events.UpdateInput{}, errs.Validation("detail cannot be changed by an update")
	}
	children, err := r.children()
	if err != nil {
		return events.UpdateInput{}, err
	}
	return events.UpdateInput{
		Kind:             kind,
		SpecializationID: id,
		ExpectedVersion:  expectedVersion,
		Children:         children,
	}, nil
}

// children keeps the difference between an absent list (nil, untouched on update)
// and an explicit empty list (remove everything).
func (r loadedRequest) children() (events.Children, error) {
	var c events.Children

	if r.Documents != nil {
		c.Documents = make([]events.DocumentInput, 0, len(r.Documents))
		for _, d := range r.Documents {
			name, content, err := r.file(d.FileName, d.Path)
			if err != nil {
				return events.Children{}, err
			}
			c.Documents = append(c.Documents, events.DocumentInput{
				DocumentTypeID: d.DocumentTypeID,
				DocumentNumber: d.DocumentNumber,
				FileName:       name,
				Content:        content,
			})
		}
	}
	if r.Images != nil {
		c.Images = make([]events.ImageInput, 0, len(r.Images))
		for _, img := range r.Images {
			name, content, err := r.file(img.FileName, img.Path)
			if err != nil {
				return events.Children{}, err
			}
			c.Images = append(c.Images, events.ImageInput{FileName: name, Content: content})
		}
	}
	if r.Violations != nil {
		c.Violations = make([]events.ViolationInput, 0, len(r.Violations))
		for _, v := range r.Violations {
			c.Violations = append(c.Violations, events.ViolationInput{ViolationID: v.ViolationID, Date: v.Date})
		}
	}
	if r.Claims != nil {
		c.Claims = make([]events.ClaimInput, 0, len(r.Claims))
		for _, cl := range r.Claims {
			c.Claims = append(c.Claims, events.ClaimInput{
				ID:          cl.ID,
				Type:        cl.Type,
				Status:      cl.Status,
				Amount:      cl.Amount,
				Description: cl.Description,
			})
		}
	}
	if r.Tags != nil {
		c.Tags = make(map[event.TagCategory][]uint64, len(r.Tags))
		for category, ids := range r.Tags {
			if ids == nil {
				ids = []uint64{}
			}
			c.Tags[event.TagCategory(strings.ToLower(strings.TrimSpace(category)))] = ids
		}
	}
	return c, nil
}

// file reads path relative to the request file. Without a path only the name is
// sent, which on update keeps an already stored file.
func (r loadedRequest) file(name, path string) (string, []byte, error) {
	name = strings.TrimSpace(name)
	path = strings.TrimSpace(path)
	if path == "" {
		return name, nil, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.dir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errs.Validation("read attachment %s: %v", path, err)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	return name, content, nil
}

func decodeDetail(kind event.Kind, raw json.RawMessage) (event.Detail, error) {
	profile, err := event.ProfileFor(kind)
	if err != nil {
		return nil, errs.Validation("%v", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var detail event.Detail
	switch profile.Owner {
	case event.OwnerAccident:
		var d event.AccidentDetail
		err = strictUnmarshal(raw, &d)
		detail = d
	case event.OwnerIncident:
		var d event.IncidentDetail
		err = strictUnmarshal(raw, &d)
		detail = d
	case event.OwnerTicket:
		var d event.TicketDetail
		err = strictUnmarshal(raw, &d)
		detail = d
	case event.OwnerWarning:
		var d event.WarningDetail
		err = strictUnmarshal(raw, &d)
		detail = d
	case event.OwnerDotInspection:
		var d event.DotInspectionDetail
		err = strictUnmarshal(raw, &d)
		detail = d
	default:
		return nil, errs.Validation("no detail type for %s", kind)
	}
	if err != nil {
		return nil, errs.Validation("decode %s detail: %v", kind, err)
	}
	return detail, nil
}

func strictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
