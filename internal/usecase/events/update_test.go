package events

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/infrastructure/persistence/sqlite/model"
	"fleetevents/internal/ports"
)

func img(name string) ImageInput {
	return ImageInput{FileName: name, Content: []byte(name)}
}

func createIncident(t *testing.T, h *harness, children Children) Result {
	t.Helper()
	res, err := h.svc.Create(context.Background(), CreateInput{
		Kind:     event.KindIncident,
		Event:    baseEvent(),
		Detail:   event.IncidentDetail{Severity: "low", ReportedBy: "dispatch"},
		Children: children,
	})
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	return res
}

func createTicket(t *testing.T, h *harness, violations ...uint64) Result {
	t.Helper()
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	links := make([]ViolationInput, 0, len(violations))
	for _, id := range violations {
		links = append(links, ViolationInput{ViolationID: id, Date: day})
	}
	res, err := h.svc.Create(context.Background(), CreateInput{
		Kind:     event.KindTicket,
		Event:    baseEvent(),
		Detail:   event.TicketDetail{TicketNumber: "T-1", Status: "open"},
		Children: Children{Violations: links},
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return res
}

func TestUpdateImagesReplacesOnlyChangedFiles(t *testing.T) {
	h := setupService(t, nil)
	ctx := context.Background()
	created := createIncident(t, h, Children{Images: []ImageInput{img("img1.jpg"), img("img2.jpg")}})

	before, err := h.repo.ListImages(ctx, event.OwnerIncident, created.SpecializationID)
	if err != nil || len(before) != 2 {
		t.Fatalf("ListImages() = %+v, %v", before, err)
	}
	img1, img2 := before[0], before[1]

	res, err := h.svc.Update(ctx, UpdateInput{
		Kind:             event.KindIncident,
		SpecializationID: created.SpecializationID,
		Children: Children{Images: []ImageInput{
			{FileName: "IMG2.JPG"},
			img("img3.jpg"),
		}},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Removed.Images != 1 || len(res.ImageIDs) != 1 || res.Version != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	after, err := h.repo.ListImages(ctx, event.OwnerIncident, created.SpecializationID)
	if err != nil || len(after) != 2 {
		t.Fatalf("ListImages() = %+v, %v", after, err)
	}
	if after[0].ImageID != img2.ImageID || after[0].StoragePath != img2.StoragePath {
		t.Fatalf("img2 row changed: %+v vs %+v", after[0], img2)
	}
	if after[1].FileName != "img3.jpg" {
		t.Fatalf("new image = %+v", after[1])
	}

	if ok, _ := h.blobs.Exists(ctx, img1.StoragePath); ok {
		t.Fatalf("img1 file still stored")
	}
	if ok, _ := h.blobs.Exists(ctx, img2.StoragePath); !ok {
		t.Fatalf("img2 file removed")
	}
	if ok, _ := h.blobs.Exists(ctx, after[1].StoragePath); !ok {
		t.Fatalf("img3 file missing")
	}
}

func TestUpdateWithUnknownViolationsLeavesLinksUnchanged(t *testing.T) {
	h := setupService(t, nil)
	ctx := context.Background()
	created := createTicket(t, h, 101, 102)
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	_, err := h.svc.Update(ctx, UpdateInput{
		Kind:             event.KindTicket,
		SpecializationID: created.SpecializationID,
		Children: Children{Violations: []ViolationInput{
			{ViolationID: 998, Date: day},
			{ViolationID: 999, Date: day},
		}},
	})
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("Update() error = %v, want validation", err)
	}

	links, err := h.repo.ListViolationLinks(ctx, event.OwnerTicket, created.SpecializationID)
	if err != nil || len(links) != 2 || links[0].ViolationID != 101 || links[1].ViolationID != 102 {
		t.Fatalf("links = %+v, %v", links, err)
	}
	owner, err := h.repo.GetSpecialization(ctx, event.OwnerTicket, created.SpecializationID)
	if err != nil || owner.Version != 1 {
		t.Fatalf("owner = %+v, %v, want version 1", owner, err)
	}
}

func TestUpdateViolationsAppliesDiff(t *testing.T) {
	h := setupService(t, nil)
	ctx := context.Background()
	created := createTicket(t, h, 101, 102)
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	desired := []ViolationInput{{ViolationID: 102, Date: day}, {ViolationID: 103, Date: day}}

	res, err := h.svc.Update(ctx, UpdateInput{Kind: event.KindTicket, SpecializationID: created.SpecializationID, Children: Children{Violations: desired}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Removed.Violations != 1 || len(res.ViolationIDs) != 1 || res.ViolationIDs[0] != 103 {
		t.Fatalf("unexpected result: %+v", res)
	}

	again, err := h.svc.Update(ctx, UpdateInput{Kind: event.KindTicket, SpecializationID: created.SpecializationID, Children: Children{Violations: desired}})
	if err != nil {
		t.Fatalf("Update(again) error = %v", err)
	}
	if again.Removed.Violations != 0 || len(again.ViolationIDs) != 0 || again.Version != res.Version {
		t.Fatalf("second update changed something: %+v", again)
	}
}

func TestUpdateClaimsDoesNotDuplicateSameContent(t *testing.T) {
	h := setupService(t, nil)
	ctx := context.Background()
	created := createIncident(t, h, Children{Claims: []ClaimInput{
		{Type: "Cargo", Description: "Broken pallet", Amount: decimal.RequireFromString("100")},
	}})

	res, err := h.svc.Update(ctx, UpdateInput{
		Kind:             event.KindIncident,
		SpecializationID: created.SpecializationID,
		Children: Children{Claims: []ClaimInput{
			{Type: "cargo", Description: "broken  pallet", Amount: decimal.RequireFromString("100.00")},
			{Type: "property", Description: "Fence", Amount: decimal.RequireFromString("900.50")},
		}},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Removed.Claims != 0 || len(res.ClaimIDs) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if n := h.count(t, &model.Claim{}); n != 2 {
		t.Fatalf("claim rows = %d, want 2", n)
	}
}

func TestUpdateClaimsByIDKeepsReferencedClaim(t *testing.T) {
	h := setupService(t, nil)
	ctx := context.Background()
	created := createIncident(t, h, Children{Claims: []ClaimInput{
		{Type: "cargo", Description: "pallet", Amount: decimal.RequireFromString("10")},
		{Type: "medical", Description: "ER visit", Amount: decimal.RequireFromString("2500")},
	}})

	res, err := h.svc.Update(ctx, UpdateInput{
		Kind:             event.KindIncident,
		SpecializationID: created.SpecializationID,
		Children:         Children{Claims: []ClaimInput{{ID: created.ClaimIDs[1], Type: "changed"}}},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Removed.Claims != 1 || len(res.ClaimIDs) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	claims, err := h.repo.ListClaims(ctx, created.EventID)
	if err != nil || len(claims) != 1 || claims[0].ClaimID != created.ClaimIDs[1] || claims[0].Type != "medical" {
		t.Fatalf("claims = %+v, %v", claims, err)
	}

	_, err = h.svc.Update(ctx, UpdateInput{
		Kind:             event.KindIncident,
		SpecializationID: created.SpecializationID,
		Children:         Children{Claims: []ClaimInput{{ID: 9999}}},
	})
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("Update(unknown claim) error = %v, want not_found", err)
	}
}

func TestUpdateClaimKeptByIDAbsorbsSameContent(t *testing.T) {
	h := setupService(t, nil)
	ctx := context.Background()
	created := createIncident(t, h, Children{Claims: []ClaimInput{
		{Type: "cargo", Description: "pallet", Amount: decimal.RequireFromString("100")},
	}})

	res, err := h.svc.Update(ctx, UpdateInput{
		Kind:             event.KindIncident,
		SpecializationID: created.SpecializationID,
		Children: Children{Claims: []ClaimInput{
			{ID: created.ClaimIDs[0]},
			{Type: "Cargo", Description: "pallet", Amount: decimal.RequireFromString("100.00")},
		}},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(res.ClaimIDs) != 0 || res.Removed.Claims != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Version != created.Version {
		t.Fatalf("version = %d, want unchanged %d", res.Version, created.Version)
	}
	if n := h.count(t, &model.Claim{}); n != 1 {
		t.Fatalf("claim rows = %d, want 1", n)
	}
}

func TestUpdateTagsPerCategory(t *testing.T) {
	h := setupService(t, nil)
	ctx := context.Background()
	created := createIncident(t, h, Children{Tags: map[event.TagCategory][]uint64{
		event.TagIncidentType:    {1},
		event.TagEquipmentDamage: {5},
	}})

	res, err := h.svc.Update(ctx, UpdateInput{
		Kind:             event.KindIncident,
		SpecializationID: created.SpecializationID,
		Children:         Children{Tags: map[event.TagCategory][]uint64{event.TagIncidentType: {2}}},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Removed.Tags != 1 || len(res.TagIDs) != 1 || res.TagIDs[0] != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	damage, err := h.repo.ListTagLinks(ctx, event.OwnerIncident, created.SpecializationID, event.TagEquipmentDamage)
	if err != nil || len(damage) != 1 || damage[0] != 5 {
		t.Fatalf("untouched category changed: %v, %v", damage, err)
	}
}

func TestUpdateRejectsStaleExpectedVersion(t *testing.T) {
	h := setupService(t, nil)
	created := createIncident(t, h, Children{})

	_, err := h.svc.Update(context.Background(), UpdateInput{
		Kind:             event.KindIncident,
		SpecializationID: created.SpecializationID,
		ExpectedVersion:  7,
		Children:         Children{Images: []ImageInput{img("a.jpg")}},
	})
	if !errs.Is(err, errs.KindConflict) {
		t.Fatalf("Update() error = %v, want concurrency conflict", err)
	}
	if n := h.count(t, &model.Image{}); n != 0 {
		t.Fatalf("image rows = %d, want 0", n)
	}
}

func TestUpdateRetriesLostVersionRace(t *testing.T) {
	h := setupService(t, nil)
	ctx := context.Background()
	created := createIncident(t, h, Children{})

	races := 0
	h.svc.repo = &racingRepo{EventRepository: h.repo, beforeBump: func(ctx context.Context) {
		if races > 0 {
			return
		}
		races++
		tx := ports.TxFromContext(ctx).(*gorm.DB)
		if err := tx.Model(&model.Incident{}).Where("id = ?", created.SpecializationID).
			Update("version", 5).Error; err != nil {
			t.Fatalf("simulate concurrent writer: %v", err)
		}
	}}

	res, err := h.svc.Update(ctx, UpdateInput{
		Kind:             event.KindIncident,
		SpecializationID: created.SpecializationID,
		Children:         Children{Images: []ImageInput{img("a.jpg")}},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if races != 1 || res.Version != 2 {
		t.Fatalf("races = %d version = %d, want 1 and 2", races, res.Version)
	}
	if n := h.count(t, &model.Image{}); n != 1 {
		t.Fatalf("image rows = %d, want 1", n)
	}
	if keys := h.blobs.Keys(); len(keys) != 1 {
		t.Fatalf("blobs = %v, want 1", keys)
	}
}

// racingRepo moves the version inside the transaction right before the check, so the
// bump loses the race and the attempt rolls back.
type racingRepo struct {
	ports.EventRepository
	beforeBump func(ctx context.Context)
}

func (r *racingRepo) BumpSpecializationVersion(ctx context.Context, owner event.OwnerType, id uint64, expected int64) (int64, error) {
	r.beforeBump(ctx)
	return r.EventRepository.BumpSpecializationVersion(ctx, owner, id, expected)
}

func TestUpdateUnknownSpecializationIsNotFound(t *testing.T) {
	h := setupService(t, nil)

	_, err := h.svc.Update(context.Background(), UpdateInput{
		Kind:             event.KindWarning,
		SpecializationID: 404,
		Children:         Children{Violations: []ViolationInput{}},
	})
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("Update() error = %v, want not_found", err)
	}
	if got := errs.Describe(err).Message; got != "warning 404 not found" {
		t.Fatalf("Describe() = %q", got)
	}
}
