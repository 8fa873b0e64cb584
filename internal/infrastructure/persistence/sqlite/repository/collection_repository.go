package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/infrastructure/persistence/sqlite/model"
	"fleetevents/internal/ports"
)

func (r *EventRepository) ListAttachments(ctx context.Context, owner event.OwnerType, ownerID uint64) ([]ports.Attachment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Attachment
	if err := db.
		Where("owner_type = ? AND owner_id = ?", string(owner), ownerID).
		Order("attachment_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query attachments")
	}

	items := make([]ports.Attachment, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Attachment{
			AttachmentID:   row.AttachmentID,
			Owner:          event.OwnerType(row.OwnerType),
			OwnerID:        row.OwnerID,
			DocumentTypeID: row.DocumentTypeID,
			DocumentNumber: row.DocumentNumber,
			FileName:       row.FileName,
			StoragePath:    row.StoragePath,
			URL:            row.URL,
			Status:         row.Status,
		})
	}
	return items, nil
}

func (r *EventRepository) InsertAttachment(ctx context.Context, input ports.Attachment) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	row := model.Attachment{
		OwnerType:      string(input.Owner),
		OwnerID:        input.OwnerID,
		DocumentTypeID: input.DocumentTypeID,
		DocumentNumber: input.DocumentNumber,
		FileName:       input.FileName,
		StoragePath:    input.StoragePath,
		URL:            input.URL,
		Status:         input.Status,
	}
	if err := db.Create(&row).Error; err != nil {
		return 0, errs.Wrap(err, "insert attachment")
	}
	return row.AttachmentID, nil
}

func (r *EventRepository) DeleteAttachments(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("attachment_id IN ?", ids).Delete(&model.Attachment{}).Error; err != nil {
		return errs.Wrap(err, "delete attachments")
	}
	return nil
}

func (r *EventRepository) ListImages(ctx context.Context, owner event.OwnerType, ownerID uint64) ([]ports.Image, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Image
	if err := db.
		Where("owner_type = ? AND owner_id = ?", string(owner), ownerID).
		Order("image_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query images")
	}

	items := make([]ports.Image, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Image{
			ImageID:     row.ImageID,
			Owner:       event.OwnerType(row.OwnerType),
			OwnerID:     row.OwnerID,
			FileName:    row.FileName,
			StoragePath: row.StoragePath,
			PictureURL:  row.PictureURL,
		})
	}
	return items, nil
}

func (r *EventRepository) InsertImage(ctx context.Context, input ports.Image) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	row := model.Image{
		OwnerType:   string(input.Owner),
		OwnerID:     input.OwnerID,
		FileName:    input.FileName,
		StoragePath: input.StoragePath,
		PictureURL:  input.PictureURL,
	}
	if err := db.Create(&row).Error; err != nil {
		return 0, errs.Wrap(err, "insert image")
	}
	return row.ImageID, nil
}

func (r *EventRepository) DeleteImages(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("image_id IN ?", ids).Delete(&model.Image{}).Error; err != nil {
		return errs.Wrap(err, "delete images")
	}
	return nil
}

func (r *EventRepository) ListViolationLinks(ctx context.Context, owner event.OwnerType, ownerID uint64) ([]ports.ViolationLink, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ViolationLink
	if err := db.
		Where("owner_type = ? AND owner_id = ?", string(owner), ownerID).
		Order("violation_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query violation links")
	}

	items := make([]ports.ViolationLink, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ViolationLink{
			Owner:         event.OwnerType(row.OwnerType),
			OwnerID:       row.OwnerID,
			ViolationID:   row.ViolationID,
			ViolationDate: row.ViolationDate,
		})
	}
	return items, nil
}

func (r *EventRepository) InsertViolationLinks(ctx context.Context, links []ports.ViolationLink) error {
	if len(links) == 0 {
		return nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	rows := make([]model.ViolationLink, 0, len(links))
	for _, link := range links {
		rows = append(rows, model.ViolationLink{
			OwnerType:     string(link.Owner),
			OwnerID:       link.OwnerID,
			ViolationID:   link.ViolationID,
			ViolationDate: link.ViolationDate,
		})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return errs.Wrap(err, "insert violation links")
	}
	return nil
}

func (r *EventRepository) DeleteViolationLinks(ctx context.Context, owner event.OwnerType, ownerID uint64, violationIDs []uint64) error {
	if len(violationIDs) == 0 {
		return nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.
		Where("owner_type = ? AND owner_id = ? AND violation_id IN ?", string(owner), ownerID, violationIDs).
		Delete(&model.ViolationLink{}).Error; err != nil {
		return errs.Wrap(err, "delete violation links")
	}
	return nil
}

func (r *EventRepository) ListClaims(ctx context.Context, eventID uint64) ([]ports.Claim, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Claim
	if err := db.Where("event_id = ?", eventID).Order("claim_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query claims")
	}

	items := make([]ports.Claim, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Claim{
			ClaimID:     row.ClaimID,
			EventID:     row.EventID,
			Type:        row.Type,
			Status:      row.Status,
			Amount:      row.Amount,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return items, nil
}

func (r *EventRepository) InsertClaim(ctx context.Context, input ports.Claim) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	row := model.Claim{
		EventID:     input.EventID,
		Type:        input.Type,
		Status:      input.Status,
		Amount:      input.Amount,
		Description: input.Description,
		CreatedAt:   input.CreatedAt,
		UpdatedAt:   input.UpdatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return 0, errs.Wrap(err, "insert claim")
	}
	return row.ClaimID, nil
}

func (r *EventRepository) DeleteClaims(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("claim_id IN ?", ids).Delete(&model.Claim{}).Error; err != nil {
		return errs.Wrap(err, "delete claims")
	}
	return nil
}

func (r *EventRepository) ListTagLinks(ctx context.Context, owner event.OwnerType, ownerID uint64, category event.TagCategory) ([]uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.TagLink
	if err := db.
		Where("owner_type = ? AND owner_id = ? AND category = ?", string(owner), ownerID, string(category)).
		Order("lookup_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query tag links")
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.LookupID)
	}
	return ids, nil
}

func (r *EventRepository) InsertTagLinks(ctx context.Context, owner event.OwnerType, ownerID uint64, category event.TagCategory, lookupIDs []uint64) error {
	if len(lookupIDs) == 0 {
		return nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	rows := make([]model.TagLink, 0, len(lookupIDs))
	for _, id := range lookupIDs {
		rows = append(rows, model.TagLink{
			OwnerType: string(owner),
			OwnerID:   ownerID,
			Category:  string(category),
			LookupID:  id,
		})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return errs.Wrap(err, "insert tag links")
	}
	return nil
}

func (r *EventRepository) DeleteTagLinks(ctx context.Context, owner event.OwnerType, ownerID uint64, category event.TagCategory, lookupIDs []uint64) error {
	if len(lookupIDs) == 0 {
		return nil
	}
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.
		Where("owner_type = ? AND owner_id = ? AND category = ? AND lookup_id IN ?", string(owner), ownerID, string(category), lookupIDs).
		Delete(&model.TagLink{}).Error; err != nil {
		return errs.Wrap(err, "delete tag links")
	}
	return nil
}
