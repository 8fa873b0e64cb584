package events

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/ports"
	"fleetevents/internal/usecase/saga"
)

// plan is the diff of every requested collection for one owner. It is computed, and its
// additions validated, before the attempt deletes or writes anything.
type plan struct {
	profile    event.Profile
	owner      ports.Specialization
	documents  *event.Diff[ports.Attachment, DocumentInput]
	images     *event.Diff[ports.Image, ImageInput]
	violations *event.Diff[ports.ViolationLink, ViolationInput]
	claims     *event.Diff[ports.Claim, ClaimInput]
	tags       map[event.TagCategory]event.Diff[uint64, uint64]
}

func planOf(st *saga.State) (*plan, error) {
	p, ok := saga.Value[*plan](st, statePlan)
	if !ok {
		return nil, fmt.Errorf("saga state has no plan")
	}
	return p, nil
}

func attachmentKey(a ports.Attachment) string { return event.FileKey(a.FileName) }
func documentKey(d DocumentInput) string      { return event.FileKey(d.FileName) }
func imageKey(i ports.Image) string           { return event.FileKey(i.FileName) }
func imageInputKey(i ImageInput) string       { return event.FileKey(i.FileName) }

func violationKey(v ports.ViolationLink) uint64  { return v.ViolationID }
func violationInputKey(v ViolationInput) uint64 { return v.ViolationID }

func claimKey(c ports.Claim) event.ClaimKey {
	return event.NewClaimKey(c.Type, c.Description, c.Amount)
}

func claimInputKey(c ClaimInput) event.ClaimKey {
	return event.NewClaimKey(c.Type, c.Description, c.Amount)
}

// buildPlan reads the existing collections of owner (none when fresh) and diffs them
// against the requested children.
func (s *Service) buildPlan(ctx context.Context, profile event.Profile, owner ports.Specialization, fresh bool, c Children) (*plan, error) {
	p := &plan{profile: profile, owner: owner}

	if c.Documents != nil {
		var existing []ports.Attachment
		if !fresh {
			var err error
			if existing, err = s.repo.ListAttachments(ctx, owner.Owner, owner.ID); err != nil {
				return nil, err
			}
		}
		diff := event.Sync(existing, c.Documents, attachmentKey, documentKey)
		for _, doc := range diff.ToAdd {
			if len(doc.Content) == 0 {
				return nil, invalidf(event.ErrFileContentMissing, "%s", doc.FileName)
			}
		}
		p.documents = &diff
	}

	if c.Images != nil && profile.Images() {
		var existing []ports.Image
		if !fresh {
			var err error
			if existing, err = s.repo.ListImages(ctx, owner.Owner, owner.ID); err != nil {
				return nil, err
			}
		}
		diff := event.Sync(existing, c.Images, imageKey, imageInputKey)
		for _, img := range diff.ToAdd {
			if len(img.Content) == 0 {
				return nil, invalidf(event.ErrFileContentMissing, "%s", img.FileName)
			}
		}
		p.images = &diff
	}

	if c.Violations != nil && profile.Violations {
		var existing []ports.ViolationLink
		if !fresh {
			var err error
			if existing, err = s.repo.ListViolationLinks(ctx, owner.Owner, owner.ID); err != nil {
				return nil, err
			}
		}
		diff := event.Sync(existing, c.Violations, violationKey, violationInputKey)
		p.violations = &diff
	}

	if c.Claims != nil && profile.Claims {
		var existing []ports.Claim
		if !fresh {
			var err error
			if existing, err = s.repo.ListClaims(ctx, owner.EventID); err != nil {
				return nil, err
			}
		}
		diff, err := diffClaims(existing, c.Claims)
		if err != nil {
			return nil, err
		}
		p.claims = &diff
	}

	if len(c.Tags) > 0 {
		p.tags = make(map[event.TagCategory]event.Diff[uint64, uint64], len(c.Tags))
		for _, category := range sortedTagKeys(c.Tags) {
			var existing []uint64
			if !fresh {
				var err error
				if existing, err = s.repo.ListTagLinks(ctx, owner.Owner, owner.ID, category); err != nil {
					return nil, err
				}
			}
			p.tags[category] = event.SyncKeys(existing, c.Tags[category])
		}
	}

	if err := s.checkLookups(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// diffClaims matches claims that carry an id by id and every other claim by content.
// A matched claim is kept as is; there is no update in place.
func diffClaims(existing []ports.Claim, desired []ClaimInput) (event.Diff[ports.Claim, ClaimInput], error) {
	byID := make(map[uint64]struct{}, len(existing))
	for _, c := range existing {
		byID[c.ClaimID] = struct{}{}
	}

	kept := make(map[uint64]struct{})
	anonymous := make([]ClaimInput, 0, len(desired))
	for _, d := range desired {
		if d.ID == 0 {
			anonymous = append(anonymous, d)
			continue
		}
		if _, ok := byID[d.ID]; !ok {
			return event.Diff[ports.Claim, ClaimInput]{}, &errs.Error{
				Kind:    errs.KindNotFound,
				Message: fmt.Sprintf("claim %d not found on this event", d.ID),
				Err:     ports.ErrClaimNotFound,
			}
		}
		kept[d.ID] = struct{}{}
	}

	unmatched := make([]ports.Claim, 0, len(existing))
	keptKeys := make(map[event.ClaimKey]struct{}, len(kept))
	for _, c := range existing {
		if _, ok := kept[c.ClaimID]; ok {
			keptKeys[claimKey(c)] = struct{}{}
			continue
		}
		unmatched = append(unmatched, c)
	}

	// Removals come only from claims nobody referenced by id; an anonymous claim that
	// repeats the content of a kept claim is already stored.
	diff := event.Sync(unmatched, anonymous, claimKey, claimInputKey)
	toAdd := diff.ToAdd[:0]
	for _, d := range diff.ToAdd {
		if _, dup := keptKeys[claimInputKey(d)]; !dup {
			toAdd = append(toAdd, d)
		}
	}
	diff.ToAdd = toAdd
	return diff, nil
}

// checkLookups rejects the whole run when any id about to be added is unknown.
func (s *Service) checkLookups(ctx context.Context, p *plan) error {
	if s.lookups == nil {
		return nil
	}

	if p.documents != nil && len(p.documents.ToAdd) > 0 {
		ids := make([]uint64, 0, len(p.documents.ToAdd))
		for _, doc := range p.documents.ToAdd {
			ids = append(ids, doc.DocumentTypeID)
		}
		if err := s.requireLookups(ctx, ports.LookupDocumentTypes, ids); err != nil {
			return err
		}
	}
	if p.violations != nil && len(p.violations.ToAdd) > 0 {
		ids := make([]uint64, 0, len(p.violations.ToAdd))
		for _, v := range p.violations.ToAdd {
			ids = append(ids, v.ViolationID)
		}
		if err := s.requireLookups(ctx, ports.LookupViolations, ids); err != nil {
			return err
		}
	}
	for _, category := range sortedTagKeys(p.tags) {
		if err := s.requireLookups(ctx, ports.LookupTableFor(category), p.tags[category].ToAdd); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) requireLookups(ctx context.Context, table ports.LookupTable, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.lookups.MissingIDs(ctx, table, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return errs.Validation("unknown %s ids: %s", table, joinIDs(missing))
	}
	return nil
}

func sortedTagKeys[V any](tags map[event.TagCategory]V) []event.TagCategory {
	categories := make([]event.TagCategory, 0, len(tags))
	for category := range tags {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

func joinIDs(ids []uint64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return strings.Join(parts, ", ")
}

func (p *plan) layout(sub event.SubCategory) event.Layout {
	return event.Layout{Category: p.profile.Category, CompanyID: p.owner.CompanyID, SubCategory: sub}
}

// removeAll deletes rows for every toRemove item and schedules their files for deletion
// once the attempt commits.
func (s *Service) removeAll(ctx context.Context, st *saga.State, p *plan, res *Result) error {
	owner := p.owner

	if p.documents != nil && len(p.documents.ToRemove) > 0 {
		ids := make([]uint64, 0, len(p.documents.ToRemove))
		for _, a := range p.documents.ToRemove {
			ids = append(ids, a.AttachmentID)
		}
		if err := s.repo.DeleteAttachments(ctx, ids); err != nil {
			return err
		}
		for _, a := range p.documents.ToRemove {
			st.DeleteAfterCommit(fileRef(a.StoragePath, a.URL))
		}
		res.Removed.Attachments += len(ids)
	}

	if p.images != nil && len(p.images.ToRemove) > 0 {
		ids := make([]uint64, 0, len(p.images.ToRemove))
		for _, img := range p.images.ToRemove {
			ids = append(ids, img.ImageID)
		}
		if err := s.repo.DeleteImages(ctx, ids); err != nil {
			return err
		}
		for _, img := range p.images.ToRemove {
			st.DeleteAfterCommit(fileRef(img.StoragePath, img.PictureURL))
		}
		res.Removed.Images += len(ids)
	}

	if p.violations != nil && len(p.violations.ToRemove) > 0 {
		ids := make([]uint64, 0, len(p.violations.ToRemove))
		for _, v := range p.violations.ToRemove {
			ids = append(ids, v.ViolationID)
		}
		if err := s.repo.DeleteViolationLinks(ctx, owner.Owner, owner.ID, ids); err != nil {
			return err
		}
		res.Removed.Violations += len(ids)
	}

	if p.claims != nil && len(p.claims.ToRemove) > 0 {
		ids := make([]uint64, 0, len(p.claims.ToRemove))
		for _, c := range p.claims.ToRemove {
			ids = append(ids, c.ClaimID)
		}
		if err := s.repo.DeleteClaims(ctx, ids); err != nil {
			return err
		}
		res.Removed.Claims += len(ids)
	}

	for _, category := range sortedTagKeys(p.tags) {
		ids := p.tags[category].ToRemove
		if len(ids) == 0 {
			continue
		}
		if err := s.repo.DeleteTagLinks(ctx, owner.Owner, owner.ID, category, ids); err != nil {
			return err
		}
		res.Removed.Tags += len(ids)
	}
	return nil
}

// addAll writes files before inserting the rows that reference them.
func (s *Service) addAll(ctx context.Context, st *saga.State, p *plan, res *Result) error {
	owner := p.owner

	if p.documents != nil {
		for _, doc := range p.documents.ToAdd {
			stored, err := st.SaveFile(ctx, ports.SaveRequest{
				Layout:   p.layout(p.profile.DocSub),
				OwnerID:  owner.ID,
				FileName: doc.FileName,
				Content:  doc.Content,
			})
			if err != nil {
				return err
			}
			id, err := s.repo.InsertAttachment(ctx, ports.Attachment{
				Owner:          owner.Owner,
				OwnerID:        owner.ID,
				DocumentTypeID: doc.DocumentTypeID,
				DocumentNumber: strings.TrimSpace(doc.DocumentNumber),
				FileName:       baseName(doc.FileName),
				StoragePath:    stored.StoragePath,
				URL:            stored.URL,
				Status:         event.AttachmentStatusUploaded,
			})
			if err != nil {
				return err
			}
			res.AttachmentIDs = append(res.AttachmentIDs, id)
		}
	}

	if p.images != nil {
		for _, img := range p.images.ToAdd {
			stored, err := st.SaveFile(ctx, ports.SaveRequest{
				Layout:   p.layout(p.profile.PictureSub),
				OwnerID:  owner.ID,
				FileName: img.FileName,
				Content:  img.Content,
			})
			if err != nil {
				return err
			}
			id, err := s.repo.InsertImage(ctx, ports.Image{
				Owner:       owner.Owner,
				OwnerID:     owner.ID,
				FileName:    baseName(img.FileName),
				StoragePath: stored.StoragePath,
				PictureURL:  stored.URL,
			})
			if err != nil {
				return err
			}
			res.ImageIDs = append(res.ImageIDs, id)
		}
	}

	if p.violations != nil && len(p.violations.ToAdd) > 0 {
		links := make([]ports.ViolationLink, 0, len(p.violations.ToAdd))
		for _, v := range p.violations.ToAdd {
			links = append(links, ports.ViolationLink{
				Owner:         owner.Owner,
				OwnerID:       owner.ID,
				ViolationID:   v.ViolationID,
				ViolationDate: v.Date.UTC(),
			})
			res.ViolationIDs = append(res.ViolationIDs, v.ViolationID)
		}
		if err := s.repo.InsertViolationLinks(ctx, links); err != nil {
			return err
		}
	}

	if p.claims != nil {
		now := s.now()
		for _, c := range p.claims.ToAdd {
			status := strings.ToLower(strings.TrimSpace(c.Status))
			if status == "" {
				status = "open"
			}
			id, err := s.repo.InsertClaim(ctx, ports.Claim{
				EventID:     owner.EventID,
				Type:        strings.TrimSpace(c.Type),
				Status:      status,
				Amount:      c.Amount,
				Description: strings.TrimSpace(c.Description),
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return err
			}
			res.ClaimIDs = append(res.ClaimIDs, id)
		}
	}

	for _, category := range sortedTagKeys(p.tags) {
		ids := p.tags[category].ToAdd
		if len(ids) == 0 {
			continue
		}
		if err := s.repo.InsertTagLinks(ctx, owner.Owner, owner.ID, category, ids); err != nil {
			return err
		}
		res.TagIDs = append(res.TagIDs, ids...)
	}
	return nil
}

func fileRef(storagePath string, url string) string {
	if storagePath != "" {
		return storagePath
	}
	return url
}

func baseName(name string) string {
	return path.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/")))
}
