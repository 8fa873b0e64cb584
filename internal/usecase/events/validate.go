package events

import (
	"errors"
	"fmt"
	"strings"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/ports"
)

// invalid classifies err as a validation failure while keeping it matchable with errors.Is.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	var classified *errs.Error
	if errors.As(err, &classified) {
		return err
	}
	return &errs.Error{Kind: errs.KindValidation, Message: err.Error(), Err: err}
}

func invalidf(sentinel error, format string, args ...any) error {
	return invalid(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

// notFound maps repository sentinels onto the caller-facing not-found kind.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, ports.ErrEventNotFound) || errors.Is(err, ports.ErrSpecializationNotFound) || errors.Is(err, ports.ErrClaimNotFound) {
		return &errs.Error{Kind: errs.KindNotFound, Message: fmt.Sprintf(format, args...), Err: err}
	}
	return err
}

func validateEventFields(f EventFields) error {
	switch {
	case strings.TrimSpace(f.DriverRef) == "":
		return invalid(event.ErrDriverRequired)
	case strings.TrimSpace(f.TruckRef) == "":
		return invalid(event.ErrTruckRequired)
	case f.CompanyID == 0:
		return invalid(event.ErrCompanyRequired)
	case f.OccurredAt.IsZero():
		return invalid(event.ErrOccurredAtRequired)
	case f.FeeAmount.IsNegative():
		return invalid(event.ErrNegativeFee)
	}
	return nil
}

func validateCreate(in CreateInput) (event.Profile, error) {
	profile, err := event.ProfileFor(in.Kind)
	if err != nil {
		return event.Profile{}, invalid(err)
	}
	if err := validateEventFields(in.Event); err != nil {
		return event.Profile{}, err
	}
	if err := event.CheckDetail(profile, in.Detail); err != nil {
		return event.Profile{}, invalid(err)
	}
	if err := validateChildren(profile, in.Children); err != nil {
		return event.Profile{}, err
	}
	for _, doc := range in.Children.Documents {
		if len(doc.Content) == 0 {
			return event.Profile{}, invalidf(event.ErrFileContentMissing, "%s", doc.FileName)
		}
	}
	for _, img := range in.Children.Images {
		if len(img.Content) == 0 {
			return event.Profile{}, invalidf(event.ErrFileContentMissing, "%s", img.FileName)
		}
	}
	for _, claim := range in.Children.Claims {
		if claim.ID != 0 {
			return event.Profile{}, invalidf(event.ErrInvalidClaim, "claim id %d cannot be referenced by a new event", claim.ID)
		}
	}
	if err := checkRequiredDocuments(profile, in.Children.Documents); err != nil {
		return event.Profile{}, err
	}
	return profile, nil
}

func validateUpdate(in UpdateInput) (event.Profile, error) {
	profile, err := event.ProfileFor(in.Kind)
	if err != nil {
		return event.Profile{}, invalid(err)
	}
	if in.SpecializationID == 0 {
		return event.Profile{}, invalid(errors.New("specialization id is required"))
	}
	if in.ExpectedVersion < 0 {
		return event.Profile{}, invalid(errors.New("expected version must not be negative"))
	}
	if err := validateChildren(profile, in.Children); err != nil {
		return event.Profile{}, err
	}
	if in.Children.Documents != nil {
		if err := checkRequiredDocuments(profile, in.Children.Documents); err != nil {
			return event.Profile{}, err
		}
	}
	return profile, nil
}

// validateChildren checks shape only; lookup existence is checked inside the saga.
func validateChildren(profile event.Profile, c Children) error {
	for _, doc := range c.Documents {
		if event.FileKey(doc.FileName) == "" {
			return invalid(event.ErrFileNameRequired)
		}
		if doc.DocumentTypeID == 0 {
			return invalid(fmt.Errorf("%w: document type is required for %s", event.ErrInvalidDetail, doc.FileName))
		}
	}

	if len(c.Images) > 0 && !profile.Images() {
		return invalidf(event.ErrUnsupportedChildren, "%s events have no images", profile.Kind)
	}
	for _, img := range c.Images {
		if event.FileKey(img.FileName) == "" {
			return invalid(event.ErrFileNameRequired)
		}
	}

	if len(c.Violations) > 0 && !profile.Violations {
		return invalidf(event.ErrUnsupportedChildren, "%s events have no violations", profile.Kind)
	}
	for _, v := range c.Violations {
		if v.ViolationID == 0 {
			return invalidf(event.ErrInvalidViolation, "violation id is required")
		}
		if v.Date.IsZero() {
			return invalidf(event.ErrInvalidViolation, "violation %d needs a date", v.ViolationID)
		}
	}

	if len(c.Claims) > 0 && !profile.Claims {
		return invalidf(event.ErrUnsupportedChildren, "%s events have no claims", profile.Kind)
	}
	for _, claim := range c.Claims {
		if claim.ID != 0 {
			continue
		}
		if strings.TrimSpace(claim.Type) == "" {
			return invalidf(event.ErrInvalidClaim, "claim type is required")
		}
		if claim.Amount.IsNegative() {
			return invalidf(event.ErrInvalidClaim, "claim amount must not be negative")
		}
	}

	for category, ids := range c.Tags {
		if !profile.SupportsTag(category) {
			return invalidf(event.ErrUnsupportedChildren, "%s events have no %s tags", profile.Kind, category)
		}
		for _, id := range ids {
			if id == 0 {
				return invalid(fmt.Errorf("%w: %s id is required", event.ErrInvalidDetail, category))
			}
		}
	}
	return nil
}

func checkRequiredDocuments(profile event.Profile, docs []DocumentInput) error {
	for _, required := range profile.RequiredDocTypes {
		found := false
		for _, doc := range docs {
			if doc.DocumentTypeID == required {
				found = true
				break
			}
		}
		if !found {
			return invalidf(event.ErrRequiredDocument, "%s events need document type %d", profile.Kind, required)
		}
	}
	return nil
}
