package events

import (
	"context"
	"fmt"
	"log/slog"

	"fleetevents/internal/bootstrap/logging"
	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/usecase/saga"
)

// Update reconciles the requested child collections of one specialization. Every
// removal happens before any addition, and the specialization version moves forward
// only if nobody else changed it during the attempt.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Result, error) {
	ctx = logging.WithEvent(ctx, string(in.Kind), in.SpecializationID)
	profile, err := validateUpdate(in)
	if err != nil {
		return Result{}, err
	}

	steps := []saga.Step{
		{Name: "load owner", Run: func(ctx context.Context, st *saga.State) error {
			owner, err := s.repo.GetSpecialization(ctx, profile.Owner, in.SpecializationID)
			if err != nil {
				return notFound(err, "%s %d not found", in.Kind, in.SpecializationID)
			}
			if owner.Kind != in.Kind {
				return invalidf(event.ErrKindMismatch, "%s %d belongs to a %s event", profile.Owner, owner.ID, owner.Kind)
			}
			if in.ExpectedVersion > 0 && owner.Version != in.ExpectedVersion {
				return errs.Conflict(nil, fmt.Sprintf("%s %d is at version %d, not %d", profile.Owner, owner.ID, owner.Version, in.ExpectedVersion))
			}

			res := resultOf(st)
			res.Kind = in.Kind
			res.EventID = owner.EventID
			res.SpecializationID = owner.ID
			res.Version = owner.Version

			p, err := s.buildPlan(ctx, profile, owner, false, in.Children)
			if err != nil {
				return err
			}
			st.Set(statePlan, p)
			return nil
		}},
		{Name: "remove stale children", Run: func(ctx context.Context, st *saga.State) error {
			p, err := planOf(st)
			if err != nil {
				return err
			}
			return s.removeAll(ctx, st, p, resultOf(st))
		}},
		{Name: "add new children", Run: func(ctx context.Context, st *saga.State) error {
			p, err := planOf(st)
			if err != nil {
				return err
			}
			return s.addAll(ctx, st, p, resultOf(st))
		}},
		{Name: "bump version", Run: func(ctx context.Context, st *saga.State) error {
			p, err := planOf(st)
			if err != nil {
				return err
			}
			if p.empty() {
				return nil
			}
			version, err := s.repo.BumpSpecializationVersion(ctx, p.owner.Owner, p.owner.ID, p.owner.Version)
			if err != nil {
				return err
			}
			resultOf(st).Version = version
			return nil
		}},
	}

	st, err := s.saga.Run(ctx, "update "+string(in.Kind), steps...)
	if err != nil {
		return Result{}, err
	}
	res := *resultOf(st)
	logging.Info(ctx, "event children reconciled",
		slog.Int64("version", res.Version),
		slog.Any("removed", res.Removed),
	)
	return res, nil
}

// empty reports whether applying p would change nothing.
func (p *plan) empty() bool {
	if p.documents != nil && !p.documents.Empty() {
		return false
	}
	if p.images != nil && !p.images.Empty() {
		return false
	}
	if p.violations != nil && !p.violations.Empty() {
		return false
	}
	if p.claims != nil && !p.claims.Empty() {
		return false
	}
	for _, diff := range p.tags {
		if !diff.Empty() {
			return false
		}
	}
	return true
}
