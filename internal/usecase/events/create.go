package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"fleetevents/internal/bootstrap/logging"
	"fleetevents/internal/errs"
	"fleetevents/internal/ports"
	"fleetevents/internal/usecase/saga"
)

const idempotencyPrefix = "event.create:"

// Create stores the event, its specialization and every requested child in one saga.
// Input problems are reported before the saga starts.
func (s *Service) Create(ctx context.Context, in CreateInput) (Result, error) {
	ctx = logging.WithEvent(ctx, string(in.Kind), 0)
	profile, err := validateCreate(in)
	if err != nil {
		return Result{}, err
	}
	idemKey := strings.TrimSpace(in.IdempotencyKey)

	steps := []saga.Step{
		{Name: "replay request", Run: func(ctx context.Context, st *saga.State) error {
			return s.replay(ctx, st, idemKey, in)
		}},
		{Name: "plan children", Run: func(ctx context.Context, st *saga.State) error {
			owner := ports.Specialization{Owner: profile.Owner, Kind: in.Kind, CompanyID: in.Event.CompanyID}
			p, err := s.buildPlan(ctx, profile, owner, true, in.Children)
			if err != nil {
				return err
			}
			st.Set(statePlan, p)
			return nil
		}},
		{Name: "create event", Run: func(ctx context.Context, st *saga.State) error {
			eventID, err := s.repo.CreateEvent(ctx, ports.EventCreate{
				Kind:        in.Kind,
				DriverRef:   strings.TrimSpace(in.Event.DriverRef),
				TruckRef:    strings.TrimSpace(in.Event.TruckRef),
				TrailerRef:  trimmedRef(in.Event.TrailerRef),
				CompanyID:   in.Event.CompanyID,
				OccurredAt:  in.Event.OccurredAt.UTC(),
				Location:    strings.TrimSpace(in.Event.Location),
				Description: strings.TrimSpace(in.Event.Description),
				FeeAmount:   in.Event.FeeAmount,
				FeePaid:     in.Event.FeePaid,
				CreatedAt:   s.now(),
			})
			if err != nil {
				return err
			}
			res := resultOf(st)
			res.Kind = in.Kind
			res.EventID = eventID
			return nil
		}},
		{Name: "create specialization", Run: func(ctx context.Context, st *saga.State) error {
			p, err := planOf(st)
			if err != nil {
				return err
			}
			res := resultOf(st)
			specID, err := s.repo.CreateSpecialization(ctx, res.EventID, in.Detail)
			if err != nil {
				return err
			}
			p.owner.ID = specID
			p.owner.EventID = res.EventID
			p.owner.Version = 1
			res.SpecializationID = specID
			res.Version = 1
			return nil
		}},
		{Name: "store children", Run: func(ctx context.Context, st *saga.State) error {
			p, err := planOf(st)
			if err != nil {
				return err
			}
			return s.addAll(ctx, st, p, resultOf(st))
		}},
		{Name: "remember request", Run: func(ctx context.Context, st *saga.State) error {
			return s.remember(ctx, idemKey, resultOf(st))
		}},
	}

	st, err := s.saga.Run(ctx, "create "+string(in.Kind), steps...)
	if err != nil {
		return Result{}, err
	}
	res := *resultOf(st)
	logging.Info(ctx, "event created",
		slog.Uint64("event_id", res.EventID),
		slog.Uint64("specialization_id", res.SpecializationID),
		slog.Int("attachments", len(res.AttachmentIDs)),
		slog.Int("images", len(res.ImageIDs)),
		slog.Bool("replayed", res.Replayed),
	)
	return res, nil
}

// replay finishes the saga with the stored result when the idempotency key was seen.
func (s *Service) replay(ctx context.Context, st *saga.State, key string, in CreateInput) error {
	if key == "" || s.cache == nil {
		return nil
	}
	raw, found, err := s.cache.Get(ctx, idempotencyPrefix+key)
	if err != nil {
		return errs.Wrap(err, "read idempotency record")
	}
	if !found {
		return nil
	}

	var stored Result
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return errs.Wrap(err, "decode idempotency record")
	}
	if stored.Kind != in.Kind {
		return errs.Validation("idempotency key %q was already used for a %s event", key, stored.Kind)
	}
	stored.Replayed = true
	st.Set(stateResult, &stored)
	st.Finish()
	return nil
}

func (s *Service) remember(ctx context.Context, key string, res *Result) error {
	if key == "" || s.cache == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return errs.Wrap(err, "encode idempotency record")
	}
	return s.cache.Set(ctx, idempotencyPrefix+key, string(raw), 0)
}

func trimmedRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
