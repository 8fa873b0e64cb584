package saga

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fleetevents/internal/domain/event"
	"fleetevents/internal/errs"
	"fleetevents/internal/infrastructure/storage"
	"fleetevents/internal/infrastructure/storage/memory"
	"fleetevents/internal/ports"
)

// fakeUnitOfWork fails the commit of the first len(commitErrs) attempts.
type fakeUnitOfWork struct {
	commitErrs []error
	calls      int
}

func (f *fakeUnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(ports.WithTxContext(ctx, "tx")); err != nil {
		return err
	}
	if len(f.commitErrs) > 0 {
		err := f.commitErrs[0]
		f.commitErrs = f.commitErrs[1:]
		return err
	}
	return nil
}

var photos = event.Layout{Category: event.CategoryAccident, CompanyID: 9, SubCategory: event.SubAccidentPictures}

func newTestCoordinator(uow ports.UnitOfWork) (*Coordinator, *memory.Store) {
	blobs := memory.New()
	files := storage.NewAttachmentStore(blobs, "https://files", time.Second)
	return NewCoordinator(uow, files, Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Timeout:        5 * time.Second,
	}), blobs
}

func writeFileStep(name string) Step {
	return Step{Name: "write " + name, Run: func(ctx context.Context, st *State) error {
		stored, err := st.SaveFile(ctx, ports.SaveRequest{Layout: photos, OwnerID: 1, FileName: name, Content: []byte(name)})
		if err != nil {
			return err
		}
		st.Set("path", stored.StoragePath)
		return nil
	}}
}

func TestRunCommitsAndFlushesDeferredDeletes(t *testing.T) {
	coordinator, blobs := newTestCoordinator(&fakeUnitOfWork{})
	ctx := context.Background()

	if _, err := blobs.Put(ctx, "Event/Accident/9/Accident_Pictures/1/old.jpg", strings.NewReader("old"), ""); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	st, err := coordinator.Run(ctx, "test",
		writeFileStep("new.jpg"),
		Step{Name: "schedule delete", Run: func(_ context.Context, st *State) error {
			st.DeleteAfterCommit("https://files/Documents/Event/Accident/9/Accident_Pictures/1/old.jpg")
			return nil
		}},
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	path, ok := Value[string](st, "path")
	if !ok {
		t.Fatalf("expected path output")
	}
	keys := blobs.Keys()
	if len(keys) != 1 || keys[0] != path {
		t.Fatalf("blobs = %v, want only %q", keys, path)
	}
}

func TestRunCompensatesWrittenFilesOnStepFailure(t *testing.T) {
	coordinator, blobs := newTestCoordinator(&fakeUnitOfWork{})
	boom := errors.New("insert failed")

	_, err := coordinator.Run(context.Background(), "test",
		writeFileStep("a.jpg"),
		writeFileStep("b.jpg"),
		Step{Name: "insert rows", Run: func(context.Context, *State) error { return boom }},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if errs.KindOf(err) != errs.KindUnexpected {
		t.Fatalf("KindOf() = %s, want unexpected", errs.KindOf(err))
	}
	if keys := blobs.Keys(); len(keys) != 0 {
		t.Fatalf("orphaned files after abort: %v", keys)
	}
}

func TestRunDiscardsDeferredDeletesOnAbort(t *testing.T) {
	coordinator, blobs := newTestCoordinator(&fakeUnitOfWork{})
	ctx := context.Background()
	key := "Event/Accident/9/Accident_Pictures/1/keep.jpg"
	if _, err := blobs.Put(ctx, key, strings.NewReader("keep"), ""); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	_, err := coordinator.Run(ctx, "test",
		Step{Name: "schedule delete", Run: func(_ context.Context, st *State) error {
			st.DeleteAfterCommit(key)
			return nil
		}},
		Step{Name: "reject", Run: func(context.Context, *State) error { return errs.Validation("bad input") }},
	)
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("Run() error = %v, want validation", err)
	}
	if ok, _ := blobs.Exists(ctx, key); !ok {
		t.Fatalf("file scheduled by an aborted attempt was deleted")
	}
}

func TestRunRetriesTransientFaultFromFreshState(t *testing.T) {
	uow := &fakeUnitOfWork{commitErrs: []error{errs.Transient(nil, "database is locked")}}
	coordinator, blobs := newTestCoordinator(uow)

	var seenAttempts []int
	st, err := coordinator.Run(context.Background(), "test",
		Step{Name: "observe", Run: func(_ context.Context, st *State) error {
			if _, leaked := Value[string](st, "path"); leaked {
				t.Fatalf("state leaked from previous attempt")
			}
			seenAttempts = append(seenAttempts, st.Attempt())
			return nil
		}},
		writeFileStep("a.jpg"),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if uow.calls != 2 || st.Attempt() != 2 {
		t.Fatalf("calls = %d attempt = %d, want 2", uow.calls, st.Attempt())
	}
	if len(seenAttempts) != 2 || seenAttempts[0] != 1 || seenAttempts[1] != 2 {
		t.Fatalf("attempts = %v", seenAttempts)
	}
	if keys := blobs.Keys(); len(keys) != 1 {
		t.Fatalf("blobs = %v, want only the committed attempt's file", keys)
	}
}

func TestRunExhaustedRetriesIsConflict(t *testing.T) {
	transient := errs.Transient(nil, "database is locked")
	uow := &fakeUnitOfWork{commitErrs: []error{transient, transient, transient, transient}}
	coordinator, _ := newTestCoordinator(uow)

	_, err := coordinator.Run(context.Background(), "test", Step{Name: "noop", Run: func(context.Context, *State) error { return nil }})
	if !errs.Is(err, errs.KindConflict) {
		t.Fatalf("Run() error = %v, want concurrency conflict", err)
	}
	if uow.calls != 3 {
		t.Fatalf("calls = %d, want 3", uow.calls)
	}
	if got := errs.Describe(err).Message; got != "operation failed, try again" {
		t.Fatalf("Describe() = %q", got)
	}
}

func TestRunDoesNotRetryPermanentErrors(t *testing.T) {
	uow := &fakeUnitOfWork{}
	coordinator, _ := newTestCoordinator(uow)

	_, err := coordinator.Run(context.Background(), "test", Step{Name: "reject", Run: func(context.Context, *State) error {
		return errs.NotFound("ticket 7 not found")
	}})
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("Run() error = %v, want not_found", err)
	}
	if uow.calls != 1 {
		t.Fatalf("calls = %d, want 1", uow.calls)
	}
}

func TestRunCompensatesWhenCancelledAfterWrite(t *testing.T) {
	coordinator, blobs := newTestCoordinator(&fakeUnitOfWork{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := coordinator.Run(ctx, "test",
		writeFileStep("a.jpg"),
		Step{Name: "cancel", Run: func(context.Context, *State) error {
			cancel()
			return nil
		}},
		Step{Name: "never", Run: func(context.Context, *State) error {
			t.Fatalf("step ran after cancellation")
			return nil
		}},
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if keys := blobs.Keys(); len(keys) != 0 {
		t.Fatalf("orphaned files after cancellation: %v", keys)
	}
}

func TestRunStopsAfterFinish(t *testing.T) {
	coordinator, _ := newTestCoordinator(&fakeUnitOfWork{})

	st, err := coordinator.Run(context.Background(), "test",
		Step{Name: "replay", Run: func(_ context.Context, st *State) error {
			st.Set("replayed", true)
			st.Finish()
			return nil
		}},
		Step{Name: "never", Run: func(context.Context, *State) error {
			t.Fatalf("step ran after Finish")
			return nil
		}},
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if replayed, _ := Value[bool](st, "replayed"); !replayed || !st.Finished() {
		t.Fatalf("expected finished replay state")
	}
}
