package uow

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"fleetevents/internal/errs"
	"fleetevents/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTx runs fn in one transaction. A ctx that already carries a transaction joins it
// instead of opening a nested one. Busy/locked SQLite faults come back as errs.ErrTransient.
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if ports.InTx(ctx) {
		return fn(ctx)
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
	return classify(err)
}

func classify(err error) error {
	if err == nil || errs.IsTransient(err) {
		return err
	}
	if isBusy(err) {
		return errs.Transient(err, "sqlite busy")
	}
	return err
}

var busyMarkers = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"sqlite_locked",
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range busyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
