// Package ledger records stock movements. Each recorded transaction and the
// quantity adjustment it implies are committed together or not at all.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/M3PH1S69/warehouse-monitoring/internal/events"
	"github.com/M3PH1S69/warehouse-monitoring/internal/metrics"
	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// Ledger is safe for concurrent use.
type Ledger struct {
	db            *sql.DB
	allowNegative bool
	publisher     events.Publisher
	metrics       *metrics.Metrics

	// readBack loads a committed transaction with its joined names.
	readBack func(ctx context.Context, q store.Querier, id string) (*model.Transaction, error)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithAllowNegativeStock controls whether an outbound transaction may take a
// device quantity below zero. The default is true.
func WithAllowNegativeStock(allow bool) Option {
	return func(l *Ledger) { l.allowNegative = allow }
}

// WithPublisher sets where recorded transactions are announced.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) {
		if p != nil {
			l.publisher = p
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// New returns a Ledger writing to db.
func New(db *sql.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:            db,
		allowNegative: true,
		publisher:     events.Nop{},
		readBack:      store.GetTransaction,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AllowsNegativeStock reports the configured negative stock policy.
func (l *Ledger) AllowsNegativeStock() bool {
	return l.allowNegative
}

// Validate checks a transaction request without touching storage.
func Validate(in model.TransactionInput) error {
	required := []struct {
		field, value string
	}{
		{"id", in.ID},
		{"device_id", in.DeviceID},
		{"type", in.Type},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return store.MissingField(r.field)
		}
	}
	if in.Type != model.TransactionIn && in.Type != model.TransactionOut {
		return store.Invalid("type", "must be %q or %q", model.TransactionIn, model.TransactionOut)
	}
	if in.Quantity <= 0 {
		return store.Invalid("quantity", "must be greater than zero")
	}
	if strings.TrimSpace(in.TransactionDate) == "" {
		return store.MissingField("transaction_date")
	}
	if _, err := time.Parse(model.DateLayout, in.TransactionDate); err != nil {
		return store.Invalid("transaction_date", "must be a date formatted as YYYY-MM-DD")
	}
	if strings.TrimSpace(in.UserName) == "" {
		return store.MissingField("user_name")
	}
	return nil
}

// RecordTransaction validates in, stores it and adjusts the device quantity
// by +quantity for "in" and -quantity for "out", all in one database
// transaction. It returns the stored record.
//
// If the row is written but the adjustment fails, everything is rolled back
// and a *store.ConsistencyError is returned.
func (l *Ledger) RecordTransaction(ctx context.Context, in model.TransactionInput) (*model.Transaction, error) {
	rec, err := l.record(ctx, in)
	if err != nil {
		l.metrics.LedgerFailure(failureKind(err))
		return nil, err
	}

	l.metrics.TransactionRecorded(rec.Type, rec.Quantity)
	if err := l.publisher.PublishTransaction(ctx, events.NewTransactionRecorded(rec, in.Delta())); err != nil {
		slog.Warn("failed to publish transaction event", "transaction", rec.ID, "error", err)
	}
	return rec, nil
}

func (l *Ledger) record(ctx context.Context, in model.TransactionInput) (*model.Transaction, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	delta := in.Delta()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &store.PersistenceError{Op: "beginning transaction", Err: err}
	}
	defer tx.Rollback()

	exists, err := store.DeviceExists(ctx, tx, in.DeviceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("device %s: %w", in.DeviceID, store.ErrUnknownDevice)
	}

	if err := store.InsertTransaction(ctx, tx, in); err != nil {
		return nil, err
	}

	if err := store.AdjustDeviceQuantity(ctx, tx, in.DeviceID, delta, l.allowNegative); err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			return nil, err
		}
		rbErr := tx.Rollback()
		ce := &store.ConsistencyError{
			TransactionID: in.ID,
			DeviceID:      in.DeviceID,
			Delta:         delta,
			RolledBack:    rbErr == nil,
			Err:           err,
		}
		slog.Error("quantity adjustment failed after transaction insert",
			"transaction", in.ID, "device", in.DeviceID, "delta", delta,
			"rolled_back", ce.RolledBack, "error", err)
		if rbErr != nil {
			slog.Error("rollback failed", "transaction", in.ID, "error", rbErr)
		}
		return nil, ce
	}

	if err := tx.Commit(); err != nil {
		return nil, &store.PersistenceError{Op: "committing transaction", Err: err}
	}

	rec, err := l.readBack(ctx, l.db, in.ID)
	if err != nil {
		// The movement is committed; failing here would invite a retry that
		// can only hit the duplicate id.
		slog.Warn("reading back committed transaction failed",
			"transaction", in.ID, "device", in.DeviceID, "error", err)
		return committed(in), nil
	}
	return rec, nil
}

// committed builds the stored record from its input, without the joined
// device and category names.
func committed(in model.TransactionInput) *model.Transaction {
	return &model.Transaction{
		ID:                  in.ID,
		DeviceID:            in.DeviceID,
		Type:                in.Type,
		Quantity:            in.Quantity,
		TransactionDate:     in.TransactionDate,
		UserName:            in.UserName,
		Destination:         in.Destination,
		Recipient:           in.Recipient,
		Source:              in.Source,
		Sender:              in.Sender,
		RegistrationNumbers: in.RegistrationNumbers,
		CreatedAt:           time.Now().UTC(),
	}
}

func failureKind(err error) string {
	var ve *store.ValidationError
	var ce *store.ConsistencyError
	switch {
	case errors.As(err, &ve):
		return metrics.FailureValidation
	case errors.As(err, &ce):
		return metrics.FailureConsistency
	case errors.Is(err, store.ErrInsufficientStock):
		return metrics.FailureInsufficient
	case errors.Is(err, store.ErrNotFound):
		return metrics.FailureNotFound
	case errors.Is(err, store.ErrConflict):
		return metrics.FailureConflict
	}
	return metrics.FailurePersistence
}
