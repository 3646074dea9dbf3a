// Package events publishes ledger activity to NATS for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

// DefaultSubject is the subject recorded transactions are published on.
const DefaultSubject = "warehouse.transactions.recorded"

// TransactionRecorded is the payload published after a transaction commits.
type TransactionRecorded struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	Type       string    `json:"type"`
	Quantity   int       `json:"quantity"`
	Delta      int       `json:"delta"`
	Date       string    `json:"transaction_date"`
	UserName   string    `json:"user_name"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewTransactionRecorded builds the event for a stored transaction.
func NewTransactionRecorded(tx *model.Transaction, delta int) TransactionRecorded {
	return TransactionRecorded{
		ID:         tx.ID,
		DeviceID:   tx.DeviceID,
		Type:       tx.Type,
		Quantity:   tx.Quantity,
		Delta:      delta,
		Date:       tx.TransactionDate,
		UserName:   tx.UserName,
		RecordedAt: tx.CreatedAt,
	}
}

// Publisher delivers ledger events.
type Publisher interface {
	PublishTransaction(ctx context.Context, ev TransactionRecorded) error
	Close()
}

// Nop discards every event. It is used when no NATS URL is configured.
type Nop struct{}

func (Nop) PublishTransaction(context.Context, TransactionRecorded) error { return nil }
func (Nop) Close()                                                        {}

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// NATSPublisher publishes events as JSON on a single subject.
type NATSPublisher struct {
	conn    conn
	subject string
}

// Connect dials the NATS server at url.
func Connect(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("warehouse"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return newNATSPublisher(nc, subject), nil
}

func newNATSPublisher(c conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: c, subject: subject}
}

// PublishTransaction publishes ev. NATS publishes are fire-and-forget, so the
// context is only checked before sending.
func (p *NATSPublisher) PublishTransaction(ctx context.Context, ev TransactionRecorded) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.subject, err)
	}
	return nil
}

// Close closes the underlying connection.
func (p *NATSPublisher) Close() {
	p.conn.Close()
}
