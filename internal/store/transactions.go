package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

const transactionColumns = `t.id, t.device_id, t.type, t.quantity, t.transaction_date, t.user_name,
	t.destination, t.recipient, t.source, t.sender, t.registration_numbers, t.created_at,
	d.name, c.name`

const transactionFrom = ` FROM transactions t
	JOIN devices d ON d.id = t.device_id
	JOIN categories c ON c.id = d.category_id`

// EncodeRegistrationNumbers encodes a list of registration numbers as a
// JSON array for storage. An empty list is stored as NULL.
func EncodeRegistrationNumbers(numbers []string) (sql.NullString, error) {
	if numbers == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(numbers)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding registration numbers: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// DecodeRegistrationNumbers is the inverse of EncodeRegistrationNumbers.
func DecodeRegistrationNumbers(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var numbers []string
	if err := json.Unmarshal([]byte(s.String), &numbers); err != nil {
		return nil, fmt.Errorf("decoding registration numbers: %w", err)
	}
	return numbers, nil
}

func scanTransaction(sc interface{ Scan(...any) error }) (*model.Transaction, error) {
	t := &model.Transaction{}
	var destination, recipient, source, sender, regs sql.NullString
	err := sc.Scan(&t.ID, &t.DeviceID, &t.Type, &t.Quantity, &t.TransactionDate, &t.UserName,
		&destination, &recipient, &source, &sender, &regs, &t.CreatedAt,
		&t.DeviceName, &t.CategoryName)
	if err != nil {
		return nil, err
	}
	t.Destination = destination.String
	t.Recipient = recipient.String
	t.Source = source.String
	t.Sender = sender.String
	if t.RegistrationNumbers, err = DecodeRegistrationNumbers(regs); err != nil {
		return nil, err
	}
	return t, nil
}

// InsertTransaction writes a transaction row exactly as given. It does not
// touch the device quantity; see the ledger for that.
func InsertTransaction(ctx context.Context, q Querier, in model.TransactionInput) error {
	regs, err := EncodeRegistrationNumbers(in.RegistrationNumbers)
	if err != nil {
		return Invalid("registration_numbers", "%v", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO transactions
		 (id, device_id, type, quantity, transaction_date, user_name,
		  destination, recipient, source, sender, registration_numbers)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.DeviceID, in.Type, in.Quantity, in.TransactionDate, in.UserName,
		nullString(in.Destination), nullString(in.Recipient),
		nullString(in.Source), nullString(in.Sender), regs,
	)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("transaction %s: %w", in.ID, ErrDuplicateID)
	case isForeignKeyViolation(err):
		return fmt.Errorf("device %s: %w", in.DeviceID, ErrUnknownDevice)
	case err != nil:
		return dbError("inserting transaction", err)
	}
	return nil
}

// GetTransaction returns a transaction by ID with its device and category names.
func GetTransaction(ctx context.Context, q Querier, id string) (*model.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+transactionFrom+` WHERE t.id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting transaction", err)
	}
	return t, nil
}

// TransactionFilter narrows ListTransactions. From and To are inclusive
// YYYY-MM-DD bounds. Zero values match everything.
type TransactionFilter struct {
	DeviceID string
	Type     string
	From     string
	To       string
	Limit    int
}

// ListTransactions returns transactions newest first.
func ListTransactions(ctx context.Context, q Querier, f TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + transactionFrom + ` WHERE 1 = 1`
	var args []any
	if f.DeviceID != "" {
		query += ` AND t.device_id = ?`
		args = append(args, f.DeviceID)
	}
	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, f.Type)
	}
	if f.From != "" {
		query += ` AND t.transaction_date >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		query += ` AND t.transaction_date <= ?`
		args = append(args, f.To)
	}
	query += ` ORDER BY t.transaction_date DESC, t.created_at DESC, t.rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing transactions", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, dbError("scanning transaction", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("listing transactions", err)
	}
	return txs, nil
}
