package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

const deviceColumns = `d.id, d.name, d.category_id, c.name, d.brand, d.quantity,
	d.status, d.condition, d.description, d.image IS NOT NULL, d.created_at, d.updated_at`

const deviceFrom = ` FROM devices d JOIN categories c ON c.id = d.category_id`

func scanDevice(sc interface{ Scan(...any) error }) (*model.Device, error) {
	d := &model.Device{}
	var description sql.NullString
	err := sc.Scan(&d.ID, &d.Name, &d.CategoryID, &d.CategoryName, &d.Brand, &d.Quantity,
		&d.Status, &d.Condition, &description, &d.HasImage, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Description = description.String
	return d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// DeviceFilter narrows ListDevices. Zero values match everything.
type DeviceFilter struct {
	Query      string
	CategoryID int64
	Status     string
}

func validateDevice(d *model.Device) error {
	d.ID = strings.TrimSpace(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	d.Brand = strings.TrimSpace(d.Brand)
	switch {
	case d.ID == "":
		return MissingField("id")
	case d.Name == "":
		return MissingField("name")
	case d.Brand == "":
		return MissingField("brand")
	case d.CategoryID <= 0:
		return MissingField("category_id")
	case d.Quantity < 0:
		return Invalid("quantity", "must not be negative")
	}
	if d.Status == "" {
		d.Status = model.StatusInStock
	}
	if d.Condition == "" {
		d.Condition = model.ConditionNormal
	}
	return nil
}

// CreateDevice inserts a device. Status and condition default to
// "In Stock" and "Normal".
func CreateDevice(ctx context.Context, q Querier, d model.Device) (*model.Device, error) {
	if err := validateDevice(&d); err != nil {
		return nil, err
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO devices (id, name, category_id, brand, quantity, status, condition, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.CategoryID, d.Brand, d.Quantity, d.Status, d.Condition, nullString(d.Description),
	)
	switch {
	case isUniqueViolation(err):
		return nil, fmt.Errorf("device %s: %w", d.ID, ErrDuplicateID)
	case isForeignKeyViolation(err):
		return nil, fmt.Errorf("category %d: %w", d.CategoryID, ErrUnknownCategory)
	case err != nil:
		return nil, dbError("creating device", err)
	}

	return GetDevice(ctx, q, d.ID)
}

// GetDevice returns a device by ID with its category name.
func GetDevice(ctx context.Context, q Querier, id string) (*model.Device, error) {
	d, err := scanDevice(q.QueryRowContext(ctx,
		`SELECT `+deviceColumns+deviceFrom+` WHERE d.id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting device", err)
	}
	return d, nil
}

// ListDevices returns devices ordered by ID. The free-text query is matched
// case-insensitively against ID, name, brand and category name.
func ListDevices(ctx context.Context, q Querier, f DeviceFilter) ([]model.Device, error) {
	query := `SELECT ` + deviceColumns + deviceFrom + ` WHERE 1 = 1`
	var args []any
	if f.CategoryID > 0 {
		query += ` AND d.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Status != "" {
		query += ` AND d.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY d.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("listing devices", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, dbError("scanning device", err)
		}
		if d.Matches(f.Query) {
			devices = append(devices, *d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("listing devices", err)
	}
	return devices, nil
}

// UpdateDevice updates a device's descriptive fields. Quantity is left
// alone; stock only moves through recorded transactions.
func UpdateDevice(ctx context.Context, q Querier, d model.Device) (*model.Device, error) {
	if err := validateDevice(&d); err != nil {
		return nil, err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE devices
		 SET name = ?, category_id = ?, brand = ?, status = ?, condition = ?, description = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		d.Name, d.CategoryID, d.Brand, d.Status, d.Condition, nullString(d.Description), d.ID,
	)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("category %d: %w", d.CategoryID, ErrUnknownCategory)
	}
	if err != nil {
		return nil, dbError("updating device", err)
	}
	n, err := rowsAffected(result, "updating device")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("device %s: %w", d.ID, ErrNotFound)
	}

	return GetDevice(ctx, q, d.ID)
}

// DeleteDevice removes a device. Devices with recorded transactions cannot
// be deleted since the history is append-only.
func DeleteDevice(ctx context.Context, q Querier, id string) error {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE device_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return dbError("checking device transactions", err)
	}
	if count > 0 {
		return fmt.Errorf("device %s has %d transactions: %w", id, count, ErrInUse)
	}

	result, err := q.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("device %s has transactions: %w", id, ErrInUse)
	}
	if err != nil {
		return dbError("deleting device", err)
	}
	n, err := rowsAffected(result, "deleting device")
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeviceExists reports whether a device with the given ID exists.
func DeviceExists(ctx context.Context, q Querier, id string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM devices WHERE id = ?`, id,
	).Scan(&count)
	if err != nil {
		return false, dbError("checking device", err)
	}
	return count > 0, nil
}

// AdjustDeviceQuantity adds delta to a device's quantity in one statement.
// With allowNegative false an outbound delta is skipped when it would take
// the quantity below zero and ErrInsufficientStock is returned. Inbound
// deltas always apply, so a negative quantity can be restocked gradually.
// A missing device yields ErrNotFound.
func AdjustDeviceQuantity(ctx context.Context, q Querier, id string, delta int, allowNegative bool) error {
	query := `UPDATE devices SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	args := []any{delta, id}
	guarded := !allowNegative && delta < 0
	if guarded {
		query += ` AND quantity + ? >= 0`
		args = append(args, delta)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return dbError("adjusting device quantity", err)
	}
	n, err := rowsAffected(result, "adjusting device quantity")
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if guarded {
		exists, err := DeviceExists(ctx, q, id)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("device %s cannot go below zero by %d: %w", id, delta, ErrInsufficientStock)
		}
	}
	return fmt.Errorf("device %s: %w", id, ErrNotFound)
}

// SetDeviceImage stores a device photo.
func SetDeviceImage(ctx context.Context, q Querier, id string, data []byte, mime string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE devices SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		data, mime, id,
	)
	if err != nil {
		return dbError("setting device image", err)
	}
	n, err := rowsAffected(result, "setting device image")
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetDeviceImage returns a device photo and its MIME type. ErrNotFound is
// returned when the device is missing or has no photo.
func GetDeviceImage(ctx context.Context, q Querier, id string) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM devices WHERE id = ? AND image IS NOT NULL`, id,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("image of device %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, "", dbError("getting device image", err)
	}
	return data, mime.String, nil
}
