package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

const categoryColumns = `c.id, c.name, c.created_at,
	(SELECT COUNT(*) FROM devices d WHERE d.category_id = c.id)`

func scanCategory(sc interface{ Scan(...any) error }) (*model.Category, error) {
	c := &model.Category{}
	if err := sc.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.DeviceCount); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCategory creates a new category. Names are unique.
func CreateCategory(ctx context.Context, q Querier, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, MissingField("name")
	}

	result, err := q.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("category %q already exists: %w", name, ErrConflict)
	}
	if err != nil {
		return nil, dbError("creating category", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, dbError("getting category id", err)
	}

	return GetCategory(ctx, q, id)
}

// GetCategory returns a category by ID, including its device count.
func GetCategory(ctx context.Context, q Querier, id int64) (*model.Category, error) {
	c, err := scanCategory(q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, dbError("getting category", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, q Querier) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c ORDER BY c.name`,
	)
	if err != nil {
		return nil, dbError("listing categories", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, dbError("scanning category", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("listing categories", err)
	}
	return categories, nil
}

// UpdateCategory renames a category.
func UpdateCategory(ctx context.Context, q Querier, id int64, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, MissingField("name")
	}

	result, err := q.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("category %q already exists: %w", name, ErrConflict)
	}
	if err != nil {
		return nil, dbError("updating category", err)
	}
	n, err := rowsAffected(result, "updating category")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}

	return GetCategory(ctx, q, id)
}

// CountDevicesByCategory returns how many devices reference a category.
func CountDevicesByCategory(ctx context.Context, q Querier, id int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM devices WHERE category_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return 0, dbError("counting category devices", err)
	}
	return count, nil
}

// CanDeleteCategory reports whether no device references the category.
func CanDeleteCategory(ctx context.Context, q Querier, id int64) (bool, error) {
	count, err := CountDevicesByCategory(ctx, q, id)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// DeleteCategory removes a category. Fails with ErrInUse if any device still
// references it. A device inserted between the check and the delete trips the
// foreign key and produces the same error.
func DeleteCategory(ctx context.Context, q Querier, id int64) error {
	count, err := CountDevicesByCategory(ctx, q, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("category %d has %d devices: %w", id, count, ErrInUse)
	}

	result, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("category %d has devices: %w", id, ErrInUse)
	}
	if err != nil {
		return dbError("deleting category", err)
	}
	n, err := rowsAffected(result, "deleting category")
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return nil
}
