package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Device is a tracked inventory item type with an on-hand quantity.
type Device struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CategoryID  int64     `json:"category_id"`
	Brand       string    `json:"brand"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	Condition   string    `json:"condition"`
	Description string    `json:"description,omitempty"`
	HasImage    bool      `json:"has_image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined field (not always populated).
	CategoryName string `json:"category_name,omitempty"`
}

// Device statuses. These are labels set by staff, not derived from quantity.
const (
	StatusInStock    = "In Stock"
	StatusLowStock   = "Low Stock"
	StatusOutOfStock = "Out of Stock"
)

// Device conditions.
const (
	ConditionNormal  = "Normal"
	ConditionDamaged = "Damaged"

	// conditionDamagedLegacy is the label older clients stored for damaged goods.
	conditionDamagedLegacy = "Rusak"
)

// IsDamaged reports whether a condition label means damaged.
func IsDamaged(condition string) bool {
	return condition == ConditionDamaged || condition == conditionDamagedLegacy
}

// Matches reports whether term occurs in the device's id, name, brand or
// category name, ignoring case. An empty term matches everything.
func (d Device) Matches(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	// A Caser must not be shared between goroutines.
	folder := cases.Fold()
	needle := folder.String(term)
	for _, field := range []string{d.ID, d.Name, d.Brand, d.CategoryName} {
		if strings.Contains(folder.String(field), needle) {
			return true
		}
	}
	return false
}
