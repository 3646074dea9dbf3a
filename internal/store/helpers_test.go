package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

func mustCategory(t *testing.T, q Querier, name string) *model.Category {
	t.Helper()
	c, err := CreateCategory(context.Background(), q, name)
	if err != nil {
		t.Fatalf("CreateCategory(%q): %v", name, err)
	}
	return c
}

func mustDevice(t *testing.T, q Querier, d model.Device) *model.Device {
	t.Helper()
	got, err := CreateDevice(context.Background(), q, d)
	if err != nil {
		t.Fatalf("CreateDevice(%q): %v", d.ID, err)
	}
	return got
}

func mustTransaction(t *testing.T, q Querier, in model.TransactionInput) {
	t.Helper()
	if err := InsertTransaction(context.Background(), q, in); err != nil {
		t.Fatalf("InsertTransaction(%q): %v", in.ID, err)
	}
}

func quantityOf(t *testing.T, database *sql.DB, id string) int {
	t.Helper()
	d, err := GetDevice(context.Background(), database, id)
	if err != nil {
		t.Fatalf("GetDevice(%q): %v", id, err)
	}
	return d.Quantity
}
