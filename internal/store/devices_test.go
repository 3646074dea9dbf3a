package store

import (
	"context"
	"errors"
	"testing"

	"github.com/M3PH1S69/warehouse-monitoring/internal/db"
	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

func TestCreateDeviceDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	c := mustCategory(t, database, "Laptop")

	d := mustDevice(t, database, model.Device{ID: "DEV001", Name: "Laptop Dell", CategoryID: c.ID, Brand: "Dell"})
	if d.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", d.Quantity)
	}
	if d.Status != model.StatusInStock {
		t.Errorf("expected status %q, got %q", model.StatusInStock, d.Status)
	}
	if d.Condition != model.ConditionNormal {
		t.Errorf("expected condition %q, got %q", model.ConditionNormal, d.Condition)
	}
	if d.CategoryName != "Laptop" {
		t.Errorf("expected category name 'Laptop', got %q", d.CategoryName)
	}
	if d.HasImage {
		t.Error("expected no image on new device")
	}
}

func TestCreateDeviceErrors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	c := mustCategory(t, database, "Laptop")
	mustDevice(t, database, model.Device{ID: "DEV001", Name: "Dell", CategoryID: c.ID, Brand: "Dell"})

	var ve *ValidationError
	if _, err := CreateDevice(ctx, database, model.Device{Name: "X", CategoryID: c.ID, Brand: "X"}); !errors.As(err, &ve) || ve.Field != "id" {
		t.Errorf("expected id ValidationError, got %v", err)
	}
	if _, err := CreateDevice(ctx, database, model.Device{ID: "DEV002", Name: "X", CategoryID: c.ID, Brand: "X", Quantity: -1}); !errors.As(err, &ve) || ve.Field != "quantity" {
		t.Errorf("expected quantity ValidationError, got %v", err)
	}
	if _, err := CreateDevice(ctx, database, model.Device{ID: "DEV001", Name: "X", CategoryID: c.ID, Brand: "X"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := CreateDevice(ctx, database, model.Device{ID: "DEV003", Name: "X", CategoryID: 999, Brand: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown category, got %v", err)
	}
}

func TestListDevicesFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	laptops := mustCategory(t, database, "Laptop")
	monitors := mustCategory(t, database, "Monitor")
	mustDevice(t, database, model.Device{ID: "DEV001", Name: "Laptop Dell Inspiron 15", CategoryID: laptops.ID, Brand: "Dell", Quantity: 25})
	mustDevice(t, database, model.Device{ID: "DEV002", Name: "Monitor LG 24", CategoryID: monitors.ID, Brand: "LG", Quantity: 3, Status: model.StatusLowStock})

	tests := []struct {
		name   string
		filter DeviceFilter
		want   []string
	}{
		{"all", DeviceFilter{}, []string{"DEV001", "DEV002"}},
		{"category", DeviceFilter{CategoryID: monitors.ID}, []string{"DEV002"}},
		{"status", DeviceFilter{Status: model.StatusLowStock}, []string{"DEV002"}},
		{"query brand", DeviceFilter{Query: "dell"}, []string{"DEV001"}},
		{"query category", DeviceFilter{Query: "MONITOR"}, []string{"DEV002"}},
		{"no match", DeviceFilter{Query: "printer"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := ListDevices(ctx, database, tt.filter)
			if err != nil {
				t.Fatalf("ListDevices: %v", err)
			}
			if len(devices) != len(tt.want) {
				t.Fatalf("expected %d devices, got %d", len(tt.want), len(devices))
			}
			for i, id := range tt.want {
				if devices[i].ID != id {
					t.Errorf("device %d: expected %q, got %q", i, id, devices[i].ID)
				}
			}
		})
	}
}

func TestUpdateDeviceKeepsQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	c := mustCategory(t, database, "Laptop")
	mustDevice(t, database, model.Device{ID: "DEV001", Name: "Dell", CategoryID: c.ID, Brand: "Dell", Quantity: 25})

	got, err := UpdateDevice(ctx, database, model.Device{
		ID: "DEV001", Name: "Dell Latitude", CategoryID: c.ID, Brand: "Dell",
		Quantity: 999, Condition: model.ConditionDamaged, Description: "dented",
	})
	if err != nil {
		t.Fatalf("UpdateDevice: %v", err)
	}
	if got.Name != "Dell Latitude" || got.Condition != model.ConditionDamaged || got.Description != "dented" {
		t.Errorf("unexpected device after update: %+v", got)
	}
	if got.Quantity != 25 {
		t.Errorf("expected quantity untouched at 25, got %d", got.Quantity)
	}

	if _, err := UpdateDevice(ctx, database, model.Device{ID: "NOPE", Name: "X", CategoryID: c.ID, Brand: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDevice(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	c := mustCategory(t, database, "Laptop")
	mustDevice(t, database, model.Device{ID: "DEV001", Name: "Dell", CategoryID: c.ID, Brand: "Dell"})
	mustDevice(t, database, model.Device{ID: "DEV002", Name: "HP", CategoryID: c.ID, Brand: "HP"})
	mustTransaction(t, database, model.TransactionInput{
		ID: "TXN001", DeviceID: "DEV001", Type: model.TransactionIn, Quantity: 1,
		TransactionDate: "2024-01-15", UserName: "admin",
	})

	if err := DeleteDevice(ctx, database, "DEV001"); !errors.Is(err, ErrInUse) {
		t.Errorf("expected ErrInUse for device with history, got %v", err)
	}
	if err := DeleteDevice(ctx, database, "DEV002"); err != nil {
		t.Fatalf("DeleteDevice: %v", err)
	}
	if exists, _ := DeviceExists(ctx, database, "DEV002"); exists {
		t.Error("expected DEV002 to be gone")
	}
	if err := DeleteDevice(ctx, database, "DEV002"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustDeviceQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	c := mustCategory(t, database, "Laptop")
	mustDevice(t, database, model.Device{ID: "DEV001", Name: "Dell", CategoryID: c.ID, Brand: "Dell", Quantity: 2})

	if err := AdjustDeviceQuantity(ctx, database, "DEV001", 3, true); err != nil {
		t.Fatalf("AdjustDeviceQuantity: %v", err)
	}
	if q := quantityOf(t, database, "DEV001"); q != 5 {
		t.Errorf("expected 5, got %d", q)
	}

	if err := AdjustDeviceQuantity(ctx, database, "DEV001", -6, false); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	if q := quantityOf(t, database, "DEV001"); q != 5 {
		t.Errorf("expected rejected adjustment to leave 5, got %d", q)
	}

	if err := AdjustDeviceQuantity(ctx, database, "DEV001", -6, true); err != nil {
		t.Fatalf("AdjustDeviceQuantity: %v", err)
	}
	if q := quantityOf(t, database, "DEV001"); q != -1 {
		t.Errorf("expected -1, got %d", q)
	}

	// Inbound stock applies under the guard even while still below zero.
	if err := AdjustDeviceQuantity(ctx, database, "DEV001", -6, true); err != nil {
		t.Fatalf("AdjustDeviceQuantity: %v", err)
	}
	if err := AdjustDeviceQuantity(ctx, database, "DEV001", 2, false); err != nil {
		t.Fatalf("guarded inbound below zero: %v", err)
	}
	if q := quantityOf(t, database, "DEV001"); q != -5 {
		t.Errorf("expected -5, got %d", q)
	}
	if err := AdjustDeviceQuantity(ctx, database, "DEV001", -1, false); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock below zero, got %v", err)
	}

	for _, allow := range []bool{true, false} {
		if err := AdjustDeviceQuantity(ctx, database, "NOPE", 1, allow); !errors.Is(err, ErrNotFound) {
			t.Errorf("allowNegative=%v: expected ErrNotFound, got %v", allow, err)
		}
	}
}

func TestDeviceImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	c := mustCategory(t, database, "Laptop")
	mustDevice(t, database, model.Device{ID: "DEV001", Name: "Dell", CategoryID: c.ID, Brand: "Dell"})

	if _, _, err := GetDeviceImage(ctx, database, "DEV001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before upload, got %v", err)
	}

	if err := SetDeviceImage(ctx, database, "DEV001", []byte{0xff, 0xd8}, "image/jpeg"); err != nil {
		t.Fatalf("SetDeviceImage: %v", err)
	}
	data, mime, err := GetDeviceImage(ctx, database, "DEV001")
	if err != nil {
		t.Fatalf("GetDeviceImage: %v", err)
	}
	if len(data) != 2 || mime != "image/jpeg" {
		t.Errorf("unexpected image: %d bytes, %q", len(data), mime)
	}
	if d, _ := GetDevice(ctx, database, "DEV001"); !d.HasImage {
		t.Error("expected HasImage after upload")
	}

	if err := SetDeviceImage(ctx, database, "NOPE", []byte{1}, "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
