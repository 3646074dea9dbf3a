package export

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestDevices(t *testing.T) {
	devices := []model.Device{
		{ID: "DEV001", Name: "Laptop Dell Inspiron 15", CategoryName: "Laptop", Brand: "Dell", Quantity: 25,
			Status: model.StatusInStock, Condition: model.ConditionNormal},
		{ID: "DEV002", Name: "Monitor LG 24\"", CategoryName: "Monitor", Brand: "LG", Quantity: 3,
			Status: model.StatusLowStock, Condition: model.ConditionDamaged, Description: "cracked bezel, works"},
	}

	var buf bytes.Buffer
	if err := Devices(&buf, devices); err != nil {
		t.Fatalf("Devices: %v", err)
	}
	golden(t).Assert(t, "devices", buf.Bytes())
}

func TestTransactions(t *testing.T) {
	txs := []model.Transaction{
		{ID: "TXN002", TransactionDate: "2024-01-16", Type: model.TransactionIn, DeviceID: "DEV001",
			DeviceName: "Laptop Dell Inspiron 15", CategoryName: "Laptop", Quantity: 10, UserName: "admin",
			Source: "PT Supplier", Sender: "Andi", RegistrationNumbers: []string{"SN-3", "SN-1"}},
		{ID: "TXN001", TransactionDate: "2024-01-15", Type: model.TransactionOut, DeviceID: "DEV001",
			DeviceName: "Laptop Dell Inspiron 15", CategoryName: "Laptop", Quantity: 5, UserName: "admin",
			Destination: "Branch A", Recipient: "Budi"},
	}

	var buf bytes.Buffer
	if err := Transactions(&buf, txs); err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	golden(t).Assert(t, "transactions", buf.Bytes())
}

func TestEmptyExportsHaveHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := Devices(&buf, nil); err != nil {
		t.Fatalf("Devices: %v", err)
	}
	golden(t).Assert(t, "devices_empty", buf.Bytes())
}
