// Package export writes inventory and transaction history as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

var deviceHeader = []string{"id", "name", "category", "brand", "quantity", "status", "condition", "description"}

var transactionHeader = []string{
	"id", "date", "type", "device_id", "device", "category", "quantity", "user",
	"destination", "recipient", "source", "sender", "registration_numbers",
}

// Devices writes one row per device.
func Devices(w io.Writer, devices []model.Device) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(deviceHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, d := range devices {
		err := cw.Write([]string{
			d.ID, d.Name, d.CategoryName, d.Brand, strconv.Itoa(d.Quantity),
			d.Status, d.Condition, d.Description,
		})
		if err != nil {
			return fmt.Errorf("writing device %s: %w", d.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Transactions writes one row per transaction. Registration numbers are
// joined with semicolons in their recorded order.
func Transactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range txs {
		err := cw.Write([]string{
			t.ID, t.TransactionDate, t.Type, t.DeviceID, t.DeviceName, t.CategoryName,
			strconv.Itoa(t.Quantity), t.UserName, t.Destination, t.Recipient,
			t.Source, t.Sender, strings.Join(t.RegistrationNumbers, ";"),
		})
		if err != nil {
			return fmt.Errorf("writing transaction %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
