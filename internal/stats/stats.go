// Package stats computes the dashboard summary from devices and transactions.
package stats

import (
	"sort"
	"time"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

// WindowDays is how far back the recent activity window reaches.
const WindowDays = 30

// Window returns the first and last calendar day of the recent activity
// window ending on now, both inclusive, at midnight in now's location.
func Window(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	end = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	start = end.AddDate(0, 0, -WindowDays)
	return start, end
}

// inWindow reports whether date falls inside [start, end]. Unparseable
// dates fall outside.
func inWindow(date string, start, end time.Time) bool {
	day, err := time.ParseInLocation(model.DateLayout, date, start.Location())
	if err != nil {
		return false
	}
	return !day.Before(start) && !day.After(end)
}

// Compute summarizes current stock and the last 30 days of movement.
// It does not modify its inputs.
func Compute(devices []model.Device, txs []model.Transaction, now time.Time) model.DashboardStats {
	s := model.DashboardStats{Categories: []model.CategoryTotal{}}

	byCategory := map[string]int{}
	for _, d := range devices {
		s.TotalItems += d.Quantity
		switch d.Status {
		case model.StatusLowStock:
			s.LowStockItems++
		case model.StatusOutOfStock:
			s.OutOfStockItems++
		}
		switch {
		case d.Condition == model.ConditionNormal:
			s.NormalItems += d.Quantity
		case model.IsDamaged(d.Condition):
			s.DamagedItems += d.Quantity
		}
		byCategory[d.CategoryName] += d.Quantity
	}

	for name, qty := range byCategory {
		s.Categories = append(s.Categories, model.CategoryTotal{Name: name, Quantity: qty})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return s.Categories[i].Name < s.Categories[j].Name
	})

	start, end := Window(now)
	for _, tx := range txs {
		if !inWindow(tx.TransactionDate, start, end) {
			continue
		}
		s.RecentTransactions++
		switch tx.Type {
		case model.TransactionIn:
			s.ItemsIn += tx.Quantity
		case model.TransactionOut:
			s.ItemsOut += tx.Quantity
		}
	}

	return s
}
