package model

// DashboardStats summarizes current stock and recent movement.
type DashboardStats struct {
	TotalItems         int             `json:"totalItems"`
	LowStockItems      int             `json:"lowStockItems"`
	OutOfStockItems    int             `json:"outOfStockItems"`
	NormalItems        int             `json:"normalItems"`
	DamagedItems       int             `json:"damagedItems"`
	ItemsIn            int             `json:"itemsIn"`
	ItemsOut           int             `json:"itemsOut"`
	RecentTransactions int             `json:"recentTransactions"`
	Categories         []CategoryTotal `json:"categories"`
}

// CategoryTotal is the on-hand quantity of all devices in one category.
type CategoryTotal struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
