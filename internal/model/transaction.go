package model

import "time"

// Transaction is an immutable record of stock moving in or out of the warehouse.
type Transaction struct {
	ID                  string    `json:"id"`
	DeviceID            string    `json:"device_id"`
	Type                string    `json:"type"`
	Quantity            int       `json:"quantity"`
	TransactionDate     string    `json:"transaction_date"`
	UserName            string    `json:"user_name"`
	Destination         string    `json:"destination,omitempty"`
	Recipient           string    `json:"recipient,omitempty"`
	Source              string    `json:"source,omitempty"`
	Sender              string    `json:"sender,omitempty"`
	RegistrationNumbers []string  `json:"registration_numbers"`
	CreatedAt           time.Time `json:"created_at"`

	// Joined fields (not always populated).
	DeviceName   string `json:"device_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

// TransactionInput is a request to record a stock movement.
type TransactionInput struct {
	ID                  string   `json:"id"`
	DeviceID            string   `json:"device_id"`
	Type                string   `json:"type"`
	Quantity            int      `json:"quantity"`
	TransactionDate     string   `json:"transaction_date"`
	UserName            string   `json:"user_name"`
	Destination         string   `json:"destination,omitempty"`
	Recipient           string   `json:"recipient,omitempty"`
	Source              string   `json:"source,omitempty"`
	Sender              string   `json:"sender,omitempty"`
	RegistrationNumbers []string `json:"registration_numbers,omitempty"`
}

// Transaction types.
const (
	TransactionIn  = "in"
	TransactionOut = "out"
)

// DateLayout is the wire and storage format of transaction dates.
const DateLayout = "2006-01-02"

// Delta returns the signed quantity change a transaction applies to its device.
// Unknown types yield zero.
func (in TransactionInput) Delta() int {
	switch in.Type {
	case TransactionIn:
		return in.Quantity
	case TransactionOut:
		return -in.Quantity
	}
	return 0
}
