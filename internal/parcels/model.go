// Package parcels provides parcel entity logic: the shippable unit carrying a
// cash-on-delivery amount, root of all money flow.
package parcels

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a parcel.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
	StatusReturned   Status = "returned"
	StatusFailed     Status = "failed"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusDispatched, StatusDelivered, StatusReturned, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusReturned || s == StatusFailed
}

// CanAssign checks if a driver can be assigned in this status.
func (s Status) CanAssign() bool {
	return s == StatusPending
}

// CanDispatch checks if the parcel can go out for delivery.
func (s Status) CanDispatch() bool {
	return s == StatusAssigned
}

// CanDeliver checks if the parcel can be marked delivered.
func (s Status) CanDeliver() bool {
	return s == StatusDispatched || s == StatusAssigned
}

// DeliveryType distinguishes counter pickup from home delivery.
type DeliveryType string

const (
	DeliveryHome     DeliveryType = "home_delivery"
	DeliveryStopdesk DeliveryType = "stopdesk"
)

// IsValid checks the delivery type.
func (t DeliveryType) IsValid() bool {
	return t == DeliveryHome || t == DeliveryStopdesk
}

// Parcel is the shippable unit.
type Parcel struct {
	ID             int64           `json:"id"`
	TrackingNumber string          `json:"tracking_number"`
	CODAmount      decimal.Decimal `json:"cod_amount"`
	Status         Status          `json:"status"`
	DeliveryType   DeliveryType    `json:"delivery_type"`
	DriverID       *int64          `json:"driver_id,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsHomeDelivery reports whether the parcel is delivered to the customer.
func (p Parcel) IsHomeDelivery() bool {
	return p.DeliveryType == DeliveryHome
}
