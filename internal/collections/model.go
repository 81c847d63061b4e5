// Package collections records cash-collection events against parcels and
// their margin/commission split.
package collections

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/parcels"
)

// Collection is one cash-collection event. Immutable after creation except
// for case reattribution while it is not yet part of a recolte.
type Collection struct {
	ID               int64                `json:"id"`
	ParcelID         int64                `json:"parcel_id"`
	CollectedAt      time.Time            `json:"collected_at"`
	Amount           decimal.Decimal      `json:"amount"`
	AmountGiven      decimal.Decimal      `json:"amount_given"`
	Margin           decimal.Decimal      `json:"margin"`
	DriverCommission *decimal.Decimal     `json:"driver_commission,omitempty"`
	CaseID           *int64               `json:"case_id,omitempty"`
	DriverID         *int64               `json:"driver_id,omitempty"`
	CreatedBy        int64                `json:"created_by"`
	ParcelType       parcels.DeliveryType `json:"parcel_type"`
	CreatedAt        time.Time            `json:"created_at"`
}

// IsHomeDelivery reports whether the collection settles a home delivery.
func (c Collection) IsHomeDelivery() bool {
	return c.ParcelType == parcels.DeliveryHome
}

// Rates holds the company commission configuration.
type Rates struct {
	Stopdesk     decimal.Decimal
	HomeDelivery decimal.Decimal
}

// Split computes the company margin and the driver commission for a
// collection. Stop-desk collections keep the flat rate with no driver share;
// home deliveries grant the requested commission and the company keeps the
// remainder, floored at zero.
func (r Rates) Split(parcelType parcels.DeliveryType, requestedCommission decimal.Decimal) (margin decimal.Decimal, driverCommission *decimal.Decimal) {
	if parcelType == parcels.DeliveryStopdesk {
		return r.Stopdesk, nil
	}
	margin = r.HomeDelivery.Sub(requestedCommission)
	if margin.IsNegative() {
		margin = decimal.Zero
	}
	commission := requestedCommission
	return margin, &commission
}
