package parcels

import "github.com/shopspring/decimal"

// IntakeRequest registers one parcel.
type IntakeRequest struct {
	TrackingNumber string          `json:"tracking_number" validate:"required,min=4,max=32"`
	CODAmount      decimal.Decimal `json:"cod_amount"`
	DeliveryType   DeliveryType    `json:"delivery_type" validate:"required"`
}

// BulkIntakeRequest registers parcels mapped from an imported spreadsheet.
// Parsing the sheet happens upstream; only resolved rows arrive here.
type BulkIntakeRequest struct {
	Rows []IntakeRequest `json:"rows" validate:"required,min=1,dive"`
}

// BulkRowResult reports the outcome for one imported row.
type BulkRowResult struct {
	TrackingNumber string `json:"tracking_number"`
	ParcelID       int64  `json:"parcel_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// AssignRequest assigns a driver to a pending parcel.
type AssignRequest struct {
	DriverID int64 `json:"driver_id" validate:"required,gt=0"`
}
