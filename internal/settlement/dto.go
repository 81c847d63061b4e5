package settlement

// ImportRequest is one driver settlement sheet. DriverCommission is the
// per-parcel commission the driver asked for, empty meaning none.
type ImportRequest struct {
	DriverID         int64    `json:"driver_id" validate:"required,gt=0"`
	TrackingNumbers  []string `json:"tracking_numbers" validate:"required,min=1,dive,required"`
	DriverCommission string   `json:"driver_commission" validate:"omitempty"`
}
