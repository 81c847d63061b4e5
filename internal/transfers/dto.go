package transfers

// CreateRequest bundles recoltes into a transfer addressed to one admin.
// An empty list claims every unclaimed recolte.
type CreateRequest struct {
	AdminID    int64   `json:"admin_id" validate:"required,gt=0"`
	RecolteIDs []int64 `json:"recolte_ids" validate:"omitempty,dive,gt=0"`
}

// VerifyRequest carries the code typed in by the admin.
type VerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Response is a transfer plus the recoltes it claimed. The verification
// code is absent; only the reveal endpoint returns it.
type Response struct {
	TransferRequest
	RecolteIDs []int64 `json:"recolte_ids"`
}

// CodeResponse reveals the verification code to an admin.
type CodeResponse struct {
	ID               int64  `json:"id"`
	VerificationCode string `json:"verification_code"`
}
