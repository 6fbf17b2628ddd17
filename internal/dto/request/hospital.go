package request

type UpdateHospitalStatusRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

type LinkHospitalAccountRequest struct {
	AccountID string `json:"account_id" validate:"required,max=64"`
}
