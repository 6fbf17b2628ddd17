package request

type CreateOrderRequest struct {
	BookingKind string  `json:"booking_kind" validate:"required,oneof=appointment operation"`
	BookingID   string  `json:"booking_id" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
}

type GuestOrderRequest struct {
	CreateOrderRequest
	CustomerName  string `json:"customer_name" validate:"omitempty,max=120"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,min=10,max=15"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
}

type HospitalOrderRequest struct {
	PlanName      string  `json:"plan_name" validate:"required,max=64"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Currency      string  `json:"currency" validate:"omitempty,len=3"`
	CustomerName  string  `json:"customer_name" validate:"omitempty,max=120"`
	CustomerPhone string  `json:"customer_phone" validate:"omitempty,min=10,max=15"`
	CustomerEmail string  `json:"customer_email" validate:"omitempty,email"`
}
