package usecase

import "errors"

// Error taxonomy shared by the HTTP layer. Handlers branch with errors.Is
// and translate to status codes; no raw store or transport errors cross the
// boundary.
var (
	// ErrValidation: bad input, nothing was touched. 400.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound: the referenced booking/payment/doctor does not exist. 404.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden: the actor is not entitled to the operation. 403.
	ErrForbidden = errors.New("operation not allowed")

	// ErrConflict: slot taken or payment already terminal; safe to retry with
	// different parameters. 409.
	ErrConflict = errors.New("conflict")

	// ErrHospitalNotApproved: the booking references a hospital that is not
	// in approved status.
	ErrHospitalNotApproved = errors.New("hospital is not approved")

	// ErrDoctorNotAffiliated: the doctor is inactive or carries no hospital
	// affiliation.
	ErrDoctorNotAffiliated = errors.New("doctor is not affiliated with a hospital")

	// ErrGatewayUnavailable: transient provider failure, nothing persisted;
	// the caller should retry. 502.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable, retry later")

	// ErrGatewayRejected: permanent provider rejection; retrying the same
	// request will not help. 422.
	ErrGatewayRejected = errors.New("payment gateway rejected the order")

	// ErrInvalidSignature: webhook signature check failed; the delivery is
	// discarded without touching any state. 400.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
