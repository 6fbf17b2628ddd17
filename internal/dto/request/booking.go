package request

type CreateAppointmentRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string `json:"time_slot" validate:"required"`
	Reason   string `json:"reason" validate:"max=500"`
}

type CreateOperationRequest struct {
	DoctorID  string `json:"doctor_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Specialty string `json:"specialty" validate:"omitempty,oneof=surgery ortho gyn cardio"`
	Reason    string `json:"reason" validate:"max=500"`
}

// Guest bookings carry the patient's identity inline; an inactive patient
// record is created (or reused by mobile number) on the fly.
type GuestAppointmentRequest struct {
	CreateAppointmentRequest
	PatientName  string `json:"patient_name" validate:"required,max=120"`
	PatientPhone string `json:"patient_phone" validate:"required,min=10,max=15"`
}

type UpdateBookingStatusRequest struct {
	Action string `json:"action" validate:"required,oneof=confirm cancel complete"`
}
