package models

// MessageRequest is the wire body of POST /api/v1/message/send.
type MessageRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// APIResponse is the envelope the backend answers with on both success and
// failure. Only the message is consumed.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DoctorsResponse is the body of GET /api/v1/user/doctors.
type DoctorsResponse struct {
	Success bool     `json:"success"`
	Doctors []Doctor `json:"doctors"`
}
