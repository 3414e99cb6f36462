package models

// Role enum
type Role string

// RolePatient is the role of everyone who signs in to the portal.
const RolePatient Role = "Patient"

// Gender values accepted by the booking form.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// User is the logged-in patient record held by the session. It mirrors the
// user object returned by the backend on login.
type User struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
	Address   string `json:"address,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// PatientIdentity holds the patient-identifying fields of a form.
type PatientIdentity struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`
}

// Identity extracts the identity fields from a user record.
func (u *User) Identity() PatientIdentity {
	return PatientIdentity{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		DOB:       u.DOB,
		Gender:    u.Gender,
		Address:   u.Address,
	}
}

// Clone returns a copy so callers cannot mutate the session's record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
