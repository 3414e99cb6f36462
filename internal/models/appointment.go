package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Department is one of the fixed medical specialties appointments are routed to.
type Department string

const (
	DepartmentPediatrics    Department = "Pediatrics"
	DepartmentOrthopedics   Department = "Orthopedics"
	DepartmentCardiology    Department = "Cardiology"
	DepartmentNeurology     Department = "Neurology"
	DepartmentOncology      Department = "Oncology"
	DepartmentRadiology     Department = "Radiology"
	DepartmentPhysiotherapy Department = "Physiotherapy"
	DepartmentDermatology   Department = "Dermatology"
	DepartmentOpthalmology  Department = "Opthalmology"
	DepartmentGynecology    Department = "Gynecology"
	DepartmentOdontology    Department = "Odontology"
)

// departments lists every department in display order. The first entry is the
// form default.
var departments = [...]Department{
	DepartmentPediatrics,
	DepartmentOrthopedics,
	DepartmentCardiology,
	DepartmentNeurology,
	DepartmentOncology,
	DepartmentRadiology,
	DepartmentPhysiotherapy,
	DepartmentDermatology,
	DepartmentOpthalmology,
	DepartmentGynecology,
	DepartmentOdontology,
}

// Departments returns a fresh copy of the department enumeration.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments[:])
	return out
}

// DefaultDepartment is the department a new or reset form starts with.
func DefaultDepartment() Department {
	return departments[0]
}

// Valid reports whether d is one of the known departments.
func (d Department) Valid() bool {
	for _, known := range departments {
		if d == known {
			return true
		}
	}
	return false
}

// Doctor is one entry of the backend doctor directory.
type Doctor struct {
	ID         string     `json:"_id,omitempty"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Department Department `json:"doctorDepartment"`
}

// FullName is the display label used by selectors.
func (d Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

var doctorNamespace = uuid.MustParse("6f1c1c43-8f25-4b8e-9d59-2b7f4a1e0d11")

// AssignDoctorIDs gives every directory entry without a backend identifier a
// deterministic one derived from its position and fields, so two doctors
// sharing a name stay distinguishable.
func AssignDoctorIDs(doctors []Doctor) {
	for i := range doctors {
		if doctors[i].ID != "" {
			continue
		}
		seed := fmt.Sprintf("%d|%s|%s|%s", i, doctors[i].FirstName, doctors[i].LastName, doctors[i].Department)
		doctors[i].ID = uuid.NewSHA1(doctorNamespace, []byte(seed)).String()
	}
}

// IdentityPayload carries the identity part of an appointment request. It is
// left nil when the identity comes from the session and is not sent.
type IdentityPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
}

// AppointmentRequest is the wire body of POST /api/v1/appointment/post.
type AppointmentRequest struct {
	*IdentityPayload
	AppointmentDate string     `json:"appointment_date"`
	Department      Department `json:"department"`
	DoctorFirstName string     `json:"doctor_firstName"`
	DoctorLastName  string     `json:"doctor_lastName"`
	HasVisited      bool       `json:"hasVisited"`
	Address         string     `json:"address"`
}
