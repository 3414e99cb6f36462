package booking

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a form failed validation.
type ErrorKind string

const (
	KindInvalidName              ErrorKind = "InvalidName"
	KindMissingField             ErrorKind = "MissingField"
	KindInvalidFormat            ErrorKind = "InvalidFormat"
	KindDoctorDepartmentMismatch ErrorKind = "DoctorDepartmentMismatch"
)

var (
	ErrFieldReadOnly      = errors.New("field is read-only")
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownDoctor      = errors.New("doctor is not in the directory")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
)

// ValidationError is the first rule a form broke. It blocks submission and
// never reaches the network.
type ValidationError struct {
	Kind  ErrorKind
	Field string
	// Message is the text shown to the user.
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var fieldLabels = map[string]string{
	FieldFirstName:       "First Name",
	FieldLastName:        "Last Name",
	FieldEmail:           "Email",
	FieldPhone:           "Mobile Number",
	FieldDOB:             "Date of Birth",
	FieldGender:          "Gender",
	FieldAppointmentDate: "Appointment Date",
	FieldDepartment:      "Department",
	FieldDoctor:          "Doctor",
	FieldAddress:         "Address",
	FieldMessage:         "Message",
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

func invalidName(field string) *ValidationError {
	return &ValidationError{
		Kind:    KindInvalidName,
		Field:   field,
		Message: fmt.Sprintf("%s must be at least 3 characters and contain only letters.", label(field)),
	}
}

func missingField(field string) *ValidationError {
	return &ValidationError{
		Kind:    KindMissingField,
		Field:   field,
		Message: fmt.Sprintf("%s is required.", label(field)),
	}
}

func invalidFormat(field string) *ValidationError {
	return &ValidationError{
		Kind:    KindInvalidFormat,
		Field:   field,
		Message: fmt.Sprintf("Please provide a valid %s.", label(field)),
	}
}

func doctorMismatch(department string) *ValidationError {
	return &ValidationError{
		Kind:    KindDoctorDepartmentMismatch,
		Field:   FieldDoctor,
		Message: fmt.Sprintf("Selected doctor does not work in %s.", department),
	}
}
