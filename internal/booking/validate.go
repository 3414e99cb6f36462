package booking

import (
	"strconv"
	"strings"

	"patient-portal/internal/models"
	"patient-portal/internal/utils"
)

const (
	nameRule   = "personname,min=3"
	dateRule   = "datetime=2006-01-02"
	genderRule = "oneof=" + models.GenderMale + " " + models.GenderFemale
)

type fieldRule struct {
	name  string
	value string
	// tag is a validator tag applied once the value is present; empty means
	// presence is all that is checked.
	tag string
}

// checkFields walks rules in order and stops at the first failure.
func checkFields(rules []fieldRule) *ValidationError {
	for _, r := range rules {
		if strings.TrimSpace(r.value) == "" {
			return missingField(r.name)
		}
		if r.tag != "" && utils.ValidateVar(r.value, r.tag) != nil {
			return invalidFormat(r.name)
		}
	}
	return nil
}

func checkName(field, value string) *ValidationError {
	if utils.ValidateVar(value, nameRule) != nil {
		return invalidName(field)
	}
	return nil
}

// Validate checks the form and returns the payload to submit. Checks run in a
// fixed order and stop at the first failure: first name, last name, the
// remaining required fields with their formats, then the doctor's department.
func (f *Form) Validate() (models.AppointmentRequest, error) {
	if !f.prefilledIdentityTrusted() {
		if err := checkName(FieldFirstName, f.identity.FirstName); err != nil {
			return models.AppointmentRequest{}, err
		}
		if err := checkName(FieldLastName, f.identity.LastName); err != nil {
			return models.AppointmentRequest{}, err
		}
	}

	var rules []fieldRule
	if f.includeIdentity() {
		rules = append(rules,
			fieldRule{FieldEmail, f.identity.Email, "email"},
			fieldRule{FieldPhone, f.identity.Phone, "phone"},
			fieldRule{FieldDOB, f.identity.DOB, dateRule},
			fieldRule{FieldGender, f.identity.Gender, genderRule},
		)
	}
	doctorID := ""
	if f.doctor != nil {
		doctorID = f.doctor.ID
	}
	rules = append(rules,
		fieldRule{FieldAppointmentDate, f.appointmentDate, dateRule},
		fieldRule{FieldDepartment, string(f.department), "department"},
		fieldRule{FieldDoctor, doctorID, ""},
		fieldRule{FieldAddress, f.address, ""},
	)
	if err := checkFields(rules); err != nil {
		return models.AppointmentRequest{}, err
	}

	if f.doctor.Department != f.department {
		return models.AppointmentRequest{}, doctorMismatch(string(f.department))
	}

	return f.ToPayload(), nil
}

// prefilledIdentityTrusted reports whether the names come straight from the
// session and cannot have been edited.
func (f *Form) prefilledIdentityTrusted() bool {
	return f.session != nil && !f.IdentityEditable() && f.cfg.Validation.AllowPrefilledIdentity
}

// ToPayload maps the form onto the wire body. hasVisited is always a real
// boolean whatever text the field held.
func (f *Form) ToPayload() models.AppointmentRequest {
	req := models.AppointmentRequest{
		AppointmentDate: f.appointmentDate,
		Department:      f.department,
		HasVisited:      truthy(f.hasVisited),
		Address:         f.address,
	}
	if f.doctor != nil {
		req.DoctorFirstName = f.doctor.FirstName
		req.DoctorLastName = f.doctor.LastName
	}
	if f.includeIdentity() {
		identity := f.identity
		req.IdentityPayload = &identity
	}
	return req
}

// truthy interprets checkbox-style input: "", "false", "0", "off" and "no"
// are false, anything else is true.
func truthy(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	switch v {
	case "", "off", "no":
		return false
	}
	return true
}
