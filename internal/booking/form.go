package booking

import (
	"fmt"

	"patient-portal/internal/models"
)

// Form field names. They match the wire names where one exists.
const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldDOB             = "dob"
	FieldGender          = "gender"
	FieldAppointmentDate = "appointment_date"
	FieldDepartment      = "department"
	FieldDoctor          = "doctor"
	FieldHasVisited      = "hasVisited"
	FieldAddress         = "address"
	FieldMessage         = "message"
)

// IdentitySource says where the patient identity of a form comes from.
type IdentitySource string

const (
	IdentityFromSelf    IdentitySource = "self"
	IdentityFromSession IdentitySource = "session"
)

// ValidationOptions tunes Validate.
type ValidationOptions struct {
	// AllowPrefilledIdentity skips the name rules for read-only identities taken from
	// the session; they were checked when the account was created.
	AllowPrefilledIdentity bool
}

// FormConfig selects one of the booking form variants.
type FormConfig struct {
	IdentitySource           IdentitySource
	IdentityEditable         bool
	IncludeIdentityInPayload bool
	Validation               ValidationOptions
}

// SelfServiceConfig is the anonymous form: the patient types everything.
func SelfServiceConfig() FormConfig {
	return FormConfig{
		IdentitySource:           IdentityFromSelf,
		IdentityEditable:         true,
		IncludeIdentityInPayload: true,
	}
}

// SessionConfig pre-fills the identity from the logged-in user. With
// editable false the identity is read-only and left out of the payload.
func SessionConfig(editable bool) FormConfig {
	return FormConfig{
		IdentitySource:           IdentityFromSession,
		IdentityEditable:         editable,
		IncludeIdentityInPayload: editable,
		Validation:               ValidationOptions{AllowPrefilledIdentity: !editable},
	}
}

// Form is the state of one in-progress appointment request.
type Form struct {
	cfg     FormConfig
	session *models.IdentityPayload

	identity        models.IdentityPayload
	appointmentDate string
	department      models.Department
	doctor          *models.Doctor
	hasVisited      string
	address         string

	doctors []models.Doctor
}

// State is a read-only snapshot of a form for rendering.
type State struct {
	IdentitySource   IdentitySource         `json:"identitySource"`
	IdentityEditable bool                   `json:"identityEditable"`
	Identity         models.IdentityPayload `json:"identity"`
	AppointmentDate  string                 `json:"appointment_date"`
	Department       models.Department      `json:"department"`
	Doctor           *models.Doctor         `json:"doctor"`
	HasVisited       bool                   `json:"hasVisited"`
	Address          string                 `json:"address"`
	Doctors          []models.Doctor        `json:"doctors"`
	Submitting       bool                   `json:"submitting"`
}

// NewForm initializes a form. A session identity is only used when cfg asks
// for one; a session-sourced config without a logged-in user falls back to a
// self-service form.
func NewForm(cfg FormConfig, identity *models.PatientIdentity) *Form {
	f := &Form{cfg: cfg}
	if cfg.IdentitySource == IdentityFromSession && identity != nil {
		f.session = &models.IdentityPayload{
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
			Email:     identity.Email,
			Phone:     identity.Phone,
			DOB:       identity.DOB,
			Gender:    identity.Gender,
		}
	}
	f.Reset()
	return f
}

// SessionSourced reports whether the identity was pre-filled from a session.
func (f *Form) SessionSourced() bool {
	return f.session != nil
}

// IdentityEditable reports whether identity fields accept writes.
func (f *Form) IdentityEditable() bool {
	return f.session == nil || f.cfg.IdentityEditable
}

func (f *Form) includeIdentity() bool {
	return f.session == nil || f.cfg.IncludeIdentityInPayload
}

// SetDoctors installs the directory the form selects doctors from.
func (f *Form) SetDoctors(doctors []models.Doctor) {
	f.doctors = append([]models.Doctor(nil), doctors...)
}

// Doctors returns the full directory.
func (f *Form) Doctors() []models.Doctor {
	return append([]models.Doctor(nil), f.doctors...)
}

// AvailableDoctors returns the doctors of the selected department.
func (f *Form) AvailableDoctors() []models.Doctor {
	return ListDoctorsForDepartment(f.doctors, f.department)
}

// Department returns the selected department.
func (f *Form) Department() models.Department {
	return f.department
}

// Doctor returns the selected doctor, or nil.
func (f *Form) Doctor() *models.Doctor {
	if f.doctor == nil {
		return nil
	}
	d := *f.doctor
	return &d
}

// SetField updates one field. Setting the department always clears the
// doctor selection, since the doctor list is filtered by department.
func (f *Form) SetField(name, value string) error {
	switch name {
	case FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldDOB, FieldGender:
		if !f.IdentityEditable() {
			return fmt.Errorf("%s: %w", name, ErrFieldReadOnly)
		}
		f.setIdentity(name, value)
	case FieldAppointmentDate:
		f.appointmentDate = value
	case FieldDepartment:
		f.department = models.Department(value)
		f.doctor = nil
	case FieldDoctor:
		return f.SelectDoctor(value)
	case FieldHasVisited:
		f.hasVisited = value
	case FieldAddress:
		f.address = value
	default:
		return fmt.Errorf("%s: %w", name, ErrUnknownField)
	}
	return nil
}

func (f *Form) setIdentity(name, value string) {
	switch name {
	case FieldFirstName:
		f.identity.FirstName = value
	case FieldLastName:
		f.identity.LastName = value
	case FieldEmail:
		f.identity.Email = value
	case FieldPhone:
		f.identity.Phone = value
	case FieldDOB:
		f.identity.DOB = value
	case FieldGender:
		f.identity.Gender = value
	}
}

// SelectDoctor picks a doctor by directory ID. An empty id clears the
// selection. The doctor's department is checked by Validate, not here.
func (f *Form) SelectDoctor(id string) error {
	if id == "" {
		f.doctor = nil
		return nil
	}
	for i := range f.doctors {
		if f.doctors[i].ID == id {
			d := f.doctors[i]
			f.doctor = &d
			return nil
		}
	}
	return fmt.Errorf("doctor %q: %w", id, ErrUnknownDoctor)
}

// Reset restores booking fields to their defaults and the identity to the
// session values, or empty without a session.
func (f *Form) Reset() {
	f.appointmentDate = ""
	f.department = models.DefaultDepartment()
	f.doctor = nil
	f.hasVisited = ""
	f.address = ""
	if f.session != nil {
		f.identity = *f.session
	} else {
		f.identity = models.IdentityPayload{}
	}
}

// State snapshots the form.
func (f *Form) State() State {
	source := IdentityFromSelf
	if f.session != nil {
		source = IdentityFromSession
	}
	return State{
		IdentitySource:   source,
		IdentityEditable: f.IdentityEditable(),
		Identity:         f.identity,
		AppointmentDate:  f.appointmentDate,
		Department:       f.department,
		Doctor:           f.Doctor(),
		HasVisited:       truthy(f.hasVisited),
		Address:          f.address,
		Doctors:          f.AvailableDoctors(),
	}
}

// ListDoctorsForDepartment returns the doctors whose department equals
// department, in directory order.
func ListDoctorsForDepartment(doctors []models.Doctor, department models.Department) []models.Doctor {
	out := make([]models.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if d.Department == department {
			out = append(out, d)
		}
	}
	return out
}
