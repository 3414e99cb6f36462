package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/gin-gonic/gin"

	"patient-portal/internal/booking"
	"patient-portal/internal/client"
	"patient-portal/internal/config"
	"patient-portal/internal/middleware"
	"patient-portal/internal/models"
	"patient-portal/internal/session"
	"patient-portal/internal/utils"
)

// fieldOrder is the order PATCH applies fields in. Department goes before
// doctor so a request carrying both does not clear its own selection.
var fieldOrder = []string{
	booking.FieldFirstName,
	booking.FieldLastName,
	booking.FieldEmail,
	booking.FieldPhone,
	booking.FieldDOB,
	booking.FieldGender,
	booking.FieldAppointmentDate,
	booking.FieldDepartment,
	booking.FieldDoctor,
	booking.FieldHasVisited,
	booking.FieldAddress,
}

// AppointmentHandler serves the booking form. The form is mounted on first
// use and stays mounted until it is deleted or the session changes.
type AppointmentHandler struct {
	Directory booking.DoctorDirectory
	Poster    booking.AppointmentPoster
	Form      config.FormConfig
	Deps      booking.Deps

	mu         sync.Mutex
	controller *booking.AppointmentController
}

// NewAppointmentHandler creates a new AppointmentHandler and unmounts its
// form whenever the logged-in user changes.
func NewAppointmentHandler(sess *session.Context, directory booking.DoctorDirectory, poster booking.AppointmentPoster, form config.FormConfig, deps booking.Deps) *AppointmentHandler {
	h := &AppointmentHandler{
		Directory: directory,
		Poster:    poster,
		Form:      form,
		Deps:      deps,
	}
	sess.OnChange(func(*models.User) { h.unmount() })
	return h
}

// FormConfigFor picks the form variant for the current session.
func FormConfigFor(user *models.User, cfg config.FormConfig) booking.FormConfig {
	if user == nil {
		return booking.SelfServiceConfig()
	}
	fc := booking.SessionConfig(cfg.IdentityEditable)
	fc.IncludeIdentityInPayload = cfg.IncludeIdentityInPayload
	fc.Validation.AllowPrefilledIdentity = cfg.AllowPrefilledIdentity && !cfg.IdentityEditable
	return fc
}

// mounted returns the current form, mounting one for the request's user if
// needed. The directory fetch outlives the request that triggered it; the
// client's own timeout bounds it.
func (h *AppointmentHandler) mounted(c *gin.Context) *booking.AppointmentController {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.controller == nil {
		user, _ := middleware.GetCurrentUserFromContext(c)
		var identity *models.PatientIdentity
		if user != nil {
			id := user.Identity()
			identity = &id
		}
		ctx := context.WithoutCancel(c.Request.Context())
		h.controller = booking.MountAppointment(ctx, FormConfigFor(user, h.Form), identity, h.Directory, h.Poster, h.Deps)
	}
	return h.controller
}

func (h *AppointmentHandler) unmount() {
	h.mu.Lock()
	h.controller = nil
	h.mu.Unlock()
}

// GetForm returns the form state, mounting it if needed.
func (h *AppointmentHandler) GetForm(c *gin.Context) {
	utils.Success(c, "Appointment form", h.mounted(c).State())
}

// UpdateForm applies a map of field name to value. Fields are applied in form
// order and the first rejected field stops the update.
func (h *AppointmentHandler) UpdateForm(c *gin.Context) {
	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	ctrl := h.mounted(c)
	err := ctrl.Edit(func(f *booking.Form) error {
		for _, name := range fieldOrder {
			value, ok := fields[name]
			if !ok {
				continue
			}
			if err := f.SetField(name, value); err != nil {
				return err
			}
			delete(fields, name)
		}
		for name, value := range fields {
			if err := f.SetField(name, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeFormError(c, err)
		return
	}
	utils.Success(c, "Appointment form updated", ctrl.State())
}

// SelectDoctorRequest picks a doctor from the directory by id.
type SelectDoctorRequest struct {
	DoctorID string `json:"doctorId" validate:"required"`
}

// SelectDoctor sets the form's doctor.
func (h *AppointmentHandler) SelectDoctor(c *gin.Context) {
	var req SelectDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ctrl := h.mounted(c)
	if err := ctrl.Edit(func(f *booking.Form) error { return f.SelectDoctor(req.DoctorID) }); err != nil {
		writeFormError(c, err)
		return
	}
	utils.Success(c, "Doctor selected", ctrl.State())
}

// SubmitForm validates the form and books the appointment.
func (h *AppointmentHandler) SubmitForm(c *gin.Context) {
	ctrl := h.mounted(c)
	msg, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		writeSubmitError(c, err, booking.MsgAppointmentFallback)
		return
	}
	utils.Created(c, msg, ctrl.State())
}

// ResetForm restores the form defaults.
func (h *AppointmentHandler) ResetForm(c *gin.Context) {
	ctrl := h.mounted(c)
	ctrl.Reset()
	utils.Success(c, "Appointment form reset", ctrl.State())
}

// DeleteForm unmounts the form; the next request mounts a fresh one and
// fetches the directory again.
func (h *AppointmentHandler) DeleteForm(c *gin.Context) {
	h.unmount()
	utils.Success(c, "Appointment form closed", nil)
}

func writeFormError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrFieldReadOnly):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, booking.ErrUnknownDoctor):
		utils.NotFound(c, err.Error())
	default:
		utils.BadRequest(c, err.Error())
	}
}

func writeSubmitError(c *gin.Context, err error, fallback string) {
	var validationErr *booking.ValidationError
	var serverErr *client.ServerError
	var networkErr *client.NetworkError
	switch {
	case errors.As(err, &validationErr):
		utils.FieldError(c, validationErr.Field, validationErr.Message)
	case errors.Is(err, booking.ErrSubmissionInFlight):
		utils.Conflict(c, err.Error())
	case errors.As(err, &serverErr), errors.As(err, &networkErr):
		utils.BadGateway(c, client.UserMessage(err, fallback))
	default:
		utils.InternalServerError(c, fallback)
	}
}
