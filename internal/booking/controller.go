package booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"patient-portal/internal/client"
	"patient-portal/internal/metrics"
	"patient-portal/internal/models"
	"patient-portal/internal/notify"
)

// User-visible texts.
const (
	MsgDoctorsUnavailable  = "Failed to fetch doctors"
	MsgAppointmentSent     = "Appointment sent successfully!"
	MsgAppointmentFallback = "Something went wrong"
	MsgMessageSent         = "Message sent successfully!"
	MsgMessageFallback     = "Something went wrong. Please check your connection and try again."
)

// DoctorDirectory lists the doctors patients can book with.
type DoctorDirectory interface {
	FetchDoctors(ctx context.Context) ([]models.Doctor, error)
}

// AppointmentPoster creates appointments and returns the backend's message.
type AppointmentPoster interface {
	SubmitAppointment(ctx context.Context, req models.AppointmentRequest) (string, error)
}

// MessagePoster sends contact messages and returns the backend's message.
type MessagePoster interface {
	SendMessage(ctx context.Context, req models.MessageRequest) (string, error)
}

// Deps are the collaborators shared by the form controllers.
type Deps struct {
	Notifier notify.Notifier
	Metrics  *metrics.PortalMetrics
	Logger   zerolog.Logger
}

func (d Deps) notifier() notify.Notifier {
	if d.Notifier == nil {
		return notify.Multi{}
	}
	return d.Notifier
}

func outcomeOf(err error) string {
	var validationErr *ValidationError
	var serverErr *client.ServerError
	switch {
	case errors.As(err, &validationErr):
		return metrics.OutcomeValidation
	case errors.As(err, &serverErr):
		return metrics.OutcomeServer
	default:
		return metrics.OutcomeNetwork
	}
}

// AppointmentController owns one mounted booking form. Edits, submit and
// reset are serialized; a second submit while one is in flight is refused.
type AppointmentController struct {
	mu         sync.Mutex
	form       *Form
	poster     AppointmentPoster
	deps       Deps
	submitting atomic.Bool
}

// MountAppointment creates a form and fetches the doctor directory once. A
// failed fetch is reported through the notifier and leaves the list empty.
func MountAppointment(ctx context.Context, cfg FormConfig, identity *models.PatientIdentity, directory DoctorDirectory, poster AppointmentPoster, deps Deps) *AppointmentController {
	c := &AppointmentController{
		form:   NewForm(cfg, identity),
		poster: poster,
		deps:   deps,
	}

	doctors, err := directory.FetchDoctors(ctx)
	if err != nil {
		deps.Logger.Warn().Err(err).Msg("doctor directory unavailable")
		deps.Metrics.ObserveDirectoryFetch(outcomeOf(err))
		notify.Error(deps.notifier(), MsgDoctorsUnavailable)
		return c
	}
	deps.Metrics.ObserveDirectoryFetch(metrics.OutcomeSuccess)
	c.form.SetDoctors(doctors)
	return c
}

// Edit runs fn against the form while holding the form lock.
func (c *AppointmentController) Edit(fn func(f *Form) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.form)
}

// State snapshots the form, including whether a submit is in flight.
func (c *AppointmentController) State() State {
	c.mu.Lock()
	st := c.form.State()
	c.mu.Unlock()
	st.Submitting = c.submitting.Load()
	return st
}

// Doctors returns the mounted directory filtered by department.
func (c *AppointmentController) Doctors(department models.Department) []models.Doctor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ListDoctorsForDepartment(c.form.doctors, department)
}

// Reset restores the form defaults.
func (c *AppointmentController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Reset()
}

// Submitting reports whether a submission is in flight.
func (c *AppointmentController) Submitting() bool {
	return c.submitting.Load()
}

// Submit validates the form and posts it. Every outcome is reported through
// the notifier; the returned message is the success text. The form is reset
// only after the backend accepted the appointment.
func (c *AppointmentController) Submit(ctx context.Context) (string, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		c.deps.Metrics.ObserveSubmission(metrics.FormAppointment, metrics.OutcomeInFlight)
		return "", ErrSubmissionInFlight
	}
	defer c.submitting.Store(false)

	c.mu.Lock()
	payload, err := c.form.Validate()
	c.mu.Unlock()
	if err != nil {
		c.deps.Metrics.ObserveSubmission(metrics.FormAppointment, metrics.OutcomeValidation)
		notify.Error(c.deps.notifier(), err.Error())
		return "", err
	}

	start := time.Now()
	msg, err := c.poster.SubmitAppointment(ctx, payload)
	c.deps.Metrics.ObserveSubmitLatency(metrics.FormAppointment, time.Since(start).Seconds())
	if err != nil {
		c.deps.Logger.Warn().Err(err).Str("department", string(payload.Department)).Msg("appointment submission failed")
		c.deps.Metrics.ObserveSubmission(metrics.FormAppointment, outcomeOf(err))
		notify.Error(c.deps.notifier(), client.UserMessage(err, MsgAppointmentFallback))
		return "", err
	}

	if msg == "" {
		msg = MsgAppointmentSent
	}
	c.deps.Metrics.ObserveSubmission(metrics.FormAppointment, metrics.OutcomeSuccess)
	notify.Success(c.deps.notifier(), msg)

	c.mu.Lock()
	c.form.Reset()
	c.mu.Unlock()
	return msg, nil
}

// MessageController owns the contact form.
type MessageController struct {
	mu         sync.Mutex
	form       *MessageForm
	poster     MessagePoster
	deps       Deps
	submitting atomic.Bool
}

func NewMessageController(poster MessagePoster, deps Deps) *MessageController {
	return &MessageController{form: NewMessageForm(), poster: poster, deps: deps}
}

// Edit runs fn against the form while holding the form lock.
func (c *MessageController) Edit(fn func(m *MessageForm) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.form)
}

func (c *MessageController) State() MessageState {
	c.mu.Lock()
	st := c.form.State()
	c.mu.Unlock()
	st.Submitting = c.submitting.Load()
	return st
}

// Submit validates and sends the message, resetting the form on success.
func (c *MessageController) Submit(ctx context.Context) (string, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		c.deps.Metrics.ObserveSubmission(metrics.FormMessage, metrics.OutcomeInFlight)
		return "", ErrSubmissionInFlight
	}
	defer c.submitting.Store(false)

	c.mu.Lock()
	payload, err := c.form.Validate()
	c.mu.Unlock()
	if err != nil {
		c.deps.Metrics.ObserveSubmission(metrics.FormMessage, metrics.OutcomeValidation)
		notify.Error(c.deps.notifier(), err.Error())
		return "", err
	}

	start := time.Now()
	msg, err := c.poster.SendMessage(ctx, payload)
	c.deps.Metrics.ObserveSubmitLatency(metrics.FormMessage, time.Since(start).Seconds())
	if err != nil {
		c.deps.Logger.Warn().Err(err).Msg("message submission failed")
		c.deps.Metrics.ObserveSubmission(metrics.FormMessage, outcomeOf(err))
		notify.Error(c.deps.notifier(), client.UserMessage(err, MsgMessageFallback))
		return "", err
	}

	if msg == "" {
		msg = MsgMessageSent
	}
	c.deps.Metrics.ObserveSubmission(metrics.FormMessage, metrics.OutcomeSuccess)
	notify.Success(c.deps.notifier(), msg)

	c.mu.Lock()
	c.form.Reset()
	c.mu.Unlock()
	return msg, nil
}
