package booking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patient-portal/internal/client"
	"patient-portal/internal/metrics"
	"patient-portal/internal/models"
	"patient-portal/internal/notify"
)

type fakeDirectory struct {
	doctors []models.Doctor
	err     error
	calls   int
}

func (f *fakeDirectory) FetchDoctors(context.Context) ([]models.Doctor, error) {
	f.calls++
	return f.doctors, f.err
}

type fakePoster struct {
	mu       sync.Mutex
	message  string
	err      error
	calls    int32
	received []models.AppointmentRequest
	messages []models.MessageRequest
	block    chan struct{}
}

func (f *fakePoster) SubmitAppointment(_ context.Context, req models.AppointmentRequest) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.received = append(f.received, req)
	f.mu.Unlock()
	return f.message, f.err
}

func (f *fakePoster) SendMessage(_ context.Context, req models.MessageRequest) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.messages = append(f.messages, req)
	f.mu.Unlock()
	return f.message, f.err
}

func testDeps(feed *notify.Feed) Deps {
	return Deps{
		Notifier: feed,
		Metrics:  metrics.NewPortalMetrics(prometheus.NewRegistry()),
		Logger:   zerolog.Nop(),
	}
}

func TestMountFetchesDirectoryOnce(t *testing.T) {
	dir := &fakeDirectory{doctors: directory()}
	feed := notify.NewFeed(10)
	c := MountAppointment(context.Background(), SelfServiceConfig(), nil, dir, &fakePoster{}, testDeps(feed))

	assert.Equal(t, 1, dir.calls)
	c.State()
	c.Doctors(models.DepartmentCardiology)
	assert.Equal(t, 1, dir.calls)
	assert.Len(t, c.Doctors(models.DepartmentCardiology), 3)
	assert.Empty(t, feed.Drain())
}

func TestMountDirectoryFailureNotifies(t *testing.T) {
	dir := &fakeDirectory{err: &client.NetworkError{Op: "http request", Err: errors.New("dial tcp: refused")}}
	feed := notify.NewFeed(10)
	c := MountAppointment(context.Background(), SelfServiceConfig(), nil, dir, &fakePoster{}, testDeps(feed))

	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, MsgDoctorsUnavailable, got[0].Message)
	assert.Empty(t, c.State().Doctors)
}

func TestSubmitShortNameMakesNoNetworkCall(t *testing.T) {
	poster := &fakePoster{message: "Appointment Sent!"}
	feed := notify.NewFeed(10)
	c := MountAppointment(context.Background(), SelfServiceConfig(), nil, &fakeDirectory{doctors: directory()}, poster, testDeps(feed))
	require.NoError(t, c.Edit(func(f *Form) error {
		fillValid(t, f)
		return f.SetField(FieldFirstName, "Al")
	}))

	_, err := c.Submit(context.Background())
	kind, _ := validationKind(t, err)
	assert.Equal(t, KindInvalidName, kind)
	assert.Zero(t, atomic.LoadInt32(&poster.calls))

	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "First Name must be at least 3 characters and contain only letters.", got[0].Message)
	assert.Equal(t, "Al", c.State().Identity.FirstName, "form keeps the user's input")
}

func TestSubmitCardiologyScenario(t *testing.T) {
	doctors := []models.Doctor{
		{FirstName: "Jane", LastName: "Doe", Department: models.DepartmentCardiology},
		{FirstName: "Sam", LastName: "Lee", Department: models.DepartmentDermatology},
	}
	models.AssignDoctorIDs(doctors)
	poster := &fakePoster{message: "Appointment Sent!"}
	feed := notify.NewFeed(10)
	c := MountAppointment(context.Background(), SelfServiceConfig(), nil, &fakeDirectory{doctors: doctors}, poster, testDeps(feed))

	cardiology := c.Doctors(models.DepartmentCardiology)
	require.Len(t, cardiology, 1)
	assert.Equal(t, "Jane", cardiology[0].FirstName)
	assert.Equal(t, "Doe", cardiology[0].LastName)

	require.NoError(t, c.Edit(func(f *Form) error {
		fillValid(t, f)
		require.NoError(t, f.SetField(FieldHasVisited, "on"))
		return f.SelectDoctor(cardiology[0].ID)
	}))

	msg, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Appointment Sent!", msg)

	require.Len(t, poster.received, 1)
	sent := poster.received[0]
	assert.Equal(t, models.DepartmentCardiology, sent.Department)
	assert.Equal(t, "Jane", sent.DoctorFirstName)
	assert.Equal(t, "Doe", sent.DoctorLastName)
	assert.True(t, sent.HasVisited)

	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelSuccess, got[0].Level)
	assert.Equal(t, "Appointment Sent!", got[0].Message)

	st := c.State()
	assert.Equal(t, models.DepartmentPediatrics, st.Department)
	assert.Nil(t, st.Doctor)
	assert.Empty(t, st.AppointmentDate)
	assert.False(t, st.HasVisited)
	assert.Empty(t, st.Identity.FirstName)
}

func TestSubmitSessionResetKeepsIdentity(t *testing.T) {
	poster := &fakePoster{}
	c := MountAppointment(context.Background(), SessionConfig(false), sessionIdentity(), &fakeDirectory{doctors: directory()}, poster, testDeps(notify.NewFeed(5)))
	require.NoError(t, c.Edit(func(f *Form) error {
		require.NoError(t, f.SetField(FieldAppointmentDate, "2026-11-02"))
		require.NoError(t, f.SetField(FieldDepartment, string(models.DepartmentCardiology)))
		require.NoError(t, f.SetField(FieldAddress, "9 Elm St"))
		return f.SelectDoctor(f.AvailableDoctors()[0].ID)
	}))

	msg, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgAppointmentSent, msg)

	require.Len(t, poster.received, 1)
	assert.Nil(t, poster.received[0].IdentityPayload)

	st := c.State()
	assert.Equal(t, "Bo", st.Identity.FirstName)
	assert.Equal(t, models.DepartmentPediatrics, st.Department)
	assert.Empty(t, st.Address)
}

func TestSubmitServerErrorKeepsFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/user/doctors" {
			_, _ = w.Write([]byte(`{"doctors":[{"firstName":"Jane","lastName":"Doe","doctorDepartment":"Cardiology"}]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"doctor not found"}`))
	}))
	t.Cleanup(ts.Close)
	api, err := client.New(ts.URL, time.Second, zerolog.Nop())
	require.NoError(t, err)

	feed := notify.NewFeed(10)
	c := MountAppointment(context.Background(), SelfServiceConfig(), nil, api, api, testDeps(feed))
	require.NoError(t, c.Edit(func(f *Form) error {
		fillValid(t, f)
		return nil
	}))
	before := c.State()

	_, err = c.Submit(context.Background())
	var serverErr *client.ServerError
	require.ErrorAs(t, err, &serverErr)

	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, "doctor not found", got[0].Message)
	assert.Equal(t, before, c.State())
}

func TestSubmitNetworkErrorUsesFallback(t *testing.T) {
	poster := &fakePoster{err: &client.NetworkError{Op: "http request", Err: errors.New("timeout")}}
	feed := notify.NewFeed(10)
	c := MountAppointment(context.Background(), SelfServiceConfig(), nil, &fakeDirectory{doctors: directory()}, poster, testDeps(feed))
	require.NoError(t, c.Edit(func(f *Form) error {
		fillValid(t, f)
		return nil
	}))

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgAppointmentFallback, got[0].Message)
	assert.Equal(t, models.DepartmentCardiology, c.State().Department)
}

func TestSubmitRefusedWhileInFlight(t *testing.T) {
	poster := &fakePoster{block: make(chan struct{})}
	c := MountAppointment(context.Background(), SelfServiceConfig(), nil, &fakeDirectory{doctors: directory()}, poster, testDeps(notify.NewFeed(10)))
	require.NoError(t, c.Edit(func(f *Form) error {
		fillValid(t, f)
		return nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&poster.calls) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, c.Submitting())
	assert.True(t, c.State().Submitting)

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Equal(t, int32(1), atomic.LoadInt32(&poster.calls))

	close(poster.block)
	require.NoError(t, <-done)
	assert.False(t, c.Submitting())
}

func TestMessageControllerSubmit(t *testing.T) {
	poster := &fakePoster{}
	feed := notify.NewFeed(10)
	c := NewMessageController(poster, testDeps(feed))

	require.NoError(t, c.Edit(func(m *MessageForm) error {
		for name, v := range map[string]string{
			FieldFirstName: "Alice",
			FieldLastName:  "Smith",
			FieldEmail:     "alice@example.com",
			FieldPhone:     "5551234567",
			FieldMessage:   "Do you take walk-ins?",
		} {
			if err := m.SetField(name, v); err != nil {
				return err
			}
		}
		return nil
	}))

	msg, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgMessageSent, msg)
	require.Len(t, poster.messages, 1)
	assert.Equal(t, "Do you take walk-ins?", poster.messages[0].Message)
	assert.Equal(t, MessageState{}, c.State())

	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgMessageSent, got[0].Message)
}

func TestMessageControllerValidation(t *testing.T) {
	poster := &fakePoster{}
	feed := notify.NewFeed(10)
	c := NewMessageController(poster, testDeps(feed))
	require.NoError(t, c.Edit(func(m *MessageForm) error {
		_ = m.SetField(FieldFirstName, "Alice")
		_ = m.SetField(FieldLastName, "Smith")
		_ = m.SetField(FieldEmail, "not-an-email")
		return nil
	}))

	_, err := c.Submit(context.Background())
	kind, field := validationKind(t, err)
	assert.Equal(t, KindInvalidFormat, kind)
	assert.Equal(t, FieldEmail, field)
	assert.Zero(t, atomic.LoadInt32(&poster.calls))
	assert.Equal(t, "Alice", c.State().FirstName)
	assert.ErrorIs(t, c.Edit(func(m *MessageForm) error { return m.SetField("subject", "x") }), ErrUnknownField)
}

func TestMessageControllerServerFallback(t *testing.T) {
	poster := &fakePoster{err: &client.ServerError{Status: http.StatusBadRequest}}
	feed := notify.NewFeed(10)
	c := NewMessageController(poster, testDeps(feed))
	require.NoError(t, c.Edit(func(m *MessageForm) error {
		_ = m.SetField(FieldFirstName, "Alice")
		_ = m.SetField(FieldLastName, "Smith")
		_ = m.SetField(FieldEmail, "alice@example.com")
		_ = m.SetField(FieldPhone, "5551234567")
		return m.SetField(FieldMessage, "hello")
	}))

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	got := feed.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgMessageFallback, got[0].Message)
	assert.Equal(t, "hello", c.State().Message)
}
