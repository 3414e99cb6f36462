package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"patient-portal/internal/models"
)

const (
	DefaultBaseURL = "https://hms-backend-deployed-f9l0.onrender.com"
	defaultTimeout = 15 * time.Second

	doctorsPath     = "/api/v1/user/doctors"
	appointmentPath = "/api/v1/appointment/post"
	messagePath     = "/api/v1/message/send"
)

// NetworkError means the request could not be sent or its response could not
// be read or decoded.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx answer. Message is the backend's "message" field,
// empty when the body carried none.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hospital API returned %d", e.Status)
	}
	return fmt.Sprintf("hospital API returned %d: %s", e.Status, e.Message)
}

// UserMessage picks the text to show the user for a failed call: the server's
// message when it sent one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}
	return fallback
}

// Client talks to the hospital backend. Cookies set by the backend are kept
// and sent back on every call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// New constructs a backend client. An empty baseURL selects DefaultBaseURL and
// a non-positive timeout selects 15s.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With().Str("component", "hospital_client").Logger(),
	}, nil
}

// FetchDoctors returns the doctor directory in backend order, each entry
// carrying a stable ID.
func (c *Client) FetchDoctors(ctx context.Context) ([]models.Doctor, error) {
	var resp models.DoctorsResponse
	if err := c.doJSON(ctx, http.MethodGet, doctorsPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch doctors: %w", err)
	}
	doctors := resp.Doctors
	if doctors == nil {
		doctors = []models.Doctor{}
	}
	models.AssignDoctorIDs(doctors)
	return doctors, nil
}

// SubmitAppointment posts an appointment and returns the backend's message.
func (c *Client) SubmitAppointment(ctx context.Context, req models.AppointmentRequest) (string, error) {
	var resp models.APIResponse
	if err := c.doJSON(ctx, http.MethodPost, appointmentPath, req, &resp); err != nil {
		return "", fmt.Errorf("submit appointment: %w", err)
	}
	return resp.Message, nil
}

// SendMessage posts a contact message and returns the backend's message.
func (c *Client) SendMessage(ctx context.Context, req models.MessageRequest) (string, error) {
	var resp models.APIResponse
	if err := c.doJSON(ctx, http.MethodPost, messagePath, req, &resp); err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return resp.Message, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Op: "marshal request", Err: err}
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return &NetworkError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "http request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody models.APIResponse
		_ = json.Unmarshal(respBody, &errBody)
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Str("message", errBody.Message).Msg("hospital API non-2xx response")
		return &ServerError{Status: resp.StatusCode, Message: errBody.Message}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &NetworkError{Op: "decode response", Err: err}
	}
	return nil
}
