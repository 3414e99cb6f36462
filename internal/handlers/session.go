package handlers

import (
	"github.com/gin-gonic/gin"

	"patient-portal/internal/middleware"
	"patient-portal/internal/models"
	"patient-portal/internal/session"
	"patient-portal/internal/utils"
)

// SessionHandler exposes the signed-in user.
type SessionHandler struct {
	Session *session.Context
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sess *session.Context) *SessionHandler {
	return &SessionHandler{Session: sess}
}

// SessionResponse reports who is signed in.
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user"`
}

// SetSessionRequest is the user record the backend returned on login.
type SetSessionRequest struct {
	ID        string      `json:"_id"`
	FirstName string      `json:"firstName" validate:"required"`
	LastName  string      `json:"lastName" validate:"required"`
	Email     string      `json:"email" validate:"required,email"`
	Phone     string      `json:"phone" validate:"omitempty,phone"`
	DOB       string      `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender    string      `json:"gender" validate:"omitempty,oneof=Male Female"`
	Address   string      `json:"address"`
	Role      models.Role `json:"role"`
}

// GetSession returns the current user, if any.
func (h *SessionHandler) GetSession(c *gin.Context) {
	user, ok := middleware.GetCurrentUserFromContext(c)
	utils.Success(c, "Session", SessionResponse{Authenticated: ok, User: user})
}

// SetSession stores the signed-in user. A mounted booking form is discarded
// so the next one picks up the new identity.
func (h *SessionHandler) SetSession(c *gin.Context) {
	var req SetSessionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user := &models.User{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		DOB:       req.DOB,
		Gender:    req.Gender,
		Address:   req.Address,
		Role:      req.Role,
	}
	if user.Role == "" {
		user.Role = models.RolePatient
	}
	if err := h.Session.SetCurrentUser(c.Request.Context(), user); err != nil {
		utils.InternalServerError(c, "Failed to store session: "+err.Error())
		return
	}
	utils.Success(c, "Signed in", SessionResponse{Authenticated: true, User: h.Session.CurrentUser()})
}

// DeleteSession signs the user out.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.Session.Logout(c.Request.Context()); err != nil {
		utils.InternalServerError(c, "Failed to clear session: "+err.Error())
		return
	}
	utils.Success(c, "Signed out", SessionResponse{})
}
