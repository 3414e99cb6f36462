package handlers

import (
	"github.com/gin-gonic/gin"

	"patient-portal/internal/booking"
	"patient-portal/internal/utils"
)

// MessageHandler serves the contact form.
type MessageHandler struct {
	Controller *booking.MessageController
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(controller *booking.MessageController) *MessageHandler {
	return &MessageHandler{Controller: controller}
}

// SendMessageRequest is the whole contact form in one body.
type SendMessageRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// SendMessage fills the contact form from the body and submits it. The form
// keeps the input when the submission fails.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	err := h.Controller.Edit(func(m *booking.MessageForm) error {
		m.Reset()
		for _, f := range []struct{ name, value string }{
			{booking.FieldFirstName, req.FirstName},
			{booking.FieldLastName, req.LastName},
			{booking.FieldEmail, req.Email},
			{booking.FieldPhone, req.Phone},
			{booking.FieldMessage, req.Message},
		} {
			if err := m.SetField(f.name, f.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeFormError(c, err)
		return
	}

	msg, err := h.Controller.Submit(c.Request.Context())
	if err != nil {
		writeSubmitError(c, err, booking.MsgMessageFallback)
		return
	}
	utils.Created(c, msg, nil)
}

// GetMessageForm returns what the contact form currently holds.
func (h *MessageHandler) GetMessageForm(c *gin.Context) {
	utils.Success(c, "Message form", h.Controller.State())
}
