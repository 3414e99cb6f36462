package booking

import (
	"fmt"

	"patient-portal/internal/models"
)

// MessageForm is the contact form: who is writing and what they say.
type MessageForm struct {
	firstName string
	lastName  string
	email     string
	phone     string
	message   string
}

// MessageState is a snapshot of a MessageForm.
type MessageState struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
	Submitting bool   `json:"submitting"`
}

func NewMessageForm() *MessageForm {
	return &MessageForm{}
}

func (m *MessageForm) SetField(name, value string) error {
	switch name {
	case FieldFirstName:
		m.firstName = value
	case FieldLastName:
		m.lastName = value
	case FieldEmail:
		m.email = value
	case FieldPhone:
		m.phone = value
	case FieldMessage:
		m.message = value
	default:
		return fmt.Errorf("%s: %w", name, ErrUnknownField)
	}
	return nil
}

// Validate requires every field and checks the email and phone formats.
func (m *MessageForm) Validate() (models.MessageRequest, error) {
	err := checkFields([]fieldRule{
		{FieldFirstName, m.firstName, ""},
		{FieldLastName, m.lastName, ""},
		{FieldEmail, m.email, "email"},
		{FieldPhone, m.phone, "phone"},
		{FieldMessage, m.message, ""},
	})
	if err != nil {
		return models.MessageRequest{}, err
	}
	return m.ToPayload(), nil
}

func (m *MessageForm) ToPayload() models.MessageRequest {
	return models.MessageRequest{
		FirstName: m.firstName,
		LastName:  m.lastName,
		Email:     m.email,
		Phone:     m.phone,
		Message:   m.message,
	}
}

func (m *MessageForm) Reset() {
	*m = MessageForm{}
}

func (m *MessageForm) State() MessageState {
	return MessageState{
		FirstName: m.firstName,
		LastName:  m.lastName,
		Email:     m.email,
		Phone:     m.phone,
		Message:   m.message,
	}
}
