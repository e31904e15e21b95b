package verification

import (
	"gitlab.com/ucmsv2/accounts/internal/domain/event"
)

const MailStreamName = "events_mail"

// EmailRequested asks the mail application to deliver a verification code.
type EmailRequested struct {
	event.Header
	event.Otel
	Email string `json:"email"`
	Code  string `json:"code"`
}

func NewEmailRequested(email, code string) *EmailRequested {
	return &EmailRequested{
		Header: event.NewEventHeader(),
		Email:  email,
		Code:   code,
	}
}

func (e *EmailRequested) GetStreamName() string {
	return MailStreamName
}
