package user

import (
	"gitlab.com/ucmsv2/accounts/internal/domain/event"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
)

const EventStreamName = "events_user"

type AccountCreated struct {
	event.Header
	event.Otel
	UserID ID        `json:"user_id"`
	Email  string    `json:"email"`
	Role   role.Role `json:"role"`
}

func (e *AccountCreated) GetStreamName() string {
	return EventStreamName
}

type EmailChanged struct {
	event.Header
	event.Otel
	UserID   ID     `json:"user_id"`
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}

func (e *EmailChanged) GetStreamName() string {
	return EventStreamName
}

type EmailVerified struct {
	event.Header
	event.Otel
	UserID ID     `json:"user_id"`
	Email  string `json:"email"`
}

func (e *EmailVerified) GetStreamName() string {
	return EventStreamName
}

type PasswordChanged struct {
	event.Header
	event.Otel
	UserID ID `json:"user_id"`
}

func (e *PasswordChanged) GetStreamName() string {
	return EventStreamName
}
