package mocks

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/mail"
)

type MockMailSender struct {
	*Faults
	mu        sync.Mutex
	sentMails []mail.Payload
}

func NewMockMailSender() *MockMailSender {
	return &MockMailSender{
		Faults:    NewFaults(),
		sentMails: make([]mail.Payload, 0),
	}
}

func (m *MockMailSender) SendMail(ctx context.Context, payload mail.Payload) error {
	if err := m.Fault("SendMail"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sentMails = append(m.sentMails, payload)
	return nil
}

func (m *MockMailSender) GetSentMails() []mail.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]mail.Payload{}, m.sentMails...)
}

func (m *MockMailSender) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sentMails = make([]mail.Payload, 0)
}

func (m *MockMailSender) AssertMailSent(t *testing.T, email, bodyContains string) {
	t.Helper()

	for _, sent := range m.GetSentMails() {
		if sent.To == email && strings.Contains(sent.Body, bodyContains) {
			return
		}
	}
	assert.Failf(t, "mail not sent", "expected mail to %s containing %q", email, bodyContains)
}

func (m *MockMailSender) AssertNoMailSent(t *testing.T) {
	t.Helper()
	assert.Empty(t, m.GetSentMails())
}
