package event

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
)

const DefaultTimeout = 5 * time.Second

type Helper struct {
	pool *pgxpool.Pool
}

func NewHelper(pool *pgxpool.Pool) *Helper {
	return &Helper{pool: pool}
}

func table(stream string) string {
	return "watermill_" + stream
}

// WaitForEvent polls the outbox table of stream until an event named
// eventName shows up.
func (h *Helper) WaitForEvent(t *testing.T, stream, eventName string, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if h.countEvents(t, stream, eventName) > 0 {
			return
		}
		select {
		case <-ctx.Done():
			t.Fatalf("timeout waiting for event %s in %s", eventName, stream)
		case <-ticker.C:
		}
	}
}

func (h *Helper) countEvents(t *testing.T, stream, eventName string) int {
	t.Helper()

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE metadata->>'name' = $1`, table(stream))
	err := h.pool.QueryRow(context.Background(), query, eventName).Scan(&count)
	require.NoError(t, err)
	return count
}

// AssertEvent returns the latest event named eventName from stream.
func (h *Helper) AssertEvent(t *testing.T, stream, eventName string) *EventAssertion {
	t.Helper()

	h.WaitForEvent(t, stream, eventName, DefaultTimeout)

	var (
		payload  json.RawMessage
		metadata json.RawMessage
		offset   int64
	)
	query := fmt.Sprintf(`
        SELECT payload, metadata, "offset"
        FROM %s
        WHERE metadata->>'name' = $1
        ORDER BY "offset" DESC
        LIMIT 1
    `, table(stream))

	err := h.pool.QueryRow(context.Background(), query, eventName).Scan(&payload, &metadata, &offset)
	require.NoError(t, err, "event %s not found", eventName)

	return &EventAssertion{
		t:         t,
		eventName: eventName,
		payload:   payload,
		metadata:  metadata,
		offset:    offset,
	}
}

func (h *Helper) AssertNoEvent(t *testing.T, stream, eventName string) {
	t.Helper()

	count := h.countEvents(t, stream, eventName)
	assert.Equal(t, 0, count, "expected no %s events, but found %d", eventName, count)
}

func (h *Helper) AssertEventCount(t *testing.T, stream, eventName string, expected int) {
	t.Helper()
	assert.Equal(t, expected, h.countEvents(t, stream, eventName), "unexpected %s event count", eventName)
}

func (h *Helper) AssertAccountCreated(t *testing.T, email string) *user.AccountCreated {
	t.Helper()

	var e user.AccountCreated
	h.AssertEvent(t, user.EventStreamName, "user.AccountCreated").Parse(&e)
	assert.Equal(t, email, e.Email, "unexpected email in AccountCreated")
	assert.False(t, e.UserID.IsZero(), "AccountCreated without user id")

	return &e
}

func (h *Helper) AssertEmailRequested(t *testing.T, email string) *verification.EmailRequested {
	t.Helper()

	var e verification.EmailRequested
	h.AssertEvent(t, verification.MailStreamName, "verification.EmailRequested").Parse(&e)
	assert.Equal(t, email, e.Email, "unexpected email in EmailRequested")
	assert.NotEmpty(t, e.Code, "EmailRequested without code")

	return &e
}

type EventAssertion struct {
	t         *testing.T
	eventName string
	payload   json.RawMessage
	metadata  json.RawMessage
	offset    int64
}

func (a *EventAssertion) Parse(event any) *EventAssertion {
	a.t.Helper()
	err := json.Unmarshal(a.payload, event)
	require.NoError(a.t, err, "failed to parse event payload")
	return a
}

func (a *EventAssertion) HasField(field string, expected any) *EventAssertion {
	a.t.Helper()

	var data map[string]any
	err := json.Unmarshal(a.payload, &data)
	require.NoError(a.t, err)

	actual, exists := data[field]
	require.True(a.t, exists, "field %s not found in event", field)
	assert.Equal(a.t, expected, actual, "unexpected value for field %s", field)

	return a
}

func (a *EventAssertion) GetPayload() json.RawMessage {
	return a.payload
}

type EventRecord struct {
	Offset   int64
	Payload  json.RawMessage
	Metadata json.RawMessage
}

func (h *Helper) GetEventStream(t *testing.T, stream string) []EventRecord {
	t.Helper()

	query := fmt.Sprintf(`SELECT "offset", payload, metadata FROM %s ORDER BY "offset"`, table(stream))
	rows, err := h.pool.Query(context.Background(), query)
	require.NoError(t, err)
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		require.NoError(t, rows.Scan(&e.Offset, &e.Payload, &e.Metadata))
		events = append(events, e)
	}
	require.NoError(t, rows.Err())

	return events
}

// ClearStream removes published events. Consumer offsets are kept, so only
// clear a stream when no subscriber is mid-way through it.
func (h *Helper) ClearStream(t *testing.T, stream string) {
	t.Helper()

	_, err := h.pool.Exec(context.Background(), fmt.Sprintf("DELETE FROM %s", table(stream)))
	require.NoError(t, err)
}
