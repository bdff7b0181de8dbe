package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/abgdnv/fridgekeeper/pkg/messaging"
	"github.com/abgdnv/fridgekeeper/pkg/messaging/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event messaging.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func Test_Text(t *testing.T) {
	expiration := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name      string
		remaining int
		expected  string
	}{
		{name: "several days left", remaining: 2, expected: "Milk expires on 2024-02-20 (in 2 days)"},
		{name: "one day left", remaining: 1, expected: "Milk expires on 2024-02-20 (in 1 day)"},
		{name: "expires today", remaining: 0, expected: "Milk expires on 2024-02-20 (today)"},
		{name: "expired yesterday", remaining: -1, expected: "Milk expires on 2024-02-20 (1 day ago)"},
		{name: "expired long ago", remaining: -10, expected: "Milk expires on 2024-02-20 (10 days ago)"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Text("Milk", expiration, tc.remaining))
		})
	}
}

func Test_NewMessage(t *testing.T) {
	owner := uuid.New()
	product, err := inventory.NewProduct("8801234567890", "Milk", "dairy", "20240220")
	require.NoError(t, err)

	msg := NewMessage(owner, product, time.Date(2024, time.February, 18, 9, 0, 0, 0, time.UTC))

	assert.Equal(t, owner, msg.Owner)
	assert.Equal(t, "8801234567890", msg.Barcode)
	assert.Equal(t, "Milk", msg.Name)
	assert.Equal(t, 2, msg.RemainingDays)
	assert.Equal(t, "Milk expires on 2024-02-20 (in 2 days)", msg.Text)
}

func Test_LogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	notifier := NewLogNotifier(logger)
	owner := uuid.New()

	err := notifier.Notify(context.Background(), Message{Owner: owner, Barcode: "A", Text: "Milk expires on 2024-02-20 (today)"})

	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "Milk expires on 2024-02-20 (today)", entry["msg"])
	assert.Equal(t, owner.String(), entry["owner_id"])
	assert.Equal(t, "A", entry["barcode"])
}

func Test_EventNotifier_Notify(t *testing.T) {
	owner := uuid.New()
	now := time.Date(2024, time.February, 18, 8, 0, 0, 0, time.UTC)
	msg := Message{
		Owner:          owner,
		Barcode:        "A",
		Name:           "Milk",
		ExpirationDate: time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC),
		RemainingDays:  2,
		Text:           "Milk expires on 2024-02-20 (in 2 days)",
	}

	t.Run("publishes event", func(t *testing.T) {
		// given
		publisher := new(mockPublisher)
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e messaging.Event) bool {
			event, ok := e.(events.ProductExpiringEvent)
			return ok &&
				event.OwnerID == owner.String() &&
				event.Barcode == "A" &&
				event.ExpirationDate == "20240220" &&
				event.RemainingDays == 2 &&
				event.CreatedAt.Equal(now) &&
				event.EventID != uuid.Nil
		})).Return(nil).Once()
		notifier := NewEventNotifier(publisher)
		notifier.now = func() time.Time { return now }

		// when
		err := notifier.Notify(context.Background(), msg)

		// then
		require.NoError(t, err)
		publisher.AssertExpectations(t)
	})

	t.Run("publish failure", func(t *testing.T) {
		publisher := new(mockPublisher)
		publishErr := errors.New("nats down")
		publisher.On("Publish", mock.Anything, mock.Anything).Return(publishErr).Once()
		notifier := NewEventNotifier(publisher)

		err := notifier.Notify(context.Background(), msg)

		assert.ErrorIs(t, err, publishErr)
		publisher.AssertExpectations(t)
	})
}

func Test_fromEvent(t *testing.T) {
	owner := uuid.New()
	testCases := []struct {
		name         string
		event        events.ProductExpiringEvent
		expectedText string
		expectError  bool
	}{
		{
			name: "text carried over",
			event: events.ProductExpiringEvent{
				OwnerID: owner.String(), Barcode: "A", Name: "Milk",
				ExpirationDate: "20240220", RemainingDays: 2, Text: "custom",
			},
			expectedText: "custom",
		},
		{
			name: "text rebuilt when missing",
			event: events.ProductExpiringEvent{
				OwnerID: owner.String(), Barcode: "A", Name: "Milk",
				ExpirationDate: "20240220", RemainingDays: 0,
			},
			expectedText: "Milk expires on 2024-02-20 (today)",
		},
		{
			name:        "invalid owner",
			event:       events.ProductExpiringEvent{OwnerID: "nope", ExpirationDate: "20240220"},
			expectError: true,
		},
		{
			name:        "invalid date",
			event:       events.ProductExpiringEvent{OwnerID: owner.String(), ExpirationDate: "2024"},
			expectError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := fromEvent(tc.event)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, owner, msg.Owner)
			assert.Equal(t, tc.expectedText, msg.Text)
		})
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
