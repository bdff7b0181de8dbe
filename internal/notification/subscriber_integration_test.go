package notification

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/fridgekeeper/pkg/config"
	"github.com/abgdnv/fridgekeeper/pkg/messaging"
	pnats "github.com/abgdnv/fridgekeeper/pkg/nats"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"golang.org/x/sync/errgroup"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "FRIDGE_SVC_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// recordingNotifier keeps every delivered message.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []Message
}

func (r *recordingNotifier) Notify(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingNotifier) received() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

type SubscriberSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *SubscriberSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	s.nc, err = pnats.NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to create JetStream context")
}

func (s *SubscriberSuite) TearDownSuite() {
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestSubscriberIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(SubscriberSuite))
}

func (s *SubscriberSuite) TestPublishAndDeliver() {
	// given
	streamName := "STREAM_" + uuid.NewString()[:8]
	subject := messaging.ProductsExpiringSubject
	consumerName := "CONSUMER_" + uuid.NewString()[:8]

	_, err := pnats.EnsureStream(s.ctx, s.js, streamName, subject)
	require.NoError(s.T(), err)
	// second call finds the existing stream
	_, err = pnats.EnsureStream(s.ctx, s.js, streamName, subject)
	require.NoError(s.T(), err)

	testCtx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	g, gCtx := errgroup.WithContext(testCtx)
	s.T().Cleanup(func() {
		cancel()
		err := g.Wait()
		require.ErrorIs(s.T(), err, context.Canceled)
	})

	recorder := &recordingNotifier{}
	g.Go(func() error {
		return Start(gCtx, s.js, config.SubscriberConfig{
			Stream:   streamName,
			Subject:  subject,
			Consumer: consumerName,
			Batch:    5,
			Timeout:  200 * time.Millisecond,
			Interval: 100 * time.Millisecond,
			Workers:  2,
		}, recorder, s.logger)
	})

	// when
	_, err = s.js.Publish(s.ctx, subject, []byte("invalid payload"))
	require.NoError(s.T(), err)

	owner := uuid.New()
	notifier := NewEventNotifier(pnats.NewNatsPublisher(s.js))
	err = notifier.Notify(s.ctx, Message{
		Owner:          owner,
		Barcode:        "8801234567890",
		Name:           "Milk",
		ExpirationDate: time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC),
		RemainingDays:  2,
		Text:           "Milk expires on 2024-02-20 (in 2 days)",
	})
	require.NoError(s.T(), err)

	// then
	require.Eventually(s.T(), func() bool {
		return len(recorder.received()) == 1
	}, 5*time.Second, 100*time.Millisecond, "notification not delivered")

	got := recorder.received()[0]
	s.Equal(owner, got.Owner)
	s.Equal("8801234567890", got.Barcode)
	s.Equal("Milk expires on 2024-02-20 (in 2 days)", got.Text)
}
