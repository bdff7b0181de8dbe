// Package app wires the fridge service components together.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/fridgekeeper/internal/config"
	"github.com/abgdnv/fridgekeeper/internal/foodapi"
	"github.com/abgdnv/fridgekeeper/internal/notification"
	"github.com/abgdnv/fridgekeeper/internal/recipe"
	"github.com/abgdnv/fridgekeeper/internal/service"
	"github.com/abgdnv/fridgekeeper/internal/store"
	"github.com/abgdnv/fridgekeeper/internal/transport/rest"
	pkgconfig "github.com/abgdnv/fridgekeeper/pkg/config"
	pnats "github.com/abgdnv/fridgekeeper/pkg/nats"
	"github.com/abgdnv/fridgekeeper/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// ServiceName identifies the binary in logs, traces and configuration.
const ServiceName = "fridge"

// Infrastructure holds the connections opened by main. Redis and JetStream are nil when disabled.
type Infrastructure struct {
	Store     store.ProductStore
	Redis     redis.UniversalClient
	JetStream jetstream.JetStream
}

type Dependencies struct {
	Service        service.InventoryService
	Location       *time.Location
	ExpiringDays   int
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// SetupDependencies builds the collaborators selected by cfg on top of infra.
func SetupDependencies(cfg *config.Config, infra Infrastructure, metricsHandler http.Handler, logger *slog.Logger) (*Dependencies, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var lookup foodapi.Lookuper = foodapi.NewClient(cfg.FoodAPI, logger)
	if infra.Redis != nil {
		lookup = foodapi.NewCachedLookup(lookup, infra.Redis, cfg.Cache.TTL, logger)
	}

	notifier, err := newNotifier(cfg.Notification, infra.JetStream, logger)
	if err != nil {
		return nil, err
	}

	var recommender recipe.Recommender
	if cfg.Recipe.Enabled {
		recommender = recipe.NewOpenAIRecommender(cfg.Recipe, logger)
	}

	svc, err := service.NewService(service.Dependencies{
		Store:        infra.Store,
		Lookup:       lookup,
		Notifier:     notifier,
		Recommender:  recommender,
		ExpiringDays: cfg.Inventory.ExpiringDays,
		Meter:        otel.Meter(ServiceName),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Service:        svc,
		Location:       location,
		ExpiringDays:   cfg.Inventory.ExpiringDays,
		MetricsHandler: metricsHandler,
		Logger:         logger,
	}, nil
}

// newNotifier picks the notification sink. The NATS sink publishes events that the
// subscriber delivers to a LogNotifier.
func newNotifier(cfg pkgconfig.NotificationConfig, js jetstream.JetStream, logger *slog.Logger) (notification.Notifier, error) {
	switch cfg.Sink {
	case pkgconfig.NotificationSinkNATS:
		if js == nil {
			return nil, fmt.Errorf("notification sink %q needs a JetStream connection", cfg.Sink)
		}
		return notification.NewEventNotifier(pnats.NewNatsPublisher(js)), nil
	default:
		return notification.NewLogNotifier(logger), nil
	}
}

// SetupHttpHandler initializes the router with the fridge routes and the metrics endpoint.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Service, deps.Location, deps.ExpiringDays, deps.Logger)
	handler.RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(server.HTTPConfigFrom(cfg.HTTPServer), ServiceName, SetupHttpHandler(deps))
}

// SetupGrpcServer creates the gRPC server exposing the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) (*grpc.Server, *health.Server) {
	return server.NewGRPCServer(deps.Logger, reflectionEnabled)
}
