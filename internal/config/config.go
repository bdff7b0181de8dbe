// Package config holds the fridge service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/fridgekeeper/pkg/config"
	"github.com/abgdnv/fridgekeeper/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer   config.HTTPConfig         `koanf:"server"`
	GRPC         config.GrpcServerConfig   `koanf:"grpc"`
	Database     config.DatabaseConfig     `koanf:"database"`
	Log          config.LogConfig          `koanf:"log"`
	PProf        config.PProfConfig        `koanf:"pprof"`
	Shutdown     config.ShutdownConfig     `koanf:"shutdown"`
	Telemetry    config.TelemetryConfig    `koanf:"telemetry"`
	Nats         config.NATSConfig         `koanf:"nats"`
	Notification config.NotificationConfig `koanf:"notification"`
	FoodAPI      config.FoodAPIConfig      `koanf:"foodapi"`
	Cache        config.RedisConfig        `koanf:"cache"`
	Recipe       config.RecipeConfig       `koanf:"recipe"`
	Inventory    config.InventoryConfig    `koanf:"inventory"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Notification.String())
	b.WriteString(c.FoodAPI.String())
	b.WriteString(c.Cache.String())
	b.WriteString(c.Recipe.String())
	b.WriteString(c.Inventory.String())
	return b.String()
}

type validator interface {
	Validate() error
}

// Validate checks every section and fills in defaults.
func (c *Config) Validate() error {
	sections := []validator{
		&c.HTTPServer, &c.GRPC, &c.Database, &c.Log, &c.PProf, &c.Shutdown, &c.Telemetry,
		&c.Nats, &c.Notification, &c.FoodAPI, &c.Cache, &c.Recipe, &c.Inventory,
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if c.Notification.Sink == config.NotificationSinkNATS && !c.Nats.Enabled {
		return fmt.Errorf("notification sink %q requires nats.enabled", config.NotificationSinkNATS)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone that defines "today" for the household.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Inventory.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid inventory.timezone %q: %w", c.Inventory.Timezone, err)
	}
	return loc, nil
}
