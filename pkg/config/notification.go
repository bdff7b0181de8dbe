package config

import (
	"fmt"
	"strings"
)

const (
	// NotificationSinkLog delivers expiring-product messages straight to the log.
	NotificationSinkLog = "log"
	// NotificationSinkNATS publishes them to JetStream and delivers them from the subscriber.
	NotificationSinkNATS = "nats"
)

// NotificationConfig configures delivery of expiring-product notifications.
type NotificationConfig struct {
	Sink       string           `koanf:"sink"`
	Subscriber SubscriberConfig `koanf:"subscriber"`
}

// String returns a string representation of the NotificationConfig.
func (c *NotificationConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Notification ---\n")
	b.WriteString(fmt.Sprintf("  sink: %s\n", c.Sink))
	if c.Sink == NotificationSinkNATS {
		b.WriteString(c.Subscriber.String())
	}
	return b.String()
}

func (c *NotificationConfig) Validate() error {
	switch c.Sink {
	case "":
		c.Sink = NotificationSinkLog
		return nil
	case NotificationSinkLog:
		return nil
	case NotificationSinkNATS:
		return c.Subscriber.Validate()
	default:
		return fmt.Errorf("unknown notification sink: %s", c.Sink)
	}
}
