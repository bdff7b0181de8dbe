package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/fridgekeeper/pkg/messaging"
)

const (
	// DefaultNotificationConsumer is the durable consumer delivering expiring-product events.
	DefaultNotificationConsumer = "fridge-notifier"
	// MaxFetchBatch bounds the number of events a worker pulls in one fetch.
	MaxFetchBatch = 256

	defaultFetchBatch    = 10
	defaultFetchTimeout  = 5 * time.Second
	defaultRetryInterval = time.Second
)

// SubscriberConfig configures the consumer of expiring-product events.
// Stream and subject default to the ones the fridge service publishes on.
type SubscriberConfig struct {
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Expiring-product subscriber ---\n")
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  subject: %s\n", c.Subject))
	b.WriteString(fmt.Sprintf("  consumer: %s\n", c.Consumer))
	b.WriteString(fmt.Sprintf("  batch: %d\n", c.Batch))
	b.WriteString(fmt.Sprintf("  fetch timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  retry interval: %s\n", c.Interval))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	return b.String()
}

// Validate fills in defaults for unset fields and rejects values the fetch loop cannot use.
func (c *SubscriberConfig) Validate() error {
	if c.Stream == "" {
		c.Stream = messaging.ProductsStream
	}
	if c.Subject == "" {
		c.Subject = messaging.ProductsExpiringSubject
	}
	if c.Consumer == "" {
		c.Consumer = DefaultNotificationConsumer
	}
	if c.Batch == 0 {
		c.Batch = defaultFetchBatch
	}
	if c.Timeout == 0 {
		c.Timeout = defaultFetchTimeout
	}
	if c.Interval == 0 {
		c.Interval = defaultRetryInterval
	}
	if c.Workers == 0 {
		c.Workers = 1
	}

	if !subjectMatches(c.Subject, messaging.ProductsExpiringSubject) {
		return fmt.Errorf("subscriber subject %q does not receive %s events", c.Subject, messaging.ProductsExpiringSubject)
	}
	if c.Batch < 0 || c.Batch > MaxFetchBatch {
		return fmt.Errorf("subscriber batch must be between 1 and %d, got %d", MaxFetchBatch, c.Batch)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("subscriber fetch timeout must be positive, got %s", c.Timeout)
	}
	if c.Interval < 0 {
		return fmt.Errorf("subscriber retry interval must be positive, got %s", c.Interval)
	}
	if c.Workers < 0 {
		return fmt.Errorf("subscriber workers must be positive, got %d", c.Workers)
	}
	return nil
}

// subjectMatches reports whether the NATS filter subject (with * and > wildcards) matches subject.
func subjectMatches(filter, subject string) bool {
	filterTokens := strings.Split(filter, ".")
	subjectTokens := strings.Split(subject, ".")
	for i, token := range filterTokens {
		if token == ">" {
			return i == len(filterTokens)-1 && i < len(subjectTokens)
		}
		if i >= len(subjectTokens) || (token != "*" && token != subjectTokens[i]) {
			return false
		}
	}
	return len(filterTokens) == len(subjectTokens)
}
