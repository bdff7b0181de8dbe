package config

import (
	"fmt"
	"strings"
	"time"
)

const defaultFoodAPIServiceID = "C005"

// FoodAPIConfig configures the barcode lookup against the food-safety open API.
type FoodAPIConfig struct {
	BaseURL        string               `koanf:"baseurl"`
	APIKey         string               `koanf:"apikey"`
	ServiceID      string               `koanf:"serviceid"`
	Timeout        time.Duration        `koanf:"timeout"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// String returns a string representation of the FoodAPIConfig with the API key masked.
func (c *FoodAPIConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Food API ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  apikey: %s\n", MaskSecret(c.APIKey)))
	b.WriteString(fmt.Sprintf("  serviceid: %s\n", c.ServiceID))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(c.CircuitBreaker.String())
	return b.String()
}

func (c *FoodAPIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("food API base URL is not configured")
	}
	if c.APIKey == "" {
		return fmt.Errorf("food API key is not configured")
	}
	if c.ServiceID == "" {
		c.ServiceID = defaultFoodAPIServiceID
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("food API timeout must be greater than 0")
	}
	return c.CircuitBreaker.Validate()
}
