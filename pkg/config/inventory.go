package config

import (
	"fmt"
	"strings"
)

const defaultExpiringDays = 7

// InventoryConfig holds the fridge inventory defaults.
type InventoryConfig struct {
	ExpiringDays int    `koanf:"expiringdays"`
	Timezone     string `koanf:"timezone"`
}

// String returns a string representation of the InventoryConfig.
func (c *InventoryConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Inventory ---\n")
	b.WriteString(fmt.Sprintf("  expiringdays: %d\n", c.ExpiringDays))
	b.WriteString(fmt.Sprintf("  timezone: %s\n", c.Timezone))
	return b.String()
}

func (c *InventoryConfig) Validate() error {
	if c.ExpiringDays < 0 {
		return fmt.Errorf("inventory.expiringdays must not be negative")
	}
	if c.ExpiringDays == 0 {
		c.ExpiringDays = defaultExpiringDays
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	return nil
}
