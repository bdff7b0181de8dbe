package config

import (
	"fmt"
	"strings"
	"time"
)

// RedisConfig configures the lookup cache.
type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
	Timeout  time.Duration `koanf:"timeout"`
}

// String returns a string representation of the RedisConfig with the password masked.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cache (Redis) ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  password: %s\n", MaskSecret(c.Password)))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("redis address is not configured")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("redis cache TTL must be greater than 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("redis timeout must be greater than 0")
	}
	return nil
}
