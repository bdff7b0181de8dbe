package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultRecipeModel    = "google/gemma-2-9b-it"
	defaultRecipeLanguage = "Korean"
)

// RecipeConfig configures the OpenAI-compatible text generation endpoint used for recipes.
type RecipeConfig struct {
	Enabled  bool          `koanf:"enabled"`
	BaseURL  string        `koanf:"baseurl"`
	APIKey   string        `koanf:"apikey"`
	Model    string        `koanf:"model"`
	Language string        `koanf:"language"`
	Timeout  time.Duration `koanf:"timeout"`
}

// String returns a string representation of the RecipeConfig with the API key masked.
func (c *RecipeConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Recipe ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  apikey: %s\n", MaskSecret(c.APIKey)))
	b.WriteString(fmt.Sprintf("  model: %s\n", c.Model))
	b.WriteString(fmt.Sprintf("  language: %s\n", c.Language))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *RecipeConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("recipe base URL is not configured")
	}
	if c.APIKey == "" {
		return fmt.Errorf("recipe API key is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("recipe timeout must be greater than 0")
	}
	if c.Model == "" {
		c.Model = defaultRecipeModel
	}
	if c.Language == "" {
		c.Language = defaultRecipeLanguage
	}
	return nil
}
