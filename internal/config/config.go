package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`

	GLPI struct {
		URL                string `koanf:"url"`
		AppToken           string `koanf:"app_token"`
		DefaultRequesterID string `koanf:"default_requester_id"`
	} `koanf:"glpi"`

	Twilio struct {
		AccountSID      string `koanf:"account_sid"`
		AuthToken       string `koanf:"auth_token"`
		FromNumber      string `koanf:"from_number"`
		MenuTemplateSID string `koanf:"menu_template_sid"`
	} `koanf:"twilio"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port": 8080,
		"log.level":   "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./glpibot.toml", "$HOME/.glpibot.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix GLPIBOT_
	// GLPIBOT_GLPI_APP_TOKEN -> glpi.app_token
	k.Load(env.Provider("GLPIBOT_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "GLPIBOT_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# glpibot Configuration

[server]
port = 8080

[log]
level = "info"

[glpi]
url = "https://glpi.example.com/apirest.php"
app_token = "your-glpi-app-token"
default_requester_id = "2"

[twilio]
account_sid = "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
auth_token = "your-twilio-auth-token"
from_number = "whatsapp:+14155238886"
menu_template_sid = "HXxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.GLPI.URL == "" {
		return fmt.Errorf("glpi url is required")
	}

	if config.GLPI.AppToken == "" {
		return fmt.Errorf("glpi app_token is required")
	}

	if config.GLPI.DefaultRequesterID == "" {
		return fmt.Errorf("glpi default_requester_id is required")
	}

	if config.Twilio.AccountSID == "" {
		return fmt.Errorf("twilio account_sid is required")
	}

	if config.Twilio.AuthToken == "" {
		return fmt.Errorf("twilio auth_token is required")
	}

	if config.Twilio.FromNumber == "" {
		return fmt.Errorf("twilio from_number is required")
	}

	if config.Twilio.MenuTemplateSID == "" {
		return fmt.Errorf("twilio menu_template_sid is required")
	}

	return nil
}
