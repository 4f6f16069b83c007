package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "glpibot.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

const validConfig = `
[server]
port = 9090

[glpi]
url = "https://glpi.example.com/apirest.php"
app_token = "token-1"
default_requester_id = "2"

[twilio]
account_sid = "AC123"
auth_token = "secret"
from_number = "whatsapp:+14155238886"
menu_template_sid = "HX999"
`

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, validConfig)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://glpi.example.com/apirest.php", cfg.GLPI.URL)
	assert.Equal(t, "token-1", cfg.GLPI.AppToken)
	assert.Equal(t, "2", cfg.GLPI.DefaultRequesterID)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
	assert.Equal(t, "info", cfg.Log.Level, "defaults apply for keys the file omits")
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, validConfig)
	t.Setenv("GLPIBOT_GLPI_APP_TOKEN", "env-token")
	t.Setenv("GLPIBOT_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.GLPI.AppToken)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidateRejectsMissingFields(t *testing.T) {
	path := writeConfigFile(t, validConfig)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"glpi url", func(c *Config) { c.GLPI.URL = "" }},
		{"glpi app_token", func(c *Config) { c.GLPI.AppToken = "" }},
		{"default requester", func(c *Config) { c.GLPI.DefaultRequesterID = "" }},
		{"twilio sid", func(c *Config) { c.Twilio.AccountSID = "" }},
		{"twilio token", func(c *Config) { c.Twilio.AuthToken = "" }},
		{"twilio from", func(c *Config) { c.Twilio.FromNumber = "" }},
		{"menu template", func(c *Config) { c.Twilio.MenuTemplateSID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := *cfg
			tt.mutate(&broken)
			assert.Error(t, Validate(&broken))
		})
	}
}

func TestInitConfigRefusesToOverwrite(t *testing.T) {
	path := writeConfigFile(t, validConfig)

	err := InitConfig(path)

	assert.Error(t, err)
}

func TestInitConfigWritesLoadableSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glpibot.toml")

	require.NoError(t, InitConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))
}
