package conf

import (
	"net"
	"strconv"
	"time"
)

const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultDiscordWebhooks = "%5B%5D"
	DefaultShutdownTimeout = 5 * time.Second

	DefaultEmbedName    = "Whistle"
	DefaultEmbedURL     = "https://github.com/coinchimp/whistle"
	DefaultEmbedIconURL = "https://raw.githubusercontent.com/coinchimp/whistle/main/assets/images/whistle.png"
)

// ServerConfig holds the settings read once at startup (and again when the
// config file changes). The webhook mapping list is deliberately absent:
// it is read per request through Service.GetDiscordWebhooks.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Metrics         bool          `mapstructure:"metrics"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Embed           Embed         `mapstructure:"embed"`
}

// Embed is the static branding stamped on every outbound message.
type Embed struct {
	Name    string `mapstructure:"name" json:"name"`
	URL     string `mapstructure:"url" json:"url"`
	IconURL string `mapstructure:"icon_url" json:"icon_url"`
}

var ServerDefaults = map[string]any{
	"host":             DefaultHost,
	"port":             DefaultPort,
	"discord_webhooks": DefaultDiscordWebhooks,
	"metrics":          false,
	"shutdown_timeout": DefaultShutdownTimeout.String(),
	"embed":            "",
}

// EnvBindings maps keys to the unprefixed variables the relay has always
// been deployed with.
var EnvBindings = map[string]string{
	"port":             "PORT",
	"discord_webhooks": "DISCORD_WEBHOOKS",
}

func (c *ServerConfig) GetHTTPAddr() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) GetEmbed() Embed {
	e := c.Embed
	if e.Name == "" {
		e.Name = DefaultEmbedName
	}
	if e.URL == "" {
		e.URL = DefaultEmbedURL
	}
	if e.IconURL == "" {
		e.IconURL = DefaultEmbedIconURL
	}
	return e
}

func (c *ServerConfig) GetMetrics() bool {
	return c.Metrics
}

func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return DefaultShutdownTimeout
	}
	return c.ShutdownTimeout
}
