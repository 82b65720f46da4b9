package config

import "time"

// Config holds client configuration values. It is constructed once at process
// start and passed explicitly to every component that needs it.
type Config struct {
	// BackendURL is the base HTTP URL of the managed chat backend.
	BackendURL string `mapstructure:"backend_url" yaml:"backend_url"`
	// SubscribeURL is the WebSocket URL of the live subscription endpoint.
	// Empty means derive from BackendURL (http -> ws) plus /subscribe.
	SubscribeURL string `mapstructure:"subscribe_url" yaml:"subscribe_url"`
	// PushGatewayURL is the base URL of the push-token gateway.
	PushGatewayURL string `mapstructure:"push_gateway_url" yaml:"push_gateway_url"`
	// AnalyticsURL is the base URL of the analytics collector.
	AnalyticsURL string `mapstructure:"analytics_url" yaml:"analytics_url"`

	// RoomID scopes every query, mutation, and subscription.
	RoomID string `mapstructure:"room_id" yaml:"room_id"`

	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults. The room
// defaults to "1", the single room the original screen was pinned to.
func Default() Config {
	return Config{
		BackendURL:     "http://localhost:8080",
		PushGatewayURL: "http://localhost:8080",
		AnalyticsURL:   "http://localhost:8080",
		RoomID:         "1",
		RequestTimeout: 10 * time.Second,
		LogLevel:       "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.BackendURL != "" {
		c.BackendURL = other.BackendURL
	}
	if other.SubscribeURL != "" {
		c.SubscribeURL = other.SubscribeURL
	}
	if other.PushGatewayURL != "" {
		c.PushGatewayURL = other.PushGatewayURL
	}
	if other.AnalyticsURL != "" {
		c.AnalyticsURL = other.AnalyticsURL
	}
	if other.RoomID != "" {
		c.RoomID = other.RoomID
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
